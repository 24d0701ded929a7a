package transport

// ReplyType tells a send pipeline whether to expect a reply.
type ReplyType int

const (
	// ReplyNone is fire-and-forget (UDP).
	ReplyNone ReplyType = iota
	// ReplyExpected means the pipeline should wait for and decode a
	// reply body (HTTP POST /send).
	ReplyExpected
)

const maxDeferredPayload = 512

// DeferredIO describes a pending outbound payload that has been
// accepted by Send but not yet flushed to the wire: the transport has
// issued the command that will eventually produce a `>` prompt, and is
// waiting for that prompt before it streams Payload.
type DeferredIO struct {
	Pending     bool
	Payload     [maxDeferredPayload]byte
	Length      int
	ReplyType   ReplyType
	DoneAfterCB bool
}

// Capacity is the largest payload a deferred send can carry.
func Capacity() int { return maxDeferredPayload }

// Stage copies payload into the descriptor and marks it pending. It
// returns false if payload exceeds capacity or a request is already in
// flight.
func (d *DeferredIO) Stage(payload []byte, rt ReplyType) bool {
	if d.Pending || len(payload) > maxDeferredPayload {
		return false
	}
	d.Length = copy(d.Payload[:], payload)
	d.ReplyType = rt
	d.Pending = true
	d.DoneAfterCB = false
	return true
}

// Bytes returns the staged payload.
func (d *DeferredIO) Bytes() []byte {
	return d.Payload[:d.Length]
}

// Clear releases the descriptor for reuse.
func (d *DeferredIO) Clear() {
	d.Pending = false
	d.Length = 0
	d.DoneAfterCB = false
}
