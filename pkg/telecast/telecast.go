package telecast

import (
	"encoding/hex"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// DeviceType mirrors the teletype.Telecast.deviceType enum. Only the
// values the core branches on are named; anything else decodes to
// DeviceTypeUnknown and is treated like a generic Telecast message.
type DeviceType int32

const (
	DeviceTypeUnknown     DeviceType = 0
	DeviceTypeSolarcast   DeviceType = 1
	DeviceTypeBGeigieNano DeviceType = 2
	DeviceTypeTTGate      DeviceType = 3
	DeviceTypeTTServe     DeviceType = 4
	DeviceTypeTTApp       DeviceType = 5
)

// Field numbers for the subset of teletype.Telecast this core reads and
// writes. The full schema is owned by the send subsystem; this module
// only needs enough of the wire format to classify inbound replies.
const (
	fieldDeviceID   = 1
	fieldDeviceType = 2
	fieldMessage    = 3
)

// Message is the subset of a decoded Telecast the core inspects.
type Message struct {
	DeviceID    uint32
	HasDeviceID bool
	DeviceType  DeviceType
	Message     string
}

// Classification is the result of comm_decode_received_message: what the
// caller should do with a freshly decoded message.
type Classification int

const (
	NotDecoded Classification = iota
	Safecast
	ReplyTTGate
	ReplyTTServe
	TelecastMessage
)

// Decode parses a raw protobuf-encoded Telecast payload.
func Decode(raw []byte) (Message, error) {
	var m Message
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			return m, protowire.ParseError(n)
		}
		raw = raw[n:]

		switch num {
		case fieldDeviceID:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			raw = raw[n:]
			m.DeviceID = uint32(v)
			m.HasDeviceID = true
			continue
		case fieldDeviceType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			raw = raw[n:]
			m.DeviceType = DeviceType(int32(v))
			continue
		case fieldMessage:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			raw = raw[n:]
			m.Message = string(v)
			continue
		}

		// Unknown field: skip it using its wire type so unrelated fields
		// in the real schema don't break decoding.
		n = protowire.ConsumeFieldValue(num, typ, raw)
		if n < 0 {
			return m, protowire.ParseError(n)
		}
		raw = raw[n:]
	}
	return m, nil
}

// Encode serializes the fields this core is responsible for producing
// (used by tests and by loopback/self-test paths; the real send
// subsystem builds richer messages with fields this package never
// models).
func Encode(m Message) []byte {
	var b []byte
	if m.HasDeviceID {
		b = protowire.AppendTag(b, fieldDeviceID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.DeviceID))
	}
	if m.DeviceType != DeviceTypeUnknown {
		b = protowire.AppendTag(b, fieldDeviceType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int32(m.DeviceType)))
	}
	if m.Message != "" {
		b = protowire.AppendTag(b, fieldMessage, protowire.BytesType)
		b = protowire.AppendBytes(b, []byte(m.Message))
	}
	return b
}

// DecodeHex decodes a hex-ASCII-encoded Telecast body, the wire form
// used on both the UDP/HTTP upstream path and the LoRa downlink (spec
// §6). Leading whitespace and control characters are tolerated; decoding
// stops at the first non-hex-digit pair, mirroring the firmware's
// tolerant HexValue loop.
func DecodeHex(s string) (Message, error) {
	i := 0
	for i < len(s) && s[i] <= ' ' {
		i++
	}
	s = s[i:]

	end := 0
	for end+1 < len(s) && isHexDigit(s[end]) && isHexDigit(s[end+1]) {
		end += 2
	}

	raw, err := hex.DecodeString(s[:end])
	if err != nil {
		return Message{}, fmt.Errorf("telecast: decode hex: %w", err)
	}
	return Decode(raw)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Classify implements comm_decode_received_message's dispatch: given a
// decoded message, our own device address, whether we're in LoRa mode,
// and our configured listen tags, decide what the caller should do with
// it.
func Classify(m Message, ourDeviceID uint32, loraMode bool, listenTags string) Classification {
	switch m.DeviceType {
	case DeviceTypeSolarcast, DeviceTypeBGeigieNano:
		return Safecast
	case DeviceTypeTTGate:
		if m.HasDeviceID && m.DeviceID == ourDeviceID {
			return ReplyTTGate
		}
		return TelecastMessage
	case DeviceTypeTTServe:
		if m.HasDeviceID && m.DeviceID == ourDeviceID {
			return ReplyTTServe
		}
		return TelecastMessage
	case DeviceTypeTTApp:
		if !loraMode {
			listenTags = ""
		}
		if listenTags == "" {
			return TelecastMessage
		}
		if MatchesListenTags(m.Message, listenTags) {
			return TelecastMessage
		}
		return NotDecoded
	default:
		return TelecastMessage
	}
}

// MatchesListenTags reports whether any "#"-prefixed tag in tags also
// appears as a "#"-prefixed tag in text, case-insensitively. Tags and
// message words are whitespace-separated.
func MatchesListenTags(text, tags string) bool {
	for _, ktag := range hashTags(tags) {
		for _, mtag := range hashTags(text) {
			if ktag == mtag {
				return true
			}
		}
	}
	return false
}

func hashTags(s string) []string {
	var out []string
	for _, word := range strings.Fields(s) {
		if strings.HasPrefix(word, "#") {
			out = append(out, strings.ToUpper(word))
		}
	}
	return out
}
