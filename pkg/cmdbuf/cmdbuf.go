package cmdbuf

import "strings"

// MaxLine is the largest line cmdbuf will accumulate before forcing
// completion, mirroring the firmware's CMD_MAX_LINELENGTH.
const MaxLine = 128

// busyCapacity bounds the circular park buffer. The firmware's own comment
// notes the worst observed depth is about one full line per stream, so we
// size it the same as the primary buffer.
const busyCapacity = MaxLine

// Kind tags which byte stream a Buf belongs to.
type Kind uint8

const (
	KindLoRa Kind = iota
	KindFona
	KindFonaDeferred
	KindBGeigie
	KindPhone
)

func (k Kind) String() string {
	switch k {
	case KindLoRa:
		return "lora"
	case KindFona:
		return "fona"
	case KindFonaDeferred:
		return "fona-deferred"
	case KindBGeigie:
		return "bgeigie"
	case KindPhone:
		return "phone"
	default:
		return "unknown"
	}
}

// Buf is a single line accumulator and parser. It is not safe for
// concurrent use; the supervisor's single-threaded event loop is the only
// caller.
type Buf struct {
	kind Kind

	state      uint16
	recognized uint32

	buffer  [MaxLine]byte
	length  int
	args    int
	nextarg int
	complete bool

	busy     [busyCapacity]byte
	busyLen  int
	busyPut  int
	busyGet  int

	// onStateChange fires whenever SetState observes an actual state
	// transition, before the buffer is reset for the new state. The
	// owning transport wires this to its watchdog.
	onStateChange func(old, new uint16)
}

// New creates a Buf for the given stream kind. onStateChange may be nil.
func New(kind Kind, onStateChange func(old, new uint16)) *Buf {
	b := &Buf{kind: kind, onStateChange: onStateChange}
	b.Reset()
	return b
}

// Kind reports which stream this buffer belongs to.
func (b *Buf) Kind() Kind { return b.kind }

// State returns the current (opaque to cmdbuf) FSM state tag.
func (b *Buf) State() uint16 { return b.state }

// Complete reports whether a full line is ready for parsing.
func (b *Buf) Complete() bool { return b.complete }

// Line returns the accumulated printable-ASCII line, without the
// terminating newline.
func (b *Buf) Line() string { return string(b.buffer[:b.length]) }

// Recognize ORs mask into the reply-class bitmap observed for the current
// state. Handlers call this as they identify fragments of a multi-line
// reply.
func (b *Buf) Recognize(mask uint32) { b.recognized |= mask }

// AllSeen reports whether every bit in mask has been recognized.
func (b *Buf) AllSeen(mask uint32) bool {
	return b.recognized&mask == mask
}

// SetState transitions to newState. If it differs from the current state,
// onStateChange fires (coupling cmdbuf's observability to the transport
// watchdog, per spec §4.1), the buffer is reset, and the recognized bitmap
// is cleared for the new state's multi-reply tracking.
func (b *Buf) SetState(newState uint16) {
	if b.state != newState && b.onStateChange != nil {
		b.onStateChange(b.state, newState)
	}
	b.Reset()
	b.state = newState
	b.recognized = 0
}

// Reset clears the primary line buffer, then drains the busy buffer
// byte-by-byte through the same ingestion path used for live bytes. It
// stops draining as soon as another line completes (mirroring the
// firmware's comm_cmdbuf_reset, which breaks out of its drain loop on the
// first new completion) and reports whether that happened, so the caller
// can re-enqueue a completion event for the newly drained line.
func (b *Buf) Reset() bool {
	b.length = 0
	b.buffer[0] = 0
	b.args = 0
	b.nextarg = 0
	b.complete = false

	for b.busyLen > 0 {
		b.busyLen--
		databyte := b.busy[b.busyGet]
		b.busyGet++
		if b.busyGet >= busyCapacity {
			b.busyGet = 0
		}
		if b.ReceiveByte(databyte) {
			return true
		}
	}
	return false
}

// ReceiveByte feeds one byte from the stream into the buffer. It returns
// true exactly when this byte completes a line (either a trailing '\n' on
// a non-empty buffer, or an overflow at MaxLine) — the caller is expected
// to enqueue a completion event for the owning transport in that case.
//
// Bytes arriving while a previous line is still Complete (awaiting
// consumption via Reset) are parked in the circular busy buffer instead of
// being appended; a full busy buffer silently drops the byte.
func (b *Buf) ReceiveByte(databyte byte) bool {
	if b.complete {
		if b.busyLen < busyCapacity {
			b.busy[b.busyPut] = databyte
			b.busyPut++
			if b.busyPut >= busyCapacity {
				b.busyPut = 0
			}
			b.busyLen++
		}
		return false
	}

	if databyte == '\n' {
		if b.length != 0 {
			b.complete = true
			return true
		}
		return false
	}

	if databyte >= 0x20 && databyte < 0x7f {
		b.buffer[b.length] = databyte
		b.length++
		if b.length < MaxLine {
			b.buffer[b.length] = 0
		}
		if b.length >= MaxLine {
			b.complete = true
			return true
		}
	}

	return false
}

// isArgSeparator reports whether databyte separates arguments. Plain space
// is a separator unless the matched pattern contains an embedded space (in
// which case the pattern is itself a phrase); ',' and ';' always separate;
// any non-printable byte is treated as trash and separates.
func isArgSeparator(databyte byte, embeddedSpaces bool) bool {
	if !embeddedSpaces && databyte == ' ' {
		return true
	}
	if databyte == ',' || databyte == ';' {
		return true
	}
	if databyte < 0x20 || databyte >= 0x7f {
		return true
	}
	return false
}

// ThisArgIs tests the current unparsed portion of the line against a
// lowercase pattern, per the three forms documented in spec §4.1:
//
//	"foo"   word match: foo followed by a separator or end of buffer
//	"foo*"  prefix match: foo with no trailing-separator requirement
//	"*"     token mode: consume the next token up to a separator
//
// On any match (or the token-mode case, which always "matches"), nextarg
// is advanced past the token and any contiguous separators that follow.
func (b *Buf) ThisArgIs(testCmd string) bool {
	embeddedSpaces := strings.Contains(testCmd, " ")

	testLen := len(testCmd)
	testForWord := true
	tokenMode := false
	if testLen > 0 && testCmd[testLen-1] == '*' {
		testLen--
		if testLen != 0 {
			testForWord = false
		} else {
			tokenMode = true
		}
	}

	b.nextarg = b.args

	if !tokenMode {
		if testLen > b.length-b.args {
			return false
		}
		for i := 0; i < testLen; i++ {
			testChar := b.buffer[b.args+i]
			if testChar >= 'A' && testChar <= 'Z' {
				testChar += 'a' - 'A'
			}
			if testCmd[i] != testChar {
				return false
			}
		}
		b.nextarg += testLen
		if testLen == b.length-b.args {
			return true
		}
	}

	if tokenMode {
		for b.nextarg < b.length && !isArgSeparator(b.buffer[b.nextarg], embeddedSpaces) {
			b.nextarg++
		}
	}

	if testForWord && b.nextarg < b.length {
		if !isArgSeparator(b.buffer[b.nextarg], embeddedSpaces) {
			return false
		}
		i := b.nextarg
		for ; i < b.length; i++ {
			if !isArgSeparator(b.buffer[i], embeddedSpaces) {
				break
			}
			if tokenMode {
				b.buffer[i] = 0
			}
		}
		b.nextarg = i
	}

	return true
}

// NextArg returns the current argument — the remainder of the line from
// the start of the current argument, truncated at the first embedded NUL
// left behind by a token-mode ThisArgIs match — and advances args to
// nextarg, exactly as the firmware's comm_cmdbuf_next_arg does by
// returning a raw C-string pointer into the buffer.
func (b *Buf) NextArg() string {
	thisArg := b.buffer[b.args:b.length]
	if i := indexByte(thisArg, 0); i >= 0 {
		thisArg = thisArg[:i]
	}
	b.args = b.nextarg
	return string(thisArg)
}

func indexByte(buf []byte, c byte) int {
	for i, v := range buf {
		if v == c {
			return i
		}
	}
	return -1
}
