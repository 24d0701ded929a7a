package cmdbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(b *Buf, s string) bool {
	completed := false
	for i := 0; i < len(s); i++ {
		if b.ReceiveByte(s[i]) {
			completed = true
		}
	}
	return completed
}

func TestFramingCompletesOnNewline(t *testing.T) {
	b := New(KindFona, nil)
	require.False(t, feed(b, "AT+CPIN?"))
	require.True(t, feed(b, "\n"))
	assert.True(t, b.Complete())
	assert.Equal(t, "AT+CPIN?", b.Line())
}

func TestFramingIgnoresNonPrintableExceptNewline(t *testing.T) {
	b := New(KindFona, nil)
	require.False(t, feed(b, "OK"))
	require.False(t, feed(b, "\x00\x01\x7f"))
	require.True(t, feed(b, "\n"))
	assert.Equal(t, "OK", b.Line())
}

func TestFramingNoCompletionOnEmptyLine(t *testing.T) {
	b := New(KindFona, nil)
	assert.False(t, feed(b, "\n"))
	assert.False(t, b.Complete())
}

func TestFramingOverflowForcesCompletion(t *testing.T) {
	b := New(KindFona, nil)
	long := make([]byte, MaxLine+10)
	for i := range long {
		long[i] = 'a'
	}
	completed := feed(b, string(long))
	assert.True(t, completed)
	assert.True(t, b.Complete())
	assert.Equal(t, MaxLine, b.length)
}

func TestBusyBufferParksBytesUntilReset(t *testing.T) {
	b := New(KindFona, nil)
	require.True(t, feed(b, "first\n"))
	assert.Equal(t, "first", b.Line())

	// Bytes arriving while complete=true are parked, not appended.
	require.False(t, feed(b, "second"))
	require.False(t, feed(b, "\n"))
	assert.Equal(t, "first", b.Line(), "primary buffer unchanged while complete")

	// Reset drains the busy buffer through the same ingestion path; "second"
	// arrives in order and produces its own completion.
	completedDuringReset := b.Reset()
	assert.True(t, completedDuringReset)
	assert.Equal(t, "second", b.Line())
}

func TestBusyBufferDrainWithoutCompletion(t *testing.T) {
	b := New(KindFona, nil)
	require.True(t, feed(b, "first\n"))
	require.False(t, feed(b, "partial"))

	completedDuringReset := b.Reset()
	assert.False(t, completedDuringReset)
	assert.Equal(t, "partial", b.Line())
	assert.False(t, b.Complete())
}

func TestThisArgIsWordMatch(t *testing.T) {
	cases := []struct {
		line    string
		pattern string
		want    bool
	}{
		{"OK", "ok", true},
		{"Ok", "ok", true},
		{"ok,", "ok", true},
		{"okay", "ok", false},
		{"okay", "ok*", true},
	}
	for _, tc := range cases {
		b := New(KindFona, nil)
		feed(b, tc.line+"\n")
		assert.Equal(t, tc.want, b.ThisArgIs(tc.pattern), "line=%q pattern=%q", tc.line, tc.pattern)
	}
}

func TestThisArgIsTokenMode(t *testing.T) {
	b := New(KindFona, nil)
	feed(b, "+CIPOPEN: 0,\"UDP\"\n")
	require.True(t, b.ThisArgIs("+cipopen:"))
	b.NextArg()
	require.True(t, b.ThisArgIs("*"))
	tok := b.NextArg()
	assert.Equal(t, "0", tok)
}

func TestThisArgIsTokenModeWithSeparators(t *testing.T) {
	b := New(KindFona, nil)
	feed(b, "+ICCID: 89012607000012345678\n")
	require.True(t, b.ThisArgIs("+iccid:"))
	b.NextArg()
	require.True(t, b.ThisArgIs("*"))
	assert.Equal(t, "89012607000012345678", b.NextArg())
}

func TestSetStateFiresOnStateChangeOnlyOnTransition(t *testing.T) {
	var transitions int
	b := New(KindFona, func(old, new uint16) { transitions++ })
	b.SetState(5)
	assert.Equal(t, 1, transitions)
	b.SetState(5)
	assert.Equal(t, 1, transitions, "no callback when state doesn't change")
	b.SetState(6)
	assert.Equal(t, 2, transitions)
}

func TestSetStateClearsRecognizedAndResetsLine(t *testing.T) {
	b := New(KindFona, nil)
	feed(b, "garbage\n")
	b.Recognize(0x1)
	b.SetState(9)
	assert.Equal(t, uint32(0), b.recognized)
	assert.Equal(t, "", b.Line())
	assert.False(t, b.Complete())
}

func TestAllSeen(t *testing.T) {
	b := New(KindFona, nil)
	b.Recognize(0x1)
	assert.False(t, b.AllSeen(0x3))
	b.Recognize(0x2)
	assert.True(t, b.AllSeen(0x3))
}
