package fona

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/chegejames/ttnode-supervisor/pkg/telecast"
	"github.com/chegejames/ttnode-supervisor/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedLine(f *Fona, line string) {
	ctx := context.Background()
	for i := 0; i < len(line); i++ {
		f.ReceiveByte(ctx, line[i])
	}
	f.ReceiveByte(ctx, '\n')
}

func lastCommand(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	return lines[len(lines)-1]
}

func TestInitSendsFirstCommand(t *testing.T) {
	var out bytes.Buffer
	f := New(Config{SkipGPSWait: true}, &out, nil, nil, nil)
	require.NoError(t, f.Init(context.Background()))
	assert.Equal(t, "AT+CGFUNC=11,0", lastCommand(&out))
}

func TestBringUpReachesInitCompleted(t *testing.T) {
	var out bytes.Buffer
	completed := false
	f := New(Config{SkipGPSWait: true}, &out, func() { completed = true }, nil, nil)
	require.NoError(t, f.Init(context.Background()))

	feedLine(f, "OK") // CGFUNC ok -> CRESET
	assert.Equal(t, "AT+CRESET", lastCommand(&out))

	feedLine(f, "START")
	feedLine(f, "+CPIN: READY")
	feedLine(f, "PB DONE")
	assert.Equal(t, "ATE0", lastCommand(&out))

	feedLine(f, "OK") // echo off -> SIM check (SkipGPSWait)
	assert.Equal(t, "AT+CPIN?", lastCommand(&out))

	feedLine(f, "+CPIN: READY")
	assert.Equal(t, "AT+CPSI=5", lastCommand(&out))

	feedLine(f, "+CPSI: GSM,Online,310-260,...")
	assert.Equal(t, "AT+CICCID", lastCommand(&out))

	feedLine(f, "+ICCID: 890126012345678901")
	feedLine(f, "OK")
	assert.Contains(t, lastCommand(&out), "wireless.twilio.com")

	feedLine(f, "OK") // CGSOCKCONT
	assert.Equal(t, "AT+CSOCKSETPN=1", lastCommand(&out))
	feedLine(f, "OK") // CSOCKSETPN
	assert.Equal(t, "AT+CIPMODE=0", lastCommand(&out))
	feedLine(f, "OK") // CIPMODE
	assert.Equal(t, "AT+NETOPEN", lastCommand(&out))
	feedLine(f, "+NETOPEN: 0")
	assert.Contains(t, lastCommand(&out), "AT+CDNSGIP")
	feedLine(f, "+CDNSGIP: 1,\"1.2.3.4\"")
	assert.Contains(t, lastCommand(&out), "AT+CIPOPEN")
	feedLine(f, "OK")
	assert.Equal(t, "AT+CHTTPSSTART", lastCommand(&out))
	feedLine(f, "OK")

	assert.True(t, completed)
	assert.True(t, f.CanSend())
}

func TestSpontaneousResetRestartsLadder(t *testing.T) {
	var out bytes.Buffer
	f := New(Config{SkipGPSWait: true}, &out, nil, nil, nil)
	require.NoError(t, f.Init(context.Background()))
	f.initDone = true
	f.cmd.SetState(uint16(transport.Idle))

	feedLine(f, "START")
	assert.Equal(t, "AT+CGFUNC=11,0", lastCommand(&out))
}

func TestCMEErrorSimFailureSetsNoNetwork(t *testing.T) {
	var out bytes.Buffer
	f := New(Config{}, &out, nil, nil, nil)
	require.NoError(t, f.Init(context.Background()))
	feedLine(f, "+CME ERROR: SIM failure")
	assert.True(t, f.noNetwork)
}

func TestSendUDPStreamsPayloadOnPrompt(t *testing.T) {
	var out bytes.Buffer
	f := New(Config{ServiceIPv4: "1.2.3.4", SkipGPSWait: true}, &out, nil, nil, nil)
	f.initDone = true
	f.cmd.SetState(uint16(transport.Idle))

	ok := f.Send([]byte("hello"), transport.ReplyNone)
	require.True(t, ok)
	assert.Contains(t, lastCommand(&out), "AT+CIPSEND=0,5")

	out.Reset()
	feedLine(f, ">")
	assert.Equal(t, "hello", out.String())

	feedLine(f, "OK")
	assert.False(t, f.deferred.Pending)
	assert.Equal(t, uint16(transport.Complete), f.cmd.State())
}

func TestSendHTTPDecodesReply(t *testing.T) {
	var out bytes.Buffer
	var got telecast.Message
	f := New(Config{ServiceIPv4: "1.2.3.4", SkipGPSWait: true}, &out, nil, func(m telecast.Message) { got = m }, nil)
	f.initDone = true
	f.cmd.SetState(uint16(transport.Idle))

	require.True(t, f.Send([]byte("req"), transport.ReplyExpected))
	feedLine(f, "OK") // CHTTPSOPSE reply
	out.Reset()
	feedLine(f, ">") // CHTTPSSEND=<n> prompt
	assert.NotEmpty(t, out.String())
	feedLine(f, "OK") // CHTTPSSEND=<n> reply
	feedLine(f, "OK") // CHTTPSSEND reply
	feedLine(f, "+CHTTPS: RECV EVENT")

	reply := telecast.Encode(telecast.Message{HasDeviceID: true, DeviceID: 1, Message: "pong"})
	feedLine(f, hexEncode(reply))
	feedLine(f, "OK") // CHTTPSRECV reply
	feedLine(f, "OK") // CHTTPSCLSE reply

	assert.Equal(t, "pong", got.Message)
	assert.Equal(t, uint16(transport.Complete), f.cmd.State())
}

// TestDFUDoneInvokesCompletionCallback checks the fetch/copy/done
// ladder clears the active flag and hands off to the supervisor's
// callback instead of being a dead end.
func TestDFUDoneInvokesCompletionCallback(t *testing.T) {
	var out bytes.Buffer
	completed := false
	f := New(Config{DFU: DFUConfig{Pending: true, Filename: "dfu.zip"}}, &out, nil, nil, func() { completed = true })
	require.True(t, f.dfu.active)

	f.processState(stateDFUBegin)
	feedLine(f, "OK") // AT+CFTPGETFILE reply
	feedLine(f, "OK") // AT+FSCOPY reply

	assert.True(t, completed)
	assert.False(t, f.dfu.active)
	assert.Equal(t, uint16(transport.Complete), f.cmd.State())
}

// TestGPSInfoWithNetworkNotDesiredGoesIdleWithoutCarrierSearch checks that
// once a GPS fix is acquired, Fona declares itself out of the network
// business rather than hunting for a carrier, leaving the WAN handoff
// to the Comm Supervisor.
func TestGPSInfoWithNetworkNotDesiredGoesIdleWithoutCarrierSearch(t *testing.T) {
	var out bytes.Buffer
	completedInit := false
	f := New(Config{NetworkDesired: false}, &out, func() { completedInit = true }, nil, nil)
	f.processState(stateGPSInfo)

	feedLine(f, "+CGPSINFO: 3112.123456,N,12130.123456,E,250520,120000.0,0.0,0.0,")

	assert.True(t, f.noNetwork)
	assert.True(t, completedInit)
	assert.Equal(t, uint16(transport.Idle), f.cmd.State())
}
