package fona

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chegejames/ttnode-supervisor/pkg/backoff"
	"github.com/chegejames/ttnode-supervisor/pkg/cmdbuf"
	"github.com/chegejames/ttnode-supervisor/pkg/telecast"
	"github.com/chegejames/ttnode-supervisor/pkg/transport"
	"github.com/chegejames/ttnode-supervisor/pkg/watchdog"
)

// MessageHandler receives a decoded Telecast reply body, as produced by
// the HTTP send pipeline's CHTTPSRECV/CHTTPSCLSE sequence.
type MessageHandler func(msg telecast.Message)

// Fona drives a single cellular modem through the bring-up ladder, the
// send pipeline, and the DFU subflow described in spec §4.3. It
// implements transport.Transport.
type Fona struct {
	cfg    Config
	writer io.Writer
	now    func() time.Time

	cmd *cmdbuf.Buf
	wd  *watchdog.Timer

	gps      transport.GPS
	deferred transport.DeferredIO

	apn       string
	iccid     string
	noNetwork bool
	fonaLock  bool
	initDone  bool

	carrierRetry *backoff.Backoff
	nextRetryAt  time.Time

	dfu dfuState

	onInitComplete func()
	onMessage      MessageHandler
	onDFUComplete  func()

	// recvBuf holds the outbound HTTP POST framing while it streams out
	// on the `>` prompt; recvRespBuf accumulates the inbound CHTTPSRECV
	// hex body. Kept separate so the response decode never sees the
	// leftover request framing.
	recvBuf     strings.Builder
	recvRespBuf strings.Builder
}

type dfuState struct {
	active bool
}

// New creates a Fona transport that writes AT commands to w.
func New(cfg Config, w io.Writer, onInitComplete func(), onMessage MessageHandler, onDFUComplete func()) *Fona {
	if cfg.CarrierSearchInitial == 0 {
		d := defaultConfig()
		cfg.Watchdog = orDefault(cfg.Watchdog, d.Watchdog)
		cfg.WatchdogExtended = orDefault(cfg.WatchdogExtended, d.WatchdogExtended)
		cfg.CarrierSearchInitial = d.CarrierSearchInitial
		cfg.CarrierSearchMax = d.CarrierSearchMax
		if cfg.ServiceUDPPort == 0 {
			cfg.ServiceUDPPort = d.ServiceUDPPort
		}
		if cfg.ServiceHTTPPort == 0 {
			cfg.ServiceHTTPPort = d.ServiceHTTPPort
		}
	}

	f := &Fona{
		cfg:            cfg,
		writer:         w,
		now:            time.Now,
		wd:             watchdog.New(cfg.Watchdog, cfg.WatchdogExtended),
		apn:            cfg.DefaultAPN,
		carrierRetry:   backoff.New(cfg.CarrierSearchInitial, cfg.CarrierSearchMax, 1.6, 0.2),
		onInitComplete: onInitComplete,
		onMessage:      onMessage,
		onDFUComplete:  onDFUComplete,
	}
	f.cmd = cmdbuf.New(cmdbuf.KindFona, func(old, new uint16) {
		if new == uint16(transport.Idle) {
			f.wd.Stop()
		} else {
			f.wd.Reset()
		}
	})
	if cfg.DFU.Pending {
		f.dfu.active = true
	}
	return f
}

func orDefault(v, d time.Duration) time.Duration {
	if v == 0 {
		return d
	}
	return v
}

// ReceiveByte feeds a byte from the modem UART into the CmdBuf and
// drives Process whenever a line completes.
func (f *Fona) ReceiveByte(ctx context.Context, b byte) {
	if f.cmd.ReceiveByte(b) {
		f.Process(ctx)
	}
}

func (f *Fona) send(format string, args ...any) {
	fmt.Fprintf(f.writer, format+"\r\n", args...)
}

// Init starts the bring-up ladder from scratch.
func (f *Fona) Init(ctx context.Context) error {
	f.initDone = false
	f.noNetwork = false
	f.cmd.SetState(uint16(stateDisableFlowControl))
	f.wd.Reset()
	f.send("AT+CGFUNC=11,0")
	return nil
}

// Reset performs a full transport reset.
func (f *Fona) Reset(ctx context.Context) {
	f.deferred.Clear()
	_ = f.Init(ctx)
}

// CanSend reports whether the transport can accept a new Send.
func (f *Fona) CanSend() bool {
	return f.initDone && f.cmd.State() == uint16(transport.Idle) && !f.deferred.Pending
}

// IsBusy reports whether the FSM is mid-operation.
func (f *Fona) IsBusy() bool {
	s := transport.State(f.cmd.State())
	return s != transport.Idle && s != transport.Complete
}

// WatchdogReset is invoked by the Comm Supervisor once NeededToBeReset
// reports that the owned watchdog has expired.
func (f *Fona) WatchdogReset(ctx context.Context) {
	f.Reset(ctx)
}

// NeededToBeReset reports whether the watchdog has expired.
func (f *Fona) NeededToBeReset() bool {
	return f.wd.Expired()
}

// GPS returns the cached GPS fix.
func (f *Fona) GPS() *transport.GPS {
	return &f.gps
}

// Shutdown powers the transport down.
func (f *Fona) Shutdown(ctx context.Context) {
	f.cmd.SetState(uint16(transport.Idle))
	f.wd.Stop()
	f.deferred.Clear()
	f.initDone = false
}

// Send stages a payload for delivery; rt selects UDP fire-and-forget
// (ReplyNone) or the HTTP request/reply pipeline (ReplyExpected).
func (f *Fona) Send(payload []byte, rt transport.ReplyType) bool {
	if !f.CanSend() {
		return false
	}
	if !f.deferred.Stage(payload, rt) {
		return false
	}
	if rt == transport.ReplyNone {
		f.cmd.SetState(uint16(stateSendUDPPrompt))
		f.send(`AT+CIPSEND=0,%d,"%s",%d`, len(payload), f.cfg.ServiceIPv4, f.cfg.ServiceUDPPort)
	} else {
		f.cmd.SetState(uint16(stateSendHTTPOpenReply))
		f.send(`AT+CHTTPSOPSE="%s",%d,1`, f.cfg.ServiceIPv4, f.cfg.ServiceHTTPPort)
	}
	return true
}

// Process advances the FSM by one step in response to the most recently
// completed line.
func (f *Fona) Process(ctx context.Context) {
	if f.commonReply(ctx) {
		f.cmd.Reset()
		return
	}

	switch transport.State(f.cmd.State()) {
	case stateDisableFlowControl:
		if f.cmd.ThisArgIs("ok") {
			f.processState(stateResetWaitStart)
			f.send("AT+CRESET")
		}
	case stateResetWaitStart:
		f.cmd.Recognize(recognizeIf(f.cmd.ThisArgIs("start"), 1))
		if f.cmd.ThisArgIs("+cpin:") {
			f.cmd.NextArg()
			f.cmd.Recognize(recognizeIf(f.cmd.ThisArgIs("ready"), 2))
		}
		f.cmd.Recognize(recognizeIf(f.cmd.ThisArgIs("pb"), 4))
		if f.cmd.AllSeen(1 | 2 | 4) {
			f.processState(stateResetSettle)
		}
	case stateResetSettle:
		f.processState(stateEchoOff)
		f.send("ATE0")
	case stateEchoOff:
		if f.cmd.ThisArgIs("ok") {
			if f.cfg.SkipGPSWait {
				f.processState(stateSIMCheck)
				f.send("AT+CPIN?")
			} else {
				f.processState(stateGPSStart)
				f.send("AT+CGPS=1")
			}
		}
	case stateGPSStart:
		if f.cmd.ThisArgIs("ok") {
			f.processState(stateGPSInfo)
			f.send("AT+CGPSINFO=10")
		}
	case stateGPSInfo:
		if f.cmd.ThisArgIs("+cgpsinfo:*") {
			f.parseGPSInfo()
			if f.gps.Full() || f.cfg.SkipGPSWait {
				if !f.cfg.NetworkDesired {
					f.noNetwork = true
					f.processState(stateInitCompleted)
					return
				}
				f.processState(stateSIMCheck)
				f.send("AT+CPIN?")
			}
		}
	case stateSIMCheck:
		if f.cmd.ThisArgIs("+cpin:") {
			f.processState(stateCarrierSearch)
			f.send("AT+CPSI=5")
		}
	case stateCarrierSearch:
		if f.cmd.ThisArgIs("+cpsi:") {
			f.cmd.NextArg()
			if strings.Contains(strings.ToLower(f.cmd.Line()), "online") {
				f.carrierRetry.Reset()
				f.nextRetryAt = time.Time{}
				f.processState(stateICCID)
				f.send("AT+CICCID")
			} else if f.nextRetryAt.IsZero() {
				f.nextRetryAt = f.now().Add(f.carrierRetry.Next())
			} else if !f.now().Before(f.nextRetryAt) {
				f.nextRetryAt = f.now().Add(f.carrierRetry.Next())
				f.send("AT+CPSI=5")
			}
		}
	case stateICCID:
		// Resolved in commonReply via +ICCID; advance once OK follows.
		if f.cmd.ThisArgIs("ok") {
			f.processState(stateDataStackCGSOCKCONT)
			f.send(`AT+CGSOCKCONT=1,"IP","%s"`, f.apn)
		}
	case stateDataStackCGSOCKCONT:
		if f.cmd.ThisArgIs("ok") {
			f.processState(stateDataStackCSOCKSETPN)
			f.send("AT+CSOCKSETPN=1")
		}
	case stateDataStackCSOCKSETPN:
		if f.cmd.ThisArgIs("ok") {
			f.processState(stateDataStackCIPMODE)
			f.send("AT+CIPMODE=0")
		}
	case stateDataStackCIPMODE:
		if f.cmd.ThisArgIs("ok") {
			f.processState(stateDataStackNetOpen)
			f.send("AT+NETOPEN")
		}
	case stateDataStackNetOpen:
		if f.cmd.ThisArgIs("+netopen:") {
			f.cmd.NextArg()
			if f.cmd.ThisArgIs("1") {
				f.processState(stateCarrierSearch)
				f.send("AT+CPSI=5")
				return
			}
			f.processState(stateDataStackCDNSGIP)
			f.send(`AT+CDNSGIP="%s"`, f.serviceHost())
		}
	case stateDataStackCDNSGIP:
		if f.cmd.ThisArgIs("+cdnsgip:") {
			f.processState(stateDataStackCIPOpen)
			f.send(`AT+CIPOPEN=0,"UDP",,,%d`, f.cfg.ServiceUDPPort)
		}
	case stateDataStackCIPOpen:
		if f.cmd.ThisArgIs("ok") {
			f.processState(stateDataStackCHTTPSStart)
			f.send("AT+CHTTPSSTART")
		}
	case stateDataStackCHTTPSStart:
		if f.cmd.ThisArgIs("ok") {
			f.processState(stateInitCompleted)
		}
	case stateInitCompleted:
		f.completeInit(ctx)

	case stateSendUDPPrompt:
		if strings.TrimSpace(f.cmd.Line()) == ">" {
			f.writer.Write(f.deferred.Bytes())
		} else if f.cmd.ThisArgIs("ok") {
			f.deferred.Clear()
			f.cmd.SetState(uint16(transport.Complete))
		}
	case stateSendHTTPOpenReply:
		if f.cmd.ThisArgIs("ok") {
			body := hexEncode(f.deferred.Bytes())
			header := fmt.Sprintf("POST /send HTTP/1.1\r\nContent-Length: %d\r\n\r\n%s", len(body), body)
			f.recvBuf.Reset()
			f.recvBuf.WriteString(header)
			f.processState(stateSendHTTPPrompt)
			f.send("AT+CHTTPSSEND=%d", f.recvBuf.Len())
		}
	case stateSendHTTPPrompt:
		if strings.TrimSpace(f.cmd.Line()) == ">" {
			f.writer.Write([]byte(f.recvBuf.String()))
		} else if f.cmd.ThisArgIs("ok") {
			f.processState(stateSendHTTPSendReply)
			f.send("AT+CHTTPSSEND")
		}
	case stateSendHTTPSendReply:
		if f.cmd.ThisArgIs("ok") {
			f.processState(stateSendHTTPRecvEvent)
		}
	case stateSendHTTPRecvEvent:
		if f.cmd.ThisArgIs("+chttps:") {
			f.recvRespBuf.Reset()
			f.processState(stateSendHTTPRecvBody)
			f.send("AT+CHTTPSRECV=%d", transport.Capacity())
		}
	case stateSendHTTPRecvBody:
		if isHexLine(f.cmd.Line()) {
			f.recvRespBuf.WriteString(f.cmd.Line())
		} else if f.cmd.ThisArgIs("ok") {
			f.processState(stateSendHTTPClose)
			f.send("AT+CHTTPSCLSE")
		}
	case stateSendHTTPClose:
		if f.cmd.ThisArgIs("ok") {
			if msg, err := telecast.DecodeHex(f.recvRespBuf.String()); err == nil && f.onMessage != nil {
				f.onMessage(msg)
			}
			f.deferred.Clear()
			f.cmd.SetState(uint16(transport.Complete))
		}

	case stateDFUBegin:
		f.processState(stateDFUFetchReply)
		f.wd.Extend(true)
		f.send("AT+CFTPGETFILE")
	case stateDFUFetchReply:
		if f.cmd.ThisArgIs("ok") {
			f.processState(stateDFUCopy)
			f.send(`AT+FSCOPY="%s","dfu.zip"`, f.cfg.DFU.Filename)
		}
	case stateDFUCopy:
		if f.cmd.ThisArgIs("ok") {
			f.wd.Extend(false)
			f.processState(stateDFUDone)
		}
	case stateDFUDone:
		// Terminal: clear the pending flag so a crash mid-DFU doesn't
		// retry it forever, then hand off to the supervisor to persist
		// the cleared status, bump the count, and restart.
		f.dfu.active = false
		if f.onDFUComplete != nil {
			f.onDFUComplete()
		}
		f.cmd.SetState(uint16(transport.Complete))

	case stateResetRequested:
		_ = f.Init(ctx)
	}

	// A line that did not move the FSM to a new state is consumed here; a
	// line already waiting in the busy buffer is then processed in turn.
	if f.cmd.Complete() && f.cmd.Reset() {
		f.Process(ctx)
	}
}

// processState mirrors process_state: synchronous re-entry into a new
// state within a single Process() invocation.
func (f *Fona) processState(s State) {
	f.cmd.SetState(uint16(s))
	f.Process(context.Background())
}

func (f *Fona) completeInit(ctx context.Context) {
	f.initDone = true
	if !f.noNetwork {
		// Lock to Fona once it's genuinely online, so a transient
		// failure never falls back to LoRa out from under it (spec
		// §4.3 step 4's "*never* fall back" rule).
		f.fonaLock = true
	}
	if f.dfu.active && !f.noNetwork {
		f.cmd.SetState(uint16(stateDFUBegin))
	} else {
		f.cmd.SetState(uint16(transport.Idle))
	}
	if f.onInitComplete != nil {
		f.onInitComplete()
	}
}

// commonReply handles the universal replies recognized regardless of
// state: errors, spontaneous resets, ICCID/APN mapping, and GPS
// reports. It returns true if it consumed the line.
func (f *Fona) commonReply(ctx context.Context) bool {
	if f.cmd.ThisArgIs("error") {
		f.cmd.SetState(uint16(stateResetRequested))
		f.Process(ctx)
		return true
	}
	if f.cmd.ThisArgIs("start") {
		// An expected "START" banner arrives mid-sequence while waiting
		// for the chip reset to complete; only an unsolicited one
		// (received while otherwise idle or mid-send) means the modem
		// reset itself spontaneously and the whole ladder must restart.
		if transport.State(f.cmd.State()) != stateResetWaitStart {
			f.cmd.SetState(uint16(stateResetRequested))
			f.Process(ctx)
			return true
		}
	}
	if f.cmd.ThisArgIs("+ciperror:") {
		f.cmd.SetState(uint16(stateResetRequested))
		f.Process(ctx)
		return true
	}
	if f.cmd.ThisArgIs("+cme") {
		f.cmd.NextArg()
		if f.cmd.ThisArgIs("error:") {
			f.cmd.NextArg()
			rest := f.cmd.NextArg()
			if strings.HasPrefix(rest, "SIM failure") {
				f.noNetwork = true
			}
		}
		return true
	}
	if f.cmd.ThisArgIs("+iccid:") {
		f.cmd.NextArg()
		f.cmd.ThisArgIs("*")
		f.iccid = strings.TrimSpace(f.cmd.NextArg())
		if apn := APNForICCID(f.iccid); apn != "" {
			f.apn = apn
		}
		return true
	}
	return false
}

func (f *Fona) parseGPSInfo() {
	f.cmd.ThisArgIs("+cgpsinfo:")
	f.cmd.NextArg()
	f.cmd.ThisArgIs("*")
	lat := f.cmd.NextArg()
	f.cmd.ThisArgIs("*")
	latNS := f.cmd.NextArg()
	f.cmd.ThisArgIs("*")
	lon := f.cmd.NextArg()
	f.cmd.ThisArgIs("*")
	lonEW := f.cmd.NextArg()
	if lat == "" || lon == "" {
		return
	}
	var nsSuffix, ewSuffix byte = 'N', 'E'
	if len(latNS) > 0 {
		nsSuffix = latNS[0]
	}
	if len(lonEW) > 0 {
		ewSuffix = lonEW[0]
	}
	latDeg, errLat := transport.GpsEncodingToDegrees(lat, nsSuffix)
	lonDeg, errLon := transport.GpsEncodingToDegrees(lon, ewSuffix)
	if errLat == nil && errLon == nil {
		f.gps.Set(latDeg, lonDeg, 0)
	}
}

func (f *Fona) serviceHost() string {
	if f.cfg.ServiceIPv4 != "" {
		return f.cfg.ServiceIPv4
	}
	return "ttserve.io"
}

func recognizeIf(cond bool, bit uint32) uint32 {
	if cond {
		return bit
	}
	return 0
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}

func isHexLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

var _ transport.Transport = (*Fona)(nil)
