package lora

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chegejames/ttnode-supervisor/pkg/cmdbuf"
	"github.com/chegejames/ttnode-supervisor/pkg/transport"
	"github.com/chegejames/ttnode-supervisor/pkg/watchdog"
)

// State enumerates the device-specific states of the LoRa bring-up
// ladder. Join/ADR/MAC-layer internals are out of core scope (spec
// §4.4): this FSM only models enough of a bring-up/send/watchdog
// contract for the Comm Supervisor to drive.
type State = transport.State

const (
	stateReset State = transport.FirstDeviceState + iota
	stateJoinWait
	stateSendPrompt
	stateSendReply
	stateMTUQuery
)

// Config carries the LoRa-specific bring-up parameters the supervisor
// or persistent storage provides.
type Config struct {
	Region     string
	ListenTags string
	Watchdog   time.Duration
}

func defaultConfig() Config {
	return Config{Watchdog: 90 * time.Second}
}

// LoRa drives a single LoRa/LoRaWAN radio through join and send;
// implements transport.Transport.
type LoRa struct {
	cfg    Config
	writer io.Writer

	cmd *cmdbuf.Buf
	wd  *watchdog.Timer

	gps      transport.GPS
	deferred transport.DeferredIO

	joined   bool
	mtu      int
	listenTags string

	onInitComplete func()
}

// New creates a LoRa transport that writes commands to w.
func New(cfg Config, w io.Writer, onInitComplete func()) *LoRa {
	if cfg.Watchdog == 0 {
		cfg.Watchdog = defaultConfig().Watchdog
	}
	l := &LoRa{
		cfg:            cfg,
		writer:         w,
		wd:             watchdog.New(cfg.Watchdog, cfg.Watchdog),
		mtu:            51, // conservative default; the AT+MTU? reply is not parsed
		listenTags:     cfg.ListenTags,
		onInitComplete: onInitComplete,
	}
	l.cmd = cmdbuf.New(cmdbuf.KindLoRa, func(old, new uint16) {
		if new == uint16(transport.Idle) {
			l.wd.Stop()
		} else {
			l.wd.Reset()
		}
	})
	return l
}

func (l *LoRa) send(format string, args ...any) {
	fmt.Fprintf(l.writer, format+"\r\n", args...)
}

// ReceiveByte feeds a byte from the radio UART.
func (l *LoRa) ReceiveByte(ctx context.Context, b byte) {
	if l.cmd.ReceiveByte(b) {
		l.Process(ctx)
	}
}

// Init starts the join sequence.
func (l *LoRa) Init(ctx context.Context) error {
	l.joined = false
	l.cmd.SetState(uint16(stateReset))
	l.wd.Reset()
	l.send("AT+RESET")
	return nil
}

func (l *LoRa) Reset(ctx context.Context) {
	l.deferred.Clear()
	_ = l.Init(ctx)
}

func (l *LoRa) Process(ctx context.Context) {
	if l.cmd.ThisArgIs("error") {
		l.cmd.SetState(uint16(stateReset))
		_ = l.Init(ctx)
		return
	}

	switch transport.State(l.cmd.State()) {
	case stateReset:
		if l.cmd.ThisArgIs("ok") {
			l.cmd.SetState(uint16(stateJoinWait))
			l.send("AT+JOIN")
		}
	case stateJoinWait:
		if l.cmd.ThisArgIs("+joined") || l.cmd.ThisArgIs("joined") {
			l.joined = true
			l.cmd.SetState(uint16(stateMTUQuery))
			l.send("AT+MTU?")
		}
	case stateMTUQuery:
		if l.cmd.ThisArgIs("ok") {
			l.cmd.SetState(uint16(transport.Idle))
			if l.onInitComplete != nil {
				l.onInitComplete()
			}
		}
	case stateSendPrompt:
		if l.cmd.ThisArgIs("ok") {
			l.deferred.Clear()
			l.cmd.SetState(uint16(transport.Complete))
		}
	}
}

func (l *LoRa) Send(payload []byte, rt transport.ReplyType) bool {
	if !l.CanSend() {
		return false
	}
	if len(payload) > l.mtu {
		return false
	}
	if !l.deferred.Stage(payload, rt) {
		return false
	}
	l.cmd.SetState(uint16(stateSendPrompt))
	l.send("AT+SEND=%X", payload)
	return true
}

func (l *LoRa) CanSend() bool {
	return l.joined && l.cmd.State() == uint16(transport.Idle) && !l.deferred.Pending
}

func (l *LoRa) IsBusy() bool {
	s := transport.State(l.cmd.State())
	return s != transport.Idle && s != transport.Complete
}

func (l *LoRa) WatchdogReset(ctx context.Context) { l.Reset(ctx) }

func (l *LoRa) NeededToBeReset() bool { return l.wd.Expired() }

func (l *LoRa) GPS() *transport.GPS { return &l.gps }

func (l *LoRa) Shutdown(ctx context.Context) {
	l.cmd.SetState(uint16(transport.Idle))
	l.wd.Stop()
	l.deferred.Clear()
	l.joined = false
}

// ListenTags returns the configured "#"-prefixed LoRa listen tags used
// to filter TTAPP Telecast messages (spec §6).
func (l *LoRa) ListenTags() string { return l.listenTags }

// MatchesWord is a small helper for tests/tools that want to probe
// whether a raw word is a hashtag the radio would forward.
func MatchesWord(word string) bool { return strings.HasPrefix(word, "#") }

var _ transport.Transport = (*LoRa)(nil)
