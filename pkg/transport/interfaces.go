package transport

import "context"

// Transport is the contract the Comm Supervisor drives every transport
// through (spec §4.4): the supervisor never reaches into a transport's
// private FSM state, only through these methods.
type Transport interface {
	// Init (re)starts the bring-up sequence from scratch.
	Init(ctx context.Context) error
	// Reset performs a full transport reset, as triggered by a watchdog
	// expiry or a universal-reply failure (e.g. unsolicited "START").
	Reset(ctx context.Context)
	// Process advances the FSM by one step; it is called whenever the
	// transport's CmdBuf is Complete, or on every event-loop tick for
	// transports that also run timer-driven steps.
	Process(ctx context.Context)
	// Send stages (and, once a `>` prompt arrives, streams) a payload
	// to the upstream service. It returns false immediately if the
	// transport cannot currently accept a send.
	Send(payload []byte, rt ReplyType) bool
	// CanSend reports whether the transport is initialised, idle, and
	// has no deferred send already pending.
	CanSend() bool
	// IsBusy reports whether the transport is mid-operation (any state
	// other than Idle or Complete).
	IsBusy() bool
	// WatchdogReset is called by the Comm Supervisor when NeededToBeReset
	// reports that forward progress has stalled past the configured
	// threshold.
	WatchdogReset(ctx context.Context)
	// NeededToBeReset reports whether the watchdog has expired since
	// the last check, without itself performing the reset; the
	// supervisor uses this to decide whether a oneshot-mode
	// deselect+reselect is also warranted.
	NeededToBeReset() bool
	// GPS returns the transport's own cached GPS fix, used by the
	// supervisor's GPS fan-in precedence chain.
	GPS() *GPS
	// Shutdown powers the transport down cleanly, e.g. on a oneshot
	// deselect boundary.
	Shutdown(ctx context.Context)
}
