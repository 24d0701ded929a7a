package comm

import (
	"context"
	"time"

	"github.com/chegejames/ttnode-supervisor/pkg/log"
	"github.com/chegejames/ttnode-supervisor/pkg/metrics"
	"github.com/chegejames/ttnode-supervisor/pkg/sensor"
	"github.com/chegejames/ttnode-supervisor/pkg/storage"
	"github.com/chegejames/ttnode-supervisor/pkg/transport"
	"github.com/google/uuid"
)

const (
	bootDelayUntilInit   = 5
	oneshotAbortSeconds  = 180
	oneshotUpdateSeconds = 120
	failoverRestartAfter = 60 * 60
	oneshotFastMinutes   = 5
	pingServiceSeconds   = 15 * 60
)

// Dependencies a Supervisor needs from the rest of the system, kept as
// an explicit struct rather than a god-interface so tests can wire in
// fakes per field (the teacher's pattern of small function-valued deps
// rather than broad mock interfaces).
type Dependencies struct {
	Transports map[Mode]transport.Transport
	GPS        *GPSFanIn
	Battery    *sensor.BatteryClassifier
	OpMode     *sensor.OpModeController
	Metrics    *metrics.Registry
	Logger     log.Logger
	Now        func() int64

	SendUpdate       func(ctx context.Context, kind UpdateKind) bool
	AnyUploadPending func() bool
	FonaProvidesGPS  bool
	RequestRestart   func()
}

// Supervisor is the Comm Supervisor: it owns transport selection, the
// oneshot power cycle, and the service-update cadence. It never spawns
// a goroutine; Tick is called from the single cooperative event loop.
type Supervisor struct {
	deps Dependencies

	cfg storage.Config

	mode               Mode
	deselected         bool
	everInitialized    bool
	waitingFirstSelect bool

	// fonaGPSOnly is set when Fona was selected purely to supply a GPS
	// fix for a non-Fona WAN mode (spec §4.3 step 4, comm.c's
	// COMM_FONA_CGPSINFORPL handoff). Once GPS goes full, Tick hands
	// control to the WAN mode's real transport and shuts Fona down.
	fonaGPSOnly bool

	forcedToCell bool

	oneshotCompleted      bool
	oneshotPoweredUp      int64
	lastOneshotTime       int64
	lastServiceUpdateTime int64
	lastServicePingTime   int64

	lastSelectTime int64
	stats          ConnectStats
	ladder         *UpdateLadder

	failoverAt           int64
	restartAfterFailover bool
	selectCycleID        string
}

// New builds a Supervisor against a storage.Config snapshot and the
// runtime dependencies. It starts deselected and waiting for its first
// transport selection.
func New(cfg storage.Config, deps Dependencies) *Supervisor {
	return &Supervisor{
		deps:               deps,
		cfg:                cfg,
		mode:               ModeNone,
		deselected:         true,
		waitingFirstSelect: true,
		ladder:             NewUpdateLadder(false),
	}
}

// Mode reports the currently selected transport.
func (s *Supervisor) Mode() Mode { return s.mode }

// IsInitialized reports whether comms have ever completed a selection.
func (s *Supervisor) IsInitialized() bool { return s.everInitialized }

// IsDeselected reports whether comms are currently powered down.
func (s *Supervisor) IsDeselected() bool { return s.deselected }

// CorrelationID returns the id assigned to the current select cycle,
// for tagging related log events across the lifetime of one connection.
func (s *Supervisor) CorrelationID() string { return s.selectCycleID }

// Select brings up the named transport (comm_select). Selecting
// ModeNone records the mode and marks comms deselected; it does not shut
// down the previously selected transport.
func (s *Supervisor) Select(ctx context.Context, mode Mode, reason string) {
	if mode == ModeNone {
		s.lastSelectTime = 0
	} else {
		s.lastSelectTime = s.deps.Now()
	}

	if t, ok := s.deps.Transports[mode]; ok && t != nil {
		_ = t.Init(ctx)
	}

	s.mode = mode
	s.deselected = mode == ModeNone
	s.everInitialized = true
	s.ladder.Reset()
	s.selectCycleID = uuid.NewString()

	s.deps.Logger.Log(log.Event{
		Component:     log.ComponentSupervisor,
		Category:      log.CategoryStateChange,
		Transport:     mode.String(),
		CorrelationID: s.selectCycleID,
		StateChange: &log.StateChangeEvent{
			NewState: mode.String(),
			Reason:   reason,
		},
	})
}

// Deselect powers down the active transport (comm_deselect).
func (s *Supervisor) Deselect(ctx context.Context) {
	if s.deselected {
		return
	}
	s.deselected = true
	s.oneshotCompleted = true
	if t, ok := s.deps.Transports[s.mode]; ok && t != nil {
		t.Shutdown(ctx)
	}
}

// Reselect re-enables comms after a deselect, reusing the same mode
// (comm_reselect).
func (s *Supervisor) Reselect(ctx context.Context) {
	if s.deselected {
		s.Select(ctx, s.mode, "reselect")
	}
	s.oneshotCompleted = false
}

// completeSelect finalizes a connect latency observation when a
// transport finishes bringing itself up (comm_select_completed).
func (s *Supervisor) completeSelect() {
	if s.lastSelectTime == 0 {
		return
	}
	now := s.deps.Now()
	if now > s.lastSelectTime {
		seconds := uint32(now - s.lastSelectTime)
		s.stats.Observe(seconds)
		if s.deps.Metrics != nil {
			s.deps.Metrics.ObserveConnect(s.mode.String(), time.Duration(seconds)*time.Second)
		}
	}
	s.lastSelectTime = 0
}

// oneshotEnabled mirrors comm_oneshot_currently_enabled: oneshot duty
// cycling stays off until GPS is acquired, while DFU is pending, and
// when UART switching has been manually disabled.
func (s *Supervisor) oneshotEnabled(gpsFull bool) bool {
	if !gpsFull {
		return false
	}
	if s.cfg.DFUStatus == storage.DFUPending {
		return false
	}
	return s.uartSwitchingAllowed()
}

func (s *Supervisor) uartSwitchingAllowed() bool {
	if s.cfg.OneshotMinutes == 0 {
		return false
	}
	return true
}

// oneshotInterval mirrors get_oneshot_interval: the configured
// interval, slowed down as battery worsens and sped up during bench
// test mode.
func (s *Supervisor) oneshotInterval(status sensor.BatteryStatus) uint32 {
	switch status {
	case sensor.BatDead:
		return 24 * 60 * 60
	case sensor.BatEmergency:
		return 6 * 60 * 60
	case sensor.BatWarning:
		return 30 * 60
	case sensor.BatFull:
		return oneshotFastMinutes * 60
	case sensor.BatTest:
		return 5 * 60
	default:
		return s.cfg.OneshotMinutes * 60
	}
}

// Tick drives one pass of the supervisor's state machine: first
// selection, failover detection, the oneshot power cycle, and the
// service-update ladder. It is safe to call at any cadence; callers
// typically wire it to the event loop's tick timer.
func (s *Supervisor) Tick(ctx context.Context) {
	now := s.deps.Now()

	if s.waitingFirstSelect {
		s.tickFirstSelect(ctx, now)
		return
	}

	gps, gpsFull := s.deps.GPS.Resolve()
	_ = gps

	if s.tickFonaGPSHandoff(ctx, gpsFull) {
		return
	}

	autoState := autoWANMode(s.cfg.WAN, gpsFull, s.forcedToCell)
	if autoState == AutoWANFailover && s.mode != ModeFona {
		s.failoverAt = now
		s.restartAfterFailover = true
		s.Select(ctx, ModeFona, "failover")
		s.forcedToCell = true
		return
	}

	if s.restartAfterFailover && now-s.failoverAt >= failoverRestartAfter {
		if s.deps.RequestRestart != nil {
			s.deps.RequestRestart()
		}
		return
	}

	if s.oneshotEnabled(gpsFull) {
		if s.tickOneshot(ctx, now, gpsFull) {
			return
		}
	}

	if !s.IsDeselected() {
		if t, ok := s.deps.Transports[s.mode]; ok && t != nil {
			if t.NeededToBeReset() {
				t.WatchdogReset(ctx)
				if s.oneshotEnabled(gpsFull) {
					s.Deselect(ctx)
					s.Reselect(ctx)
				}
				return
			}
			if t.CanSend() {
				s.completeSelect()
			}
		}
	} else if s.mode == ModeNone {
		return
	}

	if now-s.lastServicePingTime >= pingServiceSeconds {
		s.lastServicePingTime = now
		return
	}

	s.sendOneUpdate(ctx)
}

func (s *Supervisor) tickFirstSelect(ctx context.Context, now int64) {
	if now < bootDelayUntilInit {
		return
	}
	_, gpsFull := s.deps.GPS.Resolve()
	dfuPending := s.cfg.DFUStatus == storage.DFUPending
	mode, reason := selectWAN(s.cfg.WAN, dfuPending, gpsFull, s.deps.FonaProvidesGPS)
	s.fonaGPSOnly = mode == ModeFona && !dfuPending && s.cfg.WAN != storage.WANFona && s.deps.FonaProvidesGPS
	s.Select(ctx, mode, reason)
	s.waitingFirstSelect = false
}

// tickFonaGPSHandoff implements the far side of comm.c's
// COMM_FONA_CGPSINFORPL handoff: once Fona (brought up only to supply
// GPS) reports a full fix, shut it down and select the WAN mode's real
// transport. Returns true if it consumed this tick.
func (s *Supervisor) tickFonaGPSHandoff(ctx context.Context, gpsFull bool) bool {
	if !s.fonaGPSOnly || !gpsFull {
		return false
	}
	s.fonaGPSOnly = false

	dfuPending := s.cfg.DFUStatus == storage.DFUPending
	mode, reason := selectWAN(s.cfg.WAN, dfuPending, gpsFull, s.deps.FonaProvidesGPS)
	if mode == s.mode {
		return false
	}
	if t, ok := s.deps.Transports[s.mode]; ok && t != nil {
		t.Shutdown(ctx)
	}
	s.Select(ctx, mode, reason)
	return true
}

// tickOneshot implements the body of comm_poll's "if
// comm_oneshot_currently_enabled()" block: decide whether to power
// down an idle/hung connection, or power up a deselected one when
// there's pending work. Returns true if it consumed this tick.
func (s *Supervisor) tickOneshot(ctx context.Context, now int64, gpsFull bool) bool {
	if !s.deselected {
		if t, ok := s.deps.Transports[s.mode]; ok && t != nil && !t.CanSend() && s.oneshotPoweredUp != 0 {
			if now-s.oneshotPoweredUp >= oneshotAbortSeconds {
				s.Deselect(ctx)
				return true
			}
			return true
		}

		if s.oneshotCompleted {
			s.oneshotCompleted = false
			if !s.sendOneUpdate(ctx) {
				s.Deselect(ctx)
				if s.oneshotPoweredUp == 0 {
					s.oneshotPoweredUp = now
				}
			}
			return true
		}

		if now-s.oneshotPoweredUp >= oneshotUpdateSeconds && s.oneshotPoweredUp != 0 {
			if !s.sendOneUpdate(ctx) {
				s.Deselect(ctx)
			}
			return true
		}
		return false
	}

	uartFree := true
	if t, ok := s.deps.Transports[s.mode]; ok && t != nil {
		uartFree = !t.IsBusy()
	}
	anyUpload := s.deps.AnyUploadPending == nil || s.deps.AnyUploadPending()

	if uartFree && anyUpload {
		status := s.deps.Battery.Status(s.deps.OpMode.Mode())
		interval := s.oneshotInterval(status)
		if interval != 0 && now-s.lastOneshotTime >= int64(interval) {
			s.lastOneshotTime = now
			s.oneshotPoweredUp = now
			s.Reselect(ctx)
		}
		return true
	}
	return false
}

// sendOneUpdate sends exactly one update per the priority ladder, or
// an ordinary stats update once the ladder has drained for this round.
func (s *Supervisor) sendOneUpdate(ctx context.Context) bool {
	if s.deps.SendUpdate == nil {
		return false
	}
	kind, pending := s.ladder.Next()
	ok := s.deps.SendUpdate(ctx, kind)
	if ok && pending {
		s.ladder.MarkSent(kind)
	}
	return ok
}
