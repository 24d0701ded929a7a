package sensor

import "github.com/chegejames/ttnode-supervisor/pkg/log"

// Scheduler cooperatively ticks the static Group hierarchy. Nothing
// here spawns a goroutine: Tick does one pass over Groups each call,
// advancing whichever are due, settling, or sampling, and the caller
// (the event loop) decides how often to call it.
type Scheduler struct {
	groups   []*Group
	uart     UARTOwner
	logger   log.Logger
	now      func() int64
	battery  *BatteryClassifier
	opMode   *OpModeController
	commMode func() CommMode
}

// NewScheduler builds a Scheduler over a fixed Group list. now returns
// seconds-since-boot (monotonic, injectable for tests); commMode
// reports the Comm Supervisor's currently selected WAN mode bitmask.
func NewScheduler(groups []*Group, battery *BatteryClassifier, opMode *OpModeController, commMode func() CommMode, now func() int64, logger log.Logger) *Scheduler {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Scheduler{groups: groups, battery: battery, opMode: opMode, commMode: commMode, now: now, logger: logger}
}

// Tick evaluates every configured Group once. A group that is due,
// eligible (battery status, comm mode, exclusivity, UART ownership all
// satisfied) and not already processing is started; a group already
// processing advances its settle/sample lifecycle.
func (s *Scheduler) Tick() {
	status := s.battery.Status(s.opMode.Mode())
	mode := CommModeAny
	if s.commMode != nil {
		mode = s.commMode()
	}
	nowSecs := s.now()

	for _, g := range s.groups {
		if g.state.isProcessing {
			s.advance(g, nowSecs)
			continue
		}
		if !s.eligible(g, status, mode, nowSecs) {
			continue
		}
		s.start(g, nowSecs)
	}
}

func (s *Scheduler) eligible(g *Group, status BatteryStatus, mode CommMode, nowSecs int64) bool {
	if status&g.ActiveBatteryStatus == 0 {
		return false
	}
	if g.ActiveCommMode != CommModeNone && mode&g.ActiveCommMode == 0 {
		return false
	}
	if g.Skip != nil && g.Skip() {
		return false
	}
	if g.PowerExclusive && s.anyExclusivePoweredOn(g) {
		return false
	}
	if g.TWIExclusive && s.anyExclusiveTWIOn(g) {
		return false
	}
	if g.UARTRequired != UARTNone && s.uart != UARTNone && s.uart != g.UARTRequired {
		return false
	}

	if !g.state.hasRun {
		return true
	}
	repeat := g.RepeatSeconds(status, s.opMode.TestModeActive(false))
	if repeat == 0 {
		return false
	}
	due := nowSecs - g.state.lastRepeated
	return due < 0 || due >= int64(repeat)
}

func (s *Scheduler) anyExclusivePoweredOn(except *Group) bool {
	for _, g := range s.groups {
		if g == except {
			continue
		}
		if g.PowerExclusive && g.state.isPoweredOn {
			return true
		}
	}
	return false
}

func (s *Scheduler) anyExclusiveTWIOn(except *Group) bool {
	for _, g := range s.groups {
		if g == except {
			continue
		}
		if g.TWIExclusive && g.state.isProcessing {
			return true
		}
	}
	return false
}

func (s *Scheduler) start(g *Group, nowSecs int64) {
	if g.UARTRequired != UARTNone {
		s.uart = g.UARTRequired
	}
	if g.PowerOn != nil {
		if err := g.PowerOn(); err != nil {
			s.logEvent(g.Name, "power-on failed: "+err.Error())
			return
		}
		g.state.isPoweredOn = true
	}

	g.state.isProcessing = true
	g.state.isSettling = g.SettlingSeconds > 0
	g.state.hasRun = true
	g.state.lastRepeated = nowSecs

	if !g.state.isSettling {
		if g.Poll != nil {
			s.poll(g)
		}
		if len(g.Sensors) == 0 {
			s.finish(g)
		}
	}
}

func (s *Scheduler) advance(g *Group, nowSecs int64) {
	if g.state.isSettling {
		if g.SettlingSeconds == 0 || nowSecs-g.state.lastRepeated >= int64(g.SettlingSeconds) {
			g.state.isSettling = false
			if g.DoneSettling != nil {
				g.DoneSettling()
			}
			if g.Poll != nil {
				s.poll(g)
			}
			if len(g.Sensors) == 0 {
				s.finish(g)
			}
		}
		return
	}

	for _, sn := range g.Sensors {
		if !sn.state.isProcessing {
			sn.state.isProcessing = true
			sn.state.isSettling = sn.SettlingSeconds > 0
			if !sn.state.isSettling && sn.Poll != nil {
				_ = sn.Poll()
				sn.state.isCompleted = true
			}
			continue
		}
		if sn.state.isSettling {
			continue
		}
		if !sn.state.isCompleted && sn.Poll != nil {
			_ = sn.Poll()
			sn.state.isCompleted = true
		}
	}

	s.finish(g)
}

func (s *Scheduler) finish(g *Group) {
	for _, sn := range g.Sensors {
		if sn.state.isProcessing && !sn.state.isCompleted {
			return
		}
	}

	if g.PowerOff != nil && g.state.isPoweredOn {
		_ = g.PowerOff()
		g.state.isPoweredOn = false
	}
	if g.UARTRequired != UARTNone && s.uart == g.UARTRequired {
		s.uart = UARTNone
	}
	g.state.isProcessing = false
	for _, sn := range g.Sensors {
		sn.state = sensorState{}
	}
}

func (s *Scheduler) poll(g *Group) {
	if err := g.Poll(); err != nil {
		s.logEvent(g.Name, "poll failed: "+err.Error())
	}
}

func (s *Scheduler) logEvent(group, message string) {
	s.logger.Log(log.Event{
		Component: log.ComponentSensor,
		Category:  log.CategoryError,
		Message:   message,
		Error:     &log.ErrorEventData{Message: message, Context: group},
	})
}
