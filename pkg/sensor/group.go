package sensor

// UARTOwner identifies which peripheral currently owns the shared UART,
// mirroring the shared-resource table in spec §4.5: at most one Group
// with uart_required != UARTNone may be active at a time.
type UARTOwner uint8

const (
	UARTNone UARTOwner = iota
	UARTGPS
	UARTFona
)

// RepeatRule maps a battery-status bitmask to a repeat interval. The
// first rule whose mask intersects the current battery status wins
// (group_repeat_seconds's linear scan).
type RepeatRule struct {
	ActiveBatteryStatus BatteryStatus
	RepeatSeconds       uint32
}

// Sensor is a single reading source within a Group. Most fields are
// optional handlers represented here as booleans/func values; a nil
// handler is the C "NO_HANDLER" sentinel.
type Sensor struct {
	Name               string
	SettlingSeconds    uint32
	PollDuringSettling bool
	PollContinuously   bool

	Poll         func() error
	DoneSettling func()

	state sensorState
}

type sensorState struct {
	isProcessing  bool
	isSettling    bool
	isCompleted   bool
	isBeingTested bool
	lastSettled   int64
}

// Group is a collection of Sensors that share power/bus exclusivity and
// a single repeat schedule. Groups are the unit the Scheduler ticks.
type Group struct {
	Name string

	// PowerExclusive means no other power-exclusive group may be
	// powered on while this one is active (shared rail contention).
	PowerExclusive bool
	// TWIExclusive means no other TWI-exclusive group may be
	// processing at the same time (shared I2C bus contention).
	TWIExclusive bool
	// UARTRequired names the UART peer this group needs exclusive
	// access to while active, or UARTNone if it needs none.
	UARTRequired UARTOwner

	ActiveBatteryStatus BatteryStatus
	ActiveCommMode      CommMode
	SettlingSeconds     uint32
	RepeatTable         []RepeatRule

	PowerOn      func() error
	PowerOff     func() error
	Poll         func() error
	DoneSettling func()
	Skip         func() bool

	Sensors []*Sensor

	state groupState
}

type groupState struct {
	isConfigured bool
	isPoweredOn  bool
	isProcessing bool
	isSettling   bool
	hasRun       bool
	lastRepeated int64

	repeatSecondsOverride uint32
}

// CommMode is a bitmask describing which WAN mode(s) are currently
// selected; Groups gate themselves against it via ActiveCommMode, the
// same way they gate against ActiveBatteryStatus.
type CommMode uint16

const (
	CommModeNone    CommMode = 0
	CommModeLora    CommMode = 1 << 0
	CommModeLorawan CommMode = 1 << 1
	CommModeFona    CommMode = 1 << 2
	CommModeAny     CommMode = CommModeLora | CommModeLorawan | CommModeFona
)

// RepeatSeconds returns the configured repeat interval for the current
// battery status, honoring any shell-set override and halving the
// interval during bench testing (group_repeat_seconds).
func (g *Group) RepeatSeconds(status BatteryStatus, testMode bool) uint32 {
	if g.state.repeatSecondsOverride != 0 {
		return g.state.repeatSecondsOverride
	}

	var repeat uint32
	for _, r := range g.RepeatTable {
		if status&r.ActiveBatteryStatus != 0 {
			repeat = r.RepeatSeconds
			break
		}
	}
	if repeat == 0 {
		return 0
	}
	if testMode {
		return repeat / 2
	}
	return repeat
}

// SetRepeatOverride forces RepeatSeconds to the given value regardless
// of battery status, until cleared with SetRepeatOverride(0).
func (g *Group) SetRepeatOverride(seconds uint32) {
	g.state.repeatSecondsOverride = seconds
}

// ScheduleNow clears the last-repeated timestamp so the next tick
// treats this group as immediately due (sensor_group_schedule_now).
func (g *Group) ScheduleNow() {
	g.state.lastRepeated = 0
	g.state.hasRun = false
}

// IsActive reports whether the group is currently powered on and/or
// sampling, which is what the exclusivity checks test against siblings.
func (g *Group) IsActive() bool {
	return g.state.isProcessing
}
