package sensor

// OpMode is the scheduler's global operating mode. It is set once at
// boot (normal field deployment) or from the shell for bench testing,
// and it overrides the battery-status duty-cycle ladder entirely for
// the Test* and Mobile modes.
type OpMode uint8

const (
	OpModeNormal OpMode = iota
	OpModeTestBurn
	OpModeTestFast
	OpModeTestSensor
	OpModeTestDead
	OpModeMobile
)

func (m OpMode) String() string {
	switch m {
	case OpModeNormal:
		return "normal"
	case OpModeTestBurn:
		return "test-burn"
	case OpModeTestFast:
		return "test-fast"
	case OpModeTestSensor:
		return "test-sensor"
	case OpModeTestDead:
		return "test-dead"
	case OpModeMobile:
		return "mobile"
	default:
		return "unknown"
	}
}

// OpModeController owns the current OpMode and the side effects of
// switching into it (sensor_set_op_mode).
type OpModeController struct {
	mode          OpMode
	hasStaticGPS  bool
	onEnterMobile func()
}

// NewOpModeController starts in OpModeNormal. hasStaticGPS mirrors the
// storage page's static GPS configuration: mobile mode is refused when
// a static location has been configured, since the two are contradictory.
func NewOpModeController(hasStaticGPS bool, onEnterMobile func()) *OpModeController {
	return &OpModeController{mode: OpModeNormal, hasStaticGPS: hasStaticGPS, onEnterMobile: onEnterMobile}
}

// Mode returns the current operating mode.
func (c *OpModeController) Mode() OpMode {
	return c.mode
}

// SetMode switches the operating mode, refusing Mobile when a static
// GPS position is configured. On a successful switch into Mobile it
// invokes onEnterMobile so the caller can accelerate GPS acquisition
// and reschedule the GPS group immediately.
func (c *OpModeController) SetMode(mode OpMode) bool {
	if mode == OpModeMobile {
		if c.hasStaticGPS {
			return false
		}
		if c.onEnterMobile != nil {
			c.onEnterMobile()
		}
	}
	c.mode = mode
	return true
}

// InMotionCapable reports whether motion sensing is meaningful in the
// current mode; burn-in and mobile modes always report stationary.
func (c *OpModeController) InMotionCapable() bool {
	switch c.mode {
	case OpModeTestBurn, OpModeMobile:
		return false
	default:
		return true
	}
}

// TestModeActive reports whether a shell-requested test or TestSensor
// mode is active; burn-in and the other test modes do not count
// (matches sensor_test_mode's carve-out: burn-in still wants
// communications to proceed normally).
func (c *OpModeController) TestModeActive(shellTestRequested bool) bool {
	return shellTestRequested || c.mode == OpModeTestSensor
}
