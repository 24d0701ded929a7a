package sensor

// BatteryStatus is a bitmask so a Group's repeat table and
// active_battery_status gate can be tested with either equality or
// bitwise-AND (sensor_get_battery_status's own comment, ported
// verbatim in spirit).
type BatteryStatus uint16

const (
	BatMobile    BatteryStatus = 1 << iota // OPMODE_MOBILE override
	BatFull                                // SOC debounced above the high-power band
	BatNormal                              // SOC in the ordinary band
	BatLow                                 // SOC below 60%
	BatWarning                             // SOC below 40%
	BatEmergency                           // SOC below 20%, or still recovering from it
	BatDead                                // SOC below 5%
	BatTest                                // OPMODE_TEST_FAST override
	BatBurn                                // OPMODE_TEST_BURN override
	BatNoSensors                           // OPMODE_TEST_DEAD override: sensors disabled entirely
)

const (
	socHighPowerMin = 75.0
	socHighPowerMax = 90.0
)

func (b BatteryStatus) String() string {
	switch b {
	case BatMobile:
		return "BAT_MOBILE"
	case BatFull:
		return "BAT_FULL"
	case BatNormal:
		return "BAT_NORMAL"
	case BatLow:
		return "BAT_LOW"
	case BatWarning:
		return "BAT_WARNING"
	case BatEmergency:
		return "BAT_EMERGENCY"
	case BatDead:
		return "BAT_DEAD"
	case BatTest:
		return "BAT_TEST"
	case BatBurn:
		return "BAT_BURN"
	case BatNoSensors:
		return "BAT_NO_SENSORS"
	default:
		return "BAT_UNKNOWN"
	}
}

// BatteryClassifier tracks the SOC-hysteresis latches that keep the
// reported BatteryStatus from chattering across a threshold boundary
// (sensor_get_battery_status's batteryRecoveryMode / fullBatteryRecoveryMode).
type BatteryClassifier struct {
	lastSOC          float64
	recoveryMode     bool
	fullRecoveryMode bool
	everObservedSOC  bool
}

// NewBatteryClassifier creates a classifier that starts in the "never
// yet observed a reading" state, which classifies as Normal until the
// first SOC observation.
func NewBatteryClassifier() *BatteryClassifier {
	return &BatteryClassifier{fullRecoveryMode: true}
}

// Observe records a new battery state-of-charge percentage (0-100).
func (c *BatteryClassifier) Observe(soc float64) {
	c.lastSOC = soc
	c.everObservedSOC = true
}

// Status classifies the current SOC per opMode's override (if any),
// otherwise via the hysteresis ladder.
func (c *BatteryClassifier) Status(mode OpMode) BatteryStatus {
	switch mode {
	case OpModeTestBurn:
		return BatBurn
	case OpModeTestFast:
		return BatTest
	case OpModeMobile:
		return BatMobile
	case OpModeTestDead:
		return BatNoSensors
	}

	if !c.everObservedSOC {
		return BatNormal
	}
	if c.lastSOC < 5.0 {
		return BatDead
	}

	if c.recoveryMode {
		if c.lastSOC < 70.0 {
			return BatEmergency
		}
		c.recoveryMode = false
		return BatNormal
	}
	if c.lastSOC < 20.0 {
		c.recoveryMode = true
		return BatEmergency
	}

	if c.lastSOC < 40.0 {
		return BatWarning
	}
	if c.lastSOC < 60.0 {
		return BatLow
	}

	if c.lastSOC < socHighPowerMin {
		c.fullRecoveryMode = true
		return BatNormal
	}
	if c.fullRecoveryMode && c.lastSOC < socHighPowerMax {
		return BatNormal
	}
	c.fullRecoveryMode = false
	return BatFull
}
