package fona

import "time"

// Config bundles everything the Fona FSM needs that the supervisor or
// persistent storage provides: the service endpoint, APN fallback, and
// the timing constants from spec §4.2/§4.3.
type Config struct {
	DefaultAPN string

	ServiceIPv4    string
	ServiceUDPPort int
	ServiceHTTPPort int

	// SkipGPSWait, when true, means the WAN policy does not require a
	// GPS fix before proceeding past bring-up (spec §4.3 step 4).
	SkipGPSWait bool

	// NetworkDesired reports whether this modem should join the
	// cellular network at all once it has a GPS fix. It is false when
	// Fona is only being brought up to supply GPS for a non-Fona WAN
	// mode (spec §4.3 step 4): the modem then declares itself
	// no-network and goes idle instead of searching for a carrier,
	// leaving the handoff to the Comm Supervisor.
	NetworkDesired bool

	Watchdog         time.Duration
	WatchdogExtended time.Duration

	CarrierSearchInitial time.Duration
	CarrierSearchMax     time.Duration

	DFU DFUConfig
}

// DFUConfig carries the firmware-over-cellular download parameters
// staged from persistent storage when storage.DFUStatus is Pending.
type DFUConfig struct {
	Pending  bool
	Host     string
	Port     int
	User     string
	Pass     string
	Filename string
}

func defaultConfig() Config {
	return Config{
		ServiceUDPPort:       9000,
		ServiceHTTPPort:      80,
		Watchdog:             90 * time.Second,
		WatchdogExtended:     5 * time.Minute,
		CarrierSearchInitial: 2 * time.Second,
		CarrierSearchMax:     30 * time.Second,
	}
}
