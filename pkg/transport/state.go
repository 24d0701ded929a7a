package transport

// State is an opaque per-transport FSM state tag. Each transport
// defines its own block of device-specific values; only Idle and
// Complete are shared sentinels that the Comm Supervisor and the
// watchdog coupling understand.
type State uint16

const (
	// Idle means the transport is quiescent: no watchdog is armed and
	// process() has nothing to do until a send is requested.
	Idle State = 0
	// Complete means the transport finished whatever it was doing
	// (init, a send, a DFU cycle) and is ready for the supervisor to
	// decide what happens next.
	Complete State = 1
	// FirstDeviceState is the first value device-specific FSMs should
	// use for their own states, keeping them out of the shared range.
	FirstDeviceState State = 16
)
