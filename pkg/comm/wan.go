package comm

import (
	"github.com/chegejames/ttnode-supervisor/pkg/sensor"
	"github.com/chegejames/ttnode-supervisor/pkg/storage"
)

// Mode identifies which transport is currently selected, as opposed to
// storage.WANMode which is the configured intent.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeLora
	ModeFona
)

func (m Mode) String() string {
	switch m {
	case ModeLora:
		return "lora"
	case ModeFona:
		return "fona"
	default:
		return "none"
	}
}

// SensorCommMode converts the currently selected transport into the
// bitmask Groups gate against (sensor.CommMode).
func (m Mode) SensorCommMode() sensor.CommMode {
	switch m {
	case ModeLora:
		return sensor.CommModeLora
	case ModeFona:
		return sensor.CommModeFona
	default:
		return sensor.CommModeNone
	}
}

// AutoWANState reports why WAN=Auto is choosing what it's choosing.
type AutoWANState uint8

const (
	AutoWANGPSWait AutoWANState = iota
	AutoWANNormal
	AutoWANFailover
)

// autoWANMode computes comm_autowan_mode: Auto mode is gated on having
// a full GPS fix before it will commit to a transport, and remembers
// whether it has failed over to cellular after repeated LoRa trouble.
func autoWANMode(cfg storage.WANMode, gpsFull bool, forcedToCell bool) AutoWANState {
	if !gpsFull {
		return AutoWANGPSWait
	}
	if cfg != storage.WANAuto {
		return AutoWANNormal
	}
	if !forcedToCell {
		return AutoWANNormal
	}
	return AutoWANFailover
}

// selectWAN implements comm_poll's first-select switch: given the
// configured WAN mode and whether a full GPS fix is in hand, decide
// which transport to bring up. fonaProvidesGPS mirrors the FONAGPS/UGPS
// build-time choice in the original, made into runtime configuration
// here since a single Go binary must serve every hardware variant.
func selectWAN(cfg storage.WANMode, dfuPending bool, gpsFull bool, fonaProvidesGPS bool) (Mode, string) {
	wan := cfg
	if dfuPending {
		wan = storage.WANFona
	}

	switch wan {
	case storage.WANNone:
		return ModeNone, "no comms configured"

	case storage.WANLora, storage.WANLorawan, storage.WANLoraThenLorawan, storage.WANLorawanThenLora:
		if fonaProvidesGPS && !gpsFull {
			return ModeFona, "lora desired, no GPS yet"
		}
		return ModeLora, "lora desired"

	case storage.WANFona:
		return ModeFona, "fona desired"

	case storage.WANAuto:
		if !gpsFull {
			if fonaProvidesGPS {
				return ModeFona, "auto desired, no GPS yet"
			}
			return ModeNone, "auto desired, no GPS yet"
		}
		return ModeLora, "auto desired"

	default:
		return ModeNone, "unrecognized WAN mode"
	}
}
