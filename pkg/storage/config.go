package storage

// WANMode selects which transport(s) the Comm Supervisor may use.
type WANMode uint8

const (
	WANNone WANMode = iota
	WANLora
	WANLorawan
	WANLoraThenLorawan
	WANLorawanThenLora
	WANFona
	WANAuto
)

// DFUStatus tracks the firmware-over-cellular download subflow.
type DFUStatus uint8

const (
	DFUIdle DFUStatus = iota
	DFUPending
	DFUInProgress
)

// GPSFix is a simple lat/lon/alt tuple used for both the static GPS
// override and the last-known-good GPS override (spec §3).
type GPSFix struct {
	Latitude  float64 `cbor:"1,keyasint"`
	Longitude float64 `cbor:"2,keyasint"`
	Altitude  float64 `cbor:"3,keyasint"`
}

// Config is the body of the single persistent storage page (spec §3/§6).
// It is versioned independently of the envelope signature/version
// fields so that a future version can add fields without disturbing
// the envelope check.
type Config struct {
	WAN WANMode `cbor:"1,keyasint"`

	Product uint16 `cbor:"2,keyasint"`
	Flags   uint32 `cbor:"3,keyasint"`

	OneshotMinutes     uint32 `cbor:"4,keyasint"`
	OneshotCellMinutes uint32 `cbor:"5,keyasint"`
	RestartDays        uint16 `cbor:"6,keyasint"`

	Sensors  uint64 `cbor:"7,keyasint"`
	DeviceID uint32 `cbor:"8,keyasint"`

	LPWANRegion string `cbor:"9,keyasint"`
	CarrierAPN  string `cbor:"10,keyasint"`

	StaticGPS       GPSFix `cbor:"11,keyasint"`
	HasStaticGPS    bool   `cbor:"12,keyasint"`
	LastKnownGoodGPS GPSFix `cbor:"13,keyasint"`

	SensorParams string `cbor:"14,keyasint"`

	DFUFilename string    `cbor:"15,keyasint"`
	DFUStatus   DFUStatus `cbor:"16,keyasint"`
	DFUError    uint16    `cbor:"17,keyasint"`
	DFUCount    uint32    `cbor:"18,keyasint"`
}

// Default mirrors storage_set_to_default: a SimpleCast-class device
// with automatic WAN selection and a oneshot interval appropriate to
// having a cellular backhaul configured.
func Default() Config {
	return Config{
		WAN:                WANAuto,
		Product:            1, // PRODUCT_SIMPLECAST
		OneshotMinutes:      15,
		OneshotCellMinutes: 60,
		RestartDays:        7,
		Sensors:            0xFFFFFFFF, // SENSOR_ALL
		LPWANRegion:        "US915",
		CarrierAPN:         "",
		LastKnownGoodGPS:   GPSFix{Latitude: 1.23, Longitude: 1.23, Altitude: 1.23},
		DFUStatus:          DFUIdle,
	}
}
