package transport

import (
	"fmt"
	"strconv"
)

// GPS holds a single transport's cached fix. Several transports may
// each hold their own GPS (an integrated Fona GPS vs an external u-blox
// on LoRa); the Comm Supervisor fans these in by source precedence
// (spec §4.5/§6).
type GPS struct {
	Lat, Lon, Alt float64
	Have          bool // a fix has ever been obtained
	Updated       bool // the fix changed since the last time the caller checked
	Parsed        bool // the most recent raw sentence parsed without error
}

// Set records a new fix and marks it updated.
func (g *GPS) Set(lat, lon, alt float64) {
	g.Lat, g.Lon, g.Alt = lat, lon, alt
	g.Have = true
	g.Updated = true
	g.Parsed = true
}

// Full reports whether a usable fix is cached, mirroring the firmware's
// "GPS full" gate on oneshot enablement.
func (g *GPS) Full() bool {
	return g.Have
}

// GpsEncodingToDegrees converts the modem's degree-minute encoding
// (ddmm.mmmm or dddmm.mmmm, with an N/S/E/W suffix) to signed decimal
// degrees. This mirrors the firmware helper of the same name used by
// both AT+CGPSINFO parsing and any externally-wired u-blox NMEA source.
func GpsEncodingToDegrees(value string, suffix byte) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("transport: empty GPS value")
	}
	dot := -1
	for i := 0; i < len(value); i++ {
		if value[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 2 {
		return 0, fmt.Errorf("transport: malformed GPS value %q", value)
	}
	minutesStart := dot - 2
	degrees, err := strconv.ParseFloat(value[:minutesStart], 64)
	if err != nil {
		return 0, fmt.Errorf("transport: parse GPS degrees: %w", err)
	}
	minutes, err := strconv.ParseFloat(value[minutesStart:], 64)
	if err != nil {
		return 0, fmt.Errorf("transport: parse GPS minutes: %w", err)
	}
	decimal := degrees + minutes/60.0

	switch suffix {
	case 'S', 's', 'W', 'w':
		decimal = -decimal
	}
	return decimal, nil
}
