package comm

import "github.com/chegejames/ttnode-supervisor/pkg/transport"

// GPSSource is one contributor to the fan-in. Sources are consulted in
// the order given to NewGPSFanIn, each one improving on the last
// (comm_gps_get_value's static > TWI u-blox > Fona-integrated >
// external UART u-blox precedence chain).
type GPSSource func() transport.GPS

// GPSFanIn resolves a single best-effort GPS fix from multiple
// possibly-partial sources, falling back to a last-known-good override
// once too much boot time has elapsed without a fix.
type GPSFanIn struct {
	sources          []GPSSource
	lastKnownGood    transport.GPS
	haveLKG          bool
	abortAfter       int64
	now              func() int64
	usingLKGOverride bool
}

// NewGPSFanIn builds a fan-in over sources in precedence order.
// abortAfterSeconds bounds how long the supervisor will wait for a
// real fix before substituting the last-known-good position.
func NewGPSFanIn(sources []GPSSource, lastKnownGood transport.GPS, haveLKG bool, abortAfterSeconds int64, now func() int64) *GPSFanIn {
	return &GPSFanIn{sources: sources, lastKnownGood: lastKnownGood, haveLKG: haveLKG, abortAfter: abortAfterSeconds, now: now}
}

// Resolve returns the best available fix. The boolean result reports
// whether the fix should be considered "full" (usable for WAN
// selection), matching GPS_LOCATION_FULL vs partial/not-configured.
func (f *GPSFanIn) Resolve() (transport.GPS, bool) {
	var best transport.GPS
	haveAny := false

	for _, src := range f.sources {
		g := src()
		if !g.Have {
			continue
		}
		if !haveAny || g.Full() {
			best = g
			haveAny = true
		}
		if best.Full() {
			break
		}
	}

	if best.Full() {
		f.usingLKGOverride = false
		return best, true
	}

	if f.now() > f.abortAfter {
		f.usingLKGOverride = true
	}
	if f.usingLKGOverride && f.haveLKG {
		return f.lastKnownGood, true
	}

	return best, false
}
