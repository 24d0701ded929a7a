package comm

import (
	"testing"

	"github.com/chegejames/ttnode-supervisor/pkg/transport"
	"github.com/stretchr/testify/assert"
)

func TestGPSFanInPrefersFirstFullSource(t *testing.T) {
	static := transport.GPS{Have: true, Lat: 1, Lon: 2}
	twi := transport.GPS{Have: true, Lat: 9, Lon: 9}

	fanIn := NewGPSFanIn([]GPSSource{
		func() transport.GPS { return static },
		func() transport.GPS { return twi },
	}, transport.GPS{}, false, 1000, func() int64 { return 0 })

	got, full := fanIn.Resolve()
	assert.True(t, full)
	assert.Equal(t, static.Lat, got.Lat)
}

func TestGPSFanInFallsThroughToNextSourceWhenFirstIsEmpty(t *testing.T) {
	twi := transport.GPS{Have: true, Lat: 9, Lon: 9}
	fanIn := NewGPSFanIn([]GPSSource{
		func() transport.GPS { return transport.GPS{} },
		func() transport.GPS { return twi },
	}, transport.GPS{}, false, 1000, func() int64 { return 0 })

	got, full := fanIn.Resolve()
	assert.True(t, full)
	assert.Equal(t, twi.Lat, got.Lat)
}

func TestGPSFanInUsesLastKnownGoodAfterAbortWindow(t *testing.T) {
	var clock int64 = 5000
	lkg := transport.GPS{Lat: 42, Lon: 42}
	fanIn := NewGPSFanIn([]GPSSource{
		func() transport.GPS { return transport.GPS{} },
	}, lkg, true, 1000, func() int64 { return clock })

	got, full := fanIn.Resolve()
	assert.True(t, full)
	assert.Equal(t, lkg.Lat, got.Lat)
}

func TestGPSFanInReportsNotFullWithoutAnySourceOrOverride(t *testing.T) {
	var clock int64
	fanIn := NewGPSFanIn([]GPSSource{
		func() transport.GPS { return transport.GPS{} },
	}, transport.GPS{}, false, 1000, func() int64 { return clock })

	_, full := fanIn.Resolve()
	assert.False(t, full)
}
