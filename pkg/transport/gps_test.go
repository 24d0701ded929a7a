package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGpsEncodingToDegreesNorthEast(t *testing.T) {
	lat, err := GpsEncodingToDegrees("3746.6200", 'N')
	require.NoError(t, err)
	assert.InDelta(t, 37.7770, lat, 0.0001)

	lon, err := GpsEncodingToDegrees("12225.0000", 'W')
	require.NoError(t, err)
	assert.InDelta(t, -122.4167, lon, 0.0001)
}

func TestGpsEncodingToDegreesRejectsMalformed(t *testing.T) {
	_, err := GpsEncodingToDegrees("nope", 'N')
	assert.Error(t, err)
	_, err = GpsEncodingToDegrees("", 'N')
	assert.Error(t, err)
}

func TestGpsSetMarksFullAndUpdated(t *testing.T) {
	var g GPS
	assert.False(t, g.Full())
	g.Set(1, 2, 3)
	assert.True(t, g.Full())
	assert.True(t, g.Updated)
	assert.Equal(t, 1.0, g.Lat)
}
