package comm

import (
	"testing"

	"github.com/chegejames/ttnode-supervisor/pkg/storage"
	"github.com/stretchr/testify/assert"
)

func TestSelectWANAutoWaitsForGPS(t *testing.T) {
	mode, reason := selectWAN(storage.WANAuto, false, false, false)
	assert.Equal(t, ModeNone, mode)
	assert.Contains(t, reason, "no GPS yet")
}

func TestSelectWANAutoPicksLoraOnceGPSFull(t *testing.T) {
	mode, _ := selectWAN(storage.WANAuto, false, true, false)
	assert.Equal(t, ModeLora, mode)
}

func TestSelectWANDFUPendingForcesFona(t *testing.T) {
	mode, _ := selectWAN(storage.WANLora, true, true, false)
	assert.Equal(t, ModeFona, mode)
}

func TestSelectWANLoraDefersToFonaForGPSWhenConfigured(t *testing.T) {
	mode, reason := selectWAN(storage.WANLora, false, false, true)
	assert.Equal(t, ModeFona, mode)
	assert.Contains(t, reason, "no GPS yet")
}

func TestSelectWANNoneStaysNone(t *testing.T) {
	mode, _ := selectWAN(storage.WANNone, false, true, false)
	assert.Equal(t, ModeNone, mode)
}

func TestAutoWANModeFailoverOnlyWhenForced(t *testing.T) {
	assert.Equal(t, AutoWANGPSWait, autoWANMode(storage.WANAuto, false, true))
	assert.Equal(t, AutoWANNormal, autoWANMode(storage.WANAuto, true, false))
	assert.Equal(t, AutoWANFailover, autoWANMode(storage.WANAuto, true, true))
	assert.Equal(t, AutoWANNormal, autoWANMode(storage.WANLora, true, true), "failover only applies in Auto mode")
}
