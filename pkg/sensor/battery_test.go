package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatteryStatusOpModeOverridesTakePriority(t *testing.T) {
	c := NewBatteryClassifier()
	c.Observe(95)
	assert.Equal(t, BatBurn, c.Status(OpModeTestBurn))
	assert.Equal(t, BatTest, c.Status(OpModeTestFast))
	assert.Equal(t, BatMobile, c.Status(OpModeMobile))
	assert.Equal(t, BatNoSensors, c.Status(OpModeTestDead))
}

func TestBatteryStatusBeforeFirstObservationIsNormal(t *testing.T) {
	c := NewBatteryClassifier()
	assert.Equal(t, BatNormal, c.Status(OpModeNormal))
}

func TestBatteryStatusLadderThresholds(t *testing.T) {
	cases := []struct {
		soc    float64
		status BatteryStatus
	}{
		{3, BatDead},
		{15, BatEmergency},
		{50, BatLow},
		{35, BatWarning},
		{90, BatFull},
	}
	for _, c := range cases {
		classifier := NewBatteryClassifier()
		classifier.Observe(c.soc)
		assert.Equal(t, c.status, classifier.Status(OpModeNormal), "soc=%v", c.soc)
	}
}

func TestBatteryRecoveryModeRequiresCrossing70BeforeExitingEmergency(t *testing.T) {
	c := NewBatteryClassifier()
	c.Observe(15)
	assert.Equal(t, BatEmergency, c.Status(OpModeNormal))

	c.Observe(65)
	assert.Equal(t, BatEmergency, c.Status(OpModeNormal), "still below the 70%% recovery exit threshold")

	c.Observe(72)
	assert.Equal(t, BatNormal, c.Status(OpModeNormal), "recovery mode should have cleared")

	c.Observe(50)
	assert.Equal(t, BatLow, c.Status(OpModeNormal), "recovery mode should not re-trigger above 20%%")
}

func TestBatteryFullRecoveryModeDebouncesAroundHighPowerBand(t *testing.T) {
	c := NewBatteryClassifier()
	c.Observe(70)
	assert.Equal(t, BatNormal, c.Status(OpModeNormal), "below socHighPowerMin enters full-recovery")

	c.Observe(80)
	assert.Equal(t, BatNormal, c.Status(OpModeNormal), "still inside the debounce band")

	c.Observe(95)
	assert.Equal(t, BatFull, c.Status(OpModeNormal), "above socHighPowerMax clears full-recovery")
}
