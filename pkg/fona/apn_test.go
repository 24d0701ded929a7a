package fona

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPNForICCIDKnownPrefixes(t *testing.T) {
	assert.Equal(t, "wireless.twilio.com", APNForICCID("8901260123456789012"))
	assert.Equal(t, "openroamer.com", APNForICCID("8910300123456789012"))
	assert.Equal(t, "m2m.com.attz", APNForICCID("8901170123456789012"))
}

func TestAPNForICCIDUnrecognized(t *testing.T) {
	assert.Equal(t, "", APNForICCID("999999999999999999"))
}
