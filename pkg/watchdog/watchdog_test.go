package watchdog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchdogNotExpiredWhenNotRunning(t *testing.T) {
	w := New(10*time.Second, time.Minute)
	assert.False(t, w.Expired())
}

func TestWatchdogExpiresAfterThreshold(t *testing.T) {
	cur := time.Unix(1000, 0)
	w := New(10*time.Second, time.Minute)
	w.now = func() time.Time { return cur }
	w.Reset()
	assert.False(t, w.Expired())
	cur = cur.Add(9 * time.Second)
	assert.False(t, w.Expired())
	cur = cur.Add(2 * time.Second)
	assert.True(t, w.Expired())
}

func TestWatchdogExtendRaisesThreshold(t *testing.T) {
	cur := time.Unix(1000, 0)
	w := New(10*time.Second, 5*time.Minute)
	w.now = func() time.Time { return cur }
	w.Reset()
	w.Extend(true)
	cur = cur.Add(time.Minute)
	assert.False(t, w.Expired(), "extended threshold should not have fired yet")
	cur = cur.Add(5 * time.Minute)
	assert.True(t, w.Expired())
}

func TestWatchdogStopDisarms(t *testing.T) {
	cur := time.Unix(1000, 0)
	w := New(time.Second, time.Minute)
	w.now = func() time.Time { return cur }
	w.Reset()
	w.Stop()
	cur = cur.Add(time.Hour)
	assert.False(t, w.Expired())
}
