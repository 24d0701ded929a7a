package comm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectStatsAverageOfObservations(t *testing.T) {
	var s ConnectStats
	_, ok := s.Average()
	assert.False(t, ok, "no observations yet")

	s.Observe(10)
	s.Observe(20)
	avg, ok := s.Average()
	assert.True(t, ok)
	assert.Equal(t, uint32(15), avg)
}

func TestConnectStatsTracksAbsoluteWorst(t *testing.T) {
	var s ConnectStats
	s.Observe(5)
	s.Observe(50)
	s.Observe(3)
	assert.Equal(t, uint32(50), s.AbsoluteWorst())
}

func TestConnectStatsPurgeDropsWorstHalf(t *testing.T) {
	var s ConnectStats
	for _, v := range []uint32{10, 20, 30, 40, 50, 60, 70, 80} {
		s.Observe(v)
	}
	before, _ := s.Average()
	s.Purge()
	after, ok := s.Average()
	if ok {
		assert.LessOrEqual(t, after, before)
	}
}
