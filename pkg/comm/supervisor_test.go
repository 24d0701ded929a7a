package comm

import (
	"context"
	"testing"

	"github.com/chegejames/ttnode-supervisor/pkg/log"
	"github.com/chegejames/ttnode-supervisor/pkg/sensor"
	"github.com/chegejames/ttnode-supervisor/pkg/storage"
	"github.com/chegejames/ttnode-supervisor/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	inited     bool
	canSend    bool
	busy       bool
	needsReset bool
	shutdown   bool
	gps        transport.GPS
}

func (f *fakeTransport) Init(ctx context.Context) error                  { f.inited = true; return nil }
func (f *fakeTransport) Reset(ctx context.Context)                       {}
func (f *fakeTransport) Process(ctx context.Context)                     {}
func (f *fakeTransport) Send(payload []byte, rt transport.ReplyType) bool { return true }
func (f *fakeTransport) CanSend() bool                                   { return f.canSend }
func (f *fakeTransport) IsBusy() bool                                    { return f.busy }
func (f *fakeTransport) WatchdogReset(ctx context.Context)               {}
func (f *fakeTransport) NeededToBeReset() bool                           { return f.needsReset }
func (f *fakeTransport) GPS() *transport.GPS                             { return &f.gps }
func (f *fakeTransport) Shutdown(ctx context.Context)                    { f.shutdown = true }

func baseSupervisor(t *testing.T, clock *int64) (*Supervisor, *fakeTransport) {
	t.Helper()
	lora := &fakeTransport{}
	gpsFanIn := NewGPSFanIn([]GPSSource{
		func() transport.GPS { return transport.GPS{Have: true, Lat: 1, Lon: 1} },
	}, transport.GPS{}, false, 10000, func() int64 { return *clock })

	deps := Dependencies{
		Transports: map[Mode]transport.Transport{ModeLora: lora},
		GPS:        gpsFanIn,
		Battery:    sensor.NewBatteryClassifier(),
		OpMode:     sensor.NewOpModeController(false, nil),
		Logger:     log.NoopLogger{},
		Now:        func() int64 { return *clock },
	}
	s := New(storage.Default(), deps)
	return s, lora
}

func TestSupervisorFirstSelectWaitsForBootDelay(t *testing.T) {
	clock := int64(0)
	s, lora := baseSupervisor(t, &clock)

	s.Tick(context.Background())
	assert.True(t, s.waitingFirstSelect, "still before boot delay")
	assert.False(t, lora.inited)
}

func TestSupervisorFirstSelectPicksLoraOnceGPSFull(t *testing.T) {
	clock := int64(10)
	s, lora := baseSupervisor(t, &clock)

	s.Tick(context.Background())
	require.False(t, s.waitingFirstSelect)
	assert.Equal(t, ModeLora, s.Mode())
	assert.True(t, lora.inited)
}

func TestSupervisorDeselectThenReselectRestoresMode(t *testing.T) {
	clock := int64(10)
	s, _ := baseSupervisor(t, &clock)
	s.Select(context.Background(), ModeLora, "test")

	s.Deselect(context.Background())
	assert.True(t, s.IsDeselected())

	s.Reselect(context.Background())
	assert.False(t, s.IsDeselected())
	assert.Equal(t, ModeLora, s.Mode())
}

func TestOneshotDisabledWhenOneshotMinutesIsZero(t *testing.T) {
	clock := int64(10)
	s, _ := baseSupervisor(t, &clock)
	s.cfg.OneshotMinutes = 0
	assert.False(t, s.oneshotEnabled(true))
}

func TestOneshotDisabledDuringDFUPending(t *testing.T) {
	clock := int64(10)
	s, _ := baseSupervisor(t, &clock)
	s.cfg.DFUStatus = storage.DFUPending
	assert.False(t, s.oneshotEnabled(true))
}

func TestFailoverTriggersRestartAfterSustainedFailure(t *testing.T) {
	clock := int64(10)
	s, _ := baseSupervisor(t, &clock)
	s.cfg.WAN = storage.WANAuto
	s.Select(context.Background(), ModeLora, "test")
	s.waitingFirstSelect = false
	s.forcedToCell = true

	restarted := false
	s.deps.RequestRestart = func() { restarted = true }

	s.Tick(context.Background())
	assert.Equal(t, ModeFona, s.Mode(), "should fail over to cellular")
	assert.False(t, restarted, "restart not yet due")

	clock += failoverRestartAfter
	s.Tick(context.Background())
	assert.True(t, restarted, "should request a restart after sustained failover")
}

func TestOneshotIntervalSlowsDownAsBatteryWorsens(t *testing.T) {
	clock := int64(10)
	s, _ := baseSupervisor(t, &clock)
	assert.Equal(t, uint32(24*60*60), s.oneshotInterval(sensor.BatDead))
	assert.Equal(t, uint32(6*60*60), s.oneshotInterval(sensor.BatEmergency))
	assert.Equal(t, s.cfg.OneshotMinutes*60, s.oneshotInterval(sensor.BatNormal))
}

// TestFonaGPSHandoffSwitchesToLoraOnceGPSIsFull checks that WAN=Lora
// with Fona supplying GPS picks Fona first (no fix yet), then hands
// off to LoRa and shuts Fona down once a full fix arrives, mirroring
// fona.c's fona_shutdown()->comm_select(COMM_LORA).
func TestFonaGPSHandoffSwitchesToLoraOnceGPSIsFull(t *testing.T) {
	clock := int64(10)
	gpsHave := false
	lora := &fakeTransport{}
	fona := &fakeTransport{}
	gpsFanIn := NewGPSFanIn([]GPSSource{
		func() transport.GPS {
			if !gpsHave {
				return transport.GPS{}
			}
			return transport.GPS{Have: true, Lat: 1, Lon: 1}
		},
	}, transport.GPS{}, false, 10000, func() int64 { return clock })

	deps := Dependencies{
		Transports:      map[Mode]transport.Transport{ModeLora: lora, ModeFona: fona},
		GPS:             gpsFanIn,
		Battery:         sensor.NewBatteryClassifier(),
		OpMode:          sensor.NewOpModeController(false, nil),
		Logger:          log.NoopLogger{},
		Now:             func() int64 { return clock },
		FonaProvidesGPS: true,
	}
	cfg := storage.Default()
	cfg.WAN = storage.WANLora
	s := New(cfg, deps)

	s.Tick(context.Background())
	require.False(t, s.waitingFirstSelect)
	assert.Equal(t, ModeFona, s.Mode(), "fona selected to supply GPS first")
	assert.True(t, s.fonaGPSOnly)

	gpsHave = true
	s.Tick(context.Background())
	assert.Equal(t, ModeLora, s.Mode(), "handed off to lora once GPS is full")
	assert.True(t, fona.shutdown, "fona shut down on handoff")
	assert.False(t, s.fonaGPSOnly)
}
