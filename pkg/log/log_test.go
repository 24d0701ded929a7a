package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEventRoundTrip(t *testing.T) {
	ev := Event{
		Timestamp: time.Now().UTC(),
		Component: ComponentTransport,
		Category:  CategoryStateChange,
		Transport: "fona",
		StateChange: &StateChangeEvent{
			OldState: "carrier_search",
			NewState: "iccid",
		},
	}
	data, err := EncodeEvent(ev)
	require.NoError(t, err)

	got, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, ev.Component, got.Component)
	assert.Equal(t, ev.StateChange.NewState, got.StateChange.NewState)
}

func TestFileLoggerWritesAndReaderReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.clog")
	fl, err := NewFileLogger(path)
	require.NoError(t, err)

	fl.Log(Event{Timestamp: time.Now(), Component: ComponentSensor, Category: CategoryMeasurement,
		Measurement: &MeasurementEvent{Group: "g-air", Sensor: "temp", Value: 21.5, Unit: "C"}})
	fl.Log(Event{Timestamp: time.Now(), Component: ComponentStorage, Category: CategoryInfo, Message: "saved"})
	require.NoError(t, fl.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, ComponentSensor, first.Component)

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "saved", second.Message)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestMultiLoggerFansOutToAll(t *testing.T) {
	var a, b recordingLogger
	m := NewMultiLogger(&a, &b)
	m.Log(Event{Component: ComponentCmdBuf})
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestFilterMatchesOnComponentAndTransport(t *testing.T) {
	c := ComponentTransport
	f := Filter{Component: &c, Transport: "fona"}
	assert.True(t, f.matches(Event{Component: ComponentTransport, Transport: "fona"}))
	assert.False(t, f.matches(Event{Component: ComponentTransport, Transport: "lora"}))
	assert.False(t, f.matches(Event{Component: ComponentSensor, Transport: "fona"}))
}

type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(e Event) {
	r.events = append(r.events, e)
}
