package main

import (
	mashlog "github.com/chegejames/ttnode-supervisor/pkg/log"
	"github.com/chegejames/ttnode-supervisor/pkg/metrics"
)

// metricsLogger fans every event out to an underlying Logger and, for
// the categories Prometheus cares about, into the metrics Registry.
// pkg/sensor and pkg/comm never import pkg/metrics directly (they only
// know about log.Logger); this is where that wiring actually happens.
type metricsLogger struct {
	next mashlog.Logger
	reg  *metrics.Registry
}

func newMetricsLogger(next mashlog.Logger, reg *metrics.Registry) mashlog.Logger {
	return &metricsLogger{next: next, reg: reg}
}

func (m *metricsLogger) Log(event mashlog.Event) {
	switch {
	case event.Component == mashlog.ComponentSensor && event.Category == mashlog.CategoryError:
		group := ""
		if event.Error != nil {
			group = event.Error.Context
		}
		m.reg.SensorFailures.WithLabelValues(group, "").Inc()

	case event.Component == mashlog.ComponentSensor && event.Category == mashlog.CategoryMeasurement && event.Measurement != nil:
		if event.Measurement.Group == "battery" && event.Measurement.Sensor == "soc" {
			m.reg.BatterySOC.Set(event.Measurement.Value)
		}

	case event.Component == mashlog.ComponentTransport && event.Category == mashlog.CategoryStateChange && event.StateChange != nil:
		if event.StateChange.Reason == "watchdog" {
			m.reg.WatchdogResets.WithLabelValues(event.Transport).Inc()
		}

	case event.Component == mashlog.ComponentSupervisor && event.Category == mashlog.CategoryStateChange && event.StateChange != nil:
		m.reg.TransportSelected.Reset()
		m.reg.TransportSelected.WithLabelValues(event.StateChange.NewState).Set(1)
	}

	m.next.Log(event)
}
