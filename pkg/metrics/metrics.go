package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the supervisor publishes and the
// Prometheus registry backing them.
type Registry struct {
	reg *prometheus.Registry

	ConnectLatency   *prometheus.HistogramVec
	WatchdogResets   *prometheus.CounterVec
	SensorFailures   *prometheus.CounterVec
	BatterySOC       prometheus.Gauge
	OneshotCycles    prometheus.Counter
	TransportSelected *prometheus.GaugeVec
}

// New creates a Registry with all supervisor metrics registered.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		ConnectLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "supervisor",
			Subsystem: "comm",
			Name:      "connect_latency_seconds",
			Help:      "Time from transport select to first successful service update, by transport.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"transport"}),
		WatchdogResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supervisor",
			Subsystem: "comm",
			Name:      "watchdog_resets_total",
			Help:      "Count of watchdog-triggered transport resets, by transport.",
		}, []string{"transport"}),
		SensorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supervisor",
			Subsystem: "sensor",
			Name:      "failures_total",
			Help:      "Count of sensor measurement failures, by group and sensor.",
		}, []string{"group", "sensor"}),
		BatterySOC: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "supervisor",
			Subsystem: "power",
			Name:      "battery_soc_percent",
			Help:      "Most recently observed battery state of charge, percent.",
		}),
		OneshotCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "supervisor",
			Subsystem: "comm",
			Name:      "oneshot_cycles_total",
			Help:      "Count of completed oneshot select/deselect cycles.",
		}),
		TransportSelected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "supervisor",
			Subsystem: "comm",
			Name:      "transport_selected",
			Help:      "1 for the currently selected transport, 0 otherwise.",
		}, []string{"transport"}),
	}

	reg.MustRegister(r.ConnectLatency, r.WatchdogResets, r.SensorFailures, r.BatterySOC, r.OneshotCycles, r.TransportSelected)
	return r
}

// Handler returns the HTTP handler exposing /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveConnect records the time a transport took from select to its
// first successful service update.
func (r *Registry) ObserveConnect(transportName string, d time.Duration) {
	r.ConnectLatency.WithLabelValues(transportName).Observe(d.Seconds())
}
