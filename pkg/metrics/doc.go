// Package metrics exposes the supervisor's runtime health as Prometheus
// metrics: connect latency, watchdog resets per transport, sensor
// failure counts, and battery state of charge. It is enrichment beyond
// spec.md's core scope (no metrics endpoint is described there), wired
// in because the example pack's observability stack uses Prometheus.
package metrics
