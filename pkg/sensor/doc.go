// Package sensor implements the Sensor Scheduler: a static hierarchy of
// Groups and Sensors, battery-aware duty-cycling, settling/sampling
// lifecycle, and shared-resource exclusivity rules (spec §3/§4.5's
// sibling, the sensor side of the shared-resource table). Groups are
// polled from a single cooperative Tick; nothing here spawns a
// goroutine per sensor.
package sensor
