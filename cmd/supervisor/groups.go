package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/chegejames/ttnode-supervisor/pkg/log"
	"github.com/chegejames/ttnode-supervisor/pkg/sensor"
)

// uploadSignal is a simple level-triggered flag sensor groups raise
// when they have a fresh measurement worth sending, and the Comm
// Supervisor's oneshot logic clears once it has acted on it
// (comm_would_be_buffered's upload_needed signal, spec §4.4/§4.5).
type uploadSignal struct {
	pending bool
}

func (u *uploadSignal) raise()        { u.pending = true }
func (u *uploadSignal) clear()        { u.pending = false }
func (u *uploadSignal) AnyPending() bool { return u.pending }

// buildSensorGroups constructs the static group/sensor hierarchy this
// board carries. Real measurement backends (I2C/ADC/UART drivers) are
// out of this core's scope (spec §1 non-goals); Poll here stands in for
// whatever driver call would occupy that slot, and reports through the
// same logger every other component uses.
func buildSensorGroups(logger log.Logger, upload *uploadSignal) []*sensor.Group {
	environment := &sensor.Group{
		Name:                "environment",
		PowerExclusive:      true,
		TWIExclusive:        true,
		ActiveBatteryStatus: sensor.BatFull | sensor.BatNormal | sensor.BatLow | sensor.BatTest | sensor.BatBurn,
		SettlingSeconds:     5,
		RepeatTable: []sensor.RepeatRule{
			{ActiveBatteryStatus: sensor.BatFull, RepeatSeconds: 5 * 60},
			{ActiveBatteryStatus: sensor.BatNormal, RepeatSeconds: 15 * 60},
			{ActiveBatteryStatus: sensor.BatLow, RepeatSeconds: 60 * 60},
		},
		PowerOn: func() error {
			logger.Log(log.Event{Component: log.ComponentSensor, Category: log.CategoryInfo, Message: "environment rail on"})
			return nil
		},
		PowerOff: func() error {
			logger.Log(log.Event{Component: log.ComponentSensor, Category: log.CategoryInfo, Message: "environment rail off"})
			return nil
		},
		Sensors: []*sensor.Sensor{
			{
				Name:            "temperature",
				SettlingSeconds: 2,
				Poll: func() error {
					logMeasurement(logger, "environment", "temperature", 20+rand.Float64()*5, "C")
					upload.raise()
					return nil
				},
			},
			{
				Name: "humidity",
				Poll: func() error {
					logMeasurement(logger, "environment", "humidity", 40+rand.Float64()*10, "%")
					upload.raise()
					return nil
				},
			},
		},
	}

	geiger := &sensor.Group{
		Name:                "geiger",
		UARTRequired:        sensor.UARTFona, // shares the cellular UART when a bGeigie Nano is daisy-chained behind the modem
		ActiveBatteryStatus: sensor.BatFull | sensor.BatNormal,
		RepeatTable: []sensor.RepeatRule{
			{ActiveBatteryStatus: sensor.BatFull | sensor.BatNormal, RepeatSeconds: 60},
		},
		Poll: func() error {
			logMeasurement(logger, "geiger", "cpm", 15+rand.Float64()*3, "cpm")
			upload.raise()
			return nil
		},
	}

	battery := &sensor.Group{
		Name:                "battery",
		ActiveBatteryStatus: sensor.BatFull | sensor.BatNormal | sensor.BatLow | sensor.BatWarning | sensor.BatEmergency | sensor.BatDead | sensor.BatTest | sensor.BatBurn,
		RepeatTable: []sensor.RepeatRule{
			{ActiveBatteryStatus: sensor.BatFull | sensor.BatNormal | sensor.BatLow | sensor.BatWarning | sensor.BatEmergency | sensor.BatDead | sensor.BatTest | sensor.BatBurn, RepeatSeconds: 5 * 60},
		},
		Poll: func() error {
			logMeasurement(logger, "battery", "soc", 50+rand.Float64()*40, "%")
			return nil
		},
	}

	return []*sensor.Group{environment, geiger, battery}
}

func logMeasurement(logger log.Logger, group, name string, value float64, unit string) {
	logger.Log(log.Event{
		Component:   log.ComponentSensor,
		Category:    log.CategoryMeasurement,
		Measurement: &log.MeasurementEvent{Group: group, Sensor: name, Value: value, Unit: unit},
		Message:     fmt.Sprintf("%s/%s = %.2f%s", group, name, value, unit),
	})
}
