// Command supervisor is the telemetry device's process entrypoint: it
// loads the bootstrap configuration and the persistent storage page,
// wires the Fona and LoRa transports into the Comm Supervisor, starts
// the Sensor Scheduler, and runs all of it from a single event loop
// goroutine until a shutdown signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chegejames/ttnode-supervisor/pkg/comm"
	"github.com/chegejames/ttnode-supervisor/pkg/config"
	"github.com/chegejames/ttnode-supervisor/pkg/eventloop"
	"github.com/chegejames/ttnode-supervisor/pkg/fona"
	mashlog "github.com/chegejames/ttnode-supervisor/pkg/log"
	"github.com/chegejames/ttnode-supervisor/pkg/lora"
	"github.com/chegejames/ttnode-supervisor/pkg/metrics"
	"github.com/chegejames/ttnode-supervisor/pkg/sensor"
	"github.com/chegejames/ttnode-supervisor/pkg/storage"
	"github.com/chegejames/ttnode-supervisor/pkg/transport"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a YAML bootstrap configuration file")
	// YAML is loaded before flag.Parse so the other flags can override
	// it, so -config itself is picked out of the arguments by hand.
	for i, arg := range os.Args[1:] {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "config" {
			continue
		}
		if hasValue {
			configPath = value
		} else if i+2 < len(os.Args) {
			configPath = os.Args[i+2]
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	baseLogger, closeLogger := setupLogging(cfg)
	defer closeLogger()

	metricsReg := metrics.New()
	logger := newMetricsLogger(baseLogger, metricsReg)
	go serveMetrics(cfg.MetricsAddr, metricsReg, logger)

	store := storage.NewStore(filepath.Join(cfg.StateDir, "config.page"))
	if cfg.Reset {
		if err := store.Save(storage.Default()); err != nil {
			logger.Log(mashlog.Event{Component: mashlog.ComponentStorage, Category: mashlog.CategoryError, Message: err.Error()})
		}
	}
	storeCfg, err := store.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loraPort, loraClose := openSerial(cfg.LoraPort, logger)
	defer loraClose()
	fonaPort, fonaClose := openSerial(cfg.FonaPort, logger)
	defer fonaClose()

	loop := eventloop.New(256, cfg.TickInterval)

	loraTransport := lora.New(lora.Config{Region: storeCfg.LPWANRegion}, loraPort, nil)
	fonaTransport := fona.New(fona.Config{
		DefaultAPN:      orConfigAPN(cfg.DefaultAPN, storeCfg.CarrierAPN),
		ServiceIPv4:     cfg.ServiceHost,
		ServiceUDPPort:  cfg.ServiceUDPPort,
		ServiceHTTPPort: cfg.ServiceHTTPPort,
		SkipGPSWait:     !cfg.FonaProvidesGPS,
		NetworkDesired:  storeCfg.WAN == storage.WANFona || storeCfg.DFUStatus == storage.DFUPending,
		DFU: fona.DFUConfig{
			Pending:  storeCfg.DFUStatus == storage.DFUPending,
			Filename: storeCfg.DFUFilename,
		},
	}, fonaPort, nil, nil, func() {
		storeCfg.DFUStatus = storage.DFUIdle
		storeCfg.DFUError = 0
		storeCfg.DFUCount++
		if err := store.Save(storeCfg); err != nil {
			logger.Log(mashlog.Event{Component: mashlog.ComponentStorage, Category: mashlog.CategoryError, Message: err.Error()})
		}
		logger.Log(mashlog.Event{Component: mashlog.ComponentSupervisor, Category: mashlog.CategoryInfo, Message: "DFU complete, requesting restart"})
		cancel()
	})

	loop.AddProcessor(loraTransport)
	loop.AddProcessor(fonaTransport)
	go pumpSerial(loraPort, loop, loraTransport, logger)
	go pumpSerial(fonaPort, loop, fonaTransport, logger)

	battery := sensor.NewBatteryClassifier()
	opMode := sensor.NewOpModeController(storeCfg.HasStaticGPS, nil)

	upload := &uploadSignal{}
	groups := buildSensorGroups(logger, upload)

	sup := comm.New(storeCfg, comm.Dependencies{
		Transports: map[comm.Mode]transport.Transport{
			comm.ModeLora: loraTransport,
			comm.ModeFona: fonaTransport,
		},
		GPS: comm.NewGPSFanIn([]comm.GPSSource{
			func() transport.GPS { return *loraTransport.GPS() },
			func() transport.GPS { return *fonaTransport.GPS() },
		}, transport.GPS{
			Have: storeCfg.HasStaticGPS,
			Lat:  storeCfg.LastKnownGoodGPS.Latitude,
			Lon:  storeCfg.LastKnownGoodGPS.Longitude,
			Alt:  storeCfg.LastKnownGoodGPS.Altitude,
		}, true, 180, monotonicNow),
		Battery:          battery,
		OpMode:           opMode,
		Metrics:          metricsReg,
		Logger:           logger,
		Now:              monotonicNow,
		AnyUploadPending: upload.AnyPending,
		FonaProvidesGPS:  cfg.FonaProvidesGPS,
		SendUpdate: func(ctx context.Context, kind comm.UpdateKind) bool {
			upload.clear()
			return true
		},
		RequestRestart: func() {
			logger.Log(mashlog.Event{Component: mashlog.ComponentSupervisor, Category: mashlog.CategoryInfo, Message: "restart requested after sustained failover"})
			cancel()
		},
	})

	schedulerCommMode := func() sensor.CommMode { return sup.Mode().SensorCommMode() }
	scheduler := sensor.NewScheduler(groups, battery, opMode, schedulerCommMode, monotonicNow, logger)

	loop.OnTick(func(ctx context.Context) { sup.Tick(ctx) })
	loop.OnTick(func(ctx context.Context) { scheduler.Tick() })

	shellClose := serveShell(ctx, cfg.ShellSocket, opMode, sup, logger)
	defer shellClose()

	go loop.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Log(mashlog.Event{Component: mashlog.ComponentSupervisor, Category: mashlog.CategoryInfo, Message: "received " + sig.String()})
	case <-ctx.Done():
	}

	if err := store.Save(storeCfg); err != nil {
		logger.Log(mashlog.Event{Component: mashlog.ComponentStorage, Category: mashlog.CategoryError, Message: err.Error()})
	}
}

// monotonicNow returns seconds since process start rather than
// wall-clock time; every duration this core reasons about (repeat
// intervals, watchdog thresholds, oneshot cadence) is relative.
var processStart = time.Now()

func monotonicNow() int64 {
	return int64(time.Since(processStart).Seconds())
}

func orConfigAPN(flagAPN, storedAPN string) string {
	if flagAPN != "" {
		return flagAPN
	}
	return storedAPN
}

func setupLogging(cfg config.Config) (mashlog.Logger, func()) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	console := mashlog.NewSlogAdapter(slog.New(handler))

	if cfg.ProtocolLogFile == "" {
		return console, func() {}
	}

	fileLogger, err := mashlog.NewFileLogger(cfg.ProtocolLogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "supervisor: protocol log disabled: %v\n", err)
		return console, func() {}
	}
	multi := mashlog.NewMultiLogger(console, fileLogger)
	return multi, func() { _ = fileLogger.Close() }
}

func serveMetrics(addr string, reg *metrics.Registry, logger mashlog.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Log(mashlog.Event{Component: mashlog.ComponentSupervisor, Category: mashlog.CategoryError, Message: "metrics server: " + err.Error()})
	}
}

func openSerial(path string, logger mashlog.Logger) (*os.File, func()) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		logger.Log(mashlog.Event{Component: mashlog.ComponentTransport, Category: mashlog.CategoryError, Message: "open " + path + ": " + err.Error()})
		return nil, func() {}
	}
	return f, func() { _ = f.Close() }
}

// pumpSerial reads raw bytes off the serial device and hands them to
// the event loop one at a time, the Go equivalent of the UART
// receive-byte interrupt the firmware fires on.
func pumpSerial(f *os.File, loop *eventloop.Loop, sink eventloop.ByteSource, logger mashlog.Logger) {
	if f == nil {
		return
	}
	buf := make([]byte, 256)
	for {
		n, err := f.Read(buf)
		for i := 0; i < n; i++ {
			loop.Feed(sink, buf[i])
		}
		if err != nil {
			if err != io.EOF {
				logger.Log(mashlog.Event{Component: mashlog.ComponentTransport, Category: mashlog.CategoryError, Message: "serial read: " + err.Error()})
			}
			return
		}
	}
}
