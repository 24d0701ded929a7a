// Package config loads the process bootstrap configuration: the
// serial ports, service endpoint, and logging/metrics settings a
// supervisor process needs before it can even open the persistent
// storage page. This is deliberately distinct from storage.Config,
// which is the versioned page the device carries across restarts;
// this package only ever lives in a YAML file and command-line flags
// on the host running the process.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the supervisor process's bootstrap configuration.
type Config struct {
	StateDir        string        `yaml:"state_dir"`
	FonaPort        string        `yaml:"fona_port"`
	LoraPort        string        `yaml:"lora_port"`
	DefaultAPN      string        `yaml:"default_apn"`
	ServiceHost     string        `yaml:"service_host"`
	ServiceHTTPPort int           `yaml:"service_http_port"`
	ServiceUDPPort  int           `yaml:"service_udp_port"`
	FonaProvidesGPS bool          `yaml:"fona_provides_gps"`
	TickInterval    time.Duration `yaml:"tick_interval"`

	LogLevel        string `yaml:"log_level"`
	ProtocolLogFile string `yaml:"protocol_log_file"`
	MetricsAddr     string `yaml:"metrics_addr"`
	ShellSocket     string `yaml:"shell_socket"`

	Reset    bool `yaml:"-"`
	TestMode bool `yaml:"test_mode"`
}

// Default returns the baseline configuration used when no YAML file is
// given and no flags override it.
func Default() Config {
	return Config{
		StateDir:        "./state",
		FonaPort:        "/dev/ttyUSB0",
		LoraPort:        "/dev/ttyUSB1",
		ServiceHTTPPort: 80,
		ServiceUDPPort:  9000,
		TickInterval:    time.Second,
		LogLevel:        "info",
		MetricsAddr:     ":9090",
		ShellSocket:     "./supervisor.sock",
	}
}

// Load reads a YAML configuration file over top of Default(). A
// missing path is not an error; the caller is expected to have already
// decided whether a config file was requested.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// RegisterFlags binds command-line flags to cfg's fields on fs, using
// cfg's current values (typically already loaded from YAML) as the
// flag defaults. This mirrors the bootstrap ordering in
// cmd/supervisor/main.go: load YAML first, then let flags passed on
// this particular invocation win.
func (cfg *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for the persistent storage page")
	fs.StringVar(&cfg.FonaPort, "fona-port", cfg.FonaPort, "serial device for the cellular modem")
	fs.StringVar(&cfg.LoraPort, "lora-port", cfg.LoraPort, "serial device for the LoRa modem")
	fs.StringVar(&cfg.DefaultAPN, "apn", cfg.DefaultAPN, "fallback carrier APN if ICCID-based lookup fails")
	fs.StringVar(&cfg.ServiceHost, "service-host", cfg.ServiceHost, "upstream service hostname or IP")
	fs.IntVar(&cfg.ServiceHTTPPort, "service-http-port", cfg.ServiceHTTPPort, "upstream HTTP port")
	fs.IntVar(&cfg.ServiceUDPPort, "service-udp-port", cfg.ServiceUDPPort, "upstream UDP port")
	fs.BoolVar(&cfg.FonaProvidesGPS, "fona-gps", cfg.FonaProvidesGPS, "this board's cellular modem has an integrated GPS")
	fs.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "event loop tick interval")

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn, or error")
	fs.StringVar(&cfg.ProtocolLogFile, "protocol-log", cfg.ProtocolLogFile, "file path for CBOR protocol event logging")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "listen address for the Prometheus /metrics endpoint")
	fs.StringVar(&cfg.ShellSocket, "shell-socket", cfg.ShellSocket, "unix socket path for supervisor-shell to attach to")

	fs.BoolVar(&cfg.Reset, "reset", cfg.Reset, "clear all persisted state before starting")
	fs.BoolVar(&cfg.TestMode, "test-mode", cfg.TestMode, "bench test mode flag; stored in the config but not read by any component")
}

// Validate checks the fields a misconfigured flag or YAML file is most
// likely to get wrong.
func (cfg Config) Validate() error {
	if cfg.StateDir == "" {
		return fmt.Errorf("config: state_dir must not be empty")
	}
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("config: tick_interval must be positive")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", cfg.LogLevel)
	}
	return nil
}
