package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "supervisor.yaml")
	yaml := "state_dir: /var/lib/supervisor\nfona_port: /dev/ttyFona\nservice_http_port: 8080\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/supervisor", cfg.StateDir)
	assert.Equal(t, "/dev/ttyFona", cfg.FonaPort)
	assert.Equal(t, 8080, cfg.ServiceHTTPPort)
	// Fields absent from the YAML keep their Default() value.
	assert.Equal(t, Default().LoraPort, cfg.LoraPort)
}

func TestRegisterFlagsOverridesLoadedValue(t *testing.T) {
	cfg := Default()
	cfg.StateDir = "/from/yaml"

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-state-dir=/from/flag"}))

	assert.Equal(t, "/from/flag", cfg.StateDir)
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveTick(t *testing.T) {
	cfg := Default()
	cfg.TickInterval = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsDefault(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
