package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Detector.MaxCycles)
	require.Equal(t, 500, cfg.Simulation.Samples)
	require.Equal(t, "greedy", cfg.Allocator.Mode)
}

func TestLoadParsesYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("allocator:\n  mode: risk_parity\n  max_position: 0.2\nsimulation:\n  samples: 1000\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "risk_parity", cfg.Allocator.Mode)
	require.Equal(t, 0.2, cfg.Allocator.MaxPosition)
	require.Equal(t, 1000, cfg.Simulation.Samples)
}

func TestLoadEnvOverridesTakePrecedenceOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("allocator:\n  mode: lp\n"), 0o644))

	t.Setenv("ALLOCATOR_MODE", "risk_parity")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "risk_parity", cfg.Allocator.Mode)
}

func TestValidateRejectsUnknownAllocatorMode(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()
	cfg.Allocator.Mode = "bogus"

	err := cfg.validate()
	require.Error(t, err)
}

func TestValidateRejectsSamplesOutOfRange(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()
	cfg.Simulation.Samples = 20000

	err := cfg.validate()
	require.Error(t, err)
}

func TestValidateRejectsInvalidPort(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()
	cfg.Metrics.Port = 0

	err := cfg.validate()
	require.Error(t, err)
}
