// Package config loads and validates the engine's configuration,
// following the usual three-phase pattern: defaults, then YAML file,
// then environment variable overrides, then validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all engine configuration.
type Config struct {
	Pruner         PrunerConfig         `yaml:"pruner"`
	Detector       DetectorConfig       `yaml:"detector"`
	Microstructure MicrostructureConfig `yaml:"microstructure"`
	Simulation     SimulationConfig     `yaml:"simulation"`
	Risk           RiskConfig           `yaml:"risk"`
	Allocator      AllocatorConfig      `yaml:"allocator"`
	Persistence    PersistenceConfig    `yaml:"persistence"`
	Regime         RegimeConfig         `yaml:"regime"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// PrunerConfig holds the edge pruner's thresholds.
type PrunerConfig struct {
	MinLiquidity       float64 `yaml:"min_liquidity"`
	EnableMinLiquidity bool    `yaml:"enable_min_liquidity"`
	MaxFee             float64 `yaml:"max_fee"`
	EnableMaxFee       bool    `yaml:"enable_max_fee"`
	MinRate            float64 `yaml:"min_rate"`
	EnableMinRate      bool    `yaml:"enable_min_rate"`
	MaxRate            float64 `yaml:"max_rate"`
	EnableMaxRate      bool    `yaml:"enable_max_rate"`
}

// DetectorConfig holds cycle detection settings.
type DetectorConfig struct {
	MaxCycles int `yaml:"max_cycles"`
}

// MicrostructureConfig holds the price-impact model's parameters.
type MicrostructureConfig struct {
	K     float64 `yaml:"k"`
	Alpha float64 `yaml:"alpha"`
}

// SimulationConfig holds Monte Carlo simulation defaults.
type SimulationConfig struct {
	Samples      int     `yaml:"samples"`
	LatencyMaxMs float64 `yaml:"latency_max_ms"`
	Delta        float64 `yaml:"delta"`
	HalfLifeMs   float64 `yaml:"half_life_ms"`
	DecayRefMs   float64 `yaml:"decay_ref_ms"`
	TimeoutMs    int     `yaml:"timeout_ms"`
}

// RiskConfig holds risk-engine settings.
type RiskConfig struct {
	Conservative bool `yaml:"conservative"`
}

// AllocatorConfig holds capital allocator defaults.
type AllocatorConfig struct {
	MaxPosition   float64 `yaml:"max_position"`
	MinConfidence float64 `yaml:"min_confidence"`
	Mode          string  `yaml:"mode"` // greedy | lp | risk_parity
	Criterion     string  `yaml:"criterion"`
}

// PersistenceConfig holds the opportunity tracker's settings.
type PersistenceConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
}

// RegimeConfig holds the rolling regime detector's window size.
type RegimeConfig struct {
	Window int `yaml:"window"`
}

// MetricsConfig holds Prometheus metrics server settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file (optional .env overrides
// loaded first) and applies environment variable overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.setDefaults()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if len(data) > 0 {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for all configuration options.
func (c *Config) setDefaults() {
	c.Pruner = PrunerConfig{}
	c.Detector = DetectorConfig{
		MaxCycles: 10,
	}
	c.Microstructure = MicrostructureConfig{
		K:     0.5,
		Alpha: 1.5,
	}
	c.Simulation = SimulationConfig{
		Samples:      500,
		LatencyMaxMs: 200,
		Delta:        0.2,
		HalfLifeMs:   100,
		DecayRefMs:   100,
		TimeoutMs:    5000,
	}
	c.Risk = RiskConfig{
		Conservative: false,
	}
	c.Allocator = AllocatorConfig{
		MaxPosition:   0.3,
		MinConfidence: 50,
		Mode:          "greedy",
		Criterion:     "sharpe",
	}
	c.Persistence = PersistenceConfig{
		TTLMinutes: 30,
	}
	c.Regime = RegimeConfig{
		Window: 100,
	}
	c.Metrics = MetricsConfig{
		Enabled: true,
		Port:    8080,
		Path:    "/metrics",
	}
	c.Logging = LoggingConfig{
		Level:  "info",
		Format: "json",
	}
}

// applyEnvOverrides applies environment variable overrides to configuration.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DETECTOR_MAX_CYCLES"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			c.Detector.MaxCycles = n
		}
	}
	if v := os.Getenv("SIMULATION_SAMPLES"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			c.Simulation.Samples = n
		}
	}
	if v := os.Getenv("ALLOCATOR_MODE"); v != "" {
		c.Allocator.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil && port > 0 {
			c.Metrics.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// validate checks that all configuration values are present and within
// the ranges the engine's components expect.
func (c *Config) validate() error {
	if c.Detector.MaxCycles < 0 {
		return fmt.Errorf("detector.max_cycles must be >= 0 (0 means unbounded)")
	}
	if c.Microstructure.K <= 0 {
		return fmt.Errorf("microstructure.k must be positive")
	}
	if c.Microstructure.Alpha <= 0 {
		return fmt.Errorf("microstructure.alpha must be positive")
	}
	if c.Simulation.Samples <= 0 || c.Simulation.Samples > 10000 {
		return fmt.Errorf("simulation.samples must be in (0, 10000]")
	}
	if c.Simulation.LatencyMaxMs <= 0 {
		return fmt.Errorf("simulation.latency_max_ms must be positive")
	}
	if c.Simulation.Delta < 0 || c.Simulation.Delta >= 1 {
		return fmt.Errorf("simulation.delta must be in [0, 1)")
	}
	if c.Allocator.MaxPosition <= 0 || c.Allocator.MaxPosition > 1 {
		return fmt.Errorf("allocator.max_position must be in (0, 1]")
	}
	if c.Allocator.MinConfidence < 0 || c.Allocator.MinConfidence > 100 {
		return fmt.Errorf("allocator.min_confidence must be in [0, 100]")
	}
	switch c.Allocator.Mode {
	case "greedy", "lp", "risk_parity":
	default:
		return fmt.Errorf("allocator.mode must be one of greedy, lp, risk_parity, got %q", c.Allocator.Mode)
	}
	switch c.Allocator.Criterion {
	case "sharpe", "mean_return", "composite":
	default:
		return fmt.Errorf("allocator.criterion must be one of sharpe, mean_return, composite, got %q", c.Allocator.Criterion)
	}
	if c.Persistence.TTLMinutes <= 0 {
		return fmt.Errorf("persistence.ttl_minutes must be positive")
	}
	if c.Regime.Window <= 1 {
		return fmt.Errorf("regime.window must be greater than 1")
	}
	if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be a valid port number")
	}
	return nil
}
