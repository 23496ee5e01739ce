package bridge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default sizing, matching the original deployment values.
const (
	DefaultQueueCapacity  = 1024
	DefaultLedgerCapacity = 1000
	DefaultBatchTimeoutMs = 10
)

// Mode selects how much authority the engine has over forwarded requests.
type Mode string

const (
	// ModePassthrough forwards every request without consulting the model.
	ModePassthrough Mode = "passthrough"
	// ModeAssisted scores requests but treats every decision as advisory.
	ModeAssisted Mode = "assisted"
	// ModeAutonomous lets Reject decisions short-circuit forwarding.
	ModeAutonomous Mode = "autonomous"
)

// ValidModes is the set of recognized engine modes.
// Shared by Validate() and New() to avoid duplication.
var ValidModes = map[Mode]bool{"": true, ModePassthrough: true, ModeAssisted: true, ModeAutonomous: true}

// Config groups the engine parameters, loadable from a YAML file.
// Zero values mean "use the default"; DefaultConfig() returns the
// fully-populated baseline.
type Config struct {
	Mode           Mode  `yaml:"mode"`             // engine authority mode (default autonomous)
	QueueCapacity  int   `yaml:"queue_capacity"`   // bounded request queue size (default 1024)
	LedgerCapacity int   `yaml:"ledger_capacity"`  // circular outcome history size (default 1000)
	BatchTimeoutMs int64 `yaml:"batch_timeout_ms"` // dispatcher wake interval (default 10)
	Seed           int64 `yaml:"seed"`             // master seed for model init and jitter

	Learning  bool  `yaml:"learning"`  // enable bounded weight updates on feedback
	Recording *bool `yaml:"recording"` // record feedback into history/stats (default true)
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	recording := true
	return Config{
		Mode:           ModeAutonomous,
		QueueCapacity:  DefaultQueueCapacity,
		LedgerCapacity: DefaultLedgerCapacity,
		BatchTimeoutMs: DefaultBatchTimeoutMs,
		Seed:           1,
		Learning:       false,
		Recording:      &recording,
	}
}

// LoadConfig reads and parses a YAML engine configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading engine config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing engine config: %w", err)
	}
	return &cfg, nil
}

// Validate checks parameter ranges. Zero values pass (they resolve to
// defaults in normalize).
func (c *Config) Validate() error {
	if !ValidModes[c.Mode] {
		return fmt.Errorf("unknown engine mode %q", c.Mode)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("queue_capacity must be non-negative, got %d", c.QueueCapacity)
	}
	if c.LedgerCapacity < 0 {
		return fmt.Errorf("ledger_capacity must be non-negative, got %d", c.LedgerCapacity)
	}
	if c.BatchTimeoutMs < 0 {
		return fmt.Errorf("batch_timeout_ms must be non-negative, got %d", c.BatchTimeoutMs)
	}
	return nil
}

// normalize resolves zero values to defaults. Returns a copy; the caller's
// Config is not mutated.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = def.QueueCapacity
	}
	if c.LedgerCapacity == 0 {
		c.LedgerCapacity = def.LedgerCapacity
	}
	if c.BatchTimeoutMs == 0 {
		c.BatchTimeoutMs = def.BatchTimeoutMs
	}
	if c.Recording == nil {
		c.Recording = def.Recording
	}
	return c
}

// recording reports whether feedback recording is enabled.
func (c *Config) recording() bool {
	return c.Recording == nil || *c.Recording
}
