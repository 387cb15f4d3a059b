package sched

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors config.yml
type Config struct {
	TickMS         int     `yaml:"tick_ms"`          // 0 (by default): unpaced
	TimerTicks     int64   `yaml:"timer_ticks"`      // 100 (by default)
	AgingThreshold int64   `yaml:"aging_threshold"`  // 1500 (by default)
	ResetOnPromote bool    `yaml:"reset_on_promote"` // false (by default)
	Alpha          float64 `yaml:"alpha"`            // 0.5 (by default)
	RoundRobinL3   bool    `yaml:"round_robin_l3"`   // true (by default)
	StackWords     int     `yaml:"stack_words"`      // 1024 (by default)
	LogLevel       string  `yaml:"log_level"`        // info (by default)
	LogFormat      string  `yaml:"log_format"`       // text (by default)
}

// DefaultConfig is used when no config file is given or found.
func DefaultConfig() Config {
	return Config{
		TickMS:         0,
		TimerTicks:     100,
		AgingThreshold: 1500,
		ResetOnPromote: false,
		Alpha:          0.5,
		RoundRobinL3:   true,
		StackWords:     1024,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads YAML and overrides defaults; empty path or missing file = defaults only.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg.clamped(), nil
}

// sanity clamps
func (cfg Config) clamped() Config {
	if cfg.TickMS < 0 {
		cfg.TickMS = 0
	}
	if cfg.TimerTicks <= 0 {
		cfg.TimerTicks = 100
	}
	if cfg.AgingThreshold <= 0 {
		cfg.AgingThreshold = 1500
	}
	if cfg.Alpha <= 0 || cfg.Alpha > 1 {
		cfg.Alpha = 0.5
	}
	if cfg.StackWords <= 0 {
		cfg.StackWords = 1024
	}
	return cfg
}
