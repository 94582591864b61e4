// Package config loads stormlight settings from TOML files.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the full settings tree. Zero sections take their defaults
// from Default, so partial files only override what they name.
type Config struct {
	Cache  CacheConfig  `toml:"cache"`
	Worker WorkerConfig `toml:"worker"`
	Scheme SchemeConfig `toml:"scheme"`
	Log    LogConfig    `toml:"log"`
}

// CacheConfig controls the styled-line cache.
type CacheConfig struct {
	// MinLines is the smallest number of styled lines kept regardless of
	// viewport size.
	MinLines int `toml:"min_lines"`

	// PrefetchFactor scales how many lines beyond the viewport stay cached.
	PrefetchFactor int `toml:"prefetch_factor"`
}

// WorkerConfig controls the per-document parse worker.
type WorkerConfig struct {
	// QueueSize is the mailbox capacity for parse and edit messages.
	QueueSize int `toml:"queue_size"`
}

// SchemeConfig selects the color scheme.
type SchemeConfig struct {
	// Path locates a scheme YAML file. Empty selects the builtin scheme.
	Path string `toml:"path"`

	// Watch reloads the scheme when the file changes.
	Watch bool `toml:"watch"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is the minimum level to emit (debug, info, warn, error).
	Level string `toml:"level"`

	// Development switches to a human-readable console encoder.
	Development bool `toml:"development"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Cache:  CacheConfig{MinLines: 200, PrefetchFactor: 2},
		Worker: WorkerConfig{QueueSize: 1024},
		Scheme: SchemeConfig{Watch: true},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads a config file over the defaults. A missing file is not an
// error; anything else, including values that fail validation, is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Cache.MinLines <= 0 {
		return fmt.Errorf("cache.min_lines must be positive, got %d", c.Cache.MinLines)
	}
	if c.Cache.PrefetchFactor < 1 {
		return fmt.Errorf("cache.prefetch_factor must be at least 1, got %d", c.Cache.PrefetchFactor)
	}
	if c.Worker.QueueSize <= 0 {
		return fmt.Errorf("worker.queue_size must be positive, got %d", c.Worker.QueueSize)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// BuildLogger constructs a logger per the log section.
func (c LogConfig) BuildLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	if c.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
