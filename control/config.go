// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Reactor configuration: YAML file loading, defaults, validation, and a
// thread-safe store with reload propagation.

package control

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full configuration document.
type Config struct {
	Ring    RingConfig    `yaml:"ring"`
	Reactor ReactorConfig `yaml:"reactor"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Echo    EchoConfig    `yaml:"echo"`
}

// RingConfig sizes the kernel ring.
type RingConfig struct {
	// Entries is the submission queue size; must be a power of two.
	Entries uint32 `yaml:"entries"`
	// Flags are raw IORING_SETUP_* bits.
	Flags uint32 `yaml:"flags"`
}

// ReactorConfig tunes the run loop.
type ReactorConfig struct {
	// CQEBatch is how many completions are copied per reap call.
	CQEBatch int `yaml:"cqe_batch"`
	// SentinelRetries bounds the submit-flush retries when no slot is free
	// for a deadline sentinel.
	SentinelRetries int `yaml:"sentinel_retries"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// MetricsConfig controls the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

// EchoConfig configures the example echo server.
type EchoConfig struct {
	Addr       string `yaml:"addr"`
	BufferSize int    `yaml:"buffer_size"`
	Backlog    int    `yaml:"backlog"`
	// CPU pins the loop thread; negative leaves it unpinned.
	CPU int `yaml:"cpu"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Ring:    RingConfig{Entries: 1024},
		Reactor: ReactorConfig{CQEBatch: 128, SentinelRetries: 1},
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Path: "/metrics"},
		Echo:    EchoConfig{Addr: "127.0.0.1:9002", BufferSize: 4096, Backlog: 128, CPU: -1},
	}
}

// LoadConfig reads a YAML file over the defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML over the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.Ring.Entries == 0 || c.Ring.Entries&(c.Ring.Entries-1) != 0 {
		return fmt.Errorf("%w: ring.entries must be a power of two, got %d", ErrInvalidConfig, c.Ring.Entries)
	}
	if c.Reactor.CQEBatch <= 0 {
		return fmt.Errorf("%w: reactor.cqe_batch must be positive", ErrInvalidConfig)
	}
	if c.Reactor.SentinelRetries < 0 {
		return fmt.Errorf("%w: reactor.sentinel_retries must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Echo.BufferSize <= 0 {
		return fmt.Errorf("%w: echo.buffer_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error", or offsets
// such as "info+2").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	err := lvl.UnmarshalText([]byte(l.Level))
	return lvl, err
}

// ConfigStore holds the active Config and notifies listeners on change.
type ConfigStore struct {
	mu        sync.RWMutex
	config    Config
	listeners []func(Config)
}

// NewConfigStore initializes a store holding cfg.
func NewConfigStore(cfg Config) *ConfigStore {
	return &ConfigStore{config: cfg}
}

// GetSnapshot returns a copy of the active config.
func (cs *ConfigStore) GetSnapshot() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// SetConfig validates and installs cfg, then runs listeners synchronously.
func (cs *ConfigStore) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cs.mu.Lock()
	cs.config = cfg
	listeners := append([]func(Config){}, cs.listeners...)
	cs.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// OnReload registers a listener called after each SetConfig.
func (cs *ConfigStore) OnReload(fn func(Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
