// Package config loads the basis evaluation settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

var ErrInvalid = errors.New("invalid configuration")

// Config controls array allocation and how evaluation work is split
type Config struct {
	// Allocate and fill the measure weighted twins of every physical table
	BuildWeighted bool `env:"BASIS_BUILD_WEIGHTED" envDefault:"true"`

	// Allocate and fill GRAD / CURL / DIV tables
	ComputeDerivatives bool `env:"BASIS_COMPUTE_DERIVATIVES" envDefault:"true"`

	// Target number of cells per workset
	WorksetSize int `env:"BASIS_WORKSET_SIZE" envDefault:"256"`

	// Concurrent worksets, 0 means GOMAXPROCS
	Workers int `env:"BASIS_WORKERS" envDefault:"0"`

	// OCCA backend for device evaluation: Serial, OpenMP, CUDA
	DeviceMode string `env:"BASIS_DEVICE_MODE" envDefault:"Serial"`

	// Prepended to every array name
	ArrayPrefix string `env:"BASIS_ARRAY_PREFIX"`

	LogLevel slog.Level `env:"BASIS_LOG_LEVEL" envDefault:"INFO"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Default returns the tag defaults without consulting the environment
func Default() Config {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Errorf("config defaults: %w", err))
	}
	return cfg
}

func (c Config) Validate() error {
	if c.WorksetSize < 1 {
		return fmt.Errorf("BASIS_WORKSET_SIZE %d must be positive: %w", c.WorksetSize, ErrInvalid)
	}
	if c.Workers < 0 {
		return fmt.Errorf("BASIS_WORKERS %d must not be negative: %w", c.Workers, ErrInvalid)
	}
	switch c.DeviceMode {
	case "Serial", "OpenMP", "CUDA", "OpenCL":
	default:
		return fmt.Errorf("BASIS_DEVICE_MODE %q: %w", c.DeviceMode, ErrInvalid)
	}
	return nil
}

// DeviceProps is the OCCA device property string for DeviceMode
func (c Config) DeviceProps() string {
	switch c.DeviceMode {
	case "OpenMP":
		return `{"mode": "OpenMP"}`
	case "CUDA", "OpenCL":
		return fmt.Sprintf(`{"mode": %q, "device_id": 0}`, c.DeviceMode)
	}
	return `{"mode": "Serial"}`
}

// Logger returns a text logger writing to w at LogLevel
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
