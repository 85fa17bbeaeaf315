// Package config reads the configuration of the dm command line tool from
// the environment, and from an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/etnz/debts"
	"github.com/etnz/debts/store"
	"github.com/joho/godotenv"
)

// Config holds the settings of the command line tool. They are the defaults
// of the matching command line flags.
type Config struct {
	Store         string        `env:"DEBTS_STORE" envDefault:"sqlite"`
	Path          string        `env:"DEBTS_PATH"`
	Currency      string        `env:"DEBTS_CURRENCY"`
	Verbose       bool          `env:"DEBTS_VERBOSE"`
	SweepInterval time.Duration `env:"DEBTS_SWEEP_INTERVAL" envDefault:"24h"`
	SweepDelay    time.Duration `env:"DEBTS_SWEEP_DELAY" envDefault:"2s"`
}

// Load reads the .env files, ".env" when none is given, then parses the
// environment. Missing .env files are ignored, variables already set in the
// environment win over the files.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath(cfg.Store)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the default location of a store of the given kind.
func DefaultPath(kind string) string {
	if kind == store.KindFolder {
		return "debts"
	}
	return "debts.db"
}

// Validate checks the store kind, the currency and the sweep durations.
func (c *Config) Validate() error {
	if !slices.Contains(store.Kinds, c.Store) {
		return fmt.Errorf("%w: unknown store %q, want one of %v", debts.ErrValidation, c.Store, store.Kinds)
	}
	if c.Currency != "" && !debts.ValidCurrency(c.Currency) {
		return fmt.Errorf("%w: unknown currency %q", debts.ErrValidation, c.Currency)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("%w: sweep interval must be positive, got %v", debts.ErrValidation, c.SweepInterval)
	}
	if c.SweepDelay < 0 {
		return fmt.Errorf("%w: sweep delay must not be negative, got %v", debts.ErrValidation, c.SweepDelay)
	}
	return nil
}
