package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/debts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// clearEnv unsets every DEBTS_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	for _, k := range []string{"DEBTS_STORE", "DEBTS_PATH", "DEBTS_CURRENCY", "DEBTS_VERBOSE", "DEBTS_SWEEP_INTERVAL", "DEBTS_SWEEP_DELAY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Config
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			want: Config{Store: "sqlite", Path: "debts.db", SweepInterval: 24 * time.Hour, SweepDelay: 2 * time.Second},
		},
		{
			name: "folder default path",
			env:  map[string]string{"DEBTS_STORE": "folder"},
			want: Config{Store: "folder", Path: "debts", SweepInterval: 24 * time.Hour, SweepDelay: 2 * time.Second},
		},
		{
			name: "env only",
			env: map[string]string{
				"DEBTS_STORE":          "memory",
				"DEBTS_PATH":           "/tmp/x",
				"DEBTS_CURRENCY":       "EUR",
				"DEBTS_VERBOSE":        "true",
				"DEBTS_SWEEP_INTERVAL": "1h",
				"DEBTS_SWEEP_DELAY":    "0s",
			},
			want: Config{Store: "memory", Path: "/tmp/x", Currency: "EUR", Verbose: true, SweepInterval: time.Hour},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *cfg)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("DEBTS_STORE=folder\nDEBTS_CURRENCY=USD\n"), 0644))
	t.Setenv("DEBTS_CURRENCY", "EUR")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "folder", cfg.Store)
	assert.Equal(t, "EUR", cfg.Currency, "the environment wins over the .env file")
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"DEBTS_STORE": "cloud"}},
		{"unknown currency", map[string]string{"DEBTS_CURRENCY": "XYZ"}},
		{"zero interval", map[string]string{"DEBTS_SWEEP_INTERVAL": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.ErrorIs(t, err, debts.ErrValidation)
		})
	}

	t.Run("bad duration", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DEBTS_SWEEP_DELAY", "soon")
		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	quiet := NewLogger(false)
	assert.False(t, quiet.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, quiet.Desugar().Core().Enabled(zapcore.WarnLevel))

	verbose := NewLogger(true)
	assert.True(t, verbose.Desugar().Core().Enabled(zapcore.InfoLevel))
}
