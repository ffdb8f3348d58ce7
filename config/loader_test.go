package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subscriptions/config"
)

type testConfig struct {
	Host    string `env:"TEST_CONFIG_HOST" envDefault:"localhost"`
	Port    int    `env:"TEST_CONFIG_PORT" envDefault:"5432"`
	Token   string `env:"TEST_CONFIG_TOKEN"`
	Enabled bool   `env:"TEST_CONFIG_ENABLED" envDefault:"true"`
}

type requiredConfig struct {
	Secret string `env:"TEST_CONFIG_REQUIRED_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 5432, cfg.Port)
		assert.True(t, cfg.Enabled)
	})

	t.Run("reads environment overrides", func(t *testing.T) {
		t.Setenv("TEST_CONFIG_HOST", "db.internal")
		t.Setenv("TEST_CONFIG_PORT", "6543")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "db.internal", cfg.Host)
		assert.Equal(t, 6543, cfg.Port)
	})

	t.Run("fails on missing required variable", func(t *testing.T) {
		var cfg requiredConfig
		require.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
	})

	t.Run("fails on malformed value", func(t *testing.T) {
		t.Setenv("TEST_CONFIG_PORT", "not-a-number")

		var cfg testConfig
		require.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
	})

	t.Run("rejects nil pointer", func(t *testing.T) {
		require.ErrorIs(t, config.Load[testConfig](nil), config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on failure", func(t *testing.T) {
		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg)
		})
	})

	t.Run("succeeds with valid environment", func(t *testing.T) {
		t.Setenv("TEST_CONFIG_REQUIRED_SECRET", "s3cret")
		var cfg requiredConfig
		assert.NotPanics(t, func() { config.MustLoad(&cfg) })
		assert.Equal(t, "s3cret", cfg.Secret)
	})
}
