package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(12345), cfg.Seed)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Quick)
	assert.Zero(t, cfg.Iterations)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SOULBENCH_ITERATIONS", "777")
	t.Setenv("SOULBENCH_QUICK", "true")
	t.Setenv("SOULBENCH_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 777, cfg.Iterations)
	assert.True(t, cfg.Quick)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadClampsConcurrency(t *testing.T) {
	t.Setenv("SOULBENCH_CONCURRENCY", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Concurrency)
}

func TestLoadRejectsBadLevel(t *testing.T) {
	t.Setenv("SOULBENCH_LOG_LEVEL", "loud")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNegativeIterations(t *testing.T) {
	t.Setenv("SOULBENCH_ITERATIONS", "-5")

	_, err := Load()
	assert.Error(t, err)
}
