package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5250", cfg.Server.Port)
	assert.Equal(t, 10, cfg.CMA.DefaultMaxComps)
	assert.Equal(t, 1.5, cfg.CMA.FenceMultiplier)
	assert.Equal(t, 2, cfg.BatchProcessing.ProcessorCount)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay())
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CMA_FENCE_MULTIPLIER", "3")
	t.Setenv("CMA_DEFAULT_MAX_COMPS", "15")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)

	ec := cfg.EngineConfig()
	assert.Equal(t, 3.0, ec.FenceMultiplier)
	assert.Equal(t, 15, ec.DefaultMaxComps)
	assert.Equal(t, 4, ec.MinFenceSample)
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	t.Setenv("CMA_BED_WEIGHT", "heavy")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLookbackSince(t *testing.T) {
	cfg := &Config{}
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.True(t, cfg.LookbackSince(now).IsZero())

	cfg.CMA.LookbackMonths = 24
	assert.Equal(t, time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC), cfg.LookbackSince(now))
}
