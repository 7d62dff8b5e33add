package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFetchConfigDefaults(t *testing.T) {
	cfg, err := LoadFetchConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://query1.finance.yahoo.com", cfg.ChartBaseURL)
	assert.Contains(t, cfg.ConstituentsURL, "constituents.csv")
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 16, cfg.Concurrency)
	assert.NotEmpty(t, cfg.UserAgent)
}

func TestLoadFetchConfigEnvOverride(t *testing.T) {
	t.Setenv("S2M_CHART_BASE_URL", "http://localhost:8080")
	t.Setenv("S2M_CONCURRENCY", "4")
	t.Setenv("S2M_TIMEOUT", "5s")

	cfg, err := LoadFetchConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.ChartBaseURL)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadFetchConfigRejectsBadConcurrency(t *testing.T) {
	t.Setenv("S2M_CONCURRENCY", "0")

	_, err := LoadFetchConfig()
	assert.Error(t, err)
}
