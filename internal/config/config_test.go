package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
store:
  path: /tmp/test.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "/tmp/test.db", cfg.Store.Path)
	// untouched sections fall back to defaults
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 4, cfg.Picker.MaxWorkers)
	assert.InDelta(t, DefaultPremiumTolerance, cfg.Picker.PremiumTolerance, 1e-12)
	assert.InDelta(t, DefaultYieldTolerance, cfg.Picker.YieldTolerance, 1e-12)
	assert.InDelta(t, DefaultBannedYield, cfg.Picker.BannedYield, 1e-12)
	assert.InDelta(t, 9300.0, cfg.Promotion.Seed, 1e-9)
	assert.Equal(t, []string{"SAFE"}, cfg.Promotion.TargetLanes())
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
picker:
  top_n: 3
  interval_seconds: 60
promotion:
  seed: 8000
  budget: 25000
  lanes: [safe, safe_high, safe]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Picker.TopN)
	assert.Equal(t, 60, cfg.Picker.IntervalSeconds)
	assert.InDelta(t, 8000.0, cfg.Promotion.Seed, 1e-9)
	assert.InDelta(t, 25000.0, cfg.Promotion.Budget, 1e-9)
	// lanes are uppercased and de-duplicated
	assert.Equal(t, []string{"SAFE", "SAFE_HIGH"}, cfg.Promotion.TargetLanes())
}

func TestLoadValidation(t *testing.T) {
	t.Run("zero tolerance rejected", func(t *testing.T) {
		path := writeConfig(t, `
picker:
  premium_tolerance: 0
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "premium_tolerance")
	})

	t.Run("negative budget rejected", func(t *testing.T) {
		path := writeConfig(t, `
promotion:
  budget: -1
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "budget")
	})

	t.Run("empty watchlist ticker rejected", func(t *testing.T) {
		path := writeConfig(t, `
watchlist:
  tickers: ["AAPL", "  "]
`)
		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "dev", cfg.App.Env)
	assert.InDelta(t, DefaultBannedYield, cfg.Picker.BannedYield, 1e-12)
	assert.NotEmpty(t, cfg.Store.Path)
}
