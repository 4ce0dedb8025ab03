package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"SPY"}, cfg.Feed.Symbols)
	assert.Equal(t, 5, cfg.Feed.TickIntervalSeconds)
	assert.Equal(t, 1, cfg.Feed.BarIntervalMinutes)
	assert.Equal(t, 200, cfg.Feed.BarHistory)
	assert.Equal(t, 20, cfg.Strategy.LookbackPeriod)
	assert.Equal(t, 2.0, cfg.Strategy.StdDevMultiplier)
	assert.Equal(t, 2, cfg.Strategy.ExpiryDays)
	assert.Equal(t, 10, cfg.Execution.DelayMinutes)
	assert.Equal(t, 0.0005, cfg.Execution.SlippagePercent)
	assert.InDelta(t, 0.04685, cfg.Execution.Fees.Sum(), 1e-12)
	assert.Equal(t, 0.02, cfg.Pricing.RiskFreeRate)
	assert.Equal(t, 100000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 15, cfg.Backtest.Days)
	require.NoError(t, validate(cfg))
}

func TestDerivedIntervals(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5*time.Second, cfg.Feed.TickInterval())
	assert.Equal(t, int64(60), cfg.Feed.BarIntervalSeconds())
	assert.Equal(t, int64(600), cfg.Execution.DelaySeconds())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
feed:
  symbols: ["QQQ", "SPY"]
  tick_interval_seconds: 10
strategy:
  lookback_period: 30
execution:
  fees:
    orf_per_contract: 0.03
backtest:
  initial_capital: 50000
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, []string{"QQQ", "SPY"}, cfg.Feed.Symbols)
	assert.Equal(t, 10, cfg.Feed.TickIntervalSeconds)
	assert.Equal(t, 30, cfg.Strategy.LookbackPeriod)
	assert.Equal(t, 0.03, cfg.Execution.Fees.ORFPerContract)
	assert.Equal(t, 50000.0, cfg.Backtest.InitialCapital)
	// 未设置的字段回落默认值
	assert.Equal(t, 1, cfg.Feed.BarIntervalMinutes)
	assert.Equal(t, 2.0, cfg.Strategy.StdDevMultiplier)
	assert.Equal(t, 0.02, cfg.Execution.Fees.OCCPerContract)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no symbols", func(c *Config) { c.Feed.Symbols = []string{} }},
		{"blank symbol", func(c *Config) { c.Feed.Symbols = []string{" "} }},
		{"zero tick interval", func(c *Config) { c.Feed.TickIntervalSeconds = 0 }},
		{"bar shorter than tick", func(c *Config) { c.Feed.TickIntervalSeconds = 120 }},
		{"tiny history", func(c *Config) { c.Feed.BarHistory = 1 }},
		{"lookback too small", func(c *Config) { c.Strategy.LookbackPeriod = 1 }},
		{"zero multiplier", func(c *Config) { c.Strategy.StdDevMultiplier = 0 }},
		{"negative delay", func(c *Config) { c.Execution.DelayMinutes = -1 }},
		{"slippage too big", func(c *Config) { c.Execution.SlippagePercent = 1.0 }},
		{"negative fee", func(c *Config) { c.Execution.Fees.OCCPerContract = -0.01 }},
		{"negative rate", func(c *Config) { c.Pricing.RiskFreeRate = -0.01 }},
		{"zero capital", func(c *Config) { c.Backtest.InitialCapital = 0 }},
		{"zero days", func(c *Config) { c.Backtest.Days = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, validate(cfg))
		})
	}
}
