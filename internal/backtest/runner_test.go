package backtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knockout/internal/clock"
	"knockout/internal/config"
	"knockout/internal/execution"
	"knockout/internal/feed"
	"knockout/internal/portfolio"
	"knockout/internal/pricing"
	"knockout/internal/strategy"
	"knockout/internal/tradelog"
)

func newTestRunner(t *testing.T, hours int) (*Runner, *portfolio.Portfolio, *ResultStore, string) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Feed.Seed = 42
	cfg.Backtest.ResultDir = dir
	cfg.Backtest.TradeLogPath = filepath.Join(dir, "trade_log.csv")

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	clk := clock.New(start, cfg.Feed.TickInterval())
	engine := pricing.NewEngine(cfg.Pricing.RiskFreeRate)
	source := feed.NewMockSource(clk, engine, cfg.Feed.Symbols, cfg.Strategy.ExpiryDays, cfg.Feed.Seed)
	agg := feed.NewAggregator(cfg.Feed.BarIntervalSeconds(), cfg.Feed.BarHistory)
	strat := strategy.NewMeanReversion(cfg.Strategy)
	book := portfolio.New(cfg.Backtest.InitialCapital)
	pipe := execution.NewPipeline(cfg.Execution, strat, book, engine)

	results, err := NewResultStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { results.Close() })
	log, err := tradelog.New(cfg.Backtest.TradeLogPath, "run-test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	runner, err := NewRunner(RunnerDeps{
		Config:    cfg,
		Clock:     clk,
		Source:    source,
		Agg:       agg,
		Strategy:  strat,
		Pipeline:  pipe,
		Portfolio: book,
		Engine:    engine,
		TradeLog:  log,
		Results:   results,
		RunID:     "run-test",
		End:       start.Add(time.Duration(hours) * time.Hour),
	})
	require.NoError(t, err)
	return runner, book, results, dir
}

func TestRunnerCompletesAndRecordsRun(t *testing.T) {
	runner, book, results, dir := newTestRunner(t, 4)

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)

	// 4 小时、5 秒一个 tick
	assert.Equal(t, 4*60*12, stats.Ticks)
	// 每分钟一根，最后一根未冻结
	assert.Equal(t, 4*60-1, stats.Bars)
	assert.Equal(t, book.Cash(), stats.FinalBalance)
	assert.Equal(t, book.OpenPositions(), stats.OpenPositions)
	assert.Equal(t, stats.Trades, stats.Wins+stats.Losses)

	run, err := results.GetRun(context.Background(), "run-test")
	require.NoError(t, err)
	assert.Equal(t, RunStatusDone, run.Status)
	assert.Equal(t, stats.Trades, run.Trades)
	assert.InDelta(t, stats.FinalBalance, run.FinalBalance, 1e-9)
	assert.Equal(t, int64(42), run.Config.Seed)

	snaps, err := results.ListSnapshots(context.Background(), "run-test", 0)
	require.NoError(t, err)
	assert.Len(t, snaps, stats.Bars)

	// manifest 落盘
	_, err = os.Stat(filepath.Join(dir, "manifest-run-test.yaml"))
	assert.NoError(t, err)
}

func TestRunnerDeterministicWithSeed(t *testing.T) {
	r1, b1, _, _ := newTestRunner(t, 3)
	r2, b2, _, _ := newTestRunner(t, 3)

	s1, err := r1.Run(context.Background())
	require.NoError(t, err)
	s2, err := r2.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, s1.Ticks, s2.Ticks)
	assert.Equal(t, s1.Signals, s2.Signals)
	assert.Equal(t, s1.Trades, s2.Trades)
	assert.Equal(t, b1.Cash(), b2.Cash())
}

func TestRunnerContextCancellation(t *testing.T) {
	runner, _, results, _ := newTestRunner(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	run, getErr := results.GetRun(context.Background(), "run-test")
	require.NoError(t, getErr)
	assert.Equal(t, RunStatusFailed, run.Status)
}

func TestRunnerRejectsMissingDeps(t *testing.T) {
	_, err := NewRunner(RunnerDeps{})
	assert.Error(t, err)
}
