package app

import (
	"fmt"
	"path/filepath"
	"time"

	"knockout/internal/backtest"
	"knockout/internal/clock"
	"knockout/internal/config"
	"knockout/internal/execution"
	"knockout/internal/feed"
	"knockout/internal/portfolio"
	"knockout/internal/pricing"
	"knockout/internal/store"
	"knockout/internal/strategy"
	"knockout/internal/tradelog"
	backtesthttp "knockout/internal/transport/http/backtest"

	"github.com/google/uuid"
)

// build 按依赖顺序组装全部组件：时钟与行情源在最底层，
// 执行管线与台账在中间，Runner 与 HTTP 在最上层。
func build(cfg *config.Config, start time.Time) (*App, error) {
	runID := uuid.NewString()
	clk := clock.New(start, cfg.Feed.TickInterval())
	engine := pricing.NewEngine(cfg.Pricing.RiskFreeRate)
	source := feed.NewMockSource(clk, engine, cfg.Feed.Symbols, cfg.Strategy.ExpiryDays, cfg.Feed.Seed)
	agg := feed.NewAggregator(cfg.Feed.BarIntervalSeconds(), cfg.Feed.BarHistory)
	strat := strategy.NewMeanReversion(cfg.Strategy)
	book := portfolio.New(cfg.Backtest.InitialCapital)
	pipe := execution.NewPipeline(cfg.Execution, strat, book, engine)

	results, err := backtest.NewResultStore(cfg.Backtest.ResultDir)
	if err != nil {
		return nil, fmt.Errorf("build result store: %w", err)
	}
	trades, err := store.NewTradeStore(filepath.Join(cfg.Backtest.ResultDir, "trades.db"))
	if err != nil {
		results.Close()
		return nil, fmt.Errorf("build trade store: %w", err)
	}
	log, err := tradelog.New(cfg.Backtest.TradeLogPath, runID, trades)
	if err != nil {
		results.Close()
		trades.Close()
		return nil, fmt.Errorf("build trade log: %w", err)
	}

	end := start.Add(time.Duration(cfg.Backtest.Days) * 24 * time.Hour)
	runner, err := backtest.NewRunner(backtest.RunnerDeps{
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
		RunID:     runID,
		End:       end,
	})
	if err != nil {
		results.Close()
		trades.Close()
		log.Close()
		return nil, fmt.Errorf("build runner: %w", err)
	}

	httpSrv, err := backtesthttp.NewServer(backtesthttp.Config{
		Addr:    cfg.App.HTTPAddr,
		Results: results,
		Trades:  trades,
	})
	if err != nil {
		results.Close()
		trades.Close()
		log.Close()
		return nil, fmt.Errorf("build http server: %w", err)
	}

	return &App{
		cfg:     cfg,
		runner:  runner,
		httpSrv: httpSrv,
		results: results,
		trades:  trades,
		log:     log,
	}, nil
}
