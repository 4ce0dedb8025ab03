package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"knockout/internal/analysis"
	"knockout/internal/backtest"
	"knockout/internal/config"
	"knockout/internal/logger"
	"knockout/internal/store"
	"knockout/internal/tradelog"
	backtesthttp "knockout/internal/transport/http/backtest"
)

// App 负责应用级编排：组装依赖→跑完回测→出报告，
// 期间用一个只读 HTTP API 暴露进度与结果。
type App struct {
	cfg     *config.Config
	runner  *backtest.Runner
	httpSrv *backtesthttp.Server
	results *backtest.ResultStore
	trades  *store.TradeStore
	log     *tradelog.Log
}

// NewApp 根据配置与起始时间构建应用对象（不启动）。
func NewApp(cfg *config.Config, start time.Time) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return build(cfg, start)
}

// RunID 返回本次回测的标识。
func (a *App) RunID() string {
	return a.runner.RunID()
}

// Run 跑完整个回测。HTTP 服务随回测启动，回测结束后一并退出。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.httpSrv.Start(gctx); err != nil {
			return fmt.Errorf("backtest http server error: %w", err)
		}
		return nil
	})

	var stats backtest.RunStats
	group.Go(func() error {
		var err error
		stats, err = a.runner.Run(gctx)
		// 回测结束后让 HTTP 优雅退出
		cancel()
		return err
	})

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	a.report(stats)
	return nil
}

// report 读回交易日志，打印绩效报告并落图表。
func (a *App) report(stats backtest.RunStats) {
	trades, err := analysis.LoadTrades(a.cfg.Backtest.TradeLogPath)
	if err != nil {
		logger.Warnf("[app] 加载交易日志失败，跳过绩效分析: %v", err)
		return
	}
	rep := analysis.Analyze(trades, a.cfg.Backtest.InitialCapital, stats.FinalBalance, a.cfg.Pricing.RiskFreeRate)
	rep.Print()

	snaps, err := a.results.ListSnapshots(context.Background(), a.runner.RunID(), 0)
	if err != nil {
		logger.Warnf("[app] 读取权益快照失败，跳过图表: %v", err)
		return
	}
	points := make([]analysis.EquityPoint, 0, len(snaps))
	for _, s := range snaps {
		points = append(points, analysis.EquityPoint{TS: s.TS, Equity: s.Equity})
	}
	if err := analysis.WriteCharts(a.cfg.Backtest.ChartPath, points, trades); err != nil {
		logger.Warnf("[app] 写图表失败: %v", err)
		return
	}
	logger.Infof("[app] 图表已写入 %s", a.cfg.Backtest.ChartPath)
}

func (a *App) close() {
	if a.log != nil {
		if err := a.log.Close(); err != nil {
			logger.Warnf("[app] 关闭交易日志失败: %v", err)
		}
	}
	if a.trades != nil {
		_ = a.trades.Close()
	}
	if a.results != nil {
		_ = a.results.Close()
	}
}
