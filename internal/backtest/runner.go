package backtest

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"knockout/internal/clock"
	"knockout/internal/config"
	"knockout/internal/execution"
	"knockout/internal/feed"
	"knockout/internal/logger"
	"knockout/internal/market"
	"knockout/internal/portfolio"
	"knockout/internal/pricing"
	"knockout/internal/strategy"
	"knockout/internal/tradelog"
)

// Runner 驱动回测主循环：每个 tick 依次走完
// 行情 → 聚合 → 信号 → 执行 → 台账 → 日志，严格串行，无任何 tick 内并发。
type Runner struct {
	cfg     *config.Config
	clk     *clock.SimClock
	source  feed.TickSource
	agg     *feed.Aggregator
	strat   *strategy.MeanReversion
	pipe    *execution.Pipeline
	book    *portfolio.Portfolio
	engine  pricing.Engine
	log     *tradelog.Log
	results *ResultStore

	runID string
	end   time.Time

	stats      RunStats
	equityPeak float64
}

// RunnerDeps 汇集 Runner 的全部依赖。
type RunnerDeps struct {
	Config    *config.Config
	Clock     *clock.SimClock
	Source    feed.TickSource
	Agg       *feed.Aggregator
	Strategy  *strategy.MeanReversion
	Pipeline  *execution.Pipeline
	Portfolio *portfolio.Portfolio
	Engine    pricing.Engine
	TradeLog  *tradelog.Log
	Results   *ResultStore
	RunID     string
	End       time.Time
}

// NewRunner 构造回测执行器。RunID 为空时自动生成。
func NewRunner(deps RunnerDeps) (*Runner, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if deps.Clock == nil || deps.Source == nil || deps.Agg == nil {
		return nil, fmt.Errorf("clock/source/aggregator cannot be nil")
	}
	if deps.Strategy == nil || deps.Pipeline == nil || deps.Portfolio == nil {
		return nil, fmt.Errorf("strategy/pipeline/portfolio cannot be nil")
	}
	runID := deps.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Runner{
		cfg:        deps.Config,
		clk:        deps.Clock,
		source:     deps.Source,
		agg:        deps.Agg,
		strat:      deps.Strategy,
		pipe:       deps.Pipeline,
		book:       deps.Portfolio,
		engine:     deps.Engine,
		log:        deps.TradeLog,
		results:    deps.Results,
		runID:      runID,
		end:        deps.End,
		equityPeak: deps.Portfolio.Cash(),
	}, nil
}

// RunID 返回本次回测的标识。
func (r *Runner) RunID() string {
	return r.runID
}

// Run 执行整个回测并落最终指标。ctx 取消时中断并标记失败。
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	start := r.clk.Unix()
	runCfg := r.buildRunConfig(start)
	if r.results != nil {
		run := Run{
			ID:             r.runID,
			Symbol:         firstSymbol(r.cfg.Feed.Symbols),
			Status:         RunStatusRunning,
			StartTS:        start,
			EndTS:          r.end.Unix(),
			InitialBalance: r.book.InitialCapital(),
			FinalBalance:   r.book.InitialCapital(),
			Config:         runCfg,
			Message:        "simulating",
		}
		if err := r.results.InsertRun(context.Background(), run); err != nil {
			return RunStats{}, fmt.Errorf("insert run failed: %w", err)
		}
	}
	r.writeManifest(runCfg)

	for r.clk.Now().Before(r.end) {
		select {
		case <-ctx.Done():
			if r.results != nil {
				// 落状态不能用已取消的 ctx
				_ = r.results.UpdateRunStatus(context.Background(), r.runID, RunStatusFailed, ctx.Err().Error())
			}
			return r.stats, ctx.Err()
		default:
		}
		for _, tick := range r.source.Next() {
			r.step(ctx, tick)
		}
	}

	r.finalize()
	if r.results != nil {
		if err := r.results.UpdateRunSummary(context.Background(), r.runID, RunStatusDone, r.stats, "done"); err != nil {
			logger.Warnf("[backtest] run %s 写最终指标失败: %v", r.runID, err)
		}
	}
	return r.stats, nil
}

// step 处理单个 tick：先做 K 线聚合与新信号，再检查延迟队列。
func (r *Runner) step(ctx context.Context, tick market.Tick) {
	r.stats.Ticks++

	series, completed := r.agg.ProcessTick(tick)
	if completed {
		r.stats.Bars++
		if sig := r.strat.OnBar(series); sig != nil {
			r.stats.Signals++
			if sig.Kind.IsExit() {
				// 离场信号绕过延迟队列，立即执行
				if fill := r.pipe.ProcessSignal(*sig, tick); fill != nil {
					r.applyFill(ctx, *fill)
				}
			} else {
				r.pipe.SubmitForCheck(*sig)
			}
		}
		r.recordSnapshot(ctx, series[len(series)-1])
	}

	if history := r.agg.History(tick.Symbol); len(history) > 0 {
		if fill := r.pipe.ProcessPending(tick, history); fill != nil {
			r.applyFill(ctx, *fill)
		}
	}
}

func (r *Runner) applyFill(ctx context.Context, fill market.Fill) {
	r.stats.Fills++
	r.book.UpdateOnFill(fill)
	if r.log == nil {
		return
	}
	if fill.IsOpen() {
		r.log.LogOpen(fill)
		return
	}
	if closed, ok := r.log.LogClose(ctx, fill); ok {
		r.stats.Trades++
		if closed.NetPL > 0 {
			r.stats.Wins++
		} else {
			r.stats.Losses++
		}
	}
}

// recordSnapshot 在每根完成 K 线后采样权益：现金加上持仓按当前
// 收盘价与锁定波动率的理论价值。
func (r *Runner) recordSnapshot(ctx context.Context, bar market.Bar) {
	equity := r.book.Cash()
	for _, sym := range r.cfg.Feed.Symbols {
		pos, ok := r.book.Position(sym)
		if !ok {
			continue
		}
		remaining := pos.Order.ExpiryTimestamp - bar.Timestamp
		if remaining <= 0 {
			continue
		}
		tYears := float64(remaining) / pricing.SecondsPerYear
		equity += r.engine.PriceBarrier(pos.Order.Type, bar.Close, pos.Order.Strike,
			pos.Order.Barrier, tYears, pos.Order.Volatility)
	}
	r.equityPeak = math.Max(r.equityPeak, equity)
	drawdown := 0.0
	if r.equityPeak > 0 {
		drawdown = (r.equityPeak - equity) / r.equityPeak
	}
	if drawdown > r.stats.MaxDrawdown {
		r.stats.MaxDrawdown = drawdown
	}
	if r.results == nil {
		return
	}
	snap := Snapshot{
		RunID:     r.runID,
		TS:        bar.Timestamp,
		Equity:    equity,
		Cash:      r.book.Cash(),
		Positions: r.book.OpenPositions(),
		Drawdown:  drawdown,
	}
	if _, err := r.results.InsertSnapshot(ctx, snap); err != nil {
		logger.Debugf("[backtest] run %s 写 snapshot 失败: %v", r.runID, err)
	}
}

func (r *Runner) finalize() {
	initial := r.book.InitialCapital()
	final := r.book.Cash()
	r.stats.FinalBalance = final
	r.stats.Profit = final - initial
	if initial > 0 {
		r.stats.ReturnPct = r.stats.Profit / initial
	}
	r.stats.OpenPositions = r.book.OpenPositions()
	r.stats.EquityPeak = r.equityPeak
	r.stats.FinishedAt = time.Now()
	logger.Infof("[backtest] run %s 完成: trades=%d profit=%.2f return=%.2f%%",
		r.runID, r.stats.Trades, r.stats.Profit, r.stats.ReturnPct*100)
}

func (r *Runner) buildRunConfig(startTS int64) RunConfig {
	return RunConfig{
		Symbols:             append([]string(nil), r.cfg.Feed.Symbols...),
		StartTS:             startTS,
		EndTS:               r.end.Unix(),
		TickIntervalSeconds: r.cfg.Feed.TickIntervalSeconds,
		BarIntervalMinutes:  r.cfg.Feed.BarIntervalMinutes,
		LookbackPeriod:      r.cfg.Strategy.LookbackPeriod,
		StdDevMultiplier:    r.cfg.Strategy.StdDevMultiplier,
		DelayMinutes:        r.cfg.Execution.DelayMinutes,
		SlippagePercent:     r.cfg.Execution.SlippagePercent,
		FeeSum:              r.cfg.Execution.Fees.Sum(),
		RiskFreeRate:        r.cfg.Pricing.RiskFreeRate,
		ExpiryDays:          r.cfg.Strategy.ExpiryDays,
		InitialCapital:      r.cfg.Backtest.InitialCapital,
		Seed:                r.cfg.Feed.Seed,
	}
}

// writeManifest 把参数快照落成 YAML，方便人工核对与重放。
func (r *Runner) writeManifest(runCfg RunConfig) {
	dir := r.cfg.Backtest.ResultDir
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warnf("[backtest] 创建结果目录失败: %v", err)
		return
	}
	data, err := yaml.Marshal(runCfg)
	if err != nil {
		logger.Warnf("[backtest] 序列化 manifest 失败: %v", err)
		return
	}
	path := filepath.Join(dir, "manifest-"+r.runID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Warnf("[backtest] 写 manifest 失败: %v", err)
	}
}

func firstSymbol(symbols []string) string {
	if len(symbols) == 0 {
		return ""
	}
	return symbols[0]
}
