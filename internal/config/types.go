package config

import "time"

// Config 是 knockout 的主配置载体。
type Config struct {
	App       AppConfig       `toml:"app"`
	Feed      FeedConfig      `toml:"feed"`
	Strategy  StrategyConfig  `toml:"strategy"`
	Execution ExecutionConfig `toml:"execution"`
	Pricing   PricingConfig   `toml:"pricing"`
	Backtest  BacktestConfig  `toml:"backtest"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// FeedConfig 控制 tick 采样与 K 线聚合。
type FeedConfig struct {
	Symbols             []string `toml:"symbols"`
	TickIntervalSeconds int      `toml:"tick_interval_seconds"`
	BarIntervalMinutes  int      `toml:"bar_interval_minutes"`
	BarHistory          int      `toml:"bar_history"` // 每个 symbol 保留的已完成 K 线条数
	Seed                int64    `toml:"seed"`        // mock 数据源随机种子，0 表示取当前时间
}

// TickInterval 返回 tick 间隔。
func (f FeedConfig) TickInterval() time.Duration {
	return time.Duration(f.TickIntervalSeconds) * time.Second
}

// BarIntervalSeconds 返回 K 线桶宽（秒）。
func (f FeedConfig) BarIntervalSeconds() int64 {
	return int64(f.BarIntervalMinutes) * 60
}

// StrategyConfig 描述均值回归信号参数。
type StrategyConfig struct {
	LookbackPeriod   int     `toml:"lookback_period"`
	StdDevMultiplier float64 `toml:"std_dev_multiplier"`
	ExpiryDays       int     `toml:"option_expiry_days"` // 信号挂载的期权到期天数
}

// ExecutionConfig 描述确认延迟、滑点与费用。
type ExecutionConfig struct {
	DelayMinutes    int       `toml:"delay_minutes"`
	SlippagePercent float64   `toml:"slippage_percent"`
	Fees            FeeConfig `toml:"fees"`
}

// DelaySeconds 返回信号确认延迟（秒）。
func (e ExecutionConfig) DelaySeconds() int64 {
	return int64(e.DelayMinutes) * 60
}

// FeeConfig 是固定费用结构，每笔成交收取全额。
type FeeConfig struct {
	ORFPerContract float64 `toml:"orf_per_contract"`
	OCCPerContract float64 `toml:"occ_per_contract"`
}

// Sum 返回单笔成交的费用合计。
func (f FeeConfig) Sum() float64 {
	return f.ORFPerContract + f.OCCPerContract
}

type PricingConfig struct {
	RiskFreeRate float64 `toml:"risk_free_rate"` // 年化无风险利率
}

// BacktestConfig 描述一次回测任务的范围与产物路径。
type BacktestConfig struct {
	InitialCapital float64 `toml:"initial_capital"`
	Days           int     `toml:"days"` // 从起始日开始模拟的天数
	ResultDir      string  `toml:"result_dir"`
	TradeLogPath   string  `toml:"trade_log_path"`
	ChartPath      string  `toml:"chart_path"`
}
