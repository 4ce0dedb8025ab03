package config

// 默认值常量
const (
	defaultAppEnv       = "dev"
	defaultAppLogLevel  = "info"
	defaultAppHTTPAddr  = ":9991"
	defaultTickInterval = 5
	defaultBarInterval  = 1
	defaultBarHistory   = 200
	defaultLookback     = 20
	defaultStdDevMult   = 2.0
	defaultExpiryDays   = 2
	defaultDelayMinutes = 10
	defaultSlippagePct  = 0.0005
	defaultORFFee       = 0.02685
	defaultOCCFee       = 0.02
	defaultRiskFreeRate = 0.02
	defaultCapital      = 100000.0
	defaultDays         = 15
	defaultResultDir    = "data/backtest"
	defaultTradeLogPath = "data/backtest/trade_log.csv"
	defaultChartPath    = "data/backtest/equity.html"
	defaultSymbol       = "SPY"
)

// applyDefaults 用默认值填充所有零值字段（零值视为未设置）。
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = defaultAppEnv
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultAppLogLevel
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = defaultAppHTTPAddr
	}
	if len(c.Feed.Symbols) == 0 {
		c.Feed.Symbols = []string{defaultSymbol}
	}
	if c.Feed.TickIntervalSeconds == 0 {
		c.Feed.TickIntervalSeconds = defaultTickInterval
	}
	if c.Feed.BarIntervalMinutes == 0 {
		c.Feed.BarIntervalMinutes = defaultBarInterval
	}
	if c.Feed.BarHistory == 0 {
		c.Feed.BarHistory = defaultBarHistory
	}
	if c.Strategy.LookbackPeriod == 0 {
		c.Strategy.LookbackPeriod = defaultLookback
	}
	if c.Strategy.StdDevMultiplier == 0 {
		c.Strategy.StdDevMultiplier = defaultStdDevMult
	}
	if c.Strategy.ExpiryDays == 0 {
		c.Strategy.ExpiryDays = defaultExpiryDays
	}
	if c.Execution.DelayMinutes == 0 {
		c.Execution.DelayMinutes = defaultDelayMinutes
	}
	if c.Execution.SlippagePercent == 0 {
		c.Execution.SlippagePercent = defaultSlippagePct
	}
	if c.Execution.Fees.ORFPerContract == 0 {
		c.Execution.Fees.ORFPerContract = defaultORFFee
	}
	if c.Execution.Fees.OCCPerContract == 0 {
		c.Execution.Fees.OCCPerContract = defaultOCCFee
	}
	if c.Pricing.RiskFreeRate == 0 {
		c.Pricing.RiskFreeRate = defaultRiskFreeRate
	}
	if c.Backtest.InitialCapital == 0 {
		c.Backtest.InitialCapital = defaultCapital
	}
	if c.Backtest.Days == 0 {
		c.Backtest.Days = defaultDays
	}
	if c.Backtest.ResultDir == "" {
		c.Backtest.ResultDir = defaultResultDir
	}
	if c.Backtest.TradeLogPath == "" {
		c.Backtest.TradeLogPath = defaultTradeLogPath
	}
	if c.Backtest.ChartPath == "" {
		c.Backtest.ChartPath = defaultChartPath
	}
}
