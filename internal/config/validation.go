package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Feed.validate(); err != nil {
		return err
	}
	if err := c.Strategy.validate(); err != nil {
		return err
	}
	if err := c.Execution.validate(); err != nil {
		return err
	}
	if c.Pricing.RiskFreeRate < 0 {
		return fmt.Errorf("pricing.risk_free_rate must be >= 0")
	}
	return c.Backtest.validate()
}

func (f *FeedConfig) validate() error {
	if len(f.Symbols) == 0 {
		return fmt.Errorf("feed.symbols requires at least one symbol")
	}
	for _, s := range f.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("feed.symbols contains empty entry")
		}
	}
	if f.TickIntervalSeconds <= 0 {
		return fmt.Errorf("feed.tick_interval_seconds must be > 0")
	}
	if f.BarIntervalMinutes <= 0 {
		return fmt.Errorf("feed.bar_interval_minutes must be > 0")
	}
	if f.BarHistory < 2 {
		return fmt.Errorf("feed.bar_history must be >= 2")
	}
	if f.BarIntervalSeconds() < int64(f.TickIntervalSeconds) {
		return fmt.Errorf("feed.bar_interval_minutes must cover at least one tick interval")
	}
	return nil
}

func (s *StrategyConfig) validate() error {
	if s.LookbackPeriod < 2 {
		return fmt.Errorf("strategy.lookback_period must be >= 2")
	}
	if s.StdDevMultiplier <= 0 {
		return fmt.Errorf("strategy.std_dev_multiplier must be > 0")
	}
	if s.ExpiryDays <= 0 {
		return fmt.Errorf("strategy.option_expiry_days must be > 0")
	}
	return nil
}

func (e *ExecutionConfig) validate() error {
	if e.DelayMinutes < 0 {
		return fmt.Errorf("execution.delay_minutes must be >= 0")
	}
	if e.SlippagePercent < 0 || e.SlippagePercent >= 1 {
		return fmt.Errorf("execution.slippage_percent must be in [0,1)")
	}
	if e.Fees.ORFPerContract < 0 || e.Fees.OCCPerContract < 0 {
		return fmt.Errorf("execution.fees must be >= 0")
	}
	return nil
}

func (b *BacktestConfig) validate() error {
	if b.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be > 0")
	}
	if b.Days <= 0 {
		return fmt.Errorf("backtest.days must be > 0")
	}
	return nil
}
