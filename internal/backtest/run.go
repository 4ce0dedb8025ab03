package backtest

import (
	"encoding/json"
	"time"
)

const (
	RunStatusPending = "pending"
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// RunConfig 记录本次回测的参数快照，便于重放。
type RunConfig struct {
	Symbols             []string `json:"symbols" yaml:"symbols"`
	StartTS             int64    `json:"start_ts" yaml:"start_ts"`
	EndTS               int64    `json:"end_ts" yaml:"end_ts"`
	TickIntervalSeconds int      `json:"tick_interval_seconds" yaml:"tick_interval_seconds"`
	BarIntervalMinutes  int      `json:"bar_interval_minutes" yaml:"bar_interval_minutes"`
	LookbackPeriod      int      `json:"lookback_period" yaml:"lookback_period"`
	StdDevMultiplier    float64  `json:"std_dev_multiplier" yaml:"std_dev_multiplier"`
	DelayMinutes        int      `json:"delay_minutes" yaml:"delay_minutes"`
	SlippagePercent     float64  `json:"slippage_percent" yaml:"slippage_percent"`
	FeeSum              float64  `json:"fee_sum" yaml:"fee_sum"`
	RiskFreeRate        float64  `json:"risk_free_rate" yaml:"risk_free_rate"`
	ExpiryDays          int      `json:"option_expiry_days" yaml:"option_expiry_days"`
	InitialCapital      float64  `json:"initial_capital" yaml:"initial_capital"`
	Seed                int64    `json:"seed" yaml:"seed"`
}

// RunStats 汇总一次回测的结果指标。
type RunStats struct {
	FinalBalance  float64   `json:"final_balance"`
	Profit        float64   `json:"profit"`
	ReturnPct     float64   `json:"return_pct"`
	Ticks         int       `json:"ticks"`
	Bars          int       `json:"bars"`
	Signals       int       `json:"signals"`
	Fills         int       `json:"fills"`
	Trades        int       `json:"trades"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	OpenPositions int       `json:"open_positions"`
	EquityPeak    float64   `json:"equity_peak"`
	MaxDrawdown   float64   `json:"max_drawdown_pct"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Run 表示一次回测任务。
type Run struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Status         string    `json:"status"`
	StartTS        int64     `json:"start_ts"`
	EndTS          int64     `json:"end_ts"`
	InitialBalance float64   `json:"initial_balance"`
	FinalBalance   float64   `json:"final_balance"`
	Profit         float64   `json:"profit"`
	ReturnPct      float64   `json:"return_pct"`
	Trades         int       `json:"trades"`
	Message        string    `json:"message"`
	Config         RunConfig `json:"config"`
	Stats          RunStats  `json:"stats"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	CompletedAt    time.Time `json:"completed_at"`
}

// MarshalConfig 返回 config JSON。
func (r Run) MarshalConfig() ([]byte, error) {
	return json.Marshal(r.Config)
}

// MarshalStats 返回 stats JSON。
func (r Run) MarshalStats() ([]byte, error) {
	return json.Marshal(r.Stats)
}

// Snapshot 是每根完成 K 线一条的权益曲线采样。
type Snapshot struct {
	ID        int64   `json:"id"`
	RunID     string  `json:"run_id"`
	TS        int64   `json:"ts"`
	Equity    float64 `json:"equity"`
	Cash      float64 `json:"cash"`
	Positions int     `json:"positions"`
	Drawdown  float64 `json:"drawdown"`
}
