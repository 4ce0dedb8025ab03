package model

import "gorm.io/datatypes"

// TradeModel 是一笔完整往返交易（开仓+平仓）的持久化记录，
// 与 CSV 交易日志同源，供 HTTP API 查询。
type TradeModel struct {
	ID               int64          `gorm:"column:id;primaryKey" json:"id"`
	RunID            string         `gorm:"column:run_id;index" json:"run_id"`
	TradeID          int            `gorm:"column:trade_id" json:"trade_id"`
	Symbol           string         `gorm:"column:symbol" json:"symbol"`
	Direction        string         `gorm:"column:direction" json:"direction"`
	Status           string         `gorm:"column:status" json:"status"`
	SignalTimestamp  int64          `gorm:"column:signal_timestamp" json:"signal_timestamp"`
	EntryTimestamp   int64          `gorm:"column:entry_timestamp" json:"entry_timestamp"`
	UnderlyingSignal float64        `gorm:"column:underlying_at_signal" json:"underlying_at_signal"`
	UnderlyingEntry  float64        `gorm:"column:underlying_at_entry" json:"underlying_at_entry"`
	OptionType       string         `gorm:"column:option_type" json:"option_type"`
	Strike           float64        `gorm:"column:strike" json:"strike"`
	Barrier          float64        `gorm:"column:barrier" json:"barrier"`
	ExpiryDays       int            `gorm:"column:expiry_days" json:"expiry_days"`
	EntryPrice       float64        `gorm:"column:entry_price" json:"entry_price"`
	EntryFees        float64        `gorm:"column:entry_fees" json:"entry_fees"`
	ExitTimestamp    int64          `gorm:"column:exit_timestamp" json:"exit_timestamp"`
	UnderlyingExit   float64        `gorm:"column:underlying_at_exit" json:"underlying_at_exit"`
	ExitPrice        float64        `gorm:"column:exit_price" json:"exit_price"`
	ExitFees         float64        `gorm:"column:exit_fees" json:"exit_fees"`
	GrossPL          float64        `gorm:"column:gross_pl" json:"gross_pl"`
	NetPL            float64        `gorm:"column:net_pl" json:"net_pl"`
	OrderDetailsJSON datatypes.JSON `gorm:"column:order_details_json;type:TEXT" json:"order_details,omitempty"`
	CreatedAtUnix    int64          `gorm:"column:created_at" json:"created_at"`
}

func (TradeModel) TableName() string { return "trades" }
