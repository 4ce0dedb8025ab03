package market

// Tick 是一次行情采样：标的价格加一个用于反推隐含波动率的参考期权报价。
type Tick struct {
	Symbol          string  `json:"symbol"`
	Timestamp       int64   `json:"timestamp"` // Unix 秒
	Price           float64 `json:"price"`
	RefOptionPrice  float64 `json:"ref_option_price"`
	RefOptionStrike float64 `json:"ref_option_strike"`
}

// Bar 是固定桶宽的 OHLC K 线；桶未关闭前允许原地更新。
type Bar struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"` // 桶起始时间（Unix 秒，已对齐）
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

// OptionType 是本系统支持的障碍期权类型。
type OptionType string

const (
	DownAndOutCall OptionType = "DOWN_AND_OUT_CALL"
	UpAndOutPut    OptionType = "UP_AND_OUT_PUT"
)

// Direction 表示订单方向；CLOSE 订单只携带 symbol。
type Direction string

const (
	DirectionBuy   Direction = "BUY"
	DirectionSell  Direction = "SELL"
	DirectionClose Direction = "CLOSE"
)

// Order 是确认后的下单指令；波动率在确认时刻锁定，之后不再估计。
type Order struct {
	Symbol          string     `json:"symbol"`
	Type            OptionType `json:"type"`
	Direction       Direction  `json:"direction"`
	Strike          float64    `json:"strike"`
	Barrier         float64    `json:"barrier"`
	ExpiryTimestamp int64      `json:"expiry_timestamp"` // 绝对到期时间（Unix 秒）
	Volatility      float64    `json:"volatility_at_order"`
	SubmittedAt     int64      `json:"submission_timestamp"` // 信号产生时间
	SignalPrice     float64    `json:"signal_price"`
	ExpiryDays      int        `json:"expiry_days"`
}

// Fill 是一次成交结果，也是资金账户唯一的变更入口。
type Fill struct {
	Order           Order   `json:"order"`
	Price           float64 `json:"fill_price"`
	Timestamp       int64   `json:"fill_timestamp"`
	UnderlyingPrice float64 `json:"underlying_price_at_fill"`
	Fees            float64 `json:"fees"`
}

// IsOpen 返回该成交是否为开仓方向。
func (f Fill) IsOpen() bool {
	return f.Order.Direction == DirectionBuy || f.Order.Direction == DirectionSell
}
