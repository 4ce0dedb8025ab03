package strategy

import "knockout/internal/market"

// Kind 是信号类型。入场信号携带完整期权参数，离场信号只带 symbol。
type Kind string

const (
	KindBuy       Kind = "BUY"
	KindSell      Kind = "SELL"
	KindExitLong  Kind = "EXIT_LONG"
	KindExitShort Kind = "EXIT_SHORT"
)

// IsExit 返回该信号是否为离场信号。
func (k Kind) IsExit() bool {
	return k == KindExitLong || k == KindExitShort
}

// Signal 是策略单次评估的产物，每根完成 K 线至多一个。
type Signal struct {
	Kind       Kind              `json:"signal"`
	Symbol     string            `json:"symbol"`
	OptionType market.OptionType `json:"option_type,omitempty"`
	Strike     float64           `json:"strike_price,omitempty"`
	Barrier    float64           `json:"barrier_price,omitempty"`
	ExpiryDays int               `json:"expiry_days,omitempty"`
	Price      float64           `json:"signal_price,omitempty"`
	Timestamp  int64             `json:"signal_timestamp,omitempty"`
}
