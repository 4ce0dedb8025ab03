package strategy

import (
	talib "github.com/markcheno/go-talib"

	"knockout/internal/config"
	"knockout/internal/market"
)

// MeanReversion 基于布林带回穿出信号：
//   - 收盘价从下轨下方收回带内 → BUY（下敲出看涨）
//   - 收盘价从上轨上方收回带内 → SELL（上敲出看跌）
//   - 收盘价穿越均线 → EXIT_LONG / EXIT_SHORT
//
// 无内部状态，均值与总体标准差只用最新 K 线之前的收盘价计算，避免前视。
type MeanReversion struct {
	lookback   int
	multiplier float64
	expiryDays int
}

// NewMeanReversion 从配置构造策略。
func NewMeanReversion(cfg config.StrategyConfig) *MeanReversion {
	return &MeanReversion{
		lookback:   cfg.LookbackPeriod,
		multiplier: cfg.StdDevMultiplier,
		expiryDays: cfg.ExpiryDays,
	}
}

// OnBar 评估一段 K 线历史，条件满足时返回至多一个信号。
// 入场条件先于离场条件检查，首个命中即返回。
func (m *MeanReversion) OnBar(series []market.Bar) *Signal {
	// lookback 根之外还需要一根"上一根"用于判断穿越方向
	if len(series) < m.lookback+1 {
		return nil
	}

	closes := make([]float64, len(series))
	for i, bar := range series {
		closes[i] = bar.Close
	}
	prevCloses := closes[:len(closes)-1]
	window := len(prevCloses)
	mean := talib.Sma(prevCloses, window)[window-1]
	std := talib.StdDev(prevCloses, window, 1.0)[window-1]

	upper := mean + m.multiplier*std
	lower := mean - m.multiplier*std

	current := series[len(series)-1]
	previous := series[len(series)-2]

	// 超卖反转
	if previous.Close < lower && current.Close > lower {
		return m.entrySignal(current, KindBuy, mean, lower)
	}
	// 超买反转
	if previous.Close > upper && current.Close < upper {
		return m.entrySignal(current, KindSell, mean, upper)
	}
	// 自下方回归均线
	if previous.Close <= mean && current.Close > mean {
		return &Signal{Kind: KindExitLong, Symbol: current.Symbol}
	}
	// 自上方回归均线
	if previous.Close >= mean && current.Close < mean {
		return &Signal{Kind: KindExitShort, Symbol: current.Symbol}
	}
	return nil
}

// entrySignal 组装入场信号：行权价取均线，障碍价取被穿越的那条带。
func (m *MeanReversion) entrySignal(bar market.Bar, kind Kind, mean, band float64) *Signal {
	var optType market.OptionType
	switch kind {
	case KindBuy:
		optType = market.DownAndOutCall
	case KindSell:
		optType = market.UpAndOutPut
	default:
		return nil
	}
	return &Signal{
		Kind:       kind,
		Symbol:     bar.Symbol,
		OptionType: optType,
		Strike:     mean,
		Barrier:    band,
		ExpiryDays: m.expiryDays,
		Price:      bar.Close,
		Timestamp:  bar.Timestamp,
	}
}
