package feed

import (
	"math/rand"
	"time"

	"knockout/internal/clock"
	"knockout/internal/market"
	"knockout/internal/pricing"
)

const (
	mockBasePrice = 100.0
	mockDriftPct  = 0.001 // 每 tick ±0.1% 随机扰动
	mockRefVol    = 0.20  // 参考期权的"真实"波动率
	mockRefMarkup = 1.02  // 参考报价相对理论价的溢价
)

// MockSource 是确定性随机游走行情源：标的从 100 起步，每 tick 扰动 ±0.1%，
// 参考期权报价取 ATM vanilla call 理论价上浮 2%。种子固定时输出完全可复现。
type MockSource struct {
	clk        *clock.SimClock
	engine     pricing.Engine
	symbols    []string
	expiryDays int
	prices     map[string]float64
	rng        *rand.Rand
}

// NewMockSource 构造 mock 行情源。seed 为 0 时取当前时间。
func NewMockSource(clk *clock.SimClock, engine pricing.Engine, symbols []string, expiryDays int, seed int64) *MockSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	prices := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		prices[s] = mockBasePrice
	}
	return &MockSource{
		clk:        clk,
		engine:     engine,
		symbols:    append([]string(nil), symbols...),
		expiryDays: expiryDays,
		prices:     prices,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Next 产出当前时钟步所有 symbol 的 tick，然后推进时钟。
func (m *MockSource) Next() []market.Tick {
	ts := m.clk.Unix()
	refT := float64(m.expiryDays) / pricing.DaysPerYear
	ticks := make([]market.Tick, 0, len(m.symbols))
	for _, sym := range m.symbols {
		price := m.prices[sym] * (1 + (m.rng.Float64()*2-1)*mockDriftPct)
		m.prices[sym] = price
		refPrice := m.engine.VanillaCall(price, price, refT, mockRefVol) * mockRefMarkup
		ticks = append(ticks, market.Tick{
			Symbol:          sym,
			Timestamp:       ts,
			Price:           price,
			RefOptionPrice:  refPrice,
			RefOptionStrike: price,
		})
	}
	m.clk.Advance()
	return ticks
}
