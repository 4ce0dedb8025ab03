package pricing

import (
	"math"

	"knockout/internal/market"
)

// 时间换算统一按 365 天年。
const (
	DaysPerYear    = 365.0
	SecondsPerYear = 365 * 24 * 60 * 60
)

// Engine 持有无风险利率，所有定价函数均为纯函数。
type Engine struct {
	rate float64
}

// NewEngine 构造定价引擎。
func NewEngine(riskFreeRate float64) Engine {
	return Engine{rate: riskFreeRate}
}

// Rate 返回配置的年化无风险利率。
func (e Engine) Rate() float64 {
	return e.rate
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// VanillaCall 计算欧式看涨期权的 Black-Scholes 价格；T<=0 退化为内在价值。
func (e Engine) VanillaCall(s, k, t, sigma float64) float64 {
	if t <= 0 {
		return math.Max(0, s-k)
	}
	if sigma <= 0 || s <= 0 || k <= 0 {
		return math.Max(0, s-k*math.Exp(-e.rate*t))
	}
	d1 := (math.Log(s/k) + (e.rate+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 := d1 - sigma*math.Sqrt(t)
	return s*normCDF(d1) - k*math.Exp(-e.rate*t)*normCDF(d2)
}

// VanillaPut 计算欧式看跌期权的 Black-Scholes 价格；T<=0 退化为内在价值。
func (e Engine) VanillaPut(s, k, t, sigma float64) float64 {
	if t <= 0 {
		return math.Max(0, k-s)
	}
	if sigma <= 0 || s <= 0 || k <= 0 {
		return math.Max(0, k*math.Exp(-e.rate*t)-s)
	}
	d1 := (math.Log(s/k) + (e.rate+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 := d1 - sigma*math.Sqrt(t)
	return k*math.Exp(-e.rate*t)*normCDF(-d2) - s*normCDF(-d1)
}

// DownAndOutCall 用反射原理计价下敲出看涨：vanilla 减去反射点 B²/S 上的
// 看涨价格乘 (S/B)^(1-2r/σ²)。障碍已触及（B>=S）直接返回 0。
func (e Engine) DownAndOutCall(s, k, b, t, sigma float64) float64 {
	if b >= s {
		return 0 // knocked out
	}
	if t <= 0 || sigma <= 0 {
		return 0
	}
	vanilla := e.VanillaCall(s, k, t, sigma)
	reflection := math.Pow(s/b, 1-2*e.rate/(sigma*sigma)) * e.VanillaCall(b*b/s, k, t, sigma)
	return vanilla - reflection
}

// UpAndOutPut 计价上敲出看跌。调整项保持与参考实现逐项一致，
// 包括 Φ(-x1·σ√T) 这个再次乘以 σ√T 的折价因子（不做教科书式修正，
// 取舍记录在 DESIGN.md）。S>=B 视为已敲出返回 0。
func (e Engine) UpAndOutPut(s, k, b, t, sigma float64) float64 {
	if s >= b {
		return 0 // knocked out
	}
	if t <= 0 || sigma <= 0 {
		return 0
	}
	vanilla := e.VanillaPut(s, k, t, sigma)
	lam := (e.rate + 0.5*sigma*sigma) / (sigma * sigma)
	x1 := (math.Log(b*b/(s*k)) + lam*sigma*sigma*t) / (sigma * math.Sqrt(t))
	reflection := k*math.Exp(-e.rate*t)*math.Pow(b/s, 2*lam-2)*normCDF(-x1*sigma*math.Sqrt(t)) -
		s*math.Pow(b/s, 2*lam)*normCDF(-x1)
	return vanilla - reflection
}

// PriceBarrier 按期权类型分发障碍定价；未知类型返回 0。
func (e Engine) PriceBarrier(typ market.OptionType, s, k, b, t, sigma float64) float64 {
	switch typ {
	case market.DownAndOutCall:
		return e.DownAndOutCall(s, k, b, t, sigma)
	case market.UpAndOutPut:
		return e.UpAndOutPut(s, k, b, t, sigma)
	default:
		return 0
	}
}
