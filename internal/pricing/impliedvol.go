package pricing

import "math"

// FallbackVol 是反解失败时使用的保底波动率。
const FallbackVol = 0.20

// Flag 标记用于反解隐含波动率的 vanilla 类型。
type Flag byte

const (
	FlagCall Flag = 'c'
	FlagPut  Flag = 'p'
)

// VolEstimate 区分真正收敛的估计与保底回退，便于诊断。
type VolEstimate struct {
	Value     float64
	Converged bool
	Reason    string
}

const (
	volLow     = 1e-4
	volHigh    = 5.0
	volTol     = 1e-8
	volMaxIter = 200
)

// ImpliedVol 用二分法反解 vanilla 价格对应的波动率。tDays 以天计。
// 输入非法或无法收敛时返回 FallbackVol（Converged=false，附原因）。
func (e Engine) ImpliedVol(marketPrice, s, k, tDays float64, flag Flag) VolEstimate {
	fallback := func(reason string) VolEstimate {
		return VolEstimate{Value: FallbackVol, Converged: false, Reason: reason}
	}
	if marketPrice <= 0 || s <= 0 || k <= 0 || tDays <= 0 {
		return fallback("invalid input")
	}
	if flag != FlagCall && flag != FlagPut {
		return fallback("unknown flag")
	}
	t := tDays / DaysPerYear
	price := func(sigma float64) float64 {
		if flag == FlagCall {
			return e.VanillaCall(s, k, t, sigma)
		}
		return e.VanillaPut(s, k, t, sigma)
	}
	lo, hi := volLow, volHigh
	fLo := price(lo) - marketPrice
	fHi := price(hi) - marketPrice
	if fLo*fHi > 0 {
		// 市场价越出可解区间（低于内在价值或高于 σ=500% 的价格）
		return fallback("price out of solvable range")
	}
	for i := 0; i < volMaxIter; i++ {
		mid := 0.5 * (lo + hi)
		fMid := price(mid) - marketPrice
		if math.Abs(fMid) < volTol || hi-lo < volTol {
			return VolEstimate{Value: mid, Converged: true}
		}
		if fLo*fMid <= 0 {
			hi = mid
		} else {
			lo = mid
			fLo = fMid
		}
	}
	return fallback("no convergence")
}
