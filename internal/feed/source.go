package feed

import "knockout/internal/market"

// TickSource 统一行情来源：每次调用产出一个时钟步内所有 symbol 的 tick。
type TickSource interface {
	Next() []market.Tick
}
