package feed

import (
	"knockout/internal/market"
)

// Aggregator 把 tick 流折叠成固定桶宽的 K 线，并维护每个 symbol
// 一段有界的已完成 K 线历史（满员后淘汰最旧一条）。
type Aggregator struct {
	bucketSeconds int64
	capacity      int
	current       map[string]*market.Bar
	history       map[string][]market.Bar
}

// NewAggregator 构造聚合器。bucketSeconds 为桶宽，capacity 为历史容量。
func NewAggregator(bucketSeconds int64, capacity int) *Aggregator {
	if bucketSeconds <= 0 {
		bucketSeconds = 60
	}
	if capacity <= 0 {
		capacity = 200
	}
	return &Aggregator{
		bucketSeconds: bucketSeconds,
		capacity:      capacity,
		current:       make(map[string]*market.Bar),
		history:       make(map[string][]market.Bar),
	}
}

// ProcessTick 处理一个 tick。跨越桶边界时，上一根 K 线被冻结并追加进历史，
// 返回 (更新后的历史, true)；桶内更新则原地改写 high/low/close，返回 (nil, false)。
// 每个关闭的桶恰好产生一次完成事件。
func (a *Aggregator) ProcessTick(tick market.Tick) ([]market.Bar, bool) {
	bucket := tick.Timestamp / a.bucketSeconds * a.bucketSeconds
	if tick.Timestamp < 0 && tick.Timestamp%a.bucketSeconds != 0 {
		bucket -= a.bucketSeconds
	}

	cur, ok := a.current[tick.Symbol]
	if ok && cur.Timestamp == bucket {
		if tick.Price > cur.High {
			cur.High = tick.Price
		}
		if tick.Price < cur.Low {
			cur.Low = tick.Price
		}
		cur.Close = tick.Price
		return nil, false
	}

	completed := false
	if ok {
		a.appendBar(*cur)
		completed = true
	}
	a.current[tick.Symbol] = &market.Bar{
		Symbol:    tick.Symbol,
		Timestamp: bucket,
		Open:      tick.Price,
		High:      tick.Price,
		Low:       tick.Price,
		Close:     tick.Price,
	}
	if !completed {
		return nil, false
	}
	return a.History(tick.Symbol), true
}

func (a *Aggregator) appendBar(bar market.Bar) {
	h := a.history[bar.Symbol]
	if len(h) >= a.capacity {
		copy(h, h[1:])
		h[len(h)-1] = bar
	} else {
		h = append(h, bar)
	}
	a.history[bar.Symbol] = h
}

// History 返回某 symbol 的已完成 K 线（时间升序，最新在末尾）。
// 返回的是内部切片，调用方只读。
func (a *Aggregator) History(symbol string) []market.Bar {
	return a.history[symbol]
}

// Current 返回正在聚合中的 K 线快照（测试用）。
func (a *Aggregator) Current(symbol string) (market.Bar, bool) {
	cur, ok := a.current[symbol]
	if !ok {
		return market.Bar{}, false
	}
	return *cur, true
}
