package portfolio

import (
	"math"

	"github.com/shopspring/decimal"

	"knockout/internal/logger"
	"knockout/internal/market"
)

// Position 记录一个 symbol 的在持仓位：入场价加完整订单细节（平仓重定价要用）。
type Position struct {
	EntryPrice float64
	Order      market.Order
}

// Portfolio 是资金与持仓的唯一台账，只通过 Fill 变更。
// 现金用 decimal 记账，避免长回测里的浮点漂移。
// 每个 symbol 至多一个持仓；重复开仓按"替换"语义处理并告警。
type Portfolio struct {
	initial   decimal.Decimal
	cash      decimal.Decimal
	positions map[string]Position
}

// New 以初始资金构造账户。
func New(initialCapital float64) *Portfolio {
	cap := decFromFloat(initialCapital)
	return &Portfolio{
		initial:   cap,
		cash:      cap,
		positions: make(map[string]Position),
	}
}

func decFromFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// Cash 返回当前现金。
func (p *Portfolio) Cash() float64 {
	f, _ := p.cash.Float64()
	return f
}

// InitialCapital 返回初始资金。
func (p *Portfolio) InitialCapital() float64 {
	f, _ := p.initial.Float64()
	return f
}

// CanTransact 判断现金是否足以覆盖预估成本。只是事前闸门，不占用资金。
func (p *Portfolio) CanTransact(estimatedCost float64) bool {
	return p.cash.GreaterThanOrEqual(decFromFloat(estimatedCost))
}

// Position 返回某 symbol 的在持仓位。
func (p *Portfolio) Position(symbol string) (Position, bool) {
	pos, ok := p.positions[symbol]
	return pos, ok
}

// OpenPositions 返回在持仓位数量。
func (p *Portfolio) OpenPositions() int {
	return len(p.positions)
}

// UpdateOnFill 按成交更新台账。开仓扣减 价格+费用 并登记仓位；
// 平仓收入 价格-费用 并移除仓位，无仓位可平时告警后忽略。
func (p *Portfolio) UpdateOnFill(fill market.Fill) {
	symbol := fill.Order.Symbol
	switch {
	case fill.IsOpen():
		cost := decFromFloat(fill.Price).Add(decFromFloat(fill.Fees))
		p.cash = p.cash.Sub(cost)
		if _, exists := p.positions[symbol]; exists {
			logger.Warnf("[portfolio] %s 已有持仓，新开仓将替换旧记录", symbol)
		}
		p.positions[symbol] = Position{EntryPrice: fill.Price, Order: fill.Order}
		logger.Infof("[portfolio] OPEN %s cost=%s cash=%s", symbol, cost.StringFixed(2), p.cash.StringFixed(2))
	case fill.Order.Direction == market.DirectionClose:
		if _, ok := p.positions[symbol]; !ok {
			logger.Warnf("[portfolio] 收到 %s 的 CLOSE 成交但没有对应持仓", symbol)
			return
		}
		proceeds := decFromFloat(fill.Price).Sub(decFromFloat(fill.Fees))
		p.cash = p.cash.Add(proceeds)
		delete(p.positions, symbol)
		logger.Infof("[portfolio] CLOSE %s proceeds=%s cash=%s", symbol, proceeds.StringFixed(2), p.cash.StringFixed(2))
	default:
		logger.Warnf("[portfolio] 未知成交方向 %q，忽略", fill.Order.Direction)
	}
}
