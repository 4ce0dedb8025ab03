package execution

import (
	"knockout/internal/config"
	"knockout/internal/logger"
	"knockout/internal/market"
	"knockout/internal/portfolio"
	"knockout/internal/pricing"
	"knockout/internal/strategy"
)

// SignalChecker 在确认延迟后用最新数据复核信号。
type SignalChecker interface {
	OnBar(series []market.Bar) *strategy.Signal
}

// Pipeline 把信号变成成交：入场信号先进 FIFO 延迟队列，延迟期满后
// 用最新 K 线复核，同类信号才放行；离场信号绕过队列立即处理。
// 成交价在执行时刻重定价并叠加滑点与固定费用。
type Pipeline struct {
	checker  SignalChecker
	book     *portfolio.Portfolio
	engine   pricing.Engine
	delaySec int64
	slippage float64
	feeSum   float64
	pending  []strategy.Signal
}

// NewPipeline 构造执行管线。
func NewPipeline(cfg config.ExecutionConfig, checker SignalChecker, book *portfolio.Portfolio, engine pricing.Engine) *Pipeline {
	return &Pipeline{
		checker:  checker,
		book:     book,
		engine:   engine,
		delaySec: cfg.DelaySeconds(),
		slippage: cfg.SlippagePercent,
		feeSum:   cfg.Fees.Sum(),
	}
}

// SubmitForCheck 将入场信号加入延迟队列；离场信号不应走此入口。
func (p *Pipeline) SubmitForCheck(sig strategy.Signal) {
	if sig.Kind.IsExit() {
		logger.Warnf("[execution] 离场信号 %s %s 不入队，应直接处理", sig.Kind, sig.Symbol)
		return
	}
	p.pending = append(p.pending, sig)
	logger.Infof("[execution] %s %s 信号入队，%d 秒后复核", sig.Kind, sig.Symbol, p.delaySec)
}

// PendingCount 返回队列中等待复核的信号数。
func (p *Pipeline) PendingCount() int {
	return len(p.pending)
}

// ProcessPending 只检查队首：延迟未到则原样保留；到期则弹出并用当前
// K 线历史重跑策略，复核信号存在且同类才放行执行，否则永久丢弃（不重试）。
func (p *Pipeline) ProcessPending(tick market.Tick, series []market.Bar) *market.Fill {
	if len(p.pending) == 0 {
		return nil
	}
	head := p.pending[0]
	if tick.Timestamp < head.Timestamp+p.delaySec {
		return nil
	}
	p.pending = p.pending[1:]

	fresh := p.checker.OnBar(series)
	if fresh == nil || fresh.Kind != head.Kind {
		logger.Infof("[execution] %s %s 信号作废：条件不再满足", head.Kind, head.Symbol)
		return nil
	}
	logger.Infof("[execution] %s %s 信号复核通过，进入执行", head.Kind, head.Symbol)
	// 执行沿用原始信号：其中的行权价/障碍价才是下单参数
	return p.ProcessSignal(head, tick)
}

// ProcessSignal 处理一个已确认的信号。入场路径会反解隐含波动率、
// 估算成本并过资金闸门；离场路径直接构造 CLOSE 指令执行。
func (p *Pipeline) ProcessSignal(sig strategy.Signal, tick market.Tick) *market.Fill {
	switch sig.Kind {
	case strategy.KindBuy, strategy.KindSell:
		return p.processEntry(sig, tick)
	case strategy.KindExitLong, strategy.KindExitShort:
		order := market.Order{
			Symbol:      sig.Symbol,
			Direction:   market.DirectionClose,
			SubmittedAt: tick.Timestamp,
		}
		logger.Infof("[execution] 提交 CLOSE %s", sig.Symbol)
		return p.ExecuteOrder(order, tick)
	default:
		logger.Warnf("[execution] 未知信号类型 %q，忽略", sig.Kind)
		return nil
	}
}

func (p *Pipeline) processEntry(sig strategy.Signal, tick market.Tick) *market.Fill {
	est := p.engine.ImpliedVol(tick.RefOptionPrice, tick.Price, tick.RefOptionStrike,
		float64(sig.ExpiryDays), pricing.FlagCall)
	if !est.Converged {
		logger.Debugf("[execution] %s 隐含波动率回退 %.2f（%s）", sig.Symbol, est.Value, est.Reason)
	}

	tYears := float64(sig.ExpiryDays) / pricing.DaysPerYear
	theoretical := p.engine.PriceBarrier(sig.OptionType, tick.Price, sig.Strike, sig.Barrier, tYears, est.Value)
	estimatedCost := theoretical + p.feeSum
	if !p.book.CanTransact(estimatedCost) {
		logger.Warnf("[execution] %s %s 订单被拒：资金不足，需要 %.2f，可用 %.2f",
			sig.Kind, sig.Symbol, estimatedCost, p.book.Cash())
		return nil
	}

	order := market.Order{
		Symbol:          sig.Symbol,
		Type:            sig.OptionType,
		Direction:       market.Direction(sig.Kind),
		Strike:          sig.Strike,
		Barrier:         sig.Barrier,
		ExpiryTimestamp: tick.Timestamp + int64(sig.ExpiryDays)*24*60*60,
		Volatility:      est.Value,
		SubmittedAt:     sig.Timestamp,
		SignalPrice:     sig.Price,
		ExpiryDays:      sig.ExpiryDays,
	}
	logger.Infof("[execution] 提交 %s %s strike=%.2f barrier=%.2f vol=%.4f",
		order.Direction, order.Symbol, order.Strike, order.Barrier, order.Volatility)
	return p.ExecuteOrder(order, tick)
}

// ExecuteOrder 在当前 tick 上执行订单并产出 Fill。
// CLOSE 用持仓里锁定的波动率与剩余期限重定价（已到期按 0 计），滑点一律做减项；
// 开仓重定价后 BUY 加滑点、SELL 减滑点。固定费用对所有成交一视同仁。
func (p *Pipeline) ExecuteOrder(order market.Order, tick market.Tick) *market.Fill {
	spot := tick.Price
	var final float64

	switch order.Direction {
	case market.DirectionClose:
		pos, ok := p.book.Position(order.Symbol)
		if !ok {
			logger.Errorf("[execution] 尝试平掉不存在的持仓 %s", order.Symbol)
			return nil
		}
		stored := pos.Order
		remaining := stored.ExpiryTimestamp - tick.Timestamp
		theoretical := 0.0 // 已到期/敲出
		if remaining > 0 {
			tYears := float64(remaining) / pricing.SecondsPerYear
			theoretical = p.engine.PriceBarrier(stored.Type, spot, stored.Strike, stored.Barrier, tYears, stored.Volatility)
		}
		final = theoretical * (1 - p.slippage)
	case market.DirectionBuy, market.DirectionSell:
		tYears := float64(order.ExpiryTimestamp-tick.Timestamp) / pricing.SecondsPerYear
		theoretical := p.engine.PriceBarrier(order.Type, spot, order.Strike, order.Barrier, tYears, order.Volatility)
		if order.Direction == market.DirectionBuy {
			final = theoretical * (1 + p.slippage)
		} else {
			final = theoretical * (1 - p.slippage)
		}
	default:
		logger.Warnf("[execution] 未知订单方向 %q，忽略", order.Direction)
		return nil
	}

	return &market.Fill{
		Order:           order,
		Price:           final,
		Timestamp:       tick.Timestamp,
		UnderlyingPrice: spot,
		Fees:            p.feeSum,
	}
}
