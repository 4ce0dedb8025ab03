package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knockout/internal/market"
)

func openFill(symbol string, price, fees float64) market.Fill {
	return market.Fill{
		Order: market.Order{
			Symbol:    symbol,
			Type:      market.DownAndOutCall,
			Direction: market.DirectionBuy,
			Strike:    100,
			Barrier:   98,
		},
		Price: price,
		Fees:  fees,
	}
}

func closeFill(symbol string, price, fees float64) market.Fill {
	return market.Fill{
		Order: market.Order{Symbol: symbol, Direction: market.DirectionClose},
		Price: price,
		Fees:  fees,
	}
}

func TestOpenDebitsPriceAndFees(t *testing.T) {
	p := New(100000)
	p.UpdateOnFill(openFill("SPY", 0.21, 0.04685))
	assert.InDelta(t, 100000-0.21-0.04685, p.Cash(), 1e-9)
	pos, ok := p.Position("SPY")
	require.True(t, ok)
	assert.Equal(t, 0.21, pos.EntryPrice)
	assert.Equal(t, 1, p.OpenPositions())
}

func TestCloseCreditsPriceMinusFees(t *testing.T) {
	p := New(100000)
	p.UpdateOnFill(openFill("SPY", 0.21, 0.04685))
	p.UpdateOnFill(closeFill("SPY", 0.35, 0.04685))
	// 往返: -0.21 -0.04685 +0.35 -0.04685
	assert.InDelta(t, 100000-0.21-0.04685+0.35-0.04685, p.Cash(), 1e-9)
	assert.Equal(t, 0, p.OpenPositions())
}

func TestCloseWithoutPositionIsNoop(t *testing.T) {
	p := New(100000)
	p.UpdateOnFill(closeFill("SPY", 0.35, 0.04685))
	assert.Equal(t, 100000.0, p.Cash())
	assert.Equal(t, 0, p.OpenPositions())
}

func TestReopenReplacesPosition(t *testing.T) {
	p := New(100000)
	p.UpdateOnFill(openFill("SPY", 0.21, 0.04685))
	p.UpdateOnFill(openFill("SPY", 0.33, 0.04685))
	pos, ok := p.Position("SPY")
	require.True(t, ok)
	assert.Equal(t, 0.33, pos.EntryPrice)
	assert.Equal(t, 1, p.OpenPositions())
	// 两次开仓都已扣款
	assert.InDelta(t, 100000-0.21-0.04685-0.33-0.04685, p.Cash(), 1e-9)
}

func TestCanTransact(t *testing.T) {
	p := New(1.0)
	assert.True(t, p.CanTransact(1.0))
	assert.True(t, p.CanTransact(0.5))
	assert.False(t, p.CanTransact(1.01))
	// 闸门不占用资金
	assert.Equal(t, 1.0, p.Cash())
}

func TestCashIsExactOverManyRoundTrips(t *testing.T) {
	p := New(100000)
	for i := 0; i < 1000; i++ {
		p.UpdateOnFill(openFill("SPY", 0.1, 0.04685))
		p.UpdateOnFill(closeFill("SPY", 0.1, 0.04685))
	}
	// 每轮净 -2×0.04685，decimal 记账无漂移
	assert.InDelta(t, 100000-1000*2*0.04685, p.Cash(), 1e-9)
}

func TestPerSymbolIsolation(t *testing.T) {
	p := New(100000)
	p.UpdateOnFill(openFill("SPY", 0.2, 0.05))
	p.UpdateOnFill(openFill("QQQ", 0.3, 0.05))
	assert.Equal(t, 2, p.OpenPositions())
	p.UpdateOnFill(closeFill("SPY", 0.25, 0.05))
	assert.Equal(t, 1, p.OpenPositions())
	_, ok := p.Position("QQQ")
	assert.True(t, ok)
}
