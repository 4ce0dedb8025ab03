package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knockout/internal/clock"
	"knockout/internal/pricing"
)

func newMock(seed int64) *MockSource {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	clk := clock.New(start, 5*time.Second)
	return NewMockSource(clk, pricing.NewEngine(0.02), []string{"SPY"}, 2, seed)
}

func TestMockSourceAdvancesClock(t *testing.T) {
	src := newMock(42)
	first := src.Next()
	second := src.Next()
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, int64(5), second[0].Timestamp-first[0].Timestamp)
}

func TestMockSourceDeterministicWithSeed(t *testing.T) {
	a, b := newMock(42), newMock(42)
	for i := 0; i < 50; i++ {
		ta, tb := a.Next(), b.Next()
		require.Equal(t, ta, tb, "tick %d", i)
	}
}

func TestMockSourceWalkBounded(t *testing.T) {
	src := newMock(7)
	prev := 100.0
	for i := 0; i < 200; i++ {
		tk := src.Next()[0]
		step := tk.Price/prev - 1
		assert.LessOrEqual(t, step, 0.001+1e-12)
		assert.GreaterOrEqual(t, step, -0.001-1e-12)
		prev = tk.Price
	}
}

func TestMockSourceRefOptionQuote(t *testing.T) {
	src := newMock(42)
	engine := pricing.NewEngine(0.02)
	tk := src.Next()[0]
	// 参考报价 = ATM call 理论价上浮 2%，行权价即现价
	assert.Equal(t, tk.Price, tk.RefOptionStrike)
	theo := engine.VanillaCall(tk.Price, tk.Price, 2.0/pricing.DaysPerYear, 0.20)
	assert.InDelta(t, theo*1.02, tk.RefOptionPrice, 1e-10)
	// 反解应落回 2% 溢价对应的波动率附近
	est := engine.ImpliedVol(tk.RefOptionPrice, tk.Price, tk.RefOptionStrike, 2, pricing.FlagCall)
	require.True(t, est.Converged)
	assert.InDelta(t, 0.204, est.Value, 0.002)
}
