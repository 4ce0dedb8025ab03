package tradelog

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knockout/internal/market"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trade_log.csv")
	l, err := New(path, "run-test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func openFill(ts int64, price float64) market.Fill {
	return market.Fill{
		Order: market.Order{
			Symbol:          "SPY",
			Type:            market.DownAndOutCall,
			Direction:       market.DirectionBuy,
			Strike:          100,
			Barrier:         98,
			ExpiryTimestamp: ts + 2*24*60*60,
			Volatility:      0.2,
			SubmittedAt:     ts - 600,
			SignalPrice:     99,
			ExpiryDays:      2,
		},
		Price:           price,
		Timestamp:       ts,
		UnderlyingPrice: 99.2,
		Fees:            0.04685,
	}
}

func closeFill(ts int64, price float64) market.Fill {
	return market.Fill{
		Order:           market.Order{Symbol: "SPY", Direction: market.DirectionClose},
		Price:           price,
		Timestamp:       ts,
		UnderlyingPrice: 100.1,
		Fees:            0.04685,
	}
}

func TestNewWritesHeader(t *testing.T) {
	l := newTestLog(t)
	rows := readRows(t, l.Path())
	require.Len(t, rows, 1)
	assert.Equal(t, Header, rows[0])
	assert.Len(t, rows[0], 20)
}

func TestOpenThenCloseWritesOneRow(t *testing.T) {
	l := newTestLog(t)
	l.LogOpen(openFill(1000, 0.21))
	assert.Equal(t, 1, l.OpenCount())

	closed, ok := l.LogClose(context.Background(), closeFill(2000, 0.35))
	require.True(t, ok)
	assert.Equal(t, 0, l.OpenCount())
	assert.Equal(t, 1, closed.TradeID)
	assert.InDelta(t, 0.35-0.21, closed.GrossPL, 1e-12)
	assert.InDelta(t, 0.35-0.21-2*0.04685, closed.NetPL, 1e-12)

	rows := readRows(t, l.Path())
	require.Len(t, rows, 2)
	row := rows[1]
	assert.Equal(t, "1", row[0])
	assert.Equal(t, "SPY", row[1])
	assert.Equal(t, "BUY", row[2])
	assert.Equal(t, "CLOSED", row[3])
	assert.Equal(t, "400", row[4])  // 信号时间
	assert.Equal(t, "1000", row[5]) // 开仓时间
	assert.Equal(t, "DOWN_AND_OUT_CALL", row[8])
	assert.Equal(t, "100", row[9])
	assert.Equal(t, "98", row[10])
	assert.Equal(t, "2", row[11])
	assert.Equal(t, "0.21", row[12])
	assert.Equal(t, "2000", row[14])
	assert.Equal(t, "0.35", row[16])
}

func TestCloseWithoutOpenIgnored(t *testing.T) {
	l := newTestLog(t)
	_, ok := l.LogClose(context.Background(), closeFill(2000, 0.35))
	assert.False(t, ok)
	rows := readRows(t, l.Path())
	assert.Len(t, rows, 1) // 只有表头
}

func TestTradeIDsIncrement(t *testing.T) {
	l := newTestLog(t)
	l.LogOpen(openFill(1000, 0.21))
	first, ok := l.LogClose(context.Background(), closeFill(2000, 0.25))
	require.True(t, ok)
	l.LogOpen(openFill(3000, 0.18))
	second, ok := l.LogClose(context.Background(), closeFill(4000, 0.30))
	require.True(t, ok)
	assert.Equal(t, 1, first.TradeID)
	assert.Equal(t, 2, second.TradeID)
}
