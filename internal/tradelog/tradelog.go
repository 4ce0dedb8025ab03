package tradelog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"knockout/internal/logger"
	"knockout/internal/market"
	"knockout/internal/store"
	"knockout/internal/store/model"
)

// Header 是交易日志 CSV 的固定列序，分析端按列名消费。
var Header = []string{
	"Trade_ID", "Symbol", "Direction", "Status", "Signal_Timestamp",
	"Entry_Execution_Timestamp", "Underlying_Price_at_Signal",
	"Underlying_Price_at_Entry", "Option_Type", "Strike_Price",
	"Barrier_Price", "Expiry_Days", "Entry_Price", "Entry_Fees",
	"Execution_Timestamp", "Underlying_Price_at_Exit", "Exit_Price",
	"Exit_Fees", "Gross_PL", "Net_PL",
}

// openTrade 暂存已开仓未平仓的半条记录。
type openTrade struct {
	TradeID         int
	Symbol          string
	Direction       market.Direction
	SignalTimestamp int64
	EntryTimestamp  int64
	UnderlyingSig   float64
	UnderlyingEntry float64
	OptionType      market.OptionType
	Strike          float64
	Barrier         float64
	ExpiryDays      int
	EntryPrice      float64
	EntryFees       float64
	Order           market.Order
}

// Log 把成交事件落成 CSV 交易日志：开仓暂存内存，平仓时配对、
// 计算盈亏并写出一整行。可选挂一个 TradeStore 做同源 sqlite 持久化。
type Log struct {
	path   string
	file   *os.File
	writer *csv.Writer
	open   map[string]*openTrade
	nextID int
	runID  string
	trades *store.TradeStore
}

// New 创建日志文件并写入表头。store 可以为 nil（只写 CSV）。
func New(path, runID string, trades *store.TradeStore) (*Log, error) {
	if path == "" {
		return nil, fmt.Errorf("trade log path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(file)
	if err := w.Write(Header); err != nil {
		file.Close()
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return nil, err
	}
	return &Log{
		path:   path,
		file:   file,
		writer: w,
		open:   make(map[string]*openTrade),
		runID:  runID,
		trades: trades,
	}, nil
}

// Path 返回 CSV 文件路径。
func (l *Log) Path() string {
	return l.path
}

// LogOpen 登记一笔开仓成交（只进内存，平仓时才写盘）。
func (l *Log) LogOpen(fill market.Fill) {
	l.nextID++
	order := fill.Order
	l.open[order.Symbol] = &openTrade{
		TradeID:         l.nextID,
		Symbol:          order.Symbol,
		Direction:       order.Direction,
		SignalTimestamp: order.SubmittedAt,
		EntryTimestamp:  fill.Timestamp,
		UnderlyingSig:   order.SignalPrice,
		UnderlyingEntry: fill.UnderlyingPrice,
		OptionType:      order.Type,
		Strike:          order.Strike,
		Barrier:         order.Barrier,
		ExpiryDays:      order.ExpiryDays,
		EntryPrice:      fill.Price,
		EntryFees:       fill.Fees,
		Order:           order,
	}
	logger.Infof("[tradelog] 登记开仓 #%d %s", l.nextID, order.Symbol)
}

// ClosedTrade 是 LogClose 的结果摘要，供调用方累计胜负。
type ClosedTrade struct {
	TradeID int
	Symbol  string
	GrossPL float64
	NetPL   float64
}

// LogClose 配对平仓成交，计算 Gross/Net P&L 并写出完整记录。
// 找不到对应开仓时告警后忽略（返回 ok=false）。
func (l *Log) LogClose(ctx context.Context, fill market.Fill) (ClosedTrade, bool) {
	symbol := fill.Order.Symbol
	trade, ok := l.open[symbol]
	if !ok {
		logger.Warnf("[tradelog] 收到 %s 的平仓成交但没有未平仓记录", symbol)
		return ClosedTrade{}, false
	}
	delete(l.open, symbol)

	grossPL := fill.Price - trade.EntryPrice
	netPL := grossPL - (trade.EntryFees + fill.Fees)

	row := []string{
		strconv.Itoa(trade.TradeID),
		trade.Symbol,
		string(trade.Direction),
		"CLOSED",
		strconv.FormatInt(trade.SignalTimestamp, 10),
		strconv.FormatInt(trade.EntryTimestamp, 10),
		formatFloat(trade.UnderlyingSig),
		formatFloat(trade.UnderlyingEntry),
		string(trade.OptionType),
		formatFloat(trade.Strike),
		formatFloat(trade.Barrier),
		strconv.Itoa(trade.ExpiryDays),
		formatFloat(trade.EntryPrice),
		formatFloat(trade.EntryFees),
		strconv.FormatInt(fill.Timestamp, 10),
		formatFloat(fill.UnderlyingPrice),
		formatFloat(fill.Price),
		formatFloat(fill.Fees),
		formatFloat(grossPL),
		formatFloat(netPL),
	}
	if err := l.writer.Write(row); err != nil {
		logger.Errorf("[tradelog] 写 CSV 失败: %v", err)
	}
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		logger.Errorf("[tradelog] 刷新 CSV 失败: %v", err)
	}
	logger.Infof("[tradelog] 平仓 #%d %s net_pl=%.2f", trade.TradeID, symbol, netPL)

	l.persist(ctx, trade, fill, grossPL, netPL)
	return ClosedTrade{TradeID: trade.TradeID, Symbol: symbol, GrossPL: grossPL, NetPL: netPL}, true
}

func (l *Log) persist(ctx context.Context, trade *openTrade, fill market.Fill, grossPL, netPL float64) {
	if l.trades == nil {
		return
	}
	details, err := json.Marshal(trade.Order)
	if err != nil {
		details = nil
	}
	rec := &model.TradeModel{
		RunID:            l.runID,
		TradeID:          trade.TradeID,
		Symbol:           trade.Symbol,
		Direction:        string(trade.Direction),
		Status:           "CLOSED",
		SignalTimestamp:  trade.SignalTimestamp,
		EntryTimestamp:   trade.EntryTimestamp,
		UnderlyingSignal: trade.UnderlyingSig,
		UnderlyingEntry:  trade.UnderlyingEntry,
		OptionType:       string(trade.OptionType),
		Strike:           trade.Strike,
		Barrier:          trade.Barrier,
		ExpiryDays:       trade.ExpiryDays,
		EntryPrice:       trade.EntryPrice,
		EntryFees:        trade.EntryFees,
		ExitTimestamp:    fill.Timestamp,
		UnderlyingExit:   fill.UnderlyingPrice,
		ExitPrice:        fill.Price,
		ExitFees:         fill.Fees,
		GrossPL:          grossPL,
		NetPL:            netPL,
		OrderDetailsJSON: details,
		CreatedAtUnix:    time.Now().Unix(),
	}
	if err := l.trades.Insert(ctx, rec); err != nil {
		logger.Warnf("[tradelog] trade store 写入失败: %v", err)
	}
}

// OpenCount 返回未平仓记录数（测试用）。
func (l *Log) OpenCount() int {
	return len(l.open)
}

// Close 刷新并关闭 CSV 文件。
func (l *Log) Close() error {
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
