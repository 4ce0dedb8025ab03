package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"knockout/internal/store/model"
)

// TradeStore 用 gorm + sqlite 持久化已平仓的往返交易。
type TradeStore struct {
	db *gorm.DB
}

// NewTradeStore 打开（必要时创建）交易库并迁移 schema。
func NewTradeStore(path string) (*TradeStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("trade store path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return NewTradeStoreFromDB(db)
}

// NewTradeStoreFromDB 从已有 gorm 连接构造（测试注入内存库用）。
func NewTradeStoreFromDB(db *gorm.DB) (*TradeStore, error) {
	if db == nil {
		return nil, errors.New("gorm db cannot be nil")
	}
	if err := db.AutoMigrate(&model.TradeModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &TradeStore{db: db}, nil
}

// Insert 写入一条已平仓交易。
func (s *TradeStore) Insert(ctx context.Context, trade *model.TradeModel) error {
	if trade == nil {
		return errors.New("trade cannot be nil")
	}
	return s.db.WithContext(ctx).Create(trade).Error
}

// ListByRun 按 run 列出交易，按平仓时间升序。
func (s *TradeStore) ListByRun(ctx context.Context, runID string, limit int) ([]model.TradeModel, error) {
	q := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("exit_timestamp ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var trades []model.TradeModel
	if err := q.Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// CountByRun 返回某 run 的交易条数。
func (s *TradeStore) CountByRun(ctx context.Context, runID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.TradeModel{}).
		Where("run_id = ?", runID).
		Count(&n).Error
	return n, err
}

// Close 关闭底层连接。
func (s *TradeStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
