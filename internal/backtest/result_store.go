package backtest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ResultStore 管理 backtest_runs / backtest_snapshots 表。
type ResultStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewResultStore 在 root 目录下打开（必要时创建）runs.db。
func NewResultStore(root string) (*ResultStore, error) {
	if root == "" {
		return nil, fmt.Errorf("result store root cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(root, "runs.db")
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureResultSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &ResultStore{db: db, path: path}, nil
}

// Close 关闭底层连接。
func (s *ResultStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureResultSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			status TEXT NOT NULL,
			start_ts INTEGER NOT NULL,
			end_ts INTEGER NOT NULL,
			initial_balance REAL NOT NULL,
			final_balance REAL NOT NULL DEFAULT 0,
			profit REAL NOT NULL DEFAULT 0,
			return_pct REAL NOT NULL DEFAULT 0,
			trades INTEGER NOT NULL DEFAULT 0,
			config_json TEXT NOT NULL,
			stats_json TEXT,
			message TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			completed_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS backtest_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			equity REAL NOT NULL,
			cash REAL NOT NULL,
			positions INTEGER NOT NULL DEFAULT 0,
			drawdown REAL NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_run ON backtest_snapshots(run_id, ts);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun 写入新建的回测任务。
func (s *ResultStore) InsertRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfgJSON, err := run.MarshalConfig()
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO backtest_runs
			(id, symbol, status, start_ts, end_ts, initial_balance, final_balance,
			 config_json, message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Symbol, run.Status, run.StartTS, run.EndTS,
		run.InitialBalance, run.FinalBalance, string(cfgJSON), run.Message, now, now)
	return err
}

// UpdateRunStatus 更新任务状态与进度消息。
func (s *ResultStore) UpdateRunStatus(ctx context.Context, runID, status, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		UPDATE backtest_runs SET status = ?, message = ?, updated_at = ? WHERE id = ?`,
		status, message, time.Now().Unix(), runID)
	return err
}

// UpdateRunSummary 在任务结束时落最终指标。
func (s *ResultStore) UpdateRunSummary(ctx context.Context, runID, status string, stats RunStats, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
		UPDATE backtest_runs SET
			status = ?, final_balance = ?, profit = ?, return_pct = ?,
			trades = ?, stats_json = ?, message = ?, updated_at = ?, completed_at = ?
		WHERE id = ?`,
		status, stats.FinalBalance, stats.Profit, stats.ReturnPct,
		stats.Trades, string(statsJSON), message, now, now, runID)
	return err
}

// InsertSnapshot 追加一条权益采样。
func (s *ResultStore) InsertSnapshot(ctx context.Context, snap Snapshot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO backtest_snapshots (run_id, ts, equity, cash, positions, drawdown)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.RunID, snap.TS, snap.Equity, snap.Cash, snap.Positions, snap.Drawdown)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetRun 按 ID 取任务。
func (s *ResultStore) GetRun(ctx context.Context, runID string) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, status, start_ts, end_ts, initial_balance, final_balance,
		       profit, return_pct, trades, config_json, COALESCE(stats_json,''),
		       COALESCE(message,''), created_at, updated_at, COALESCE(completed_at,0)
		FROM backtest_runs WHERE id = ?`, runID)
	return scanRun(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var cfgJSON, statsJSON string
	var createdAt, updatedAt, completedAt int64
	err := row.Scan(&run.ID, &run.Symbol, &run.Status, &run.StartTS, &run.EndTS,
		&run.InitialBalance, &run.FinalBalance, &run.Profit, &run.ReturnPct,
		&run.Trades, &cfgJSON, &statsJSON, &run.Message,
		&createdAt, &updatedAt, &completedAt)
	if err != nil {
		return Run{}, err
	}
	if cfgJSON != "" {
		_ = json.Unmarshal([]byte(cfgJSON), &run.Config)
	}
	if statsJSON != "" {
		_ = json.Unmarshal([]byte(statsJSON), &run.Stats)
	}
	run.CreatedAt = time.Unix(createdAt, 0)
	run.UpdatedAt = time.Unix(updatedAt, 0)
	if completedAt > 0 {
		run.CompletedAt = time.Unix(completedAt, 0)
	}
	return run, nil
}

// ListRuns 按创建时间倒序列出任务。
func (s *ResultStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, status, start_ts, end_ts, initial_balance, final_balance,
		       profit, return_pct, trades, config_json, COALESCE(stats_json,''),
		       COALESCE(message,''), created_at, updated_at, COALESCE(completed_at,0)
		FROM backtest_runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListSnapshots 按时间升序列出某 run 的权益曲线。
func (s *ResultStore) ListSnapshots(ctx context.Context, runID string, limit int) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 100000
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, ts, equity, cash, positions, drawdown
		FROM backtest_snapshots WHERE run_id = ? ORDER BY ts ASC, id ASC LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.RunID, &snap.TS, &snap.Equity,
			&snap.Cash, &snap.Positions, &snap.Drawdown); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
