package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	applogger "PriceCast/pkg/logger"

	_ "modernc.org/sqlite"
)

// SQLiteBarStore implements BarStore on a local SQLite file.
type SQLiteBarStore struct {
	db *sql.DB
	mu sync.Mutex
	l  *applogger.Logger
}

var _ domrepo.BarStore = (*SQLiteBarStore)(nil)

// NewSQLiteBarStore opens (or creates) the database at path.
func NewSQLiteBarStore(path string) (*SQLiteBarStore, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; WAL lets readers proceed during collection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return &SQLiteBarStore{db: db}, nil
}

// SetLogger injects a structured logger.
func (s *SQLiteBarStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *SQLiteBarStore) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS hourly_bars (
			symbol TEXT    NOT NULL,
			ts     INTEGER NOT NULL,
			open   REAL    NOT NULL,
			high   REAL    NOT NULL,
			low    REAL    NOT NULL,
			close  REAL    NOT NULL,
			volume REAL    NOT NULL,
			PRIMARY KEY (symbol, ts)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteBarStore) UpsertBars(ctx context.Context, symbol string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO hourly_bars (symbol, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, ts) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Timestamp.UTC().Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("upsert bar %s: %w", b.Timestamp.UTC().Format(time.RFC3339), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if s.l != nil {
		s.l.Debug("sqlite upsert_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(bars)),
		)
	}
	return nil
}

func (s *SQLiteBarStore) GetLatestNBars(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	if n <= 0 {
		return []models.Bar{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM hourly_bars
		WHERE symbol = ?
		ORDER BY ts DESC
		LIMIT ?`, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("sqlite latest_bars query error",
				applogger.String("symbol", symbol),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, n)
	for rows.Next() {
		var (
			b  models.Bar
			ts int64
		)
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Symbol = symbol
		b.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	reverseBars(out)
	return out, nil
}

func (s *SQLiteBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteBarStore) Close() error {
	return s.db.Close()
}

// reverseBars flips a DESC query result to ascending time order.
func reverseBars(bars []models.Bar) {
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
}
