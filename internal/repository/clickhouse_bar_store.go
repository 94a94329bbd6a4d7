package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	pkgch "PriceCast/pkg/clickhouse"
	applogger "PriceCast/pkg/logger"
)

// CHBarStore implements BarStore backed by ClickHouse.
// ReplacingMergeTree keyed by (symbol, ts) gives update-or-create semantics;
// reads use FINAL so replaced rows never surface.
type CHBarStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.BarStore = (*CHBarStore)(nil)

func NewCHBarStore(ch *pkgch.Client) *CHBarStore {
	return &CHBarStore{db: ch.DB(), table: ch.Database() + ".hourly_bars"}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHBarStore) Init(ctx context.Context) error {
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			symbol     LowCardinality(String),
			ts         DateTime('UTC'),
			open       Float64,
			high       Float64,
			low        Float64,
			close      Float64,
			volume     Float64,
			updated_at DateTime64(3, 'UTC')
		)
		ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY (symbol, ts)`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("clickhouse init schema: %w", err)
	}
	return nil
}

func (s *CHBarStore) UpsertBars(ctx context.Context, symbol string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	start := time.Now()
	now := time.Now().UTC()

	const chunkSize = 1000
	for lo := 0; lo < len(bars); lo += chunkSize {
		hi := min(lo+chunkSize, len(bars))

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*8)
		for _, b := range bars[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, symbol, b.Timestamp.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume, now)
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, ts, open, high, low, close, volume, updated_at) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse upsert_bars error",
					applogger.String("table", s.table),
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("upsert bars: %w", err)
		}
	}
	if s.l != nil {
		s.l.Debug("clickhouse upsert_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHBarStore) GetLatestNBars(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	if n <= 0 {
		return []models.Bar{}, nil
	}
	start := time.Now()
	q := fmt.Sprintf(`
		SELECT ts, open, high, low, close, volume
		FROM %s FINAL
		WHERE symbol = ?
		ORDER BY ts DESC
		LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_bars query error",
				applogger.String("table", s.table),
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
		b := models.Bar{Symbol: symbol}
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Timestamp = b.Timestamp.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	reverseBars(out)
	if s.l != nil {
		s.l.Debug("clickhouse latest_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("limit", n),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *CHBarStore) Close() error {
	return nil
}
