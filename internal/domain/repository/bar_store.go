package repository

import (
	"context"

	"PriceCast/internal/domain/models"
)

// BarStore persists hourly bars keyed by (symbol, timestamp).
type BarStore interface {
	Init(ctx context.Context) error
	// UpsertBars inserts bars, replacing any existing bar with the same symbol and timestamp.
	UpsertBars(ctx context.Context, symbol string, bars []models.Bar) error
	// GetLatestNBars returns up to n most recent bars in ascending time order.
	GetLatestNBars(ctx context.Context, symbol string, n int) ([]models.Bar, error)
	Health(ctx context.Context) error
	Close() error
}
