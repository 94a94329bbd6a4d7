package service

import (
	"context"

	"PriceCast/internal/domain/models"
)

// Forecaster produces forecasts and importance rankings for supported symbols.
type Forecaster interface {
	Forecast(ctx context.Context, symbol string, hours int) (models.ForecastView, error)
	FeatureImportance(ctx context.Context, symbol string) ([]models.FeatureImportance, error)
	Symbols() []string
}

// BarCollector pulls recent bars from the exchange into the bar store.
type BarCollector interface {
	Collect(ctx context.Context, symbol string) (int, error)
}
