package repository

import (
	"context"

	"PriceCast/internal/domain/models"
)

// ForecastPublisher ships finished forecasts to downstream consumers.
type ForecastPublisher interface {
	PublishForecast(ctx context.Context, f models.ForecastView) error
	Close() error
}

type Metrics interface {
	RecordForecast(symbol, mode string, steps int)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordBarsCollected(symbol string, n int)
}
