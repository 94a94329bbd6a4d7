package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceCast/internal/domain/models"
	pkgkafka "PriceCast/pkg/kafka"
)

type captureWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaForecastPublisherKeysBySymbol(t *testing.T) {
	w := &captureWriter{}
	p := NewKafkaForecastPublisher(
		pkgkafka.NewProducerWithWriter(w, "none", prometheus.NewRegistry()),
		"forecasts.hourly",
	)

	view := models.ForecastView{
		Symbol:      "BTCUSDT",
		Mode:        models.ModeFallback,
		BandWidth:   0.03,
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Predictions: []models.PredictionView{},
	}
	require.NoError(t, p.PublishForecast(context.Background(), view))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "forecasts.hourly", msg.Topic)
	assert.Equal(t, "BTCUSDT", string(msg.Key))

	var decoded models.ForecastView
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, models.ModeFallback, decoded.Mode)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
