package repository

import (
	"context"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	pkgkafka "PriceCast/pkg/kafka"
)

// KafkaForecastPublisher implements ForecastPublisher, keyed by symbol.
type KafkaForecastPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.ForecastPublisher = (*KafkaForecastPublisher)(nil)

func NewKafkaForecastPublisher(producer *pkgkafka.Producer, topic string) *KafkaForecastPublisher {
	return &KafkaForecastPublisher{producer: producer, topic: topic}
}

func (p *KafkaForecastPublisher) PublishForecast(ctx context.Context, f models.ForecastView) error {
	return p.producer.Publish(ctx, p.topic, []byte(f.Symbol), f)
}

func (p *KafkaForecastPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops forecasts; used when kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishForecast(context.Context, models.ForecastView) error { return nil }
func (NopPublisher) Close() error { return nil }
