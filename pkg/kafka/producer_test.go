package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublishEncodesJSON(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "snappy", reg)

	require.NoError(t, p.Publish(context.Background(), "forecasts", []byte("BTCUSDT"), map[string]int{"steps": 3}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "forecasts", w.msgs[0].Topic)
	assert.Equal(t, []byte("BTCUSDT"), w.msgs[0].Key)
	assert.JSONEq(t, `{"steps":3}`, string(w.msgs[0].Value))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("forecasts", "snappy", "ok")))
}

func TestPublishRecordsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProducerWithWriter(&fakeWriter{err: errors.New("broker down")}, "none", reg)

	err := p.Publish(context.Background(), "forecasts", nil, "x")
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("forecasts", "none", "error")))

	// a second producer on the same registry shares the collectors
	p2 := NewProducerWithWriter(&fakeWriter{}, "none", reg)
	require.NoError(t, p2.Publish(context.Background(), "forecasts", nil, "y"))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("forecasts", "none", "ok")))
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}
