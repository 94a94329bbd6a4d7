package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	forecastsTotal *prometheus.CounterVec
	forecastSteps  *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
	barsCollected  *prometheus.CounterVec
}

// New registers the forecast metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		forecastsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_forecasts_total",
				Help: "Forecasts served, by symbol and mode (model or fallback)",
			},
			[]string{"symbol", "mode"},
		),
		forecastSteps: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricecast_forecast_horizon_steps",
				Help:    "Requested forecast horizon in hours",
				Buckets: []float64{1, 3, 6, 12, 24, 48, 96, 168},
			},
			[]string{"symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pricecast_last_close",
				Help: "Last observed close used as forecast input",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricecast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		barsCollected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecast_bars_collected_total",
				Help: "Hourly bars upserted by the collector",
			},
			[]string{"symbol"},
		),
	}
}

// RecordForecast counts one served forecast.
func (r *Recorder) RecordForecast(symbol, mode string, steps int) {
	r.forecastsTotal.WithLabelValues(symbol, mode).Inc()
	r.forecastSteps.WithLabelValues(symbol).Observe(float64(steps))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordBarsCollected(symbol string, n int) {
	r.barsCollected.WithLabelValues(symbol).Add(float64(n))
}
