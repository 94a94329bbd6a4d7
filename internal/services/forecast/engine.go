package forecast

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"PriceCast/internal/domain/models"
	"PriceCast/pkg/logger"
)

const (
	DefaultBandWidth      = 0.03
	DefaultFallbackSpread = 0.02
	DefaultMaxHorizon     = 168

	carryHighFactor = 1.005
	carryLowFactor  = 0.995
)

// Engine produces multi-step forecasts by feeding each prediction back into
// the feature vector. Without a fitted model it runs in fallback mode.
// An Engine is immutable and safe for concurrent use.
type Engine struct {
	model        *Model
	lastTraining *time.Time
}

// NewEngine returns an engine with no model. Every forecast it makes is a fallback.
func NewEngine() *Engine {
	return &Engine{}
}

// NewFittedEngine wraps a fitted model. The schema must contain the OHLC base features.
func NewFittedEngine(model *Model, trainedAt *time.Time) (*Engine, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	for _, base := range models.BaseFeatures {
		if !contains(model.schema, base) {
			return nil, fmt.Errorf("%w: schema lacks base feature %q", ErrInvalidModel, base)
		}
	}
	e := &Engine{model: model}
	if trainedAt != nil {
		t := trainedAt.UTC()
		e.lastTraining = &t
	}
	return e, nil
}

func (e *Engine) IsFitted() bool { return e.model != nil }

// Model is nil for a fallback engine.
func (e *Engine) Model() *Model { return e.model }

// Schema is the fitted feature order, or nil in fallback mode.
func (e *Engine) Schema() []string {
	if e.model == nil {
		return nil
	}
	return e.model.Schema()
}

func (e *Engine) LastTraining() *time.Time {
	if e.lastTraining == nil {
		return nil
	}
	t := *e.lastTraining
	return &t
}

// FeatureImportance returns the fitted importances, highest first.
func (e *Engine) FeatureImportance() ([]models.FeatureImportance, error) {
	if e.model == nil {
		return nil, ErrModelNotFitted
	}
	return e.model.FeatureImportance()
}

type predictConfig struct {
	bandWidth      float64
	fallbackSpread float64
	maxHorizon     int
	rng            *rand.Rand
	log            *logger.Logger
	symbol         string
}

type PredictOption func(*predictConfig)

// WithBandWidth sets the half-width of the confidence band as a fraction of the point estimate.
func WithBandWidth(c float64) PredictOption {
	return func(cfg *predictConfig) {
		if c >= 0 && finite(c) {
			cfg.bandWidth = c
		}
	}
}

// WithFallbackSpread sets the maximum relative perturbation used in fallback mode.
func WithFallbackSpread(s float64) PredictOption {
	return func(cfg *predictConfig) {
		if s >= 0 && finite(s) {
			cfg.fallbackSpread = s
		}
	}
}

func WithMaxHorizon(h int) PredictOption {
	return func(cfg *predictConfig) {
		if h > 0 {
			cfg.maxHorizon = h
		}
	}
}

// WithRand injects the random source used by fallback mode.
func WithRand(r *rand.Rand) PredictOption {
	return func(cfg *predictConfig) { cfg.rng = r }
}

func WithLogger(l *logger.Logger) PredictOption {
	return func(cfg *predictConfig) { cfg.log = l }
}

// WithSymbol only labels log lines.
func WithSymbol(symbol string) PredictOption {
	return func(cfg *predictConfig) { cfg.symbol = symbol }
}

// Predict forecasts the next hours closes starting from fv, the features of
// the latest observed bar. hours == 0 yields an empty forecast.
func (e *Engine) Predict(fv models.FeatureVector, hours int, opts ...PredictOption) (models.Forecast, error) {
	cfg := predictConfig{
		bandWidth:      DefaultBandWidth,
		fallbackSpread: DefaultFallbackSpread,
		maxHorizon:     DefaultMaxHorizon,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if hours < 0 || hours > cfg.maxHorizon {
		return models.Forecast{}, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidHorizon, hours, cfg.maxHorizon)
	}
	observed, err := checkBase(fv)
	if err != nil {
		return models.Forecast{}, err
	}
	if e.model != nil && !fv.Matches(e.model.schema) {
		return models.Forecast{}, fmt.Errorf("%w: want %v, got %v", ErrSchemaMismatch, e.model.schema, fv.Names)
	}

	out := models.Forecast{
		Symbol:       cfg.symbol,
		Mode:         models.ModeModel,
		BandWidth:    cfg.bandWidth,
		GeneratedAt:  time.Now().UTC(),
		LastTraining: e.LastTraining(),
		Predictions:  make([]models.Prediction, 0, hours),
	}

	rng := cfg.rng
	if e.model == nil {
		out.Mode = models.ModeFallback
		if rng == nil {
			seed := uint64(time.Now().UnixNano())
			rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		}
		if cfg.log != nil {
			cfg.log.Warn("no fitted model, using fallback forecast",
				logger.String("symbol", cfg.symbol),
				logger.String("mode", string(models.ModeFallback)),
				logger.Int("hours", hours),
				logger.Float64("anchor_close", observed),
			)
		}
	}

	current := fv.Clone()
	for step := 1; step <= hours; step++ {
		var p float64
		if e.model != nil {
			p, err = e.model.Predict(current)
			if err != nil {
				return models.Forecast{}, fmt.Errorf("step %d: %w", step, err)
			}
		} else {
			p = observed * (1 + cfg.fallbackSpread*(2*rng.Float64()-1))
		}

		half := math.Abs(p) * cfg.bandWidth
		out.Predictions = append(out.Predictions, models.Prediction{
			HorizonStep:   step,
			PointEstimate: p,
			LowerBound:    p - half,
			UpperBound:    p + half,
		})
		carryForward(current, p)
	}

	if cfg.log != nil && e.model != nil {
		cfg.log.Debug("model forecast complete",
			logger.String("symbol", cfg.symbol),
			logger.String("mode", string(models.ModeModel)),
			logger.Int("hours", hours),
			logger.Any("input", fv.Map()),
		)
	}
	return out, nil
}

// carryForward rewrites the OHLC features for the next step. Derived features stay frozen.
func carryForward(fv models.FeatureVector, p float64) {
	fv.Set(models.FeatureClose, p)
	fv.Set(models.FeatureOpen, p)
	fv.Set(models.FeatureHigh, p*carryHighFactor)
	fv.Set(models.FeatureLow, p*carryLowFactor)
}

// checkBase requires all OHLC features with finite values and returns the observed close.
func checkBase(fv models.FeatureVector) (float64, error) {
	if len(fv.Names) != len(fv.Values) {
		return 0, fmt.Errorf("%w: %d names, %d values", ErrMalformedFeatureVector, len(fv.Names), len(fv.Values))
	}
	for _, name := range models.BaseFeatures {
		v, ok := fv.Get(name)
		if !ok {
			return 0, fmt.Errorf("%w: missing %q", ErrMalformedFeatureVector, name)
		}
		if !finite(v) {
			return 0, fmt.Errorf("%w: %q is not finite", ErrMalformedFeatureVector, name)
		}
	}
	c, _ := fv.Get(models.FeatureClose)
	return c, nil
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
