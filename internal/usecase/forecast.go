package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/service/cache"
	"PriceCast/internal/services/features"
	"PriceCast/internal/services/forecast"
	"PriceCast/pkg/config"
	applogger "PriceCast/pkg/logger"
)

// EngineLoader resolves the persisted engine for a symbol.
type EngineLoader interface {
	Load(ctx context.Context, symbol string) (*forecast.Engine, error)
}

// ForecastUseCase is the request boundary: allow-list check, then
// fetch bars, build features, load the engine and predict.
type ForecastUseCase struct {
	cfg      config.ForecastConfig
	bars     domrepo.BarStore
	loader   EngineLoader
	builder  *features.Builder
	engines  *cache.TTLCache[*forecast.Engine]
	cacheTTL time.Duration
	metrics  domrepo.Metrics
	pub      domrepo.ForecastPublisher
	log      *applogger.Logger
}

var _ domsvc.Forecaster = (*ForecastUseCase)(nil)

type ForecastOption func(*ForecastUseCase)

// WithEngineCache keeps loaded engines in memory for ttl. Zero disables caching.
func WithEngineCache(ttl time.Duration) ForecastOption {
	return func(uc *ForecastUseCase) { uc.cacheTTL = ttl }
}

func WithPublisher(p domrepo.ForecastPublisher) ForecastOption {
	return func(uc *ForecastUseCase) { uc.pub = p }
}

func WithForecastLogger(l *applogger.Logger) ForecastOption {
	return func(uc *ForecastUseCase) { uc.log = l }
}

func WithMetrics(m domrepo.Metrics) ForecastOption {
	return func(uc *ForecastUseCase) { uc.metrics = m }
}

func NewForecastUseCase(cfg config.ForecastConfig, bars domrepo.BarStore, loader EngineLoader, opts ...ForecastOption) *ForecastUseCase {
	uc := &ForecastUseCase{
		cfg:     cfg,
		bars:    bars,
		loader:  loader,
		builder: features.NewBuilder(cfg.WindowSize),
		engines: cache.NewTTLCache[*forecast.Engine](),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Symbols returns the allow-list.
func (uc *ForecastUseCase) Symbols() []string {
	return append([]string(nil), uc.cfg.Symbols...)
}

func (uc *ForecastUseCase) Forecast(ctx context.Context, symbol string, hours int) (models.ForecastView, error) {
	start := time.Now()
	symbol, err := uc.resolve(symbol)
	if err != nil {
		return models.ForecastView{}, err
	}
	if hours < 0 || hours > uc.cfg.MaxHorizon {
		uc.recordError("horizon")
		return models.ForecastView{}, fmt.Errorf("%w: %d (max %d)", forecast.ErrInvalidHorizon, hours, uc.cfg.MaxHorizon)
	}

	bars, err := uc.bars.GetLatestNBars(ctx, symbol, uc.cfg.WindowSize)
	if err != nil {
		uc.recordError("bar_store")
		return models.ForecastView{}, fmt.Errorf("load bars %s: %w", symbol, err)
	}
	fv, err := uc.builder.FromBars(bars)
	if err != nil {
		uc.recordError("features")
		return models.ForecastView{}, fmt.Errorf("build features %s: %w", symbol, err)
	}
	last := bars[len(bars)-1]

	engine, err := uc.engine(ctx, symbol)
	if err != nil {
		uc.recordError("model_store")
		return models.ForecastView{}, err
	}

	f, err := engine.Predict(fv, hours,
		forecast.WithBandWidth(uc.cfg.BandWidth),
		forecast.WithFallbackSpread(uc.cfg.FallbackSpread),
		forecast.WithMaxHorizon(uc.cfg.MaxHorizon),
		forecast.WithSymbol(symbol),
		forecast.WithLogger(uc.log),
	)
	if err != nil {
		uc.recordError("predict")
		return models.ForecastView{}, fmt.Errorf("predict %s: %w", symbol, err)
	}
	view := f.View(last.Timestamp, uc.cfg.DisplayPrecision)

	if uc.metrics != nil {
		uc.metrics.RecordForecast(symbol, string(f.Mode), hours)
		uc.metrics.RecordLastPrice(symbol, last.Close)
		uc.metrics.RecordLatency("forecast", time.Since(start).Seconds())
	}
	if uc.pub != nil && hours > 0 {
		if err := uc.pub.PublishForecast(ctx, view); err != nil {
			uc.recordError("publish")
			if uc.log != nil {
				uc.log.Warn("forecast publish failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
		}
	}
	return view, nil
}

// FeatureImportance ranks the loaded model's inputs. Fallback engines yield ErrModelNotFitted.
func (uc *ForecastUseCase) FeatureImportance(ctx context.Context, symbol string) ([]models.FeatureImportance, error) {
	symbol, err := uc.resolve(symbol)
	if err != nil {
		return nil, err
	}
	engine, err := uc.engine(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return engine.FeatureImportance()
}

func (uc *ForecastUseCase) resolve(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !uc.cfg.IsSupported(s) {
		uc.recordError("unsupported_symbol")
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSymbol, symbol)
	}
	return s, nil
}

func (uc *ForecastUseCase) engine(ctx context.Context, symbol string) (*forecast.Engine, error) {
	if uc.cacheTTL > 0 {
		if e, ok := uc.engines.Get(symbol); ok {
			return e, nil
		}
	}
	e, err := uc.loader.Load(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("load engine %s: %w", symbol, err)
	}
	if uc.cacheTTL > 0 {
		uc.engines.Set(symbol, e, uc.cacheTTL)
	}
	return e, nil
}

// InvalidateEngine drops a cached engine so the next call reloads it.
func (uc *ForecastUseCase) InvalidateEngine(symbol string) {
	uc.engines.Delete(strings.ToUpper(symbol))
}

func (uc *ForecastUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}
