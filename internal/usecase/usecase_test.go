package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/services/features"
	"PriceCast/internal/services/forecast"
	"PriceCast/internal/services/modelstore"
	"PriceCast/pkg/config"
)

type memBarStore struct {
	mu   sync.Mutex
	bars map[string]map[time.Time]models.Bar
}

func newMemBarStore() *memBarStore {
	return &memBarStore{bars: make(map[string]map[time.Time]models.Bar)}
}

func (s *memBarStore) Init(context.Context) error { return nil }

func (s *memBarStore) UpsertBars(_ context.Context, symbol string, bars []models.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bars[symbol] == nil {
		s.bars[symbol] = make(map[time.Time]models.Bar)
	}
	for _, b := range bars {
		s.bars[symbol][b.Timestamp] = b
	}
	return nil
}

func (s *memBarStore) GetLatestNBars(_ context.Context, symbol string, n int) ([]models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Bar, 0, len(s.bars[symbol]))
	for _, b := range s.bars[symbol] {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

func (s *memBarStore) Health(context.Context) error { return nil }
func (s *memBarStore) Close() error { return nil }

type recordingMetrics struct {
	forecasts []string
	errors    []string
	collected int
}

func (m *recordingMetrics) RecordForecast(symbol, mode string, _ int) {
	m.forecasts = append(m.forecasts, symbol+":"+mode)
}
func (m *recordingMetrics) RecordError(kind string) { m.errors = append(m.errors, kind) }
func (m *recordingMetrics) RecordLastPrice(string, float64) {}
func (m *recordingMetrics) RecordLatency(string, float64) {}
func (m *recordingMetrics) RecordBarsCollected(_ string, n int) { m.collected += n }

type recordingPublisher struct {
	views []models.ForecastView
}

func (p *recordingPublisher) PublishForecast(_ context.Context, v models.ForecastView) error {
	p.views = append(p.views, v)
	return nil
}
func (p *recordingPublisher) Close() error { return nil }

type countingLoader struct {
	inner EngineLoader
	calls int
}

func (l *countingLoader) Load(ctx context.Context, symbol string) (*forecast.Engine, error) {
	l.calls++
	return l.inner.Load(ctx, symbol)
}

func testBars(n int, lastClose float64) []models.Bar {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Bar, n)
	for i := range out {
		c := lastClose - float64(n-1-i)*20
		out[i] = models.Bar{
			Symbol:    "BTCUSDT",
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      c - 5,
			High:      c + 30,
			Low:       c - 30,
			Close:     c,
			Volume:    50,
		}
	}
	return out
}

func forecastConfig() config.ForecastConfig {
	return config.Default().Forecast
}

type fixture struct {
	bars    *memBarStore
	store   *modelstore.Store
	metrics *recordingMetrics
	pub     *recordingPublisher
	uc      *ForecastUseCase
}

func newFixture(t *testing.T, opts ...ForecastOption) *fixture {
	t.Helper()
	f := &fixture{
		bars:    newMemBarStore(),
		store:   modelstore.New(modelstore.NewFileBackend(t.TempDir())),
		metrics: &recordingMetrics{},
		pub:     &recordingPublisher{},
	}
	opts = append([]ForecastOption{WithMetrics(f.metrics), WithPublisher(f.pub)}, opts...)
	f.uc = NewForecastUseCase(forecastConfig(), f.bars, f.store, opts...)
	return f
}

func TestForecastFallbackPlaceholder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.bars.UpsertBars(ctx, "BTCUSDT", testBars(30, 50000)))
	_, _, err := f.store.CreatePlaceholder(ctx, "BTCUSDT")
	require.NoError(t, err)

	view, err := f.uc.Forecast(ctx, "btcusdt", 6)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", view.Symbol)
	assert.Equal(t, models.ModeFallback, view.Mode)
	assert.Nil(t, view.LastTraining)
	require.Len(t, view.Predictions, 6)
	for i, p := range view.Predictions {
		assert.Equal(t, i+1, p.HorizonStep)
		pe := p.PointEstimate.InexactFloat64()
		assert.InDelta(t, 50000, pe, 50000*0.02+0.01)
		assert.True(t, p.LowerBound.LessThanOrEqual(p.PointEstimate))
		assert.True(t, p.PointEstimate.LessThanOrEqual(p.UpperBound))
	}
	assert.Equal(t, time.Date(2024, 3, 2, 5, 0, 0, 0, time.UTC).Add(time.Hour), view.Predictions[0].Target)

	assert.Equal(t, []string{"BTCUSDT:fallback"}, f.metrics.forecasts)
	require.Len(t, f.pub.views, 1)
	assert.Equal(t, "BTCUSDT", f.pub.views[0].Symbol)
}

func TestForecastFittedModel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.bars.UpsertBars(ctx, "ETHUSDT", testBars(24, 3000)))

	schema := features.DefaultSchema()
	m, err := forecast.NewModel(schema, nil, &forecast.ConstantRegressor{Value: 3100.123, Features: len(schema)})
	require.NoError(t, err)
	trained := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	e, err := forecast.NewFittedEngine(m, &trained)
	require.NoError(t, err)
	require.NoError(t, f.store.Save(ctx, "ETHUSDT", e))

	view, err := f.uc.Forecast(ctx, "ETHUSDT", 3)
	require.NoError(t, err)
	assert.Equal(t, models.ModeModel, view.Mode)
	require.NotNil(t, view.LastTraining)
	assert.True(t, trained.Equal(*view.LastTraining))
	for _, p := range view.Predictions {
		assert.Equal(t, "3100.12", p.PointEstimate.String())
	}

	_, err = f.uc.FeatureImportance(ctx, "ETHUSDT")
	require.NoError(t, err)
}

func TestForecastZeroHoursIsEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.bars.UpsertBars(ctx, "BTCUSDT", testBars(24, 50000)))
	_, _, err := f.store.CreatePlaceholder(ctx, "BTCUSDT")
	require.NoError(t, err)

	view, err := f.uc.Forecast(ctx, "BTCUSDT", 0)
	require.NoError(t, err)
	assert.Empty(t, view.Predictions)
	assert.Empty(t, f.pub.views)
}

func TestForecastErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.bars.UpsertBars(ctx, "BTCUSDT", testBars(10, 50000)))
	require.NoError(t, f.bars.UpsertBars(ctx, "ETHUSDT", testBars(24, 3000)))

	_, err := f.uc.Forecast(ctx, "DOGEUSDT", 6)
	assert.ErrorIs(t, err, ErrUnsupportedSymbol)

	_, err = f.uc.Forecast(ctx, "BTCUSDT", 169)
	assert.ErrorIs(t, err, forecast.ErrInvalidHorizon)

	_, err = f.uc.Forecast(ctx, "BTCUSDT", -1)
	assert.ErrorIs(t, err, forecast.ErrInvalidHorizon)

	_, err = f.uc.Forecast(ctx, "BTCUSDT", 6)
	assert.ErrorIs(t, err, features.ErrInsufficientData)

	_, err = f.uc.Forecast(ctx, "ETHUSDT", 6)
	assert.ErrorIs(t, err, modelstore.ErrModelNotFound)

	_, _, err = f.store.CreatePlaceholder(ctx, "ETHUSDT")
	require.NoError(t, err)
	_, err = f.uc.FeatureImportance(ctx, "ETHUSDT")
	assert.ErrorIs(t, err, forecast.ErrModelNotFitted)

	assert.Contains(t, f.metrics.errors, "unsupported_symbol")
	assert.Contains(t, f.metrics.errors, "features")
	assert.Empty(t, f.pub.views)
}

func TestForecastCachesLoadedEngines(t *testing.T) {
	ctx := context.Background()
	bars := newMemBarStore()
	require.NoError(t, bars.UpsertBars(ctx, "BTCUSDT", testBars(24, 50000)))
	store := modelstore.New(modelstore.NewFileBackend(t.TempDir()))
	_, _, err := store.CreatePlaceholder(ctx, "BTCUSDT")
	require.NoError(t, err)

	loader := &countingLoader{inner: store}
	uc := NewForecastUseCase(forecastConfig(), bars, loader, WithEngineCache(time.Minute))

	for i := 0; i < 3; i++ {
		_, err := uc.Forecast(ctx, "BTCUSDT", 2)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, loader.calls)

	uc.InvalidateEngine("btcusdt")
	_, err = uc.Forecast(ctx, "BTCUSDT", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls)
}

func TestSavedEngineReplacesCachedOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithEngineCache(time.Hour))
	f.store.OnSave(f.uc.InvalidateEngine)
	require.NoError(t, f.bars.UpsertBars(ctx, "BTCUSDT", testBars(24, 50000)))
	_, _, err := f.store.CreatePlaceholder(ctx, "BTCUSDT")
	require.NoError(t, err)

	view, err := f.uc.Forecast(ctx, "BTCUSDT", 1)
	require.NoError(t, err)
	require.Equal(t, models.ModeFallback, view.Mode)

	schema := features.DefaultSchema()
	m, err := forecast.NewModel(schema, nil, &forecast.ConstantRegressor{Value: 51000, Features: len(schema)})
	require.NoError(t, err)
	e, err := forecast.NewFittedEngine(m, nil)
	require.NoError(t, err)
	require.NoError(t, f.store.Save(ctx, "BTCUSDT", e))

	view, err = f.uc.Forecast(ctx, "BTCUSDT", 1)
	require.NoError(t, err)
	assert.Equal(t, models.ModeModel, view.Mode)
	assert.Equal(t, "51000", view.Predictions[0].PointEstimate.String())
}

func TestSymbolsReturnsCopy(t *testing.T) {
	f := newFixture(t)
	s := f.uc.Symbols()
	require.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, s)
	s[0] = "X"
	assert.Equal(t, "BTCUSDT", f.uc.Symbols()[0])
}

type stubFetcher struct {
	bars []models.Bar
	err  error
}

func (f stubFetcher) FetchHourly(context.Context, string, int) ([]models.Bar, error) {
	return f.bars, f.err
}

func TestBarCollectorCollectAndList(t *testing.T) {
	ctx := context.Background()
	store := newMemBarStore()
	m := &recordingMetrics{}
	c := NewBarCollector(stubFetcher{bars: testBars(5, 1000)}, store, []string{"BTCUSDT"}, 72, m, nil)

	n, err := c.Collect(ctx, "btcusdt")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, m.collected)

	// re-collecting the same hours replaces rather than duplicates
	_, err = c.Collect(ctx, "BTCUSDT")
	require.NoError(t, err)

	res, err := NewBarsUseCase(forecastConfig(), store).ListBars(ctx, "BTCUSDT", 3)
	require.NoError(t, err)
	require.Equal(t, 3, res.Count)
	assert.True(t, res.Bars[0].Timestamp.After(res.Bars[1].Timestamp))
	assert.Equal(t, 1000.0, res.Bars[0].Close)

	all, err := store.GetLatestNBars(ctx, "BTCUSDT", 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestBarCollectorErrors(t *testing.T) {
	ctx := context.Background()
	store := newMemBarStore()

	c := NewBarCollector(stubFetcher{}, store, []string{"BTCUSDT"}, 72, nil, nil)
	_, err := c.Collect(ctx, "ETHUSDT")
	assert.ErrorIs(t, err, ErrUnsupportedSymbol)

	boom := errors.New("exchange down")
	c = NewBarCollector(stubFetcher{err: boom}, store, []string{"BTCUSDT"}, 72, nil, nil)
	assert.ErrorIs(t, c.CollectAll(ctx), boom)

	bad := testBars(2, 1000)
	bad[1].High = 1
	c = NewBarCollector(stubFetcher{bars: bad}, store, []string{"BTCUSDT"}, 72, nil, nil)
	_, err = c.Collect(ctx, "BTCUSDT")
	assert.Error(t, err)

	_, err = NewBarsUseCase(forecastConfig(), store).ListBars(ctx, "XRPUSDT", 10)
	assert.ErrorIs(t, err, ErrUnsupportedSymbol)
}

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := modelstore.New(modelstore.NewFileBackend(t.TempDir()))
	b := NewBootstrap(store, []string{"BTCUSDT", "ETHUSDT"}, nil)

	res, err := b.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, res.Created)
	assert.Empty(t, res.Existing)

	res, err = b.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, res.Existing)
}
