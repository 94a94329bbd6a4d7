package modelstore

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/services/forecast"
	"PriceCast/pkg/cache"
)

var schema = []string{"open", "high", "low", "close", "close_mean", "realized_vol"}

func fittedEngine(t *testing.T) *forecast.Engine {
	t.Helper()
	g := &forecast.GradientBoostedTrees{
		BaseScore:    0.1,
		LearningRate: 0.3,
		Features:     len(schema),
		Trees: []forecast.Tree{
			{Nodes: []forecast.TreeNode{
				{Feature: 3, Threshold: 0.25, Left: 1, Right: 2, Gain: 12.5},
				{Feature: -1, Value: 49876.123456789},
				{Feature: 5, Threshold: -1.1, Left: 3, Right: 4, Gain: 3.25},
				{Feature: -1, Value: 50123.000000001},
				{Feature: -1, Value: 50555.5},
			}},
			{Nodes: []forecast.TreeNode{{Feature: -1, Value: 1.0 / 3.0}}},
		},
	}
	scaler := &forecast.StandardScaler{
		Mean:  []float64{49000, 49100, 48900, 49000, 48000, 0.4},
		Scale: []float64{1000.5, 1001, 999.25, 1000.5, 700, 0.1},
	}
	m, err := forecast.NewModel(schema, scaler, g)
	require.NoError(t, err)
	trained := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)
	e, err := forecast.NewFittedEngine(m, &trained)
	require.NoError(t, err)
	return e
}

func vector(t *testing.T) models.FeatureVector {
	t.Helper()
	fv, err := models.NewFeatureVector(schema, []float64{49990, 50100, 49900, 50000, 49500, 0.35})
	require.NoError(t, err)
	return fv
}

type backendCase struct {
	name    string
	backend func(t *testing.T) Backend
}

func backends() []backendCase {
	return []backendCase{
		{"file", func(t *testing.T) Backend { return NewFileBackend(t.TempDir()) }},
		{"redis", func(t *testing.T) Backend {
			mr := miniredis.RunT(t)
			c := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "pricecast")
			t.Cleanup(func() { _ = c.Close() })
			return NewRedisBackend(c)
		}},
	}
}

func TestRoundTripFittedEngine(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			store := New(bc.backend(t))
			orig := fittedEngine(t)

			require.NoError(t, store.Save(ctx, "BTCUSDT", orig))
			loaded, err := store.Load(ctx, "BTCUSDT")
			require.NoError(t, err)

			assert.True(t, loaded.IsFitted())
			assert.Equal(t, orig.Schema(), loaded.Schema())
			require.NotNil(t, loaded.LastTraining())
			assert.True(t, orig.LastTraining().Equal(*loaded.LastTraining()))

			want, err := orig.Predict(vector(t), 12)
			require.NoError(t, err)
			got, err := loaded.Predict(vector(t), 12)
			require.NoError(t, err)
			assert.Equal(t, want.Predictions, got.Predictions)

			wantImp, err := orig.FeatureImportance()
			require.NoError(t, err)
			gotImp, err := loaded.FeatureImportance()
			require.NoError(t, err)
			assert.Equal(t, wantImp, gotImp)
		})
	}
}

func TestRoundTripFallbackEngine(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			store := New(bc.backend(t))

			require.NoError(t, store.Save(ctx, "ETHUSDT", forecast.NewEngine()))
			loaded, err := store.Load(ctx, "ETHUSDT")
			require.NoError(t, err)
			assert.False(t, loaded.IsFitted())
			assert.Nil(t, loaded.LastTraining())

			a, err := forecast.NewEngine().Predict(vector(t), 4, forecast.WithRand(rand.New(rand.NewPCG(3, 4))))
			require.NoError(t, err)
			b, err := loaded.Predict(vector(t), 4, forecast.WithRand(rand.New(rand.NewPCG(3, 4))))
			require.NoError(t, err)
			assert.Equal(t, a.Predictions, b.Predictions)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			_, err := New(bc.backend(t)).Load(context.Background(), "SOLUSDT")
			assert.ErrorIs(t, err, ErrModelNotFound)
		})
	}
}

func TestLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := New(NewFileBackend(dir))
	path := filepath.Join(dir, "btc_hourly_predictor.json")

	cases := map[string]string{
		"not json":       `{"format":`,
		"wrong format":   `{"format":"pickle","version":1}`,
		"future version": `{"format":"pricecast.engine","version":9}`,
		"dup schema":     `{"format":"pricecast.engine","version":1,"feature_schema":["open","open"],"model":null}`,
		"unknown kind":   `{"format":"pricecast.engine","version":1,"feature_schema":["open","high","low","close"],"model":{"kind":"forest","regressor":{}}}`,
		"width mismatch": `{"format":"pricecast.engine","version":1,"feature_schema":["open","high","low","close"],"model":{"kind":"constant","regressor":{"value":1,"n_features":7}}}`,
		"no base":        `{"format":"pricecast.engine","version":1,"feature_schema":["volume"],"model":{"kind":"constant","regressor":{"value":1,"n_features":1}}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := store.Load(ctx, "BTCUSDT")
			assert.ErrorIs(t, err, ErrCorruptArtifact)
		})
	}
}

func TestCreatePlaceholderIsIdempotent(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			store := New(bc.backend(t))

			e, created, err := store.CreatePlaceholder(ctx, "BTCUSDT")
			require.NoError(t, err)
			assert.True(t, created)
			assert.False(t, e.IsFitted())

			_, created, err = store.CreatePlaceholder(ctx, "btcusdt")
			require.NoError(t, err)
			assert.False(t, created)

			require.NoError(t, store.Save(ctx, "BTCUSDT", fittedEngine(t)))
			e, created, err = store.CreatePlaceholder(ctx, "BTCUSDT")
			require.NoError(t, err)
			assert.False(t, created)
			assert.True(t, e.IsFitted(), "existing fitted artifact is kept")
		})
	}
}

func TestCreatePlaceholderReplacesCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := New(NewFileBackend(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "eth_hourly_predictor.json"), []byte("garbage"), 0o644))

	e, created, err := store.CreatePlaceholder(ctx, "ETHUSDT")
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, e.IsFitted())

	loaded, err := store.Load(ctx, "ETHUSDT")
	require.NoError(t, err)
	assert.False(t, loaded.IsFitted())
}

func TestSaveFailsOnUnwritableLocation(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	store := New(NewFileBackend(filepath.Join(blocker, "models")))
	err := store.Save(context.Background(), "BTCUSDT", forecast.NewEngine())
	assert.ErrorIs(t, err, ErrStorageWrite)
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := New(NewFileBackend(t.TempDir()))

	require.NoError(t, store.Save(ctx, "BTCUSDT", fittedEngine(t)))
	require.NoError(t, store.Save(ctx, "BTCUSDT", forecast.NewEngine()))

	loaded, err := store.Load(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.False(t, loaded.IsFitted())

	ok, err := store.Exists(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOnSaveRunsAfterWrites(t *testing.T) {
	ctx := context.Background()
	s := New(NewFileBackend(t.TempDir()))
	var saved []string
	s.OnSave(func(symbol string) { saved = append(saved, symbol) })

	_, created, err := s.CreatePlaceholder(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.True(t, created)
	_, created, err = s.CreatePlaceholder(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.False(t, created)
	require.NoError(t, s.Save(ctx, "ETHUSDT", fittedEngine(t)))

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, saved)
}
