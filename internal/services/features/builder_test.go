package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
)

func makeBars(n int) []models.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i) + 3*math.Sin(float64(i))
		o := c - 0.5
		bars[i] = models.Bar{
			Symbol:    "BTCUSDT",
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      o,
			High:      c + 1,
			Low:       o - 1,
			Close:     c,
			Volume:    10 + float64(i%5),
		}
	}
	return bars
}

func TestSelectWindow(t *testing.T) {
	bars := makeBars(30)

	w, err := SelectWindow(bars, 24)
	require.NoError(t, err)
	require.Len(t, w, 24)
	assert.Equal(t, bars[6].Timestamp, w[0].Timestamp)
	assert.Equal(t, bars[29].Timestamp, w[23].Timestamp)

	w, err = SelectWindow(bars[:24], 24)
	require.NoError(t, err)
	assert.Len(t, w, 24)

	_, err = SelectWindow(bars[:23], 24)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBuildIncludesLatestOHLCVerbatim(t *testing.T) {
	bars := makeBars(24)
	fv, err := NewBuilder(24).FromBars(bars)
	require.NoError(t, err)

	assert.True(t, fv.Matches(DefaultSchema()))
	last := bars[23]
	for name, want := range map[string]float64{
		models.FeatureOpen:  last.Open,
		models.FeatureHigh:  last.High,
		models.FeatureLow:   last.Low,
		models.FeatureClose: last.Close,
		FeatureVolume:       last.Volume,
	} {
		got, ok := fv.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	for i, v := range fv.Values {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s not finite", fv.Names[i])
	}

	ret1, _ := fv.Get(FeatureLogReturn1)
	assert.InDelta(t, math.Log(last.Close/bars[22].Close), ret1, 1e-12)
	ret6, _ := fv.Get(FeatureLogReturn6)
	assert.InDelta(t, math.Log(last.Close/bars[17].Close), ret6, 1e-12)

	rsi, _ := fv.Get(FeatureRSI14)
	assert.True(t, rsi >= 0 && rsi <= 100)
}

func TestBuildIsDeterministic(t *testing.T) {
	bars := makeBars(24)
	b := NewBuilder(24)
	a, err := b.Build(bars)
	require.NoError(t, err)
	c, err := b.Build(bars)
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestBuildShortWindowUsesDefaults(t *testing.T) {
	bars := makeBars(3)
	fv, err := NewBuilder(3).FromBars(bars)
	require.NoError(t, err)

	sma, _ := fv.Get(FeatureSMA12)
	assert.Equal(t, bars[2].Close, sma)
	rsi, _ := fv.Get(FeatureRSI14)
	assert.Equal(t, 50.0, rsi)
	ret6, _ := fv.Get(FeatureLogReturn6)
	assert.Zero(t, ret6)
}

func TestBuildRejectsInvalidBars(t *testing.T) {
	bars := makeBars(24)
	bars[10].High = bars[10].Low - 1
	_, err := NewBuilder(24).Build(bars)
	assert.ErrorIs(t, err, ErrInvalidBars)

	bars = makeBars(24)
	bars[5].Timestamp = bars[4].Timestamp
	_, err = NewBuilder(24).Build(bars)
	assert.ErrorIs(t, err, ErrInvalidBars)

	_, err = NewBuilder(24).Build(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRealizedVolatility(t *testing.T) {
	assert.Zero(t, RealizedVolatility([]float64{0.01}, 1, 8760))
	assert.InDelta(t, 0, RealizedVolatility([]float64{0.01, 0.01, 0.01}, 3, 8760), 1e-6)

	rv := RealizedVolatility([]float64{0.01, -0.01}, 2, 8760)
	assert.InDelta(t, math.Sqrt(0.0002*8760), rv, 1e-12)
}

func TestBarsPerYearForTF(t *testing.T) {
	assert.Equal(t, 8760.0, BarsPerYearForTF(domrepo.TF1h))
	assert.Equal(t, 8760.0, BarsPerYearForTF(domrepo.Timeframe("7m")))
}
