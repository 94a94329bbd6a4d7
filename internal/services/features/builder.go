package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidBars      = errors.New("invalid bars")
)

const DefaultWindowSize = 24

// Derived feature names.
const (
	FeatureVolume     = "volume"
	FeatureLogReturn1 = "log_return_1"
	FeatureLogReturn6 = "log_return_6"
	FeatureCloseMean  = "close_mean"
	FeatureCloseStd   = "close_std"
	FeatureRealizedV  = "realized_vol"
	FeatureSMA12      = "sma_12"
	FeatureEMA12      = "ema_12"
	FeatureRSI14      = "rsi_14"
	FeatureATR14      = "atr_14"
	FeatureVolumeMean = "volume_mean"
	FeatureRangePct   = "range_pct"
)

const (
	smaPeriod = 12
	emaPeriod = 12
	rsiPeriod = 14
)

// DefaultSchema is the ordered feature list produced by Build.
//
//	open, high, low, close   latest bar, verbatim
//	volume                   latest bar volume
//	log_return_1             ln(close_t / close_t-1)
//	log_return_6             ln(close_t / close_t-6), 0 when the window is shorter
//	close_mean, close_std    mean and sample std of close over the window
//	realized_vol             annualized realized volatility of hourly log returns
//	sma_12, ema_12           moving averages of close (fall back to close)
//	rsi_14                   RSI of close (falls back to 50)
//	atr_14                   average true range (falls back to 0)
//	volume_mean              mean volume over the window
//	range_pct                (high - low) / close of the latest bar
func DefaultSchema() []string {
	return []string{
		models.FeatureOpen, models.FeatureHigh, models.FeatureLow, models.FeatureClose,
		FeatureVolume,
		FeatureLogReturn1, FeatureLogReturn6,
		FeatureCloseMean, FeatureCloseStd, FeatureRealizedV,
		FeatureSMA12, FeatureEMA12, FeatureRSI14, FeatureATR14,
		FeatureVolumeMean, FeatureRangePct,
	}
}

// Builder turns a trailing window of bars into a FeatureVector.
type Builder struct {
	windowSize int
}

func NewBuilder(windowSize int) *Builder {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Builder{windowSize: windowSize}
}

func (b *Builder) WindowSize() int { return b.windowSize }

// SelectWindow returns the trailing windowSize bars.
func SelectWindow(bars []models.Bar, windowSize int) ([]models.Bar, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size %d: %w", windowSize, ErrInsufficientData)
	}
	if len(bars) < windowSize {
		return nil, fmt.Errorf("need %d bars, got %d: %w", windowSize, len(bars), ErrInsufficientData)
	}
	return bars[len(bars)-windowSize:], nil
}

// FromBars selects the configured window from bars and builds its feature vector.
func (b *Builder) FromBars(bars []models.Bar) (models.FeatureVector, error) {
	window, err := SelectWindow(bars, b.windowSize)
	if err != nil {
		return models.FeatureVector{}, err
	}
	return b.Build(window)
}

// Build derives the DefaultSchema feature vector from a window ordered by ascending time.
func (b *Builder) Build(window []models.Bar) (models.FeatureVector, error) {
	if len(window) == 0 {
		return models.FeatureVector{}, fmt.Errorf("empty window: %w", ErrInsufficientData)
	}
	if err := models.ValidateSeries(window); err != nil {
		return models.FeatureVector{}, fmt.Errorf("%w: %v", ErrInvalidBars, err)
	}

	n := len(window)
	last := window[n-1]
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, bar := range window {
		closes[i] = bar.Close
		highs[i] = bar.High
		lows[i] = bar.Low
		volumes[i] = bar.Volume
	}

	rets := ComputeLogReturns(window)
	ret1 := 0.0
	if len(rets) > 0 {
		ret1 = rets[len(rets)-1]
	}
	ret6 := 0.0
	if n > 6 {
		ret6 = logReturn(closes[n-7], last.Close)
	}
	closeMean, closeStd := meanStd(closes)
	volMean, _ := meanStd(volumes)
	rv := RealizedVolatility(rets, len(rets), BarsPerYearForTF(domrepo.TF1h))

	sma := lastOr(helper.ChanToSlice(trend.NewSmaWithPeriod[float64](smaPeriod).Compute(helper.SliceToChan(closes))), last.Close)
	ema := lastOr(helper.ChanToSlice(trend.NewEmaWithPeriod[float64](emaPeriod).Compute(helper.SliceToChan(closes))), last.Close)
	rsi := lastOr(helper.ChanToSlice(momentum.NewRsiWithPeriod[float64](rsiPeriod).Compute(helper.SliceToChan(closes))), 50)
	atr := lastOr(helper.ChanToSlice(volatility.NewAtr[float64]().Compute(
		helper.SliceToChan(highs), helper.SliceToChan(lows), helper.SliceToChan(closes))), 0)

	rangePct := 0.0
	if last.Close > 0 {
		rangePct = (last.High - last.Low) / last.Close
	}

	values := []float64{
		last.Open, last.High, last.Low, last.Close,
		last.Volume,
		ret1, ret6,
		closeMean, closeStd, rv,
		sma, ema, rsi, atr,
		volMean, rangePct,
	}
	return models.NewFeatureVector(DefaultSchema(), values)
}

// lastOr returns the final indicator value, or def when the window was too short
// for the indicator to emit anything usable.
func lastOr(xs []float64, def float64) float64 {
	if len(xs) == 0 {
		return def
	}
	v := xs[len(xs)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
