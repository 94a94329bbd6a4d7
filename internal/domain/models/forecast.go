package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ForecastMode tells consumers whether predictions came from a fitted model.
type ForecastMode string

const (
	ModeModel    ForecastMode = "model"
	ModeFallback ForecastMode = "fallback"
)

// Prediction is one step of a multi-step forecast, kept at full precision.
// LowerBound <= PointEstimate <= UpperBound always holds.
type Prediction struct {
	HorizonStep   int
	PointEstimate float64
	LowerBound    float64
	UpperBound    float64
}

// Forecast is the ordered output of one engine call.
type Forecast struct {
	Symbol       string
	Mode         ForecastMode
	BandWidth    float64
	GeneratedAt  time.Time
	LastTraining *time.Time
	Predictions  []Prediction
}

// FeatureImportance is one entry of a model's importance ranking.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// PredictionView is the display form of a Prediction, rounded to a fixed precision.
type PredictionView struct {
	HorizonStep   int             `json:"horizon_step"`
	Target        time.Time       `json:"target"`
	PointEstimate decimal.Decimal `json:"point_estimate"`
	LowerBound    decimal.Decimal `json:"lower_bound"`
	UpperBound    decimal.Decimal `json:"upper_bound"`
}

// ForecastView is the display form of a Forecast.
type ForecastView struct {
	Symbol       string           `json:"symbol"`
	Mode         ForecastMode     `json:"mode"`
	BandWidth    float64          `json:"band_width"`
	GeneratedAt  time.Time        `json:"generated_at"`
	LastTraining *time.Time       `json:"last_training,omitempty"`
	LastBarAt    time.Time        `json:"last_bar_at"`
	Predictions  []PredictionView `json:"predictions"`
}

// Display rounds the prediction to precision decimal places.
// Target is the hour the step refers to, counted from the last observed bar.
func (p Prediction) Display(lastBar time.Time, precision int32) PredictionView {
	return PredictionView{
		HorizonStep:   p.HorizonStep,
		Target:        lastBar.Add(time.Duration(p.HorizonStep) * time.Hour),
		PointEstimate: decimal.NewFromFloat(p.PointEstimate).Round(precision),
		LowerBound:    decimal.NewFromFloat(p.LowerBound).Round(precision),
		UpperBound:    decimal.NewFromFloat(p.UpperBound).Round(precision),
	}
}

// View builds the display form of the whole forecast.
func (f Forecast) View(lastBar time.Time, precision int32) ForecastView {
	out := ForecastView{
		Symbol:       f.Symbol,
		Mode:         f.Mode,
		BandWidth:    f.BandWidth,
		GeneratedAt:  f.GeneratedAt,
		LastTraining: f.LastTraining,
		LastBarAt:    lastBar,
		Predictions:  make([]PredictionView, 0, len(f.Predictions)),
	}
	for _, p := range f.Predictions {
		out.Predictions = append(out.Predictions, p.Display(lastBar, precision))
	}
	return out
}
