package models

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

var barValidate = validator.New()

// Bar represents one hourly OHLCV record for a symbol.
type Bar struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Open      float64   `json:"open" validate:"gte=0"`
	High      float64   `json:"high" validate:"gte=0"`
	Low       float64   `json:"low" validate:"gte=0"`
	Close     float64   `json:"close" validate:"gte=0"`
	Volume    float64   `json:"volume" validate:"gte=0"`
}

// Validate checks field ranges and the OHLC envelope:
// high >= max(open, close) and low <= min(open, close).
func (b Bar) Validate() error {
	if err := barValidate.Struct(b); err != nil {
		return fmt.Errorf("bar %s: %w", b.Timestamp.Format(time.RFC3339), err)
	}
	if b.High < math.Max(b.Open, b.Close) {
		return fmt.Errorf("bar %s: high %.8f below open/close", b.Timestamp.Format(time.RFC3339), b.High)
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("bar %s: low %.8f above open/close", b.Timestamp.Format(time.RFC3339), b.Low)
	}
	return nil
}

// ValidateSeries validates every bar and requires timestamps to be strictly increasing.
func ValidateSeries(bars []Bar) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("bar %d: timestamp %s not after %s", i,
				b.Timestamp.Format(time.RFC3339), bars[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}
