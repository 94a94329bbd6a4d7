package forecast

import (
	"fmt"
	"math"
)

// StandardScaler holds per-feature mean and scale fitted at training time.
// Transform computes (x - mean) / scale; a zero scale is treated as 1.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Width() int { return len(s.Mean) }

// Validate checks that mean and scale line up and are finite.
func (s *StandardScaler) Validate() error {
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("%w: scaler has %d means and %d scales", ErrInvalidModel, len(s.Mean), len(s.Scale))
	}
	for i := range s.Mean {
		if !finite(s.Mean[i]) || !finite(s.Scale[i]) {
			return fmt.Errorf("%w: scaler column %d not finite", ErrInvalidModel, i)
		}
	}
	return nil
}

// Transform standardizes x into a new slice.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("%w: scaler expects %d values, got %d", ErrSchemaMismatch, len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
