package forecast

import (
	"fmt"
	"sort"

	"PriceCast/internal/domain/models"
)

// Model is a fitted regressor bound to the feature schema and scaler it was trained with.
type Model struct {
	schema    []string
	scaler    *StandardScaler
	regressor Regressor
}

// NewModel binds a regressor to its schema. scaler may be nil for regressors
// trained on raw features.
func NewModel(schema []string, scaler *StandardScaler, regressor Regressor) (*Model, error) {
	if regressor == nil {
		return nil, fmt.Errorf("%w: nil regressor", ErrInvalidModel)
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("%w: empty feature schema", ErrInvalidModel)
	}
	seen := make(map[string]struct{}, len(schema))
	for _, name := range schema {
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate feature %q", ErrInvalidModel, name)
		}
		seen[name] = struct{}{}
	}
	if err := regressor.Validate(); err != nil {
		return nil, err
	}
	if n := regressor.NumFeatures(); n != 0 && n != len(schema) {
		return nil, fmt.Errorf("%w: regressor expects %d features, schema has %d", ErrInvalidModel, n, len(schema))
	}
	if scaler != nil {
		if err := scaler.Validate(); err != nil {
			return nil, err
		}
		if scaler.Width() != len(schema) {
			return nil, fmt.Errorf("%w: scaler width %d, schema has %d", ErrInvalidModel, scaler.Width(), len(schema))
		}
	}
	return &Model{
		schema:    append([]string(nil), schema...),
		scaler:    scaler,
		regressor: regressor,
	}, nil
}

func (m *Model) Schema() []string { return append([]string(nil), m.schema...) }
func (m *Model) Scaler() *StandardScaler { return m.scaler }
func (m *Model) Regressor() Regressor { return m.regressor }

// Predict returns the next-hour close for one feature vector.
func (m *Model) Predict(fv models.FeatureVector) (float64, error) {
	if m == nil || m.regressor == nil {
		return 0, ErrModelNotFitted
	}
	if !fv.Matches(m.schema) {
		return 0, fmt.Errorf("%w: want %v, got %v", ErrSchemaMismatch, m.schema, fv.Names)
	}
	x := fv.Values
	if m.scaler != nil {
		var err error
		if x, err = m.scaler.Transform(x); err != nil {
			return 0, err
		}
	} else {
		x = append([]float64(nil), x...)
	}
	y := m.regressor.Predict(x)
	if !finite(y) {
		return 0, ErrNonFiniteOutcome
	}
	return y, nil
}

// FeatureImportance pairs every schema feature with its score, highest first.
// Ties keep schema order.
func (m *Model) FeatureImportance() ([]models.FeatureImportance, error) {
	if m == nil || m.regressor == nil {
		return nil, ErrModelNotFitted
	}
	scores := m.regressor.FeatureImportances()
	out := make([]models.FeatureImportance, len(m.schema))
	for i, name := range m.schema {
		var s float64
		if i < len(scores) {
			s = scores[i]
		}
		out[i] = models.FeatureImportance{Feature: name, Importance: s}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out, nil
}
