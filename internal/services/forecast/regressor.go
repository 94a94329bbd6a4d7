package forecast

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Regressor maps one standardized feature row to a scalar.
type Regressor interface {
	Kind() string
	// NumFeatures is the input width the regressor was fitted on.
	NumFeatures() int
	Predict(x []float64) float64
	// FeatureImportances returns one score per input column, in column order.
	FeatureImportances() []float64
	Validate() error
}

// RegressorDecoder rebuilds a regressor from its serialized form.
type RegressorDecoder func(raw json.RawMessage) (Regressor, error)

var (
	decodersMu sync.RWMutex
	decoders   = map[string]RegressorDecoder{}
)

// RegisterRegressor makes a regressor kind loadable from artifacts.
func RegisterRegressor(kind string, dec RegressorDecoder) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders[kind] = dec
}

// DecodeRegressor rebuilds and validates a regressor of the given kind.
func DecodeRegressor(kind string, raw json.RawMessage) (Regressor, error) {
	decodersMu.RLock()
	dec, ok := decoders[kind]
	decodersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown regressor kind %q", ErrInvalidModel, kind)
	}
	r, err := dec(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidModel, kind, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// RegressorKinds lists the registered kinds, sorted.
func RegressorKinds() []string {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	out := make([]string, 0, len(decoders))
	for k := range decoders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	RegisterRegressor(KindGradientBoostedTrees, func(raw json.RawMessage) (Regressor, error) {
		var g GradientBoostedTrees
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, err
		}
		return &g, nil
	})
	RegisterRegressor(KindConstant, func(raw json.RawMessage) (Regressor, error) {
		var c ConstantRegressor
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return &c, nil
	})
}
