package models

import "fmt"

// Base feature names. The autoregressive loop overwrites exactly these four.
const (
	FeatureOpen  = "open"
	FeatureHigh  = "high"
	FeatureLow   = "low"
	FeatureClose = "close"
)

// BaseFeatures lists the OHLC features every schema must contain.
var BaseFeatures = []string{FeatureOpen, FeatureHigh, FeatureLow, FeatureClose}

// FeatureVector is a fixed-order mapping from feature name to value.
type FeatureVector struct {
	Names  []string
	Values []float64
}

// NewFeatureVector pairs names with values; both must have the same length.
func NewFeatureVector(names []string, values []float64) (FeatureVector, error) {
	if len(names) != len(values) {
		return FeatureVector{}, fmt.Errorf("feature vector: %d names, %d values", len(names), len(values))
	}
	return FeatureVector{Names: append([]string(nil), names...), Values: append([]float64(nil), values...)}, nil
}

func (v FeatureVector) Len() int { return len(v.Names) }

func (v FeatureVector) index(name string) int {
	for i, n := range v.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Get returns the value stored under name.
func (v FeatureVector) Get(name string) (float64, bool) {
	i := v.index(name)
	if i < 0 || i >= len(v.Values) {
		return 0, false
	}
	return v.Values[i], true
}

// Set overwrites an existing feature. It reports false when name is not part of the vector.
func (v FeatureVector) Set(name string, value float64) bool {
	i := v.index(name)
	if i < 0 || i >= len(v.Values) {
		return false
	}
	v.Values[i] = value
	return true
}

// Clone returns a deep copy.
func (v FeatureVector) Clone() FeatureVector {
	return FeatureVector{
		Names:  append([]string(nil), v.Names...),
		Values: append([]float64(nil), v.Values...),
	}
}

// Matches reports whether the vector carries exactly the given names in the given order.
func (v FeatureVector) Matches(schema []string) bool {
	if len(v.Names) != len(schema) || len(v.Values) != len(schema) {
		return false
	}
	for i := range schema {
		if v.Names[i] != schema[i] {
			return false
		}
	}
	return true
}

// Map keys values by feature name.
func (v FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, len(v.Names))
	for i, n := range v.Names {
		if i < len(v.Values) {
			m[n] = v.Values[i]
		}
	}
	return m
}
