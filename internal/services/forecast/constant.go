package forecast

import "fmt"

const KindConstant = "constant"

// ConstantRegressor always predicts Value. Useful as a baseline and in tests.
type ConstantRegressor struct {
	Value    float64 `json:"value"`
	Features int     `json:"n_features"`
}

func (c *ConstantRegressor) Kind() string { return KindConstant }
func (c *ConstantRegressor) NumFeatures() int { return c.Features }
func (c *ConstantRegressor) Predict(_ []float64) float64 { return c.Value }

func (c *ConstantRegressor) FeatureImportances() []float64 {
	return make([]float64, c.Features)
}

func (c *ConstantRegressor) Validate() error {
	if c.Features < 0 {
		return fmt.Errorf("%w: constant n_features negative", ErrInvalidModel)
	}
	if !finite(c.Value) {
		return fmt.Errorf("%w: constant value not finite", ErrInvalidModel)
	}
	return nil
}
