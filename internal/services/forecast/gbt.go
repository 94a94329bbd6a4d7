package forecast

import (
	"fmt"
	"math"
)

const KindGradientBoostedTrees = "gbt"

// TreeNode is one node of a regression tree stored in a flat slice.
// Leaves have Feature == -1. Rows with x[Feature] < Threshold, or a NaN value, go Left.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Gain      float64 `json:"gain,omitempty"`
}

func (n TreeNode) IsLeaf() bool { return n.Feature < 0 }

// Tree is a single regression tree; Nodes[0] is the root.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

func (t Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		v := x[n.Feature]
		if math.IsNaN(v) || v < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// GradientBoostedTrees is an additive ensemble of regression trees:
// prediction = BaseScore + LearningRate * sum(tree outputs).
type GradientBoostedTrees struct {
	BaseScore    float64 `json:"base_score"`
	LearningRate float64 `json:"learning_rate"`
	Features     int     `json:"n_features"`
	Trees        []Tree  `json:"trees"`
}

func (g *GradientBoostedTrees) Kind() string { return KindGradientBoostedTrees }
func (g *GradientBoostedTrees) NumFeatures() int { return g.Features }

func (g *GradientBoostedTrees) Predict(x []float64) float64 {
	sum := 0.0
	for _, t := range g.Trees {
		sum += t.predict(x)
	}
	return g.BaseScore + g.LearningRate*sum
}

// FeatureImportances returns the total split gain per feature, normalized to sum to 1.
func (g *GradientBoostedTrees) FeatureImportances() []float64 {
	out := make([]float64, g.Features)
	total := 0.0
	for _, t := range g.Trees {
		for _, n := range t.Nodes {
			if n.IsLeaf() || n.Gain <= 0 {
				continue
			}
			out[n.Feature] += n.Gain
			total += n.Gain
		}
	}
	if total == 0 {
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// Validate checks the tree layout so Predict always terminates inside bounds:
// child indexes must point forward within the same tree.
func (g *GradientBoostedTrees) Validate() error {
	if g.Features <= 0 {
		return fmt.Errorf("%w: gbt n_features must be positive", ErrInvalidModel)
	}
	if len(g.Trees) == 0 {
		return fmt.Errorf("%w: gbt has no trees", ErrInvalidModel)
	}
	if !finite(g.BaseScore) || !finite(g.LearningRate) {
		return fmt.Errorf("%w: gbt base_score/learning_rate not finite", ErrInvalidModel)
	}
	for ti, t := range g.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidModel, ti)
		}
		for ni, n := range t.Nodes {
			if n.IsLeaf() {
				if !finite(n.Value) {
					return fmt.Errorf("%w: tree %d leaf %d not finite", ErrInvalidModel, ti, ni)
				}
				continue
			}
			if n.Feature >= g.Features {
				return fmt.Errorf("%w: tree %d node %d uses feature %d of %d", ErrInvalidModel, ti, ni, n.Feature, g.Features)
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("%w: tree %d node %d has bad children", ErrInvalidModel, ti, ni)
			}
		}
	}
	return nil
}
