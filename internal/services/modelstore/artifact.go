package modelstore

import (
	"encoding/json"
	"fmt"
	"time"

	"PriceCast/internal/services/forecast"
)

const (
	artifactFormat  = "pricecast.engine"
	artifactVersion = 1
)

// artifact is the persisted form of a forecast.Engine.
// Model and LastTraining are null for a fallback engine.
type artifact struct {
	Format        string         `json:"format"`
	Version       int            `json:"version"`
	Symbol        string         `json:"symbol"`
	FeatureSchema []string       `json:"feature_schema"`
	Model         *modelArtifact `json:"model"`
	LastTraining  *time.Time     `json:"last_training_timestamp"`
	SavedAt       time.Time      `json:"saved_at"`
}

type modelArtifact struct {
	Kind      string                   `json:"kind"`
	Scaler    *forecast.StandardScaler `json:"scaler,omitempty"`
	Regressor json.RawMessage          `json:"regressor"`
}

func encodeEngine(symbol string, e *forecast.Engine, now time.Time) ([]byte, error) {
	a := artifact{
		Format:        artifactFormat,
		Version:       artifactVersion,
		Symbol:        symbol,
		FeatureSchema: e.Schema(),
		LastTraining:  e.LastTraining(),
		SavedAt:       now.UTC(),
	}
	if m := e.Model(); m != nil {
		raw, err := json.Marshal(m.Regressor())
		if err != nil {
			return nil, fmt.Errorf("encode regressor: %w", err)
		}
		a.Model = &modelArtifact{
			Kind:      m.Regressor().Kind(),
			Scaler:    m.Scaler(),
			Regressor: raw,
		}
	}
	return json.MarshalIndent(a, "", "  ")
}

func decodeEngine(data []byte) (*forecast.Engine, *artifact, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if a.Format != artifactFormat {
		return nil, nil, fmt.Errorf("%w: unknown format %q", ErrCorruptArtifact, a.Format)
	}
	if a.Version != artifactVersion {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptArtifact, a.Version)
	}
	if err := checkSchema(a.FeatureSchema); err != nil {
		return nil, nil, err
	}

	if a.Model == nil {
		if len(a.FeatureSchema) > 0 || a.LastTraining != nil {
			return nil, nil, fmt.Errorf("%w: fallback artifact carries training state", ErrCorruptArtifact)
		}
		return forecast.NewEngine(), &a, nil
	}

	reg, err := forecast.DecodeRegressor(a.Model.Kind, a.Model.Regressor)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	model, err := forecast.NewModel(a.FeatureSchema, a.Model.Scaler, reg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	e, err := forecast.NewFittedEngine(model, a.LastTraining)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	return e, &a, nil
}

func checkSchema(schema []string) error {
	seen := make(map[string]struct{}, len(schema))
	for i, name := range schema {
		if name == "" {
			return fmt.Errorf("%w: empty feature name at %d", ErrCorruptArtifact, i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate feature %q", ErrCorruptArtifact, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
