package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// LinearArtifact is the on-disk form of a LinearModel.
type LinearArtifact struct {
	Name     string         `json:"name"`
	Features []string       `json:"features"`
	Outputs  []LinearOutput `json:"outputs"`
}

type LinearOutput struct {
	Name      string    `json:"name"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	Min       *float64  `json:"min,omitempty"`
	Max       *float64  `json:"max,omitempty"`
}

// LinearModel is a multi-output linear regressor. Feature order and output
// names come from the artifact.
type LinearModel struct {
	name     string
	features []string
	outputs  []LinearOutput
}

func NewLinearModel(artifact LinearArtifact) (*LinearModel, error) {
	if artifact.Name == "" {
		return nil, fmt.Errorf("linear model artifact has no name")
	}
	if len(artifact.Features) == 0 {
		return nil, fmt.Errorf("linear model %s declares no features", artifact.Name)
	}
	if len(artifact.Outputs) == 0 {
		return nil, fmt.Errorf("linear model %s declares no outputs", artifact.Name)
	}

	seen := make(map[string]struct{}, len(artifact.Features))
	for _, f := range artifact.Features {
		if f == "" {
			return nil, fmt.Errorf("linear model %s has an empty feature name", artifact.Name)
		}
		if _, dup := seen[f]; dup {
			return nil, fmt.Errorf("linear model %s repeats feature %s", artifact.Name, f)
		}
		seen[f] = struct{}{}
	}
	for _, o := range artifact.Outputs {
		if len(o.Weights) != len(artifact.Features) {
			return nil, fmt.Errorf("linear model %s output %s has %d weights for %d features",
				artifact.Name, o.Name, len(o.Weights), len(artifact.Features))
		}
	}

	return &LinearModel{
		name:     artifact.Name,
		features: append([]string(nil), artifact.Features...),
		outputs:  append([]LinearOutput(nil), artifact.Outputs...),
	}, nil
}

func DecodeLinearModel(r io.Reader) (*LinearModel, error) {
	var artifact LinearArtifact
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&artifact); err != nil {
		return nil, fmt.Errorf("decode linear model: %w", err)
	}
	return NewLinearModel(artifact)
}

func (m *LinearModel) Name() string { return m.name }

func (m *LinearModel) Features() []string {
	return append([]string(nil), m.features...)
}

func (m *LinearModel) Predict(_ context.Context, row []float64) (map[string]float64, error) {
	if len(row) != len(m.features) {
		return nil, fmt.Errorf("model %s expects %d features, got %d", m.name, len(m.features), len(row))
	}

	out := make(map[string]float64, len(m.outputs))
	for _, o := range m.outputs {
		v := o.Intercept
		for i, w := range o.Weights {
			v += w * row[i]
		}
		if o.Min != nil {
			v = math.Max(v, *o.Min)
		}
		if o.Max != nil {
			v = math.Min(v, *o.Max)
		}
		out[o.Name] = v
	}

	return out, nil
}
