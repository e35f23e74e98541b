package inference

import (
	"context"
	"fmt"
	"math"

	"go-med-predict/internal/tensor"
)

type MultiClassAdapter struct {
	name      string
	shape     tensor.Shape
	labels    []string
	predictor ClassPredictor
}

func NewMultiClassAdapter(name string, shape tensor.Shape, labels []string, predictor ClassPredictor) (*MultiClassAdapter, error) {
	if len(labels) < 2 {
		return nil, fmt.Errorf("multiclass model %s needs at least two labels", name)
	}
	if predictor == nil {
		return nil, fmt.Errorf("multiclass model %s has no predictor", name)
	}

	return &MultiClassAdapter{
		name:      name,
		shape:     append(tensor.Shape(nil), shape...),
		labels:    append([]string(nil), labels...),
		predictor: predictor,
	}, nil
}

func (a *MultiClassAdapter) Name() string             { return a.name }
func (a *MultiClassAdapter) InputShape() tensor.Shape { return a.shape }

// Infer labels the input with the predictor's own class decision when it
// offers one, else the most probable class. Confidence is always the highest
// probability in the distribution.
func (a *MultiClassAdapter) Infer(ctx context.Context, input tensor.Tensor) (Result, error) {
	if err := checkShape(a.name, a.shape, input); err != nil {
		return Result{}, err
	}

	dist, err := a.predictor.PredictProba(ctx, input)
	if err != nil {
		return Result{}, fmt.Errorf("predict %s: %w", a.name, err)
	}
	if len(dist) != len(a.labels) {
		return Result{}, fmt.Errorf("%w: %s returned %d probabilities for %d labels", ErrBadOutput, a.name, len(dist), len(a.labels))
	}

	best := 0
	probabilities := make(map[string]float64, len(dist))
	for i, p := range dist {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return Result{}, fmt.Errorf("%w: %s probability %v out of range", ErrBadOutput, a.name, p)
		}
		probabilities[a.labels[i]] = p
		if p > dist[best] {
			best = i
		}
	}

	label := best
	if decider, ok := a.predictor.(LabelPredictor); ok {
		label, err = decider.PredictClass(ctx, input)
		if err != nil {
			return Result{}, fmt.Errorf("predict %s class: %w", a.name, err)
		}
		if label < 0 || label >= len(a.labels) {
			return Result{}, fmt.Errorf("%w: %s returned class %d for %d labels", ErrBadOutput, a.name, label, len(a.labels))
		}
	}

	return Result{
		Label:         a.labels[label],
		Confidence:    dist[best],
		Probabilities: probabilities,
	}, nil
}
