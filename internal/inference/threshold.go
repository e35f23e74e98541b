package inference

import (
	"context"
	"fmt"
	"math"

	"go-med-predict/internal/tensor"
)

// DefaultThreshold is the operating point chosen from the precision/recall
// curve of the skin-lesion model.
const DefaultThreshold = 0.37

type ThresholdAdapter struct {
	name      string
	shape     tensor.Shape
	negative  string
	positive  string
	threshold float64
	predictor ScalarPredictor
}

// NewThresholdAdapter labels an input positive when the predicted
// probability is strictly greater than threshold. labels is {negative, positive}.
func NewThresholdAdapter(name string, shape tensor.Shape, labels []string, threshold float64, predictor ScalarPredictor) (*ThresholdAdapter, error) {
	if len(labels) != 2 {
		return nil, fmt.Errorf("threshold model %s needs exactly two labels, got %d", name, len(labels))
	}
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("threshold model %s: threshold %v outside [0,1]", name, threshold)
	}
	if predictor == nil {
		return nil, fmt.Errorf("threshold model %s has no predictor", name)
	}

	return &ThresholdAdapter{
		name:      name,
		shape:     append(tensor.Shape(nil), shape...),
		negative:  labels[0],
		positive:  labels[1],
		threshold: threshold,
		predictor: predictor,
	}, nil
}

func (a *ThresholdAdapter) Name() string             { return a.name }
func (a *ThresholdAdapter) InputShape() tensor.Shape { return a.shape }
func (a *ThresholdAdapter) Threshold() float64       { return a.threshold }

func (a *ThresholdAdapter) Infer(ctx context.Context, input tensor.Tensor) (Result, error) {
	if err := checkShape(a.name, a.shape, input); err != nil {
		return Result{}, err
	}

	p, err := a.predictor.PredictScalar(ctx, input)
	if err != nil {
		return Result{}, fmt.Errorf("predict %s: %w", a.name, err)
	}

	return a.decide(p)
}

func (a *ThresholdAdapter) decide(p float64) (Result, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Result{}, fmt.Errorf("%w: %s probability %v out of range", ErrBadOutput, a.name, p)
	}

	result := Result{
		Label:      a.negative,
		Confidence: 1 - p,
		Probabilities: map[string]float64{
			a.negative: 1 - p,
			a.positive: p,
		},
	}
	if p > a.threshold {
		result.Label = a.positive
		result.Confidence = p
	}

	return result, nil
}
