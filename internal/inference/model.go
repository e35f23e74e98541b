// Package inference adapts opaque predictors to the prediction contract used
// by the HTTP routes: shape checks, label mapping and confidence reporting.
package inference

import (
	"context"
	"errors"
	"fmt"

	"go-med-predict/internal/tensor"
)

const (
	KindMultiClass = "multiclass"
	KindThreshold  = "threshold"
)

// ErrBadOutput means a predictor returned something the adapter cannot map to
// its labels. It is a server-side failure, not a client one.
var ErrBadOutput = errors.New("unexpected model output")

// Result is the label decision plus the probability of every label.
type Result struct {
	Label         string
	Confidence    float64
	Probabilities map[string]float64
}

// Model is an image model ready to be served.
type Model interface {
	Name() string
	InputShape() tensor.Shape
	Infer(ctx context.Context, input tensor.Tensor) (Result, error)
}

// ClassPredictor yields a probability distribution over classes.
type ClassPredictor interface {
	PredictProba(ctx context.Context, input tensor.Tensor) ([]float64, error)
}

// LabelPredictor is implemented by predictors that decide the class
// themselves. When present its index is the label; otherwise the adapter
// takes the most probable class.
type LabelPredictor interface {
	PredictClass(ctx context.Context, input tensor.Tensor) (int, error)
}

// ScalarPredictor yields the probability of the positive class.
type ScalarPredictor interface {
	PredictScalar(ctx context.Context, input tensor.Tensor) (float64, error)
}

// TabularModel predicts named outputs from a single row of features given
// in Features() order.
type TabularModel interface {
	Name() string
	Features() []string
	Predict(ctx context.Context, row []float64) (map[string]float64, error)
}

type ShapeMismatchError struct {
	Model    string
	Expected tensor.Shape
	Got      tensor.Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("model %s expects input %s, got %s", e.Model, e.Expected, e.Got)
}

func checkShape(name string, expected tensor.Shape, input tensor.Tensor) error {
	if !expected.Equal(input.Shape) || len(input.Data) != expected.Size() {
		return &ShapeMismatchError{Model: name, Expected: expected, Got: input.Shape}
	}
	return nil
}
