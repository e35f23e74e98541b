package inference

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-med-predict/internal/tensor"
)

var imageShape = tensor.Shape{1, 224, 224, 3}

type mockPredictor struct {
	mock.Mock
}

func (m *mockPredictor) PredictProba(ctx context.Context, input tensor.Tensor) ([]float64, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

func (m *mockPredictor) PredictScalar(ctx context.Context, input tensor.Tensor) (float64, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(float64), args.Error(1)
}

func TestThresholdAdapter_DecisionBoundary(t *testing.T) {
	labels := []string{"Benign", "Malignant"}
	const eps = 1e-9

	cases := []struct {
		name  string
		p     float64
		label string
	}{
		{"exactly at threshold is negative", DefaultThreshold, "Benign"},
		{"just above threshold is positive", DefaultThreshold + eps, "Malignant"},
		{"just below threshold is negative", DefaultThreshold - eps, "Benign"},
		{"zero", 0, "Benign"},
		{"one", 1, "Malignant"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			predictor := new(mockPredictor)
			input := tensor.Zeros(imageShape)
			predictor.On("PredictScalar", mock.Anything, input).Return(tc.p, nil)

			adapter, err := NewThresholdAdapter("mole", imageShape, labels, DefaultThreshold, predictor)
			require.NoError(t, err)

			res, err := adapter.Infer(context.Background(), input)
			require.NoError(t, err)
			assert.Equal(t, tc.label, res.Label)
			assert.InDelta(t, 1-tc.p, res.Probabilities["Benign"], 1e-12)
			assert.InDelta(t, tc.p, res.Probabilities["Malignant"], 1e-12)
			assert.InDelta(t, 1.0, res.Probabilities["Benign"]+res.Probabilities["Malignant"], 1e-12)
			assert.Equal(t, res.Probabilities[res.Label], res.Confidence)
			predictor.AssertExpectations(t)
		})
	}
}

func TestThresholdAdapter_Validation(t *testing.T) {
	predictor := new(mockPredictor)

	_, err := NewThresholdAdapter("mole", imageShape, []string{"only"}, 0.5, predictor)
	assert.Error(t, err)

	_, err = NewThresholdAdapter("mole", imageShape, []string{"a", "b"}, 1.5, predictor)
	assert.Error(t, err)

	_, err = NewThresholdAdapter("mole", imageShape, []string{"a", "b"}, 0.5, nil)
	assert.Error(t, err)
}

func TestThresholdAdapter_RejectsOutOfRangeProbability(t *testing.T) {
	predictor := new(mockPredictor)
	input := tensor.Zeros(imageShape)
	predictor.On("PredictScalar", mock.Anything, input).Return(1.2, nil)

	adapter, err := NewThresholdAdapter("mole", imageShape, []string{"Benign", "Malignant"}, DefaultThreshold, predictor)
	require.NoError(t, err)

	_, err = adapter.Infer(context.Background(), input)
	assert.ErrorIs(t, err, ErrBadOutput)
}

func TestMultiClassAdapter_Infer(t *testing.T) {
	labels := []string{"Normal", "Cataract", "Glaucoma", "Diabetic Retinopathy"}
	input := tensor.Zeros(imageShape)

	predictor := new(mockPredictor)
	predictor.On("PredictProba", mock.Anything, input).Return([]float64{0.1, 0.15, 0.6, 0.15}, nil)

	adapter, err := NewMultiClassAdapter("eye", imageShape, labels, predictor)
	require.NoError(t, err)

	res, err := adapter.Infer(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "Glaucoma", res.Label)
	assert.Equal(t, 0.6, res.Confidence)
	assert.Len(t, res.Probabilities, 4)

	sum := 0.0
	for _, p := range res.Probabilities {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

type deciderPredictor struct {
	mockPredictor
}

func (m *deciderPredictor) PredictClass(ctx context.Context, input tensor.Tensor) (int, error) {
	args := m.Called(ctx, input)
	return args.Int(0), args.Error(1)
}

func TestMultiClassAdapter_UsesPredictorClassDecision(t *testing.T) {
	labels := []string{"Normal", "Cataract", "Glaucoma", "Diabetic Retinopathy"}
	input := tensor.Zeros(imageShape)

	predictor := new(deciderPredictor)
	predictor.On("PredictProba", mock.Anything, input).Return([]float64{0.1, 0.4, 0.45, 0.05}, nil)
	predictor.On("PredictClass", mock.Anything, input).Return(1, nil)

	adapter, err := NewMultiClassAdapter("eye", imageShape, labels, predictor)
	require.NoError(t, err)

	res, err := adapter.Infer(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "Cataract", res.Label)
	assert.Equal(t, 0.45, res.Confidence, "confidence is the highest probability")
	predictor.AssertExpectations(t)
}

func TestMultiClassAdapter_ClassDecisionErrors(t *testing.T) {
	labels := []string{"Normal", "Cataract"}
	input := tensor.Zeros(imageShape)

	t.Run("index out of range", func(t *testing.T) {
		predictor := new(deciderPredictor)
		predictor.On("PredictProba", mock.Anything, input).Return([]float64{0.3, 0.7}, nil)
		predictor.On("PredictClass", mock.Anything, input).Return(2, nil)
		adapter, err := NewMultiClassAdapter("eye", imageShape, labels, predictor)
		require.NoError(t, err)

		_, err = adapter.Infer(context.Background(), input)
		assert.ErrorIs(t, err, ErrBadOutput)
	})

	t.Run("predictor failure is wrapped", func(t *testing.T) {
		boom := errors.New("class head unavailable")
		predictor := new(deciderPredictor)
		predictor.On("PredictProba", mock.Anything, input).Return([]float64{0.3, 0.7}, nil)
		predictor.On("PredictClass", mock.Anything, input).Return(0, boom)
		adapter, err := NewMultiClassAdapter("eye", imageShape, labels, predictor)
		require.NoError(t, err)

		_, err = adapter.Infer(context.Background(), input)
		assert.ErrorIs(t, err, boom)
	})
}

func TestMultiClassAdapter_OutputErrors(t *testing.T) {
	labels := []string{"Normal", "Cataract", "Glaucoma", "Diabetic Retinopathy"}
	input := tensor.Zeros(imageShape)

	t.Run("wrong number of probabilities", func(t *testing.T) {
		predictor := new(mockPredictor)
		predictor.On("PredictProba", mock.Anything, input).Return([]float64{0.5, 0.5}, nil)
		adapter, err := NewMultiClassAdapter("eye", imageShape, labels, predictor)
		require.NoError(t, err)

		_, err = adapter.Infer(context.Background(), input)
		assert.ErrorIs(t, err, ErrBadOutput)
	})

	t.Run("NaN probability", func(t *testing.T) {
		predictor := new(mockPredictor)
		predictor.On("PredictProba", mock.Anything, input).Return([]float64{math.NaN(), 0.2, 0.3, 0.5}, nil)
		adapter, err := NewMultiClassAdapter("eye", imageShape, labels, predictor)
		require.NoError(t, err)

		_, err = adapter.Infer(context.Background(), input)
		assert.ErrorIs(t, err, ErrBadOutput)
	})

	t.Run("predictor failure is wrapped", func(t *testing.T) {
		boom := errors.New("connection refused")
		predictor := new(mockPredictor)
		predictor.On("PredictProba", mock.Anything, input).Return(nil, boom)
		adapter, err := NewMultiClassAdapter("eye", imageShape, labels, predictor)
		require.NoError(t, err)

		_, err = adapter.Infer(context.Background(), input)
		assert.ErrorIs(t, err, boom)
	})
}

func TestAdapters_ShapeMismatchSkipsPredictor(t *testing.T) {
	predictor := new(mockPredictor)
	wrong := tensor.Zeros(tensor.Shape{1, 128, 128, 3})

	multi, err := NewMultiClassAdapter("eye", imageShape, []string{"a", "b"}, predictor)
	require.NoError(t, err)
	threshold, err := NewThresholdAdapter("mole", imageShape, []string{"a", "b"}, 0.37, predictor)
	require.NoError(t, err)

	for _, m := range []Model{multi, threshold} {
		_, err := m.Infer(context.Background(), wrong)

		var shapeErr *ShapeMismatchError
		require.True(t, errors.As(err, &shapeErr), "model %s", m.Name())
		assert.Equal(t, imageShape, shapeErr.Expected)
		assert.Equal(t, tensor.Shape{1, 128, 128, 3}, shapeErr.Got)
	}

	predictor.AssertNotCalled(t, "PredictProba", mock.Anything, mock.Anything)
	predictor.AssertNotCalled(t, "PredictScalar", mock.Anything, mock.Anything)
}

func TestRegistry(t *testing.T) {
	predictor := new(mockPredictor)
	eye, err := NewMultiClassAdapter("eye", imageShape, []string{"a", "b"}, predictor)
	require.NoError(t, err)
	cycle, err := NewLinearModel(LinearArtifact{
		Name:     "cycle",
		Features: []string{"x"},
		Outputs:  []LinearOutput{{Name: "y", Weights: []float64{1}}},
	})
	require.NoError(t, err)

	reg := NewRegistry([]Model{eye, nil}, []TabularModel{cycle})

	_, ok := reg.Model("eye")
	assert.True(t, ok)
	_, ok = reg.Model("mole")
	assert.False(t, ok)
	_, ok = reg.Tabular("cycle")
	assert.True(t, ok)
	assert.Equal(t, []string{"cycle", "eye"}, reg.Loaded())

	var empty *Registry
	_, ok = empty.Model("eye")
	assert.False(t, ok)
	assert.Equal(t, []string{}, empty.Loaded())
}
