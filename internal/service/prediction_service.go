package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"go-med-predict/internal/event"
	"go-med-predict/internal/imaging"
	"go-med-predict/internal/inference"
	"go-med-predict/internal/model"
	"go-med-predict/internal/tensor"
	"go-med-predict/pkg/apierror"
)

const CycleModelName = "cycle"

// ImageSource carries exactly one of a base64 payload or an uploaded file.
type ImageSource struct {
	Base64 string
	File   io.Reader
}

type PredictionService struct {
	registry     *inference.Registry
	preprocessor *imaging.Preprocessor
	bus          event.Bus
	now          func() time.Time
}

func NewPredictionService(registry *inference.Registry, preprocessor *imaging.Preprocessor, bus event.Bus) *PredictionService {
	return &PredictionService{
		registry:     registry,
		preprocessor: preprocessor,
		bus:          bus,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Available reports whether an image model is registered under name.
func (s *PredictionService) Available(name string) bool {
	_, ok := s.registry.Model(name)
	return ok
}

func (s *PredictionService) TabularAvailable(name string) bool {
	_, ok := s.registry.Tabular(name)
	return ok
}

func (s *PredictionService) Loaded() []string {
	return s.registry.Loaded()
}

func (s *PredictionService) PredictImage(ctx context.Context, name string, userID string, src ImageSource) (model.PredictionResult, error) {
	m, ok := s.registry.Model(name)
	if !ok {
		return model.PredictionResult{}, apierror.ModelUnavailable(name)
	}

	input, err := s.preprocess(src)
	if err != nil {
		s.failed(name, userID, err)
		return model.PredictionResult{}, err
	}

	res, err := m.Infer(ctx, input)
	if err != nil {
		s.failed(name, userID, err)
		return model.PredictionResult{}, fmt.Errorf("%s inference: %w", name, err)
	}

	result := model.PredictionResult{
		Model:         name,
		Prediction:    res.Label,
		Confidence:    res.Confidence,
		Probabilities: res.Probabilities,
		UserID:        userID,
		Timestamp:     s.now(),
	}

	s.publish(event.TypePredictionServed, userID, map[string]any{
		"model":      name,
		"prediction": res.Label,
		"confidence": res.Confidence,
	})
	return result, nil
}

func (s *PredictionService) preprocess(src ImageSource) (tensor.Tensor, error) {
	hasText := strings.TrimSpace(src.Base64) != ""
	hasFile := src.File != nil

	switch {
	case hasText && hasFile:
		return tensor.Tensor{}, apierror.BadRequest("provide either an image file or image_data, not both", "")
	case hasFile:
		return s.preprocessor.FromReader(src.File)
	case hasText:
		return s.preprocessor.FromBase64(src.Base64)
	default:
		return tensor.Tensor{}, model.ErrNoImageProvided
	}
}

// PredictCycle assembles one feature row in the order the tabular model
// declares and echoes the parsed inputs back.
func (s *PredictionService) PredictCycle(ctx context.Context, userID string, fields map[string]any) (model.CycleResult, error) {
	m, ok := s.registry.Tabular(CycleModelName)
	if !ok {
		return model.CycleResult{}, apierror.ModelUnavailable(CycleModelName)
	}

	features := m.Features()
	row := make([]float64, len(features))
	echo := make(map[string]float64, len(features))
	for i, name := range features {
		raw, present := fields[name]
		if !present || raw == nil {
			return model.CycleResult{}, apierror.MissingField(name)
		}
		v, err := toFloat(raw)
		if err != nil {
			return model.CycleResult{}, apierror.BadRequest(fmt.Sprintf("%s must be a number", name), name)
		}
		row[i] = v
		echo[name] = v
	}

	out, err := m.Predict(ctx, row)
	if err != nil {
		s.failed(CycleModelName, userID, err)
		return model.CycleResult{}, fmt.Errorf("%s inference: %w", CycleModelName, err)
	}

	s.publish(event.TypePredictionServed, userID, map[string]any{"model": CycleModelName})

	return model.CycleResult{
		Model:     CycleModelName,
		Result:    out,
		UserID:    userID,
		Timestamp: s.now(),
		InputData: echo,
	}, nil
}

func (s *PredictionService) failed(name string, userID string, err error) {
	reason := "internal"
	var decodeErr *imaging.DecodeError
	var shapeErr *inference.ShapeMismatchError
	switch {
	case errors.As(err, &decodeErr):
		reason = "invalid_image"
	case errors.As(err, &shapeErr):
		reason = "shape_mismatch"
	case errors.Is(err, model.ErrNoImageProvided):
		reason = "no_image"
	}
	s.publish(event.TypePredictionFailed, userID, map[string]any{"model": name, "reason": reason})
}

func (s *PredictionService) publish(t event.Type, actorID string, payload map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(t, actorID, payload))
}

// toFloat accepts JSON numbers and numeric strings. Booleans and non-finite
// values are rejected.
func toFloat(raw any) (float64, error) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, err
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, err
		}
		v = f
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("value is not finite")
	}
	return v, nil
}
