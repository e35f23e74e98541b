package handler

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-med-predict/internal/event"
	"go-med-predict/internal/imaging"
	"go-med-predict/internal/inference"
	"go-med-predict/internal/middleware"
	"go-med-predict/internal/model"
	"go-med-predict/internal/service"
	"go-med-predict/internal/tensor"
	"go-med-predict/pkg/apierror"
)

type constScalar float64

func (c constScalar) PredictScalar(context.Context, tensor.Tensor) (float64, error) {
	return float64(c), nil
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newPredictHandler(t *testing.T, withModels bool) *PredictHandler {
	t.Helper()

	var images []inference.Model
	var tabular []inference.TabularModel
	if withModels {
		mole, err := inference.NewThresholdAdapter("mole",
			tensor.Shape{1, imaging.DefaultHeight, imaging.DefaultWidth, 3},
			[]string{"Benign", "Malignant"}, inference.DefaultThreshold, constScalar(0.9))
		require.NoError(t, err)
		cycle, err := inference.NewLinearModel(inference.LinearArtifact{
			Name:     service.CycleModelName,
			Features: []string{"cycle_length", "age"},
			Outputs:  []inference.LinearOutput{{Name: "next_cycle_length", Weights: []float64{1, 0}, Intercept: 1}},
		})
		require.NoError(t, err)
		images = []inference.Model{mole}
		tabular = []inference.TabularModel{cycle}
	}

	svc := service.NewPredictionService(inference.NewRegistry(images, tabular), imaging.New(1<<20), event.NewBus())
	return NewPredictHandler(svc, 1<<20)
}

func withUser(r *http.Request) *http.Request {
	return r.WithContext(middleware.WithClaims(r.Context(), &model.AuthClaims{UserID: "u-1", Username: "alice", Role: model.RoleUser}))
}

func multipartRequest(t *testing.T, path string, build func(mw *multipart.Writer)) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	build(mw)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return withUser(req)
}

func TestPredictHandler_RequiresClaims(t *testing.T) {
	h := newPredictHandler(t, true)

	rec := httptest.NewRecorder()
	h.Mole(rec, httptest.NewRequest(http.MethodPost, "/mole/predict", jsonBody(`{}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing", decodeResponse(t, rec).Error.Details)
}

func TestPredictHandler_ModelUnavailable(t *testing.T) {
	h := newPredictHandler(t, false)

	rec := httptest.NewRecorder()
	h.Eye(rec, withUser(httptest.NewRequest(http.MethodPost, "/eye/predict", jsonBody(`{"image_data":"abc"}`))))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "eye", decodeResponse(t, rec).Error.Details)

	rec = httptest.NewRecorder()
	h.Period(rec, withUser(httptest.NewRequest(http.MethodPost, "/period/predict", jsonBody(`{}`))))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPredictHandler_JSONBodies(t *testing.T) {
	h := newPredictHandler(t, true)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty body", ``, http.StatusBadRequest, apierror.CodeNoImage},
		{"empty object", `{}`, http.StatusBadRequest, apierror.CodeNoImage},
		{"blank image", `{"image_data":"   "}`, http.StatusBadRequest, apierror.CodeNoImage},
		{"broken json", `{"image_data":`, http.StatusBadRequest, apierror.CodeBadRequest},
		{"not an image", `{"image_data":"aGVsbG8="}`, http.StatusBadRequest, apierror.CodeInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := withUser(httptest.NewRequest(http.MethodPost, "/mole/predict", jsonBody(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			h.Mole(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeResponse(t, rec).Error.Code)
		})
	}
}

func TestPredictHandler_MultipartFile(t *testing.T) {
	h := newPredictHandler(t, true)

	req := multipartRequest(t, "/mole/predict", func(mw *multipart.Writer) {
		part, err := mw.CreateFormFile("image", "lesion.png")
		require.NoError(t, err)
		_, err = part.Write(pngBytes(t))
		require.NoError(t, err)
	})

	rec := httptest.NewRecorder()
	h.Mole(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Malignant", data["prediction"])
	assert.Equal(t, "u-1", data["user_id"])
}

func TestPredictHandler_MultipartRejections(t *testing.T) {
	h := newPredictHandler(t, true)

	t.Run("part without filename", func(t *testing.T) {
		req := multipartRequest(t, "/mole/predict", func(mw *multipart.Writer) {
			require.NoError(t, mw.WriteField("image", ""))
		})
		rec := httptest.NewRecorder()
		h.Mole(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, apierror.CodeNoImage, resp.Error.Code)
		assert.Equal(t, "no image selected", resp.Error.Message)
	})

	t.Run("no parts", func(t *testing.T) {
		req := multipartRequest(t, "/mole/predict", func(mw *multipart.Writer) {
			require.NoError(t, mw.WriteField("note", "hello"))
		})
		rec := httptest.NewRecorder()
		h.Mole(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apierror.CodeNoImage, decodeResponse(t, rec).Error.Code)
	})

	t.Run("file and base64 together", func(t *testing.T) {
		req := multipartRequest(t, "/mole/predict", func(mw *multipart.Writer) {
			require.NoError(t, mw.WriteField("image_data", "aGVsbG8="))
			part, err := mw.CreateFormFile("image", "lesion.png")
			require.NoError(t, err)
			_, err = part.Write(pngBytes(t))
			require.NoError(t, err)
		})
		rec := httptest.NewRecorder()
		h.Mole(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apierror.CodeBadRequest, decodeResponse(t, rec).Error.Code)
	})
}

func TestPredictHandler_Period(t *testing.T) {
	h := newPredictHandler(t, true)

	rec := httptest.NewRecorder()
	h.Period(rec, withUser(httptest.NewRequest(http.MethodPost, "/period/predict", jsonBody(`{"cycle_length":"28","age":30}`))))
	require.Equal(t, http.StatusOK, rec.Code)

	data, ok := decodeResponse(t, rec).Data.(map[string]any)
	require.True(t, ok)
	result, ok := data["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 29.0, result["next_cycle_length"])

	rec = httptest.NewRecorder()
	h.Period(rec, withUser(httptest.NewRequest(http.MethodPost, "/period/predict", jsonBody(`{"cycle_length":"soon","age":30}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cycle_length must be a number", decodeResponse(t, rec).Error.Message)
}
