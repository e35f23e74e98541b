package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"go-med-predict/internal/middleware"
	"go-med-predict/internal/model"
	"go-med-predict/internal/service"
	"go-med-predict/pkg/apierror"
)

const (
	imageFormField = "image"
	imageJSONField = "image_data"
	// Multipart parts beyond this stay on disk instead of in memory.
	multipartMemory = 8 << 20
)

type PredictHandler struct {
	service       *service.PredictionService
	maxUploadSize int64
}

func NewPredictHandler(service *service.PredictionService, maxUploadSize int64) *PredictHandler {
	return &PredictHandler{service: service, maxUploadSize: maxUploadSize}
}

// Mole godoc
// @Summary Classify a skin lesion
// @Description Send exactly one of a multipart "image" file or JSON {"image_data": base64}.
// @Tags predict
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file false "Image file"
// @Param request body model.ImagePredictRequest false "Base64 image"
// @Success 200 {object} model.APIResponse{data=model.PredictionResult}
// @Failure 400 {object} model.APIResponse "No image, bad image or shape mismatch"
// @Failure 401 {object} model.APIResponse
// @Failure 413 {object} model.APIResponse
// @Failure 503 {object} model.APIResponse "Model unavailable"
// @Router /mole/predict [post]
func (h *PredictHandler) Mole(w http.ResponseWriter, r *http.Request) {
	h.predictImage(w, r, "mole")
}

// Eye godoc
// @Summary Classify an eye disease
// @Description Send exactly one of a multipart "image" file or JSON {"image_data": base64}.
// @Tags predict
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file false "Image file"
// @Param request body model.ImagePredictRequest false "Base64 image"
// @Success 200 {object} model.APIResponse{data=model.PredictionResult}
// @Failure 400 {object} model.APIResponse "No image, bad image or shape mismatch"
// @Failure 401 {object} model.APIResponse
// @Failure 413 {object} model.APIResponse
// @Failure 503 {object} model.APIResponse "Model unavailable"
// @Router /eye/predict [post]
func (h *PredictHandler) Eye(w http.ResponseWriter, r *http.Request) {
	h.predictImage(w, r, "eye")
}

// Period godoc
// @Summary Predict the next cycle
// @Description Every feature of the loaded cycle model (cycle_length, period_length, age by default) must be present and numeric.
// @Tags predict
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object true "Feature values"
// @Success 200 {object} model.APIResponse{data=model.CycleResult}
// @Failure 400 {object} model.APIResponse "Missing or non-numeric field"
// @Failure 401 {object} model.APIResponse
// @Failure 503 {object} model.APIResponse "Model unavailable"
// @Router /period/predict [post]
func (h *PredictHandler) Period(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("invalid or missing token", "missing"))
		return
	}

	if !h.service.TabularAvailable(service.CycleModelName) {
		writeError(w, apierror.ModelUnavailable(service.CycleModelName))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var fields map[string]any
	if err := decodeJSON(r, &fields); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.PredictCycle(r.Context(), claims.UserID, fields)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, metaFor(r))
}

func (h *PredictHandler) predictImage(w http.ResponseWriter, r *http.Request, name string) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("invalid or missing token", "missing"))
		return
	}

	// Unavailable models answer before the body is read.
	if !h.service.Available(name) {
		writeError(w, apierror.ModelUnavailable(name))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	src, cleanup, err := h.readImageSource(r)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.PredictImage(r.Context(), name, claims.UserID, src)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, metaFor(r))
}

func (h *PredictHandler) readImageSource(r *http.Request) (service.ImageSource, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readMultipartImage(r)
	}

	var payload model.ImagePredictRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&payload); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			return service.ImageSource{}, nil, err
		case errors.Is(err, io.EOF):
			return service.ImageSource{}, nil, model.ErrNoImageProvided
		default:
			return service.ImageSource{}, nil, apierror.BadRequest("invalid JSON body", "")
		}
	}

	return service.ImageSource{Base64: payload.ImageData}, nil, nil
}

func readMultipartImage(r *http.Request) (service.ImageSource, func(), error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return service.ImageSource{}, nil, err
		}
		return service.ImageSource{}, nil, apierror.BadRequest("invalid multipart body", "")
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	src := service.ImageSource{Base64: r.FormValue(imageJSONField)}

	file, _, err := r.FormFile(imageFormField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// A part sent without a filename is parsed as a plain value.
		if _, sent := r.MultipartForm.Value[imageFormField]; sent {
			return service.ImageSource{}, cleanup, apierror.New(apierror.CodeNoImage, "no image selected", "", http.StatusBadRequest)
		}
		return src, cleanup, nil
	case err != nil:
		return service.ImageSource{}, cleanup, apierror.BadRequest("invalid image upload", "")
	}

	src.File = file
	return src, func() {
		_ = file.Close()
		cleanup()
	}, nil
}
