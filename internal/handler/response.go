package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-med-predict/internal/auth"
	"go-med-predict/internal/imaging"
	"go-med-predict/internal/inference"
	"go-med-predict/internal/middleware"
	"go-med-predict/internal/model"
	"go-med-predict/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func metaFor(r *http.Request) *model.Meta {
	id := middleware.RequestIDFromContext(r.Context())
	if id == "" {
		return nil
	}
	return &model.Meta{RequestID: id}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    apierror.CodeInternal,
		Message: "Unexpected server error",
	}

	var (
		apiErr      *apierror.APIError
		tokenErr    *auth.TokenError
		decodeErr   *imaging.DecodeError
		shapeErr    *inference.ShapeMismatchError
		maxBytesErr *http.MaxBytesError
	)

	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.As(err, &tokenErr):
		status = http.StatusUnauthorized
		body.Code = apierror.CodeUnauthorized
		body.Message = "invalid or missing token"
		body.Details = string(tokenErr.Reason)
	case errors.As(err, &decodeErr):
		status = http.StatusBadRequest
		body.Code = apierror.CodeInvalidImage
		body.Message = "could not decode image"
		body.Details = decodeErr.Error()
	case errors.As(err, &shapeErr):
		status = http.StatusBadRequest
		body.Code = apierror.CodeShapeMismatch
		body.Message = "input shape does not match the model"
		body.Details = shapeErr.Error()
	case errors.As(err, &maxBytesErr):
		status = http.StatusRequestEntityTooLarge
		body.Code = apierror.CodePayloadTooLarge
		body.Message = "request body too large"
	case errors.Is(err, model.ErrNoImageProvided):
		status = http.StatusBadRequest
		body.Code = apierror.CodeNoImage
		body.Message = "no image provided"
	case errors.Is(err, model.ErrModelUnavailable):
		status = http.StatusServiceUnavailable
		body.Code = apierror.CodeModelUnavailable
		body.Message = "model is not available"
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		body.Code = apierror.CodeNotFound
		body.Message = "user not found"
	case errors.Is(err, model.ErrUserAlreadyExists):
		status = http.StatusBadRequest
		body.Code = apierror.CodeAlreadyExists
		body.Message = "username already exists"
	case errors.Is(err, model.ErrInvalidCredentials), errors.Is(err, model.ErrUnauthorized):
		status = http.StatusUnauthorized
		body.Code = apierror.CodeUnauthorized
		body.Message = "invalid credentials"
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
		body.Code = apierror.CodeBadRequest
		body.Message = "invalid input"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// decodeJSON reads a single JSON object from the body. An oversized body
// surfaces as *http.MaxBytesError so writeError answers 413.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return apierror.BadRequest("invalid JSON body", "")
	}
	return nil
}

var (
	apiNotFound         = apierror.NotFound("resource not found", "")
	apiMethodNotAllowed = apierror.New("METHOD_NOT_ALLOWED", "method not allowed", "", http.StatusMethodNotAllowed)
)
