package apierror

import (
	"fmt"
	"net/http"
)

const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeMissingField     = "MISSING_FIELD"
	CodeNoImage          = "NO_IMAGE_PROVIDED"
	CodeInvalidImage     = "INVALID_IMAGE"
	CodeShapeMismatch    = "SHAPE_MISMATCH"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

func BadRequest(message string, details string) *APIError {
	return New(CodeBadRequest, message, details, http.StatusBadRequest)
}

// MissingField reports a required request field that was absent; the field
// name travels in Details so clients can highlight it.
func MissingField(name string) *APIError {
	return New(CodeMissingField, fmt.Sprintf("%s is required", name), name, http.StatusBadRequest)
}

func Unauthorized(message string, details string) *APIError {
	return New(CodeUnauthorized, message, details, http.StatusUnauthorized)
}

func NotFound(message string, details string) *APIError {
	return New(CodeNotFound, message, details, http.StatusNotFound)
}

func ModelUnavailable(name string) *APIError {
	return New(CodeModelUnavailable, "model is not available", name, http.StatusServiceUnavailable)
}
