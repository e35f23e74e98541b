package handler

import (
	"net/http"

	"go-med-predict/internal/middleware"
	"go-med-predict/internal/model"
	"go-med-predict/internal/service"
	"go-med-predict/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Signup godoc
// @Summary Register a user
// @Description Creates an account. dob uses DD-MM-YYYY; user_type defaults to "user".
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.SignupRequest true "Signup request"
// @Success 201 {object} model.APIResponse{data=model.UserView}
// @Failure 400 {object} model.APIResponse "Missing field, bad date, bad role or duplicate username"
// @Router /signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.SignupRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Signup(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"user": user.View()}, metaFor(r))
}

// Login godoc
// @Summary Log in
// @Description Exchanges credentials for a 24h bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Login request"
// @Success 200 {object} model.APIResponse{data=model.LoginResult}
// @Failure 400 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse "Invalid credentials"
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, metaFor(r))
}

// ResetPassword godoc
// @Summary Change a password
// @Description Tokens issued before the change stay valid until they expire.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.ResetPasswordRequest true "Reset request"
// @Success 200 {object} model.APIResponse
// @Failure 400 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse "Wrong old password"
// @Failure 404 {object} model.APIResponse "Unknown user"
// @Router /reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ResetPasswordRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"message": "password updated"}, metaFor(r))
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIResponse{data=model.UserView}
// @Failure 401 {object} model.APIResponse
// @Router /me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("invalid or missing token", "missing"))
		return
	}

	user, err := h.service.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user.View(), metaFor(r))
}
