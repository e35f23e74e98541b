package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go-med-predict/internal/model"
	"go-med-predict/internal/service"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List godoc
// @Summary Recent audit events
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param type query string false "Event type, e.g. auth.token_rejected"
// @Param actor_id query string false "User id"
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(50)
// @Success 200 {object} model.APIResponse
// @Failure 400 {object} model.APIResponse
// @Failure 403 {object} model.APIResponse
// @Router /audit [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	items, meta, err := h.service.Query(model.AuditQuery{
		Type:    strings.TrimSpace(query.Get("type")),
		ActorID: strings.TrimSpace(query.Get("actor_id")),
		From:    strings.TrimSpace(query.Get("from")),
		To:      strings.TrimSpace(query.Get("to")),
		Page:    parseIntOrDefault(query.Get("page"), 1),
		Limit:   parseIntOrDefault(query.Get("limit"), 50),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if base := metaFor(r); base != nil {
		meta.RequestID = base.RequestID
	}
	writeSuccess(w, http.StatusOK, map[string]any{"items": items}, &meta)
}

func parseIntOrDefault(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}
