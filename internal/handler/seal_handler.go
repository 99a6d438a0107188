package handler

import (
	"net/http"

	"agrolinq/internal/middleware"
	"agrolinq/internal/model"
	"agrolinq/internal/service"

	"github.com/rs/zerolog"
)

// SealHandler handles green seal requests.
type SealHandler struct {
	service service.SealService
	logger  zerolog.Logger
}

// NewSealHandler creates a new green seal handler.
func NewSealHandler(service service.SealService, logger zerolog.Logger) *SealHandler {
	return &SealHandler{
		service: service,
		logger:  logger.With().Str("handler", "seal").Logger(),
	}
}

// Request handles POST /api/green-seal/requests.
func (h *SealHandler) Request(w http.ResponseWriter, r *http.Request) {
	var input model.SealRequestInput
	if !decodeJSON(w, r, &input) {
		return
	}

	req, err := h.service.Request(r.Context(), middleware.PrincipalFrom(r.Context()), &input)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// List handles GET /api/green-seal/requests.
func (h *SealHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	filter := model.SealFilter{Limit: limit, Offset: offset}
	if v := r.URL.Query().Get("status"); v != "" {
		status, ok := model.ParseSealStatus(v)
		if !ok {
			handleError(w, r, model.NewValidationError("unknown green seal status %q", v), h.logger)
			return
		}
		filter.Status = &status
	}
	if filter.ProducerID, err = queryUUID(r, "producerId"); err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	requests, err := h.service.List(r.Context(), middleware.PrincipalFrom(r.Context()), filter)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// Approve handles POST /api/green-seal/requests/{id}/approve.
func (h *SealHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "green seal request")
	if !ok {
		return
	}

	req, err := h.service.Approve(r.Context(), middleware.PrincipalFrom(r.Context()), id)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

// Reject handles POST /api/green-seal/requests/{id}/reject.
func (h *SealHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "green seal request")
	if !ok {
		return
	}

	var input model.SealRejectInput
	if !decodeJSON(w, r, &input) {
		return
	}

	req, err := h.service.Reject(r.Context(), middleware.PrincipalFrom(r.Context()), id, &input)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, req)
}
