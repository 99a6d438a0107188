package handler

import (
	"net/http"

	"agrolinq/internal/middleware"
	"agrolinq/internal/model"
	"agrolinq/internal/service"

	"github.com/rs/zerolog"
)

// ProposalHandler handles quote negotiation requests.
type ProposalHandler struct {
	service service.ProposalService
	logger  zerolog.Logger
}

// NewProposalHandler creates a new proposal handler.
func NewProposalHandler(service service.ProposalService, logger zerolog.Logger) *ProposalHandler {
	return &ProposalHandler{
		service: service,
		logger:  logger.With().Str("handler", "proposal").Logger(),
	}
}

// Create handles POST /api/proposals.
func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.ProposalInput
	if !decodeJSON(w, r, &input) {
		return
	}

	proposal, err := h.service.Create(r.Context(), middleware.PrincipalFrom(r.Context()), &input)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, proposal)
}

// List handles GET /api/proposals.
func (h *ProposalHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	filter := model.ProposalFilter{Limit: limit, Offset: offset}
	if filter.RequesterID, err = queryUUID(r, "requesterId"); err != nil {
		handleError(w, r, err, h.logger)
		return
	}
	for _, v := range r.URL.Query()["status"] {
		status, ok := model.ParseProposalStatus(v)
		if !ok {
			handleError(w, r, model.NewValidationError("unknown proposal status %q", v), h.logger)
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	proposals, err := h.service.List(r.Context(), middleware.PrincipalFrom(r.Context()), filter)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, proposals)
}

// GetByID handles GET /api/proposals/{id}.
func (h *ProposalHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "proposal")
	if !ok {
		return
	}

	detail, err := h.service.Get(r.Context(), middleware.PrincipalFrom(r.Context()), id)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Respond handles POST /api/proposals/{id}/responses.
func (h *ProposalHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "proposal")
	if !ok {
		return
	}

	var input model.ProposalResponseInput
	if !decodeJSON(w, r, &input) {
		return
	}

	response, err := h.service.Respond(r.Context(), middleware.PrincipalFrom(r.Context()), id, &input)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

// Accept handles POST /api/proposals/{id}/accept.
func (h *ProposalHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "proposal")
	if !ok {
		return
	}

	var input model.AcceptProposalInput
	if !decodeJSON(w, r, &input) {
		return
	}

	detail, err := h.service.Accept(r.Context(), middleware.PrincipalFrom(r.Context()), id, &input)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Decline handles POST /api/proposals/{id}/decline.
func (h *ProposalHandler) Decline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "proposal")
	if !ok {
		return
	}

	proposal, err := h.service.Decline(r.Context(), middleware.PrincipalFrom(r.Context()), id)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, proposal)
}

// Expire handles POST /api/admin/proposals/expire.
func (h *ProposalHandler) Expire(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Expire(r.Context(), middleware.PrincipalFrom(r.Context()))
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
