package handler

import (
	"net/http"

	"agrolinq/internal/middleware"
	"agrolinq/internal/model"
	"agrolinq/internal/service"

	"github.com/rs/zerolog"
)

// AuthHandler handles registration, login and session requests.
type AuthHandler struct {
	service service.AccountService
	logger  zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service service.AccountService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("handler", "auth").Logger(),
	}
}

// Register handles POST /api/auth/register requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.service.Register(r.Context(), &req)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// Login handles POST /api/auth/login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout requests.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.PrincipalFrom(r.Context())); err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me requests.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Me(r.Context(), middleware.PrincipalFrom(r.Context()))
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, account)
}
