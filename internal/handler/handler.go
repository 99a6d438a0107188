package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"agrolinq/internal/middleware"
	"agrolinq/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes the standard error body for a domain error.
func writeError(w http.ResponseWriter, r *http.Request, status int, de *model.DomainError) {
	writeJSON(w, status, model.ErrorResponse{
		Error:         de.Code,
		Message:       de.Message,
		CorrelationID: middleware.RequestIDFrom(r.Context()),
	})
}

// handleError maps a service error to its HTTP status. Errors that are not
// domain errors are logged and answered with a generic 500.
func handleError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	de, ok := model.AsDomainError(err)
	if !ok || de.Kind() == model.KindInternal {
		logger.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("handler error")
		writeError(w, r, http.StatusInternalServerError,
			model.NewDomainError(model.ErrCodeInternalError, "An unexpected error occurred"))
		return
	}

	status := statusFor(de.Kind())
	logger.Debug().
		Str("code", de.Code).
		Int("status", status).
		Str("path", r.URL.Path).
		Msg("request rejected")
	writeError(w, r, status, de)
}

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindUnauthenticated:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst. On failure it writes a 400 and
// returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		msg := "invalid request body"
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			msg = "request body is required"
		case errors.As(err, &maxErr):
			msg = "request body is too large"
		}
		writeError(w, r, http.StatusBadRequest, model.NewDomainError(model.ErrCodeInvalidJSON, msg))
		return false
	}
	return true
}

// pathID parses the {id} path value.
func pathID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.NewValidationError("invalid %s ID format", what))
		return uuid.Nil, false
	}
	return id, true
}

// queryInt returns 0 for a missing parameter.
func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, model.NewValidationError("%s must be an integer", key)
	}
	return n, nil
}

func pageParams(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// queryUUID returns nil for a missing parameter.
func queryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, model.NewValidationError("%s must be a UUID", key)
	}
	return &id, nil
}

func queryFloat(r *http.Request, key string) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, model.NewValidationError("%s is required", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, model.NewValidationError("%s must be a number", key)
	}
	return f, nil
}
