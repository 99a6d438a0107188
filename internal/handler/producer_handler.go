package handler

import (
	"net/http"

	"agrolinq/internal/service"

	"github.com/rs/zerolog"
)

// ProducerHandler serves public producer lookups.
type ProducerHandler struct {
	service service.ProducerService
	logger  zerolog.Logger
}

// NewProducerHandler creates a new producer handler.
func NewProducerHandler(service service.ProducerService, logger zerolog.Logger) *ProducerHandler {
	return &ProducerHandler{
		service: service,
		logger:  logger.With().Str("handler", "producer").Logger(),
	}
}

// Nearby handles GET /api/producers/nearby?lat=&lng=&radiusKm= requests.
func (h *ProducerHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}
	lng, err := queryFloat(r, "lng")
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}
	radius, err := queryFloat(r, "radiusKm")
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	producers, err := h.service.Nearby(r.Context(), lat, lng, radius)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, producers)
}

// GetByID handles GET /api/producers/{id} requests.
func (h *ProducerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "producer")
	if !ok {
		return
	}

	producer, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, producer)
}
