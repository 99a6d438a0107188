package handler

import (
	"net/http"

	"agrolinq/internal/middleware"
	"agrolinq/internal/model"
	"agrolinq/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), middleware.PrincipalFrom(r.Context()), &req)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// List handles GET /api/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := orderFilter(r)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	orders, err := h.service.List(r.Context(), middleware.PrincipalFrom(r.Context()), filter)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order")
	if !ok {
		return
	}

	order, err := h.service.GetByID(r.Context(), middleware.PrincipalFrom(r.Context()), id)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// AdvanceStatus handles PATCH /api/orders/{id}/status requests.
func (h *OrderHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order")
	if !ok {
		return
	}

	var req model.StatusUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.AdvanceStatus(r.Context(), middleware.PrincipalFrom(r.Context()), id, &req)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Cancel handles POST /api/orders/{id}/cancel requests.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order")
	if !ok {
		return
	}

	var req model.CancelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.Cancel(r.Context(), middleware.PrincipalFrom(r.Context()), id, &req)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Review handles POST /api/orders/{id}/review requests.
func (h *OrderHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order")
	if !ok {
		return
	}

	var req model.ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.Review(r.Context(), middleware.PrincipalFrom(r.Context()), id, &req)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func orderFilter(r *http.Request) (model.OrderFilter, error) {
	var filter model.OrderFilter
	var err error

	if filter.Limit, filter.Offset, err = pageParams(r); err != nil {
		return filter, err
	}
	if filter.ConsumerID, err = queryUUID(r, "consumerId"); err != nil {
		return filter, err
	}
	if filter.ProducerID, err = queryUUID(r, "producerId"); err != nil {
		return filter, err
	}

	if v := r.URL.Query().Get("status"); v != "" {
		status, ok := model.ParseOrderStatus(v)
		if !ok {
			return filter, model.NewValidationError("unknown order status %q", v)
		}
		filter.Status = &status
	}

	return filter, nil
}
