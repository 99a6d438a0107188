package handler

import (
	"net/http"

	"agrolinq/internal/middleware"
	"agrolinq/internal/model"
	"agrolinq/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products requests.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	producerID, err := queryUUID(r, "producerId")
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	products, err := h.service.List(r.Context(), model.ProductFilter{
		Category:   r.URL.Query().Get("category"),
		ProducerID: producerID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetByID handles GET /api/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.ProductInput
	if !decodeJSON(w, r, &input) {
		return
	}

	product, err := h.service.Create(r.Context(), middleware.PrincipalFrom(r.Context()), &input)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	var input model.ProductInput
	if !decodeJSON(w, r, &input) {
		return
	}

	product, err := h.service.Update(r.Context(), middleware.PrincipalFrom(r.Context()), id, &input)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Import handles POST /api/products/import requests.
func (h *ProductHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req model.ImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Import(r.Context(), middleware.PrincipalFrom(r.Context()), &req)
	if err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
