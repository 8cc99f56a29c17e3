package handler

import (
	"net/http"

	"redeemly/internal/model"
	"redeemly/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// StoreHandler handles store registration requests.
type StoreHandler struct {
	service service.StoreService
	logger  zerolog.Logger
}

// NewStoreHandler creates a new store handler.
func NewStoreHandler(service service.StoreService, logger zerolog.Logger) *StoreHandler {
	return &StoreHandler{
		service: service,
		logger:  logger.With().Str("handler", "store").Logger(),
	}
}

// Create handles POST /api/stores.
func (h *StoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateStoreRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	st, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, st)
}

// GetByID handles GET /api/stores/{id}.
func (h *StoreHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// List handles GET /api/stores.
func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.List(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, stores)
}
