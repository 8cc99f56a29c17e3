package handler

import (
	"net/http"
	"time"

	"redeemly/internal/model"
	"redeemly/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CouponHandler handles coupon management requests.
type CouponHandler struct {
	service service.CouponService
	now     func() time.Time
	logger  zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(service service.CouponService, now func() time.Time, logger zerolog.Logger) *CouponHandler {
	if now == nil {
		now = time.Now
	}
	return &CouponHandler{
		service: service,
		now:     now,
		logger:  logger.With().Str("handler", "coupon").Logger(),
	}
}

// Create handles POST /api/coupons.
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CreateCouponRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	c, err := h.service.Create(r.Context(), who, req, h.now().UTC())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// GetByID handles GET /api/coupons/{id}.
func (h *CouponHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// ListByStore handles GET /api/stores/{id}/coupons.
func (h *CouponHandler) ListByStore(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.ListByStore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, coupons)
}

// Deactivate handles DELETE /api/coupons/{id}.
func (h *CouponHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Deactivate(r.Context(), who, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Redemptions handles GET /api/coupons/{id}/redemptions.
func (h *CouponHandler) Redemptions(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	ledger, err := h.service.Redemptions(r.Context(), who, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ledger)
}

// Summary handles GET /api/stores/{id}/summary.
func (h *CouponHandler) Summary(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), who, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
