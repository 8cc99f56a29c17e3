package handler

import (
	"net/http"
	"time"

	"redeemly/internal/model"
	"redeemly/internal/service"

	"github.com/rs/zerolog"
)

// RedemptionHandler handles coupon redemption requests.
type RedemptionHandler struct {
	service service.RedemptionService
	now     func() time.Time
	logger  zerolog.Logger
}

// NewRedemptionHandler creates a new redemption handler. now supplies the
// redemption time and defaults to the wall clock.
func NewRedemptionHandler(service service.RedemptionService, now func() time.Time, logger zerolog.Logger) *RedemptionHandler {
	if now == nil {
		now = time.Now
	}
	return &RedemptionHandler{
		service: service,
		now:     now,
		logger:  logger.With().Str("handler", "redemption").Logger(),
	}
}

// Redeem handles POST /api/redemptions.
func (h *RedemptionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	var req model.RedeemRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	req.RedeemerID = who.Subject

	rd, err := h.service.Redeem(r.Context(), req, h.now().UTC())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, rd)
}

// Scan handles POST /api/redemptions/scan.
func (h *RedemptionHandler) Scan(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r, h.logger)
	if !ok {
		return
	}

	var req model.ScanRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	rd, err := h.service.Scan(r.Context(), who.Subject, req, h.now().UTC())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, rd)
}
