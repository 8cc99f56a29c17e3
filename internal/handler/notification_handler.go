package handler

import (
	"net/http"
	"strconv"

	"redeemly/internal/model"
	"redeemly/internal/service"

	"github.com/rs/zerolog"
)

const defaultRecentLimit = 20

// NotificationHandler handles admin notification requests.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("handler", "notification").Logger(),
	}
}

// Broadcast handles POST /api/notifications.
func (h *NotificationHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req model.BroadcastRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	n, err := h.service.Broadcast(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, n)
}

// Recent handles GET /api/notifications?limit=N.
func (h *NotificationHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "invalid limit parameter", h.logger)
			return
		}
	}

	notifications, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}
