package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"redeemly/internal/model"

	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limits each client IP to requestsPerMinute requests. Rejected
// requests get 429 with the standard error body.
func RateLimit(requestsPerMinute int, logger zerolog.Logger) func(http.Handler) http.Handler {
	rate := limiter.Rate{
		Period: time.Minute,
		Limit:  int64(requestsPerMinute),
	}
	instance := limiter.New(memory.NewStore(), rate)

	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn().Str("path", r.URL.Path).Str("remote_addr", r.RemoteAddr).Msg("rate limit reached")
			writeError(w, http.StatusTooManyRequests, model.ErrCodeRateLimited, "too many requests, slow down")
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error().Err(err).Str("path", r.URL.Path).Msg("rate limiter failed")
			writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error")
		}),
	)

	return mw.Handler
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: code, Message: message})
}
