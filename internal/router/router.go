package router

import (
	"net/http"

	"redeemly/internal/handler"
	"redeemly/internal/middleware"
	"redeemly/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Redemptions   *handler.RedemptionHandler
	Coupons       *handler.CouponHandler
	Stores        *handler.StoreHandler
	Notifications *handler.NotificationHandler
}

// Options controls the cross-cutting middleware.
type Options struct {
	JWTSecret string

	// RequestsPerMinute enables per-client rate limiting on /api when > 0.
	RequestsPerMinute int
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> Logging -> CORS, then auth on the API group.
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	staff := middleware.RequireRole(model.RoleMerchant, model.RoleAdmin)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		if opts.RequestsPerMinute > 0 {
			r.Use(middleware.RateLimit(opts.RequestsPerMinute, logger))
		}
		r.Use(middleware.Authenticate(opts.JWTSecret, logger))

		r.Route("/redemptions", func(r chi.Router) {
			r.Post("/", h.Redemptions.Redeem)
			r.Post("/scan", h.Redemptions.Scan)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.With(staff).Post("/", h.Coupons.Create)
			r.Get("/{id}", h.Coupons.GetByID)
			r.With(staff).Delete("/{id}", h.Coupons.Deactivate)
			r.With(staff).Get("/{id}/redemptions", h.Coupons.Redemptions)
		})

		r.Route("/stores", func(r chi.Router) {
			r.With(adminOnly).Post("/", h.Stores.Create)
			r.With(adminOnly).Get("/", h.Stores.List)
			r.Get("/{id}", h.Stores.GetByID)
			r.Get("/{id}/coupons", h.Coupons.ListByStore)
			r.With(staff).Get("/{id}/summary", h.Coupons.Summary)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.Notifications.Broadcast)
			r.Get("/", h.Notifications.Recent)
		})
	})

	return r
}
