package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hemolink/hemolink/internal/auth"
	"github.com/hemolink/hemolink/internal/metrics"
)

// Router assembles the HTTP API.
type Router struct {
	config RouterConfig
	logger zerolog.Logger
}

// RouterConfig contains the handlers and middleware for the router.
type RouterConfig struct {
	UserHandler         *UserHandler
	DonorHandler        *DonorHandler
	RequestHandler      *RequestHandler
	DonationHandler     *DonationHandler
	DocumentHandler     *DocumentHandler
	DeletionHandler     *DeletionHandler
	BloodBankHandler    *BloodBankHandler
	NotificationHandler *NotificationHandler

	AuthMiddleware func(http.Handler) http.Handler
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		config: config,
		logger: config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(rt.requestLogger)
	r.Use(chimiddleware.Recoverer)
	if rt.config.Metrics != nil {
		r.Use(rt.config.Metrics.Middleware(routePattern))
	}

	// Health check and metrics (no auth)
	r.Get("/health", rt.handleHealth)
	if rt.config.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.config.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints: emergency requests can be filed and browsed
		// without an account, and the blood bank registry is open
		r.Post("/requests", rt.config.RequestHandler.Create)
		r.Get("/requests", rt.config.RequestHandler.List)
		r.Get("/requests/{id}", rt.config.RequestHandler.Get)
		r.Get("/blood-banks", rt.config.BloodBankHandler.List)
		r.Get("/blood-banks/{id}", rt.config.BloodBankHandler.Get)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(rt.config.AuthMiddleware)

			// Donor profile
			r.Post("/donors", rt.config.DonorHandler.Register)
			r.Get("/donors", rt.config.DonorHandler.List)
			r.Get("/donors/me", rt.config.DonorHandler.GetOwn)
			r.Put("/donors/me/availability", rt.config.DonorHandler.SetAvailability)
			r.Get("/donors/me/eligibility", rt.config.DonorHandler.Eligibility)

			// Donations
			r.Get("/donations", rt.config.DonationHandler.ListOwn)
			r.Get("/donations/stats", rt.config.DonationHandler.Stats)

			// Request lifecycle
			r.Post("/requests/{id}/match", rt.config.RequestHandler.MatchDonor)
			r.Post("/requests/{id}/fulfill", rt.config.RequestHandler.Fulfill)
			r.Post("/requests/{id}/cancel", rt.config.RequestHandler.Cancel)

			// Documents
			r.Post("/documents", rt.config.DocumentHandler.Upload)
			r.Get("/documents", rt.config.DocumentHandler.ListOwn)
			r.Get("/documents/{id}", rt.config.DocumentHandler.Download)

			// Notifications
			r.Get("/notifications", rt.config.NotificationHandler.List)
			r.Get("/notifications/unread-count", rt.config.NotificationHandler.UnreadCount)
			r.Post("/notifications/{id}/read", rt.config.NotificationHandler.MarkRead)
			r.Post("/notifications/read-all", rt.config.NotificationHandler.MarkAllRead)

			// Admin endpoints
			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Post("/users", rt.config.UserHandler.Create)
				r.Get("/users", rt.config.UserHandler.List)
				r.Get("/users/{id}", rt.config.UserHandler.Get)
				r.Put("/users/{id}", rt.config.UserHandler.Update)
				r.Delete("/users/{id}", rt.config.UserHandler.Delete)
				r.Put("/users/{id}/role", rt.config.UserHandler.SetRole)
				r.Post("/users/{id}/suspend", rt.config.UserHandler.Suspend)
				r.Post("/users/{id}/ban", rt.config.UserHandler.Ban)
				r.Post("/users/{id}/reinstate", rt.config.UserHandler.Reinstate)

				r.Put("/donors/{userId}/verification", rt.config.DonorHandler.SetVerification)
				r.Post("/donations", rt.config.DonationHandler.Record)

				r.Put("/documents/{id}/verification", rt.config.DocumentHandler.SetVerification)

				r.Post("/deletion-requests", rt.config.DeletionHandler.Create)
				r.Get("/deletion-requests", rt.config.DeletionHandler.List)
				r.Post("/deletion-requests/{id}/approve", rt.config.DeletionHandler.Approve)
				r.Post("/deletion-requests/{id}/reject", rt.config.DeletionHandler.Reject)

				r.Post("/blood-banks", rt.config.BloodBankHandler.Create)
				r.Put("/blood-banks/{id}", rt.config.BloodBankHandler.Update)
				r.Delete("/blood-banks/{id}", rt.config.BloodBankHandler.Delete)
				r.Post("/blood-banks/{id}/inventory", rt.config.BloodBankHandler.AdjustInventory)
			})
		})
	})

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// requestLogger logs each request at debug level.
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		rt.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// routePattern extracts the chi route pattern for metrics labels.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
