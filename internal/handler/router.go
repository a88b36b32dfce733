package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/event-management/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RouterConfig carries the collaborators the router needs beyond the handlers.
type RouterConfig struct {
	Tokens            TokenValidator
	AuthRatePerMinute int
	Logger            zerolog.Logger
}

// NewRouter builds the chi router with the global middleware stack.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(metrics.HTTPMiddleware)
	r.Use(CORS)

	r.Get("/health", HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(RateLimit(cfg.AuthRatePerMinute))
			r.Post("/register", h.SignUp)
			r.Post("/login", h.Login)
		})

		r.Route("/events", func(r chi.Router) {
			r.Use(Authenticate(cfg.Tokens))

			r.Post("/", h.CreateEvent)
			r.Get("/", h.ListEvents)
			r.Get("/my/organized", h.ListOrganizedEvents)
			r.Get("/my/registered", h.ListRegisteredEvents)
			r.Get("/{id}", h.GetEvent)
			r.Put("/{id}", h.UpdateEvent)
			r.Delete("/{id}", h.DeleteEvent)
			r.Post("/{id}/register", h.Register)
			r.Delete("/{id}/register", h.Unregister)
			r.Get("/{id}/participants", h.ListParticipants)
		})
	})

	return r
}
