package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/container"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/middleware"
)

// NewRouter configures the HTTP routes on top of a built container
func NewRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()
	services := c.Services

	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	healthHandler := NewHealthHandler(c)
	authHandler := NewAuthHandler(c.GoogleSignIn, cfg.FrontendURL, !cfg.IsDevelopment(), log)
	eventHandler := NewEventHandler(services.Events, log)
	registrationHandler := NewRegistrationHandler(services.Registrations, log)
	teamHandler := NewTeamHandler(services.Teams, log)
	submissionHandler := NewSubmissionHandler(services.Submissions, log)

	requireAuth := middleware.Auth(services.Auth, log)
	requireAdmin := middleware.RequireAdmin(log)

	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			// Public catalogue
			r.Get("/events", eventHandler.List)
			r.Get("/events/{eventID}", eventHandler.Get)
			r.Get("/events/{eventID}/leaderboard", submissionHandler.Leaderboard)

			r.Get("/auth/google/login", authHandler.GoogleLogin)
			r.Get("/auth/google/callback", authHandler.GoogleCallback)

			// Authenticated by the provider signature instead of a bearer token
			r.Post("/payments/webhook", registrationHandler.Webhook)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)

				r.Get("/me", authHandler.Me)

				r.Post("/events/{eventID}/registrations", registrationHandler.Register)
				r.Delete("/events/{eventID}/registrations/me", registrationHandler.Cancel)
				r.Post("/events/{eventID}/payments/order", registrationHandler.CreateOrder)
				r.Post("/events/{eventID}/payments/verify", registrationHandler.VerifyPayment)
				r.Post("/events/{eventID}/teams", teamHandler.Create)
				r.Put("/events/{eventID}/submission", submissionHandler.Submit)
				r.Delete("/events/{eventID}/submission", submissionHandler.Delete)

				r.Get("/teams/{teamID}", teamHandler.Get)
				r.Delete("/teams/{teamID}", teamHandler.Delete)
				r.Post("/teams/{teamID}/invites", teamHandler.Invite)
				r.Post("/teams/{teamID}/requests", teamHandler.RequestJoin)
				r.Get("/teams/{teamID}/requests", teamHandler.ListRequests)
				r.Post("/teams/{teamID}/requests/{requestID}/respond", teamHandler.Respond)
				r.Post("/teams/{teamID}/leave", teamHandler.Leave)

				// Admin
				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)

					r.Post("/events", eventHandler.Create)
					r.Patch("/events/{eventID}/status", eventHandler.UpdateStatus)
					r.Delete("/events/{eventID}", eventHandler.Delete)
					r.Post("/events/{eventID}/results", submissionHandler.PublishResults)
					r.Post("/submissions/{submissionID}/evaluate", submissionHandler.Evaluate)
				})
			})
		})

		if cfg.IsDevelopment() {
			testingHandler := NewTestingHandler(c)
			r.Route("/testing", func(r chi.Router) {
				r.Post("/token", testingHandler.IssueToken)
				r.Get("/notification-failures", testingHandler.NotificationFailures)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"not_found","message":"Endpoint not found"}}`))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"error":{"type":"validation","message":"Method not allowed"}}`))
	})

	log.Info("Router configured successfully")
	return r
}
