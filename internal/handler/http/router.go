package http

import (
	"log/slog"
	"net/http"

	"github.com/aicostguardian/guardian-backend-go/internal/config"
	"github.com/aicostguardian/guardian-backend-go/internal/handler/http/middleware"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	JWTService jwt.Service,
	notificationHandler NotificationHandler,
	ingestHandler IngestHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", middleware.ServiceKeyHeader},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
		// Scrapes every few seconds
		Skip: func(req *http.Request, respStatus int) bool {
			return req.URL.Path == "/metrics"
		},
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		// Upstream monitors
		r.Route("/internal/notifications", func(r chi.Router) {
			r.Use(middleware.ServiceKeyRequired(cfg.Ingest.ServiceKeyHash))
			r.Post("/", ingestHandler.Submit)
			r.Post("/bulk", ingestHandler.SubmitBulk)
		})

		r.Route("/notifications", func(r chi.Router) {
			// Browsers cannot set headers on EventSource or WebSocket, so these
			// authenticate with a short-lived query token
			r.Get("/stream", notificationHandler.Stream)
			r.Get("/ws", notificationHandler.WebSocket)

			// Requires authentication
			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
				r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

				r.Get("/", notificationHandler.List)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Post("/read", notificationHandler.MarkAsRead)
				r.Post("/read-all", notificationHandler.MarkAllAsRead)
				r.Post("/test", notificationHandler.SendTest)
				r.Get("/sse-token", notificationHandler.GetSSEToken)

				r.Route("/preferences", func(r chi.Router) {
					r.Get("/", notificationHandler.GetPreferences)
					r.Patch("/", notificationHandler.UpdatePreferences)
					r.Put("/", notificationHandler.ReplacePreferences)
				})

				r.Route("/contacts", func(r chi.Router) {
					r.Get("/", notificationHandler.GetContacts)
					r.Put("/", notificationHandler.UpdateContacts)
				})

				r.Route("/{id}", func(r chi.Router) {
					r.Post("/acknowledge", notificationHandler.Acknowledge)
					r.Delete("/", notificationHandler.Delete)
				})
			})
		})
	})
	return r
}
