package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mindbridge/counsel/backend/internal/handler/chat"
	"github.com/mindbridge/counsel/backend/internal/handler/counseling"
	"github.com/mindbridge/counsel/backend/internal/handler/summary"
	"github.com/mindbridge/counsel/backend/internal/handler/user"
	"github.com/mindbridge/counsel/backend/internal/handler/webex"
	"github.com/mindbridge/counsel/backend/internal/metrics"
	middlewarePkg "github.com/mindbridge/counsel/backend/internal/middleware"
	"github.com/mindbridge/counsel/backend/internal/service/counsel"
	counselingService "github.com/mindbridge/counsel/backend/internal/service/counseling"
	"github.com/mindbridge/counsel/backend/pkg/utils"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Manager       *counsel.Manager
	Counseling    *counselingService.Service
	Metrics       *metrics.Metrics
	WebhookSecret string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(deps.Manager)
	summaryHandler := summary.New(deps.Manager, deps.Counseling)
	userHandler := user.New(deps.Counseling)
	counselingHandler := counseling.New(deps.Counseling)
	webexHandler := webex.New(deps.Counseling, deps.WebhookSecret)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":        "ok",
			"live_sessions": deps.Manager.LiveSessions(),
		})
	})
	r.Handle("/metrics", deps.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Route("/chat", chatHandler.RegisterRoutes)
		api.Route("/summary", summaryHandler.RegisterRoutes)
		api.Route("/users", userHandler.RegisterRoutes)
		api.Route("/counseling", counselingHandler.RegisterRoutes)
		api.Route("/admin", counselingHandler.RegisterAdminRoutes)
		api.Route("/webex", webexHandler.RegisterRoutes)
	})

	return r
}
