package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/quickdeals/api/controllers"
	"github.com/angelmondragon/quickdeals/api/middleware"
	"github.com/angelmondragon/quickdeals/internal/session"
	"github.com/angelmondragon/quickdeals/pkg/config"
	"github.com/angelmondragon/quickdeals/pkg/db"
	"github.com/angelmondragon/quickdeals/pkg/logger"
)

type databaseRegistry interface {
	controllers.DatabaseLister
	db.Pinger
}

// NewRouter wires every route. redisP and metricsHandler may be nil when
// Redis or metrics are not configured.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry databaseRegistry,
	redisP db.Pinger,
	agentService controllers.Asker,
	guard session.Guard,
	renderer controllers.PageRenderer,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	deps := map[string]db.Pinger{"databases": registry}
	if redisP != nil {
		deps["redis"] = redisP
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	r.Get("/docs", controllers.Docs(cfg.App.DocsDir, cfg.App.Title, logg))

	names := make([]string, 0)
	for _, d := range registry.Databases() {
		names = append(names, d.Name)
	}
	page := controllers.PageOptions{
		Title:     cfg.App.Title,
		MaxLength: cfg.Agent.MaxQuestionLength,
		Databases: names,
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(logg, cfg.App.IsProd()))

		r.Get("/", controllers.PageShow(renderer, page, logg))
		r.Post("/", controllers.PageSubmit(renderer, agentService, guard, page, logg))

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/query", controllers.Query(agentService, guard, cfg.Agent.MaxQuestionLength, logg))
			r.Get("/databases", controllers.ListDatabases(registry))
		})
	})

	return r
}
