package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/feedlot-ap/feedlot-ap/internal/observability"
	"github.com/feedlot-ap/feedlot-ap/internal/pipeline"
	"github.com/feedlot-ap/feedlot-ap/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Metrics         *observability.Metrics
	PipelineHandler *pipeline.Handler
	JobHandler      *jobs.Handler
}

// NewRouter assembles the application router.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config, Metrics: p.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		p.PipelineHandler.MountRoutes(api)
	})
	r.Route("/jobs", p.JobHandler.MountRoutes)
	return r
}
