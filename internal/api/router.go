package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/testboard/engine/internal/api/handlers"
	mw "github.com/testboard/engine/internal/api/middleware"
	"github.com/testboard/engine/internal/queue/tasks"
	"github.com/testboard/engine/internal/realtime"
	"github.com/testboard/engine/internal/services"
)

type Dependencies struct {
	Projects  services.ProjectService
	Features  services.FeatureService
	TestCases services.TestCaseService
	Imports   services.ImportService
	Stats     services.StatsService

	// Hub and Initial feed the realtime stream; the route is omitted when
	// Hub is nil.
	Hub     *realtime.Hub
	Initial realtime.Initial

	// Reports may be nil when no Redis is configured.
	Reports tasks.Enqueuer
	Ready   handlers.Pinger

	CORSOrigin     string
	RateLimitRPS   float64
	RateLimitBurst int

	// Registry receives HTTP and hub metrics; a fresh one is used when nil.
	Registry *prometheus.Registry
}

// NewRouter builds the HTTP handler. ctx bounds background work owned by
// the router, such as rate limiter eviction.
func NewRouter(ctx context.Context, dep Dependencies) http.Handler {
	reg := dep.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	metrics := mw.NewMetrics(reg)
	if dep.Hub != nil {
		hub := dep.Hub
		reg.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "testboard", Name: "realtime_subscribers", Help: "Open realtime subscriptions.",
			}, func() float64 { return float64(hub.Subscribers()) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: "testboard", Name: "realtime_revision", Help: "Last realtime revision handed out.",
			}, func() float64 { return float64(hub.Revision()) }),
		)
	}

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(metrics.Middleware)
	r.Use(mw.CORS(dep.CORSOrigin))

	hh := handlers.NewHealthHandler(dep.Ready)
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	projects := handlers.NewProjectsHandler(dep.Projects)
	features := handlers.NewFeaturesHandler(dep.Features)
	testCases := handlers.NewTestCasesHandler(dep.TestCases, dep.Imports)
	imports := handlers.NewImportHandler(dep.Imports)
	stats := handlers.NewStatsHandler(dep.Stats)
	reports := handlers.NewReportsHandler(dep.Reports)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(mw.RateLimit(ctx, dep.RateLimitRPS, dep.RateLimitBurst))

		if dep.Hub != nil {
			api.Get("/stream", realtime.Handler(dep.Hub, dep.Initial, mw.OriginChecker(dep.CORSOrigin)))
		}

		api.Group(func(rest chi.Router) {
			rest.Use(chimid.Compress(5))

			rest.Route("/projects", func(pr chi.Router) {
				pr.Get("/", projects.List)
				pr.Post("/", projects.Create)
				pr.Get("/{id}", projects.Get)
				pr.Put("/{id}", projects.Replace)
				pr.Delete("/{id}", projects.Delete)
				pr.Get("/{id}/summary", projects.Summary)
			})

			rest.Route("/features", func(fr chi.Router) {
				fr.Get("/", features.List)
				fr.Post("/", features.Create)
				fr.Get("/{id}", features.Get)
				fr.Put("/{id}", features.Replace)
				fr.Delete("/{id}", features.Delete)
			})

			rest.Route("/testcases", func(tr chi.Router) {
				tr.Get("/", testCases.List)
				tr.Post("/", testCases.Create)
				tr.Post("/import", testCases.Import)
				tr.Get("/export", testCases.Export)
				tr.Get("/{id}", testCases.Get)
				tr.Put("/{id}", testCases.Replace)
				tr.Delete("/{id}", testCases.Delete)
			})

			rest.Post("/import", imports.Import)
			rest.Post("/reports", reports.Create)
			rest.Get("/stats", stats.Overview)
		})
	})

	return r
}
