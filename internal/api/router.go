package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Harshitk-cp/topicgraph/internal/api/handlers"
	mw "github.com/Harshitk-cp/topicgraph/internal/api/middleware"
	"github.com/Harshitk-cp/topicgraph/internal/buildconfig"
	"github.com/Harshitk-cp/topicgraph/internal/config"
	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/Harshitk-cp/topicgraph/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the backends the HTTP app runs on.
type Deps struct {
	Store   domain.TopicStore
	Mirrors []domain.TopicSink
	// Ping reports backend health; nil means always healthy.
	Ping func(ctx context.Context) error
	// Registry receives all metrics; a fresh one is created when nil.
	Registry *prometheus.Registry
}

// App holds the router and the services behind it.
type App struct {
	Router   *chi.Mux
	Import   *service.ImportService
	Limiter  *mw.RateLimiter
	Registry *prometheus.Registry

	stopCleanup chan struct{}
}

func NewApp(deps Deps, logger *zap.Logger) (*App, error) {
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	importMetrics, err := service.NewImportMetrics(reg)
	if err != nil {
		return nil, err
	}
	httpMetrics, err := mw.NewHTTPMetrics(reg)
	if err != nil {
		return nil, err
	}

	defaultAssociations, err := service.ParseDefaultAssociations(config.DefaultAssociations())
	if err != nil {
		return nil, err
	}

	// Services
	importSvc := service.NewImportService(deps.Store, service.ImportConfig{
		Bases:               config.TopicBases(),
		ReservedNamespace:   config.ReservedNamespace(),
		DefaultScopes:       config.DefaultScopes(),
		DefaultAssociations: defaultAssociations,
	}, importMetrics, logger)
	for _, m := range deps.Mirrors {
		importSvc.AddMirror(m)
	}

	// Handlers
	importHandler := handlers.NewImportHandler(importSvc, config.MaxImportBatch(), logger)
	topicHandler := handlers.NewTopicHandler(importSvc, logger)

	limiter := mw.NewRateLimiter(config.RateLimitRPS(), config.RateLimitBurst())

	r := chi.NewRouter()
	app := &App{
		Router:      r,
		Import:      importSvc,
		Limiter:     limiter,
		Registry:    reg,
		stopCleanup: make(chan struct{}),
	}

	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpMetrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(limiter.Middleware)

	r.Get("/health", healthHandler(deps.Ping))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/imports", importHandler.Import)
		r.Post("/bootstrap", importHandler.Bootstrap)
		r.Get("/topics/*", topicHandler.Get)
	})

	return app, nil
}

// Start runs background maintenance until Stop.
func (app *App) Start() {
	go app.Limiter.RunCleanup(10*time.Minute, app.stopCleanup)
}

func (app *App) Stop() {
	close(app.stopCleanup)
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		resp := map[string]string{"status": "ok"}
		for k, v := range buildconfig.VersionInfo() {
			resp[k] = v
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
