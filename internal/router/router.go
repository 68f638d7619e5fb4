package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"pet-admin-sync/internal/adapters/push"
	mem "pet-admin-sync/internal/adapters/storage/memory"
	"pet-admin-sync/internal/backend"
	_ "pet-admin-sync/internal/docs"
	"pet-admin-sync/internal/middleware"
	"pet-admin-sync/internal/platform/logger"
	"pet-admin-sync/internal/platform/metrics"
	"pet-admin-sync/internal/ports/auth"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si no viene, in-memory. cmd/api elige postgres o sqlite.
	Repo backend.Repository

	// Opcionales. Si Services viene armado, Hub debe ser su publisher.
	Hub      *push.Hub
	Services *backend.Services

	Logger   logger.Logger
	Metrics  *metrics.Recorder
	Gatherer prometheus.Gatherer // default prometheus.DefaultGatherer
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(middleware.Recover(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	hub := opts.Hub
	if hub == nil {
		hub = push.NewHub(log, opts.Metrics)
	}
	r.Get("/events/ws", hub.ServeWS)

	svcs := opts.Services
	if svcs == nil {
		repo := opts.Repo
		if repo == nil {
			repo = mem.NewEntitiesRepo()
		}
		svcs = backend.NewServices(repo, hub)
	}
	svcs.Register(r)

	return r
}
