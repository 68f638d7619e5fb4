package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pet-admin-sync/internal/adapters/auth/odin"
	"pet-admin-sync/internal/adapters/push"
	mem "pet-admin-sync/internal/adapters/storage/memory"
	pg "pet-admin-sync/internal/adapters/storage/postgres"
	"pet-admin-sync/internal/adapters/storage/sqlite"
	"pet-admin-sync/internal/backend"
	"pet-admin-sync/internal/platform/config"
	"pet-admin-sync/internal/platform/logger"
	"pet-admin-sync/internal/platform/metrics"
	"pet-admin-sync/internal/ports/auth"
	"pet-admin-sync/internal/router"
)

func main() {
	log := logger.NewFromEnv("pet-admin-api")

	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("config", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepo(ctx, cfg, log)
	if err != nil {
		log.Error("storage", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer closeRepo()

	var verifier auth.AuthVerifier // nil => modo dev (X-Debug-User-ID)
	if cfg.OdinBaseURL != "" {
		client, err := odin.NewClient(odin.Config{BaseURL: cfg.OdinBaseURL, APIKey: cfg.OdinAPIKey, Timeout: 5 * time.Second})
		if err != nil {
			log.Error("odin client", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		verifier = odin.NewVerifier(client)
		log.Info("auth via odin", map[string]any{"base_url": cfg.OdinBaseURL})
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	hub := push.NewHub(log, m)
	svcs := backend.NewServices(repo, hub)
	if cfg.SeedDemo {
		if err := svcs.SeedDemo(ctx); err != nil {
			log.Error("seed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		log.Info("demo data seeded", nil)
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.NewRouter(router.Options{
			AuthVerifier: verifier,
			Hub:          hub,
			Services:     svcs,
			Logger:       log,
			Metrics:      m,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		// Sin WriteTimeout: /events/ws es una conexión larga.
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", map[string]any{"error": err.Error()})
	}
	log.Info("server stopped", nil)
}

// openRepo: Postgres si hay DB_DSN, SQLite si hay SQLITE_PATH, si no in-memory.
func openRepo(ctx context.Context, cfg config.API, log logger.Logger) (backend.Repository, func(), error) {
	switch {
	case cfg.DBDSN != "":
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		repo := pg.NewEntitiesRepo(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("storage: postgres", nil)
		return repo, func() { _ = db.Close() }, nil
	case cfg.SQLitePath != "":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("storage: sqlite", map[string]any{"path": cfg.SQLitePath})
		return sqlite.NewEntitiesRepo(db), func() { _ = db.Close() }, nil
	default:
		log.Info("storage: memory", nil)
		return mem.NewEntitiesRepo(), func() {}, nil
	}
}
