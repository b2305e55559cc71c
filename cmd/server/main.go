// Command server runs the credential registry HTTP service.
//
// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Registry rules live in internal/registry/service.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credchain/internal/audit"
	"credchain/internal/platform/config"
	"credchain/internal/platform/database"
	"credchain/internal/platform/health"
	"credchain/internal/platform/httpserver"
	"credchain/internal/platform/logger"
	"credchain/internal/platform/metrics"
	platformredis "credchain/internal/platform/redis"
	"credchain/internal/registry/cache"
	"credchain/internal/registry/handler"
	"credchain/internal/registry/service"
	"credchain/internal/registry/store"
	"credchain/internal/registry/tracer"
	"credchain/internal/token"
	httptransport "credchain/internal/transport/http"
	"credchain/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("error").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	log.Info("initializing credchain registry",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"admin", cfg.AdminAddress,
		"store", storeKind(cfg),
	)

	m := metrics.New()
	healthHandler := health.New(cfg.Environment)

	// Persistence: Postgres when configured, in-memory otherwise. The audit
	// trail follows the same choice so it survives restarts with the rows it
	// describes.
	var registryStore store.Store = store.NewInMemory()
	var auditStore audit.Store = audit.NewInMemoryStore()
	pool, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := migrations.Apply(ctx, pool.DB()); err != nil {
			cancel()
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		cancel()
		registryStore = store.NewPostgres(pool.DB())
		auditStore = audit.NewPostgresStore(pool.DB())
		healthHandler.RegisterCheck("postgres", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}

	auditor := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)
	defer auditor.Close()

	opts := []service.Option{
		service.WithMetrics(m),
		service.WithTracer(tracer.NewOTel()),
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				redisClient.RecordPoolStats()
			}
		}()
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		})
		opts = append(opts, service.WithVerificationCache(
			cache.NewVerification(redisClient.Client, cfg.VerifyCacheTTL, m, log),
		))
	}

	svc := service.NewService(registryStore, auditor, cfg.AdminAddress, log, opts...)

	tokens := token.NewService(cfg.JWTSigningKey, "credchain", "credchain-registry", cfg.TokenTTL)
	registryHandler := handler.New(svc, auditor, log, m)
	router := httptransport.NewRouter(registryHandler, healthHandler, tokens, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func storeKind(cfg config.Server) string {
	if cfg.DatabaseURL != "" {
		return "postgres"
	}
	return "memory"
}
