package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	httpx "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/redisclient"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/repo/postgres"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "taskhub-api",
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.OTLPSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	deps := httpx.Deps{
		Prom:     prom,
		Gatherer: reg,
		Pingers:  map[string]handlers.Pinger{},
	}

	// storage: postgres unless explicitly running on memory stores
	if cfg.DBURL == "memory" {
		log.Warn("using in-memory stores, data is lost on restart")

		tasks := memory.NewTasksRepo()
		deps.Users = memory.NewUsersRepo(tasks.DeleteByUser)
		deps.Tasks = tasks
	} else {
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		deps.Users = postgres.NewUsersRepo(pool, prom)
		deps.Tasks = postgres.NewTasksRepo(pool, prom)
		deps.Pingers["postgres"] = pool
	}

	// cache for user reads
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		deps.Cache = cache.NewRedis(rdb, cfg.CacheTTL, log)
		deps.Pingers["redis"] = rdb
	} else {
		deps.Cache = cache.New(cfg.CacheTTL)
	}

	tokens, err := auth.NewManager(auth.Config{
		Secret:    cfg.JWTSecret,
		Algorithm: cfg.JWTAlgorithm,
		AccessTTL: cfg.AccessTTL(),
	})
	if err != nil {
		return err
	}

	hasher := security.NewHasher(security.DefaultParams)

	deps.Tokens = tokens
	deps.Hasher = hasher
	deps.Resolver = auth.NewResolver(tokens, deps.Users, log, func(reason auth.FailureReason) {
		prom.IncAuthFailure(string(reason))
	})

	seedCtx, cancel := config.WithTimeout(ctx, 5*time.Second)
	err = db.EnsureSeedUser(seedCtx, deps.Users, hasher, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	// set up routers with the log
	router := httpx.NewRouter(log, deps, cfg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case <-stop:
	}

	log.Info("server shutting down")

	shutdownCtx, cancelShutdown := config.WithTimeout(ctx, 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}
