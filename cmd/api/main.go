package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leaderboard/internal/auth"
	"leaderboard/internal/config"
	"leaderboard/internal/logging"
	"leaderboard/internal/queue"
	"leaderboard/internal/store"
	"leaderboard/internal/student"
	"leaderboard/internal/web"
)

func main() {
	cfg := config.Load()
	log, err := logging.New(cfg.LogLevel, cfg.Production())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	for _, w := range cfg.Warnings {
		log.Warn("config", zap.String("detail", w))
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("http server failed", zap.Error(err))
	}
}

// errMemoryBackend rejects DB_BACKEND=memory: the store starts empty and
// the admin CLI cannot reach another process's memory, so no one could log in.
var errMemoryBackend = errors.New("DB_BACKEND=memory is for tests only; use sqlite for a local server")

func checkConfig(cfg config.App) error {
	if cfg.DBBackend == "memory" {
		return errMemoryBackend
	}
	return nil
}

// eventsFor returns where update events go. An in-memory queue would
// have no reader in this process, so events are dropped instead.
func eventsFor(cfg config.App, rc *store.Redis) student.Publisher {
	if cfg.QueueBackend == "memory" {
		return nil
	}
	return queue.NewRedisQueue(rc.Client, queue.DefaultKey)
}

func run(cfg config.App, log *zap.Logger) error {
	if err := checkConfig(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	// SQLite has no separate migration step.
	if backend.Name == "sqlite" {
		if err := backend.Migrate(ctx); err != nil {
			return err
		}
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	var students student.Gateway = student.Instrument(backend.Students, backend.Name)
	if cfg.CacheEnabled {
		students = student.NewCachedGateway(students, redisClient.Client, cfg.CohortCacheTTL, eventsFor(cfg, redisClient), log)
	}

	var revocations auth.Revocations = auth.NewRedisRevocations(redisClient.Client)
	checks := map[string]func(context.Context) bool{"db": backend.Healthy}
	if cfg.QueueBackend == "memory" && !cfg.CacheEnabled {
		revocations = auth.NewMemoryRevocations()
	} else {
		checks["redis"] = redisClient.Healthy
	}

	r := web.NewRouter(cfg, web.Deps{
		Students:    students,
		Accounts:    backend.Accounts,
		Revocations: revocations,
		Checks:      checks,
		Log:         log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("backend", backend.Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
	return nil
}
