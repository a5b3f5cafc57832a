package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"leaderboard/internal/config"
	"leaderboard/internal/logging"
	"leaderboard/internal/queue"
	"leaderboard/internal/store"
	"leaderboard/internal/student"
)

// Worker consumes student.updated events and re-warms the cohorts the
// changed student belongs to.
func main() {
	cfg := config.Load()
	log, err := logging.New(cfg.LogLevel, cfg.Production())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	defer func() { _ = backend.Close() }()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	}

	inner := student.Instrument(backend.Students, backend.Name)
	cache := student.NewCachedGateway(inner, redisClient.Client, cfg.CohortCacheTTL, nil, log)
	r := &refresher{students: inner, cache: cache, log: log}

	if n, err := cache.Warm(ctx); err != nil {
		log.Warn("initial warm failed", zap.Error(err))
	} else {
		log.Info("cache warmed", zap.Int("records", n))
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatal("queue consume init failed", zap.Error(err))
	}

	log.Info("worker started, waiting for messages")
	for msg := range messages {
		r.handle(ctx, msg)
	}
	log.Info("worker stopped")
}

type refresher struct {
	students student.Gateway
	cache    *student.CachedGateway
	log      *zap.Logger
}

// handle warms the overall cohort and the changed student's batch and
// department cohorts. Other message types are ignored.
func (r *refresher) handle(ctx context.Context, msg queue.Message) {
	if msg.Type != student.EventUpdated {
		return
	}
	id := string(msg.Body)
	rec, err := r.students.FetchByID(ctx, id)
	if err != nil {
		r.log.Warn("fetch updated student failed", zap.String("student_id", id), zap.Error(err))
		return
	}
	filters := []student.Filter{
		{},
		{Batch: rec.Batch},
		{Department: rec.Department},
		{Batch: rec.Batch, Department: rec.Department},
	}
	for _, f := range filters {
		if _, err := r.cache.FetchCollection(ctx, f); err != nil {
			r.log.Warn("warm cohort failed", zap.String("batch", f.Batch), zap.String("department", f.Department), zap.Error(err))
		}
	}
	r.log.Info("cohorts refreshed", zap.String("student_id", id))
}
