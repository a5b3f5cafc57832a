package student

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"leaderboard/internal/metrics"
	"leaderboard/internal/queue"
)

const cachePrefix = "leaderboard:cohort:"

// Publisher is the part of a queue the cache needs.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// CachedGateway keeps cohort fetches in Redis. Keys carry a generation
// number; Update bumps it so every cached cohort goes stale at once.
type CachedGateway struct {
	inner  Gateway
	rdb    redis.Cmdable
	ttl    time.Duration
	events Publisher
	log    *zap.Logger
}

// NewCachedGateway wraps inner. events may be nil.
func NewCachedGateway(inner Gateway, rdb redis.Cmdable, ttl time.Duration, events Publisher, log *zap.Logger) *CachedGateway {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedGateway{inner: inner, rdb: rdb, ttl: ttl, events: events, log: log}
}

// FetchByID is never cached.
func (g *CachedGateway) FetchByID(ctx context.Context, studentID string) (Record, error) {
	return g.inner.FetchByID(ctx, studentID)
}

// FetchCollection serves filter from Redis when possible. Redis failures
// fall through to the inner gateway.
func (g *CachedGateway) FetchCollection(ctx context.Context, filter Filter) ([]Record, error) {
	key, err := g.key(ctx, filter)
	if err != nil {
		metrics.CacheEvents.WithLabelValues("error").Inc()
		g.log.Warn("cohort cache unavailable", zap.Error(err))
		return g.inner.FetchCollection(ctx, filter)
	}

	raw, err := g.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var recs []Record
		if err := json.Unmarshal(raw, &recs); err == nil {
			metrics.CacheEvents.WithLabelValues("hit").Inc()
			return recs, nil
		}
		g.log.Warn("dropping undecodable cohort entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		metrics.CacheEvents.WithLabelValues("error").Inc()
		g.log.Warn("cohort cache read failed", zap.String("key", key), zap.Error(err))
		return g.inner.FetchCollection(ctx, filter)
	}

	metrics.CacheEvents.WithLabelValues("miss").Inc()
	recs, err := g.inner.FetchCollection(ctx, filter)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(recs); err == nil {
		if err := g.rdb.Set(ctx, key, raw, g.ttl).Err(); err != nil {
			g.log.Warn("cohort cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return recs, nil
}

// Update writes through, invalidates cached cohorts and announces the change.
func (g *CachedGateway) Update(ctx context.Context, id string, fields Fields) error {
	if err := g.inner.Update(ctx, id, fields); err != nil {
		return err
	}
	if err := g.Invalidate(ctx); err != nil {
		g.log.Warn("cohort cache invalidation failed", zap.Error(err))
	}
	if g.events != nil {
		msg := queue.Message{Type: EventUpdated, Body: []byte(fields.StudentID)}
		if err := g.events.Publish(ctx, msg); err != nil {
			g.log.Warn("publish update event failed", zap.String("student_id", fields.StudentID), zap.Error(err))
		}
	}
	return nil
}

// Invalidate makes every cached cohort stale.
func (g *CachedGateway) Invalidate(ctx context.Context) error {
	return g.rdb.Incr(ctx, cachePrefix+"gen").Err()
}

// Warm loads the full cohort into the cache.
func (g *CachedGateway) Warm(ctx context.Context) (int, error) {
	recs, err := g.FetchCollection(ctx, Filter{})
	return len(recs), err
}

func (g *CachedGateway) key(ctx context.Context, filter Filter) (string, error) {
	gen, err := g.rdb.Get(ctx, cachePrefix+"gen").Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	// Quoting keeps a separator inside a value from shifting the boundary.
	return cachePrefix + "v" + strconv.FormatInt(gen, 10) + ":" +
		strconv.Quote(Normalize(filter.Batch)) + "|" + strconv.Quote(Normalize(filter.Department)), nil
}
