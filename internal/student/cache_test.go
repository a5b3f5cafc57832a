package student

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaderboard/internal/queue"
)

// countingGateway records how often the inner store is hit.
type countingGateway struct {
	Gateway
	mu          sync.Mutex
	collections int
}

func (g *countingGateway) FetchCollection(ctx context.Context, f Filter) ([]Record, error) {
	g.mu.Lock()
	g.collections++
	g.mu.Unlock()
	return g.Gateway.FetchCollection(ctx, f)
}

func (g *countingGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.collections
}

type publisherFunc func(ctx context.Context, msg queue.Message) error

func (f publisherFunc) Publish(ctx context.Context, msg queue.Message) error { return f(ctx, msg) }

func newCache(t *testing.T, events Publisher) (*CachedGateway, *countingGateway, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	inner := &countingGateway{Gateway: NewMemoryStore(seed()...)}
	return NewCachedGateway(inner, rdb, time.Minute, events, nil), inner, mr
}

func TestCachedGatewayServesRepeatsFromRedis(t *testing.T) {
	g, inner, _ := newCache(t, nil)
	ctx := context.Background()

	first, err := g.FetchCollection(ctx, Filter{Department: "CSE"})
	require.NoError(t, err)
	second, err := g.FetchCollection(ctx, Filter{Department: " cse"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls(), "equivalent filters share a key")
}

func TestCachedGatewayUpdateInvalidatesAndPublishes(t *testing.T) {
	var published []queue.Message
	g, inner, _ := newCache(t, publisherFunc(func(_ context.Context, msg queue.Message) error {
		published = append(published, msg)
		return nil
	}))
	ctx := context.Background()

	_, err := g.FetchCollection(ctx, Filter{})
	require.NoError(t, err)

	rec, err := g.FetchByID(ctx, "B2")
	require.NoError(t, err)
	f := rec.Fields()
	f.Result = score(4)
	require.NoError(t, g.Update(ctx, rec.ID, f))

	all, err := g.FetchCollection(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls())
	for _, r := range all {
		if r.StudentID == "B2" {
			require.NotNil(t, r.Result)
			assert.Equal(t, 4.0, *r.Result)
		}
	}
	assert.Equal(t, []queue.Message{{Type: EventUpdated, Body: []byte("B2")}}, published)
}

func TestCachedGatewayFallsBackWhenRedisIsDown(t *testing.T) {
	g, inner, mr := newCache(t, nil)
	mr.Close()

	recs, err := g.FetchCollection(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.Equal(t, 1, inner.calls())
}

func TestCachedGatewayUpdateFailureSkipsEvent(t *testing.T) {
	called := false
	g, _, _ := newCache(t, publisherFunc(func(context.Context, queue.Message) error {
		called = true
		return nil
	}))
	err := g.Update(context.Background(), "no-such-id", Fields{StudentID: "Z9"})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, called)
}

func TestCachedGatewayWarm(t *testing.T) {
	g, _, mr := newCache(t, nil)
	n, err := g.Warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, mr.Exists(`leaderboard:cohort:v0:""|""`))
}

func TestCachedGatewayKeysDoNotCollide(t *testing.T) {
	g, inner, _ := newCache(t, nil)
	ctx := context.Background()

	_, err := g.FetchCollection(ctx, Filter{Batch: "a|b"})
	require.NoError(t, err)
	recs, err := g.FetchCollection(ctx, Filter{Batch: "a", Department: "b|"})
	require.NoError(t, err)

	assert.Empty(t, recs)
	assert.Equal(t, 2, inner.calls(), "distinct filters must not share a key")
}

func TestCachedGatewayUpdateDoesNotWaitOnFullQueue(t *testing.T) {
	g, _, _ := newCache(t, queue.NewInMemory(1))
	rec, err := g.FetchByID(context.Background(), "B2")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		start := time.Now()
		f := rec.Fields()
		f.Result = score(3 + float64(i)/10)
		err := g.Update(ctx, rec.ID, f)
		elapsed := time.Since(start)
		cancel()

		require.NoError(t, err)
		assert.Less(t, elapsed, 250*time.Millisecond, "update %d waited on the event queue", i)
	}
}
