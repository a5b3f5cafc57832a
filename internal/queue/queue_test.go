package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no message")
		return Message{}
	}
}

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: "student.updated", Body: []byte("A1")}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A1", string(receive(t, ch).Body))

	cancel()
	_, ok := <-ch
	assert.False(t, ok, "consumer closes on cancel")
}

func TestInMemoryPublishRespectsContext(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "a"}), context.Canceled)
}

func TestInMemoryPublishDropsWhenFull(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Publish(ctx, Message{Type: "a"}))

	start := time.Now()
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "b"}), ErrFull)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "publish must not wait for a consumer")
}

func TestRedisQueueFIFO(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	q := NewRedisQueue(rdb, "")
	require.NoError(t, q.Publish(ctx, Message{Type: "student.updated", Body: []byte("A1")}))
	require.NoError(t, q.Publish(ctx, Message{Type: "student.updated", Body: []byte("B2")}))
	require.NoError(t, rdb.LPush(ctx, DefaultKey, "not json").Err())
	require.NoError(t, q.Publish(ctx, Message{Type: "student.updated", Body: []byte("C3")}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A1", string(receive(t, ch).Body))
	assert.Equal(t, "B2", string(receive(t, ch).Body))
	assert.Equal(t, "C3", string(receive(t, ch).Body), "malformed entries are dropped")

	cancel()
	for range ch {
	}
}
