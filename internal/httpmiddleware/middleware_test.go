package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokenBucketRefills(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := NewTokenBucket(2, 60)
	l.now = func() time.Time { return clock }

	ok, _ := l.take("a")
	assert.True(t, ok)
	ok, _ = l.take("a")
	assert.True(t, ok)
	ok, wait := l.take("a")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = l.take("b")
	assert.True(t, ok, "buckets are per key")

	clock = clock.Add(time.Second)
	ok, _ = l.take("a")
	assert.True(t, ok)
}

func TestTokenBucketEvictsIdleBuckets(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := NewTokenBucket(2, 60)
	l.now = func() time.Time { return clock }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		ok, _ := l.take(ip)
		require.True(t, ok)
	}
	assert.Len(t, l.buckets, 3)

	clock = clock.Add(time.Second)
	l.take("10.0.0.1")
	assert.Len(t, l.buckets, 3, "buckets still refilling are kept")

	clock = clock.Add(1500 * time.Millisecond)
	ok, _ := l.take("10.0.0.4")
	assert.True(t, ok)
	assert.Len(t, l.buckets, 2, "idle full buckets are dropped")
	assert.Contains(t, l.buckets, "10.0.0.1")
	assert.Contains(t, l.buckets, "10.0.0.4")
}

func TestTokenBucketMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(NewTokenBucket(1, 1).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogSkipsPaths(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLog(zap.New(core), "/healthz"), SecurityHeaders())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "/missing", entries[0].ContextMap()["path"])
		assert.Equal(t, int64(http.StatusNotFound), entries[0].ContextMap()["status"])
	}
}
