package middleware_test

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sixassist/cityassist/internal/adapters/cache"
	"github.com/sixassist/cityassist/internal/api/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheMiddleware_CachesConfiguredRoutes(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	h := middleware.NewCacheMiddleware(cache.NewMemoryAdapter(10)).Middleware(next)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/announcements", nil))
		assert.Equal(t, `{"ok":true}`, rec.Body.String())
		if i == 1 {
			assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
		}
	}
	assert.Equal(t, 1, calls)

	// Per-user routes are never cached.
	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/me", nil))
	}
	assert.Equal(t, 3, calls)
}

func TestCacheMiddleware_SkipsErrors(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	})
	h := middleware.NewCacheMiddleware(cache.NewMemoryAdapter(10)).Middleware(next)

	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/geocode?address=x", nil))
	}
	assert.Equal(t, 2, calls)
}

func TestCORSMiddleware_SpecificOrigins(t *testing.T) {
	h := middleware.CORSMiddleware([]string{"https://6ixassist.ca"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/establishments", nil)
	req.Header.Set("Origin", "https://6ixassist.ca")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://6ixassist.ca", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCompression(t *testing.T) {
	h := middleware.Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/establishments", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	stream := httptest.NewRequest(http.MethodGet, "/api/stream/community-updates", nil)
	stream.Header.Set("Accept-Encoding", "gzip")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, stream)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "hello", rec.Body.String())
}
