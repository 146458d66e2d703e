package restapi

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gtfstoosm.onebusaway.org/internal/logging"
)

func serveLimited(handler http.Handler, key string) int {
	target := "/test"
	if key != "" {
		target += "?key=" + key
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec.Code
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		rl := NewRateLimitMiddleware(5, time.Second)
		defer rl.Stop()
		handler := rl.Handler(okHandler())

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, serveLimited(handler, "test"), "request %d", i+1)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		rl := NewRateLimitMiddleware(3, time.Second)
		defer rl.Stop()
		handler := rl.Handler(okHandler())

		for i := 0; i < 3; i++ {
			require.Equal(t, http.StatusOK, serveLimited(handler, "test"))
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test?key=test", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), `"code":429`)
	})

	t.Run("limits each key separately", func(t *testing.T) {
		rl := NewRateLimitMiddleware(2, time.Second)
		defer rl.Stop()
		handler := rl.Handler(okHandler())

		serveLimited(handler, "key-1")
		serveLimited(handler, "key-1")
		assert.Equal(t, http.StatusTooManyRequests, serveLimited(handler, "key-1"))
		assert.Equal(t, http.StatusOK, serveLimited(handler, "key-2"))
	})

	t.Run("requests without key share a limiter", func(t *testing.T) {
		rl := NewRateLimitMiddleware(1, time.Second)
		defer rl.Stop()
		handler := rl.Handler(okHandler())

		assert.Equal(t, http.StatusOK, serveLimited(handler, ""))
		assert.Equal(t, http.StatusTooManyRequests, serveLimited(handler, ""))
	})

	t.Run("refills over time", func(t *testing.T) {
		rl := NewRateLimitMiddleware(1, 100*time.Millisecond)
		defer rl.Stop()
		handler := rl.Handler(okHandler())

		assert.Equal(t, http.StatusOK, serveLimited(handler, "test"))
		assert.Equal(t, http.StatusTooManyRequests, serveLimited(handler, "test"))
		time.Sleep(150 * time.Millisecond)
		assert.Equal(t, http.StatusOK, serveLimited(handler, "test"))
	})

	t.Run("zero rate blocks everything", func(t *testing.T) {
		rl := NewRateLimitMiddleware(0, time.Second)
		defer rl.Stop()

		rec := httptest.NewRecorder()
		rl.Handler(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test?key=test", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
	})

	t.Run("concurrent requests", func(t *testing.T) {
		rl := NewRateLimitMiddleware(5, time.Second)
		defer rl.Stop()
		handler := rl.Handler(okHandler())

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if serveLimited(handler, "concurrent") == http.StatusOK {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, allowed)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		rl := NewRateLimitMiddleware(5, time.Second)
		rl.Stop()
		assert.NotPanics(t, rl.Stop)
	})
}

func TestSecurityHeaders(t *testing.T) {
	t.Run("sets headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		securityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "test response", rec.Body.String())
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/convert", nil)
		req.Header.Set("Origin", "https://example.com")
		rec := httptest.NewRecorder()
		securityHeaders(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Run-ID")
	})
}

func TestCompressionMiddleware(t *testing.T) {
	payload := strings.Repeat(`<node id="-1" lat="47.6" lon="-122.3"></node>`, 200)
	handler := CompressionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(payload))
	}))

	t.Run("compresses when accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
		reader, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer func() { _ = reader.Close() }()

		decompressed, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, payload, string(decompressed))
	})

	t.Run("plain when not accepted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, payload, rec.Body.String())
	})

	t.Run("small responses are not compressed", func(t *testing.T) {
		small := CompressionMiddleware(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		small.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, "test response", rec.Body.String())
	})
}

func TestRequestLoggingMiddleware(t *testing.T) {
	t.Run("logs request details", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

		req := httptest.NewRequest(http.MethodPost, "/api/convert?key=secret", nil)
		req.Header.Set("User-Agent", "test-client/1.0")
		rec := httptest.NewRecorder()
		NewRequestLoggingMiddleware(logger)(okHandler()).ServeHTTP(rec, req)

		output := buf.String()
		assert.Contains(t, output, `"msg":"http_request"`)
		assert.Contains(t, output, `"method":"POST"`)
		assert.Contains(t, output, `"path":"/api/convert"`)
		assert.Contains(t, output, `"status":200`)
		assert.Contains(t, output, `"bytes":13`)
		assert.Contains(t, output, `"user_agent":"test-client/1.0"`)
		assert.Contains(t, output, `"component":"http_server"`)
		assert.NotContains(t, output, "secret")
	})

	t.Run("assigns and propagates request id", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

		var inner string
		handler := NewRequestLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Info("inside")
			inner = w.Header().Get("X-Request-ID")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := rec.Header().Get("X-Request-ID")
		require.NotEmpty(t, id)
		assert.Equal(t, id, inner)
		assert.Equal(t, 2, strings.Count(buf.String(), `"request_id":"`+id+`"`))
	})

	t.Run("keeps client request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		NewRequestLoggingMiddleware(logging.NewStructuredLogger(io.Discard, slog.LevelInfo))(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("records error status", func(t *testing.T) {
		var buf bytes.Buffer
		api := createTestApi(t)
		api.Logger = logging.NewStructuredLogger(&buf, slog.LevelInfo)

		rec := httptest.NewRecorder()
		api.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/missing", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, buf.String(), `"status":404`)
	})
}
