package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// syncBuffer is a bytes.Buffer safe for the parallel subtests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func jsonLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func TestIDMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		middleware gin.HandlerFunc
		header     string
		fromGin    func(*gin.Context) string
		fromCtx    func(context.Context) string
		incomingID string
	}{
		{
			name:       "request ID generated",
			middleware: RequestID(),
			header:     HeaderRequestID,
			fromGin:    GetRequestID,
			fromCtx:    RequestIDFromContext,
		},
		{
			name:       "request ID passed through",
			middleware: RequestID(),
			header:     HeaderRequestID,
			fromGin:    GetRequestID,
			fromCtx:    RequestIDFromContext,
			incomingID: "existing-req-123",
		},
		{
			name:       "correlation ID generated",
			middleware: CorrelationID(),
			header:     HeaderCorrelationID,
			fromGin:    GetCorrelationID,
			fromCtx:    CorrelationIDFromContext,
		},
		{
			name:       "correlation ID passed through",
			middleware: CorrelationID(),
			header:     HeaderCorrelationID,
			fromGin:    GetCorrelationID,
			fromCtx:    CorrelationIDFromContext,
			incomingID: "upstream-corr-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ginID, ctxID string

			router := gin.New()
			router.Use(tt.middleware)
			router.GET("/test", func(c *gin.Context) {
				ginID = tt.fromGin(c)
				ctxID = tt.fromCtx(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.incomingID != "" {
				req.Header.Set(tt.header, tt.incomingID)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)

			echoed := w.Header().Get(tt.header)
			assert.NotEmpty(t, echoed)
			assert.Equal(t, echoed, ginID)
			assert.Equal(t, echoed, ctxID)

			if tt.incomingID != "" {
				assert.Equal(t, tt.incomingID, echoed)
				return
			}

			_, err := uuid.Parse(echoed)
			assert.NoError(t, err, "generated ID should be a UUID")
		})
	}
}

func TestIDMiddleware_EnrichesContextLogger(t *testing.T) {
	t.Parallel()

	logger, buf := jsonLogger()

	router := gin.New()
	router.Use(ContextLogger(logger), RequestID(), CorrelationID())
	router.GET("/test", func(c *gin.Context) {
		logging.FromContext(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set(HeaderCorrelationID, "corr-1")

	router.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"correlation_id":"corr-1"`)
}

func TestGetIDs_NotSet(t *testing.T) {
	t.Parallel()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Empty(t, GetRequestID(c))
	assert.Empty(t, GetCorrelationID(c))

	c.Set(ContextKeyRequestID, 42)
	assert.Empty(t, GetRequestID(c), "non-string value is ignored")

	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
		wantPath  string
		skipped   bool
	}{
		{name: "success at info", path: "/api/v1/quotes", status: http.StatusOK, wantLevel: "INFO", wantPath: "/api/v1/quotes"},
		{name: "query string kept", path: "/api/v1/quotes?limit=2", status: http.StatusOK, wantLevel: "INFO", wantPath: "/api/v1/quotes?limit=2"},
		{name: "client error at warn", path: "/api/v1/quotes", status: http.StatusBadRequest, wantLevel: "WARN"},
		{name: "server error at error", path: "/api/v1/quotes", status: http.StatusBadGateway, wantLevel: "ERROR"},
		{name: "health paths skipped", path: "/-/ready", status: http.StatusOK, skipped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, buf := jsonLogger()

			router := gin.New()
			router.Use(Logging(logger))
			router.GET(strings.SplitN(tt.path, "?", 2)[0], func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.status, w.Code)

			if tt.skipped {
				assert.Empty(t, buf.String())
				return
			}

			var entry map[string]any
			require.NoError(t, json.Unmarshal([]byte(buf.String()), &entry))

			assert.Equal(t, "request completed", entry["msg"])
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.InDelta(t, float64(tt.status), entry["status"], 0)

			if tt.wantPath != "" {
				assert.Equal(t, tt.wantPath, entry["path"])
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	t.Run("panic becomes 500 envelope", func(t *testing.T) {
		t.Parallel()

		logger, buf := jsonLogger()

		router := gin.New()
		router.Use(Recovery(logger))
		router.GET("/panic", func(*gin.Context) {
			panic("boom")
		})

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		req.Header.Set(HeaderRequestID, "req-panic")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusInternalServerError, w.Code)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrorCodeInternal, resp.Error.Code)
		assert.Equal(t, "req-panic", resp.TraceID)

		assert.Contains(t, buf.String(), "panic recovered")
		assert.Contains(t, buf.String(), "boom")
	})

	t.Run("no panic passes through", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Recovery(slog.New(slog.NewTextHandler(io.Discard, nil))))
		router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("panic after write keeps status", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Recovery(slog.New(slog.NewTextHandler(io.Discard, nil))))
		router.GET("/late", func(c *gin.Context) {
			c.String(http.StatusOK, "partial")
			panic("late")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/late", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "partial", w.Body.String())
	})
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("sets context deadline", func(t *testing.T) {
		t.Parallel()

		var deadline time.Time
		var hasDeadline bool

		router := gin.New()
		router.Use(Timeout(time.Minute))
		router.GET("/test", func(c *gin.Context) {
			deadline, hasDeadline = c.Request.Context().Deadline()
			c.Status(http.StatusOK)
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

		require.True(t, hasDeadline)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	})

	t.Run("zero disables", func(t *testing.T) {
		t.Parallel()

		var hasDeadline bool

		router := gin.New()
		router.Use(Timeout(0))
		router.GET("/test", func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.False(t, hasDeadline)
	})

	t.Run("handler sees expiry", func(t *testing.T) {
		t.Parallel()

		var ctxErr error

		router := gin.New()
		router.Use(Timeout(10 * time.Millisecond))
		router.GET("/slow", func(c *gin.Context) {
			<-c.Request.Context().Done()
			ctxErr = c.Request.Context().Err()
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))

		assert.ErrorIs(t, ctxErr, context.DeadlineExceeded)
	})
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantErr  bool
		wantRead int
	}{
		{name: "under limit", body: "0123", wantRead: 4},
		{name: "at limit", body: "01234567", wantRead: 8},
		{name: "over limit", body: "0123456789", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var readErr error
			var read int

			router := gin.New()
			router.Use(BodyLimit(8))
			router.POST("/upload", func(c *gin.Context) {
				data, err := io.ReadAll(c.Request.Body)
				read, readErr = len(data), err
				c.Status(http.StatusOK)
			})

			router.ServeHTTP(httptest.NewRecorder(),
				httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(tt.body)))

			if tt.wantErr {
				var tooLarge *http.MaxBytesError
				assert.True(t, errors.As(readErr, &tooLarge))

				return
			}

			require.NoError(t, readErr)
			assert.Equal(t, tt.wantRead, read)
		})
	}
}

func TestMiddlewareChain(t *testing.T) {
	t.Parallel()

	logger, buf := jsonLogger()

	router := gin.New()
	router.Use(Recovery(logger), ContextLogger(logger), RequestID(), CorrelationID(), Logging(logger))
	router.GET("/api/v1/view", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/view", nil)
	req.Header.Set(HeaderCorrelationID, "corr-chain")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Equal(t, "corr-chain", w.Header().Get(HeaderCorrelationID))

	out := buf.String()
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, `"correlation_id":"corr-chain"`)
	assert.Contains(t, out, `"request_id":"`+w.Header().Get(HeaderRequestID)+`"`)
}
