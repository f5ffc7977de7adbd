package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailpos/internal/core/apperror"
	appctx "retailpos/internal/core/context"
	"retailpos/internal/infrastructure/storage/postgres"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	switch token {
	case "seller":
		return &appctx.UserContext{UserID: "u-seller", Role: "seller", Permissions: []string{"sales:view"}}, nil
	case "admin":
		return &appctx.UserContext{UserID: "u-admin", Role: "admin", IsAdmin: true}, nil
	}
	return nil, errors.New("bad token")
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), ErrorHandler())
	r.Any("/x", handlers...)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(apperror.NewInsufficientStock("p1", 5, 2))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, apperror.CodeInsufficientStock, body.Code)
	assert.EqualValues(t, 2, body.Details["available"])
}

func TestErrorHandlerHidesInternalDetails(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		c.Set("request_id", "req-1")
		_ = c.Error(errors.New("pq: connection refused"))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, apperror.CodeInternal, body.Code)
	assert.Equal(t, map[string]any{"request_id": "req-1"}, body.Details)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRecoveryRendersPanicAs500(t *testing.T) {
	r := newEngine(func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, decodeError(t, w).Code)
}

func TestAuthAndPermissions(t *testing.T) {
	r := newEngine(Auth(stubValidator{}), RequirePermission("sales:write"), func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetUserID(c.Request.Context()))
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, ""},
		{"missing permission", "Bearer seller", http.StatusForbidden, ""},
		{"admin holds everything", "Bearer admin", http.StatusOK, "u-admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestRequireAnyPermission(t *testing.T) {
	r := newEngine(Auth(stubValidator{}), RequireAnyPermission("articles:view", "sales:view"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer seller")
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)
}

func TestTraceSetsResponseHeaders(t *testing.T) {
	r := gin.New()
	r.Use(Trace())
	r.GET("/x", func(c *gin.Context) {
		assert.Equal(t, "req-42", appctx.GetRequestID(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := serve(r, req)

	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(HeaderTraceID))
}

type completed struct {
	status int
	body   string
}

type memIdempotency struct {
	hashes    map[string]string
	completed map[string]completed
	acquired  int
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{hashes: map[string]string{}, completed: map[string]completed{}}
}

func (m *memIdempotency) AcquireKey(_ context.Context, key, _, _, hash string) (*postgres.IdempotencyReplay, error) {
	m.acquired++
	if prev, ok := m.hashes[key]; ok {
		if prev != hash {
			return nil, apperror.NewConflict("idempotency key reused with a different request")
		}
		if done, ok := m.completed[key]; ok {
			return &postgres.IdempotencyReplay{StatusCode: done.status, Body: []byte(done.body)}, nil
		}
		return nil, apperror.NewConflict("request with this idempotency key is in progress")
	}
	m.hashes[key] = hash
	return nil, nil
}

func (m *memIdempotency) CompleteKey(_ context.Context, key string, status int, body []byte) error {
	if status >= http.StatusInternalServerError {
		delete(m.hashes, key)
		return nil
	}
	m.completed[key] = completed{status: status, body: string(body)}
	return nil
}

func TestIdempotencyReplaysCompletedRequest(t *testing.T) {
	store := newMemIdempotency()
	calls := 0
	r := newEngine(Idempotency(store), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})

	post := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
		req.Header.Set(HeaderIdempotencyKey, key)
		return serve(r, req)
	}

	first := post("k1", `{"a":1}`)
	second := post("k1", `{"a":1}`)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(HeaderIdempotentReplay))
	assert.Equal(t, 1, calls)

	mismatch := post("k1", `{"a":2}`)
	assert.Equal(t, http.StatusConflict, mismatch.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyStoresErrorResponses(t *testing.T) {
	store := newMemIdempotency()
	r := newEngine(Idempotency(store), func(c *gin.Context) {
		_ = c.Error(apperror.NewEmptyInvoice())
		c.Abort()
	})

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`))
	req.Header.Set(HeaderIdempotencyKey, "k2")
	w := serve(r, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, store.completed, "k2")
	assert.Equal(t, http.StatusBadRequest, store.completed["k2"].status)
	assert.Contains(t, store.completed["k2"].body, apperror.CodeEmptyInvoice)
}

func TestIdempotencyIgnoresRequestsWithoutKey(t *testing.T) {
	store := newMemIdempotency()
	r := newEngine(Idempotency(store), func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`)))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderIdempotencyKey, "k3")
	serve(r, req)

	assert.Zero(t, store.acquired)
}
