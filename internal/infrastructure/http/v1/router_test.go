package v1

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailpos/internal/core/apperror"
	appctx "retailpos/internal/core/context"
	"retailpos/internal/core/security"
	"retailpos/internal/domain/catalogs/currency"
	"retailpos/internal/domain/settings"
	"retailpos/internal/infrastructure/http/v1/middleware"
	"retailpos/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tokenValidator struct{}

func (tokenValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if !security.IsValidRole(token) {
		return nil, errors.New("unknown token")
	}
	return &appctx.UserContext{
		UserID:      "user-" + token,
		Role:        token,
		Permissions: security.PermissionsFor(token),
		IsAdmin:     token == security.RoleAdmin,
	}, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type memSettings map[string]string

func (m memSettings) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}
func (m memSettings) Set(_ context.Context, key, value string) error { m[key] = value; return nil }
func (m memSettings) All(context.Context) (map[string]string, error) { return maps.Clone(m), nil }

type memRates map[string]currency.Rate

func (m memRates) Get(_ context.Context, code string) (*currency.Rate, error) {
	r, ok := m[code]
	if !ok {
		return nil, apperror.NewNotFound("currency", code)
	}
	return &r, nil
}
func (m memRates) Upsert(_ context.Context, r *currency.Rate) error { m[r.Code] = *r; return nil }
func (m memRates) List(context.Context) ([]currency.Rate, error) {
	out := make([]currency.Rate, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	return out, nil
}

func newTestRouter(db error) (*gin.Engine, memSettings) {
	store := memSettings{}
	r := NewRouter(RouterConfig{
		Logger:       logger.Nop(),
		Environment:  "test",
		Version:      "test",
		Database:     pinger{err: db},
		JWTValidator: tokenValidator{},
		Currencies:   currency.NewService(memRates{}),
		Settings:     settings.NewService(store),
	})
	return r, store
}

func do(r *gin.Engine, method, path, role, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestHealthProbes(t *testing.T) {
	r, _ := newTestRouter(nil)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health/ready", "", "").Code)

	down, _ := newTestRouter(errors.New("dial tcp: refused"))
	assert.Equal(t, http.StatusServiceUnavailable, do(down, http.MethodGet, "/health/ready", "", "").Code)
}

func TestRoutesRequireAuthentication(t *testing.T) {
	r, _ := newTestRouter(nil)
	for _, path := range []string{"/api/v1/sales", "/api/v1/products", "/api/v1/reports/kpis", "/api/v1/auth/me"} {
		w := do(r, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, apperror.CodeUnauthorized, errorCode(t, w), path)
	}
}

func TestRolePermissionsOnRoutes(t *testing.T) {
	r, _ := newTestRouter(nil)

	tests := []struct {
		method, path, role string
	}{
		{http.MethodGet, "/api/v1/reports/kpis", security.RoleSeller},
		{http.MethodPost, "/api/v1/purchases", security.RoleSeller},
		{http.MethodPost, "/api/v1/inventory/adjustments", security.RoleSeller},
		{http.MethodPut, "/api/v1/settings", security.RoleManager},
		{http.MethodPost, "/api/v1/users", security.RoleManager},
	}
	for _, tt := range tests {
		w := do(r, tt.method, tt.path, tt.role, `{}`)
		assert.Equal(t, http.StatusForbidden, w.Code, tt.path)
		assert.Equal(t, apperror.CodeForbidden, errorCode(t, w), tt.path)
	}
}

func TestInvalidBodiesAreRejectedBeforeTheService(t *testing.T) {
	r, _ := newTestRouter(nil)

	w := do(r, http.MethodPost, "/api/v1/products", security.RoleAdmin, `{"currencyCode":"usd$"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, errorCode(t, w))

	w = do(r, http.MethodGet, "/api/v1/sales?from=yesterday", security.RoleSeller, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/products/not-a-uuid", security.RoleSeller, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	r, store := newTestRouter(nil)

	w := do(r, http.MethodPut, "/api/v1/settings", security.RoleAdmin,
		`{"values":{"`+settings.KeyCompanyName+`":"ACME"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ACME", store[settings.KeyCompanyName])

	w = do(r, http.MethodGet, "/api/v1/settings/"+settings.KeyCompanyName, security.RoleManager, "")
	require.Equal(t, http.StatusOK, w.Code)
	var entry settings.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, "ACME", entry.Value)

	w = do(r, http.MethodGet, "/api/v1/settings/unknown_key", security.RoleManager, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCurrencyRatesAndConversion(t *testing.T) {
	r, _ := newTestRouter(nil)

	w := do(r, http.MethodPut, "/api/v1/currencies/ves", security.RoleAdmin, `{"rateToUsd":"36.5"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/v1/currencies/convert?amount=10&from=USD&to=VES", security.RoleSeller, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Converted string `json:"converted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "365", out.Converted)

	w = do(r, http.MethodGet, "/api/v1/currencies/convert?amount=10&to=EUR", security.RoleSeller, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeInvalidCurrency, errorCode(t, w))
}
