package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/capachica/turismo-api/internal/api/handler"
	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/service"
)

type noRevocations struct{}

func (noRevocations) IsRevoked(context.Context, string) bool { return false }

type stubCatalogs struct{}

func (stubCatalogs) Countries(context.Context) ([]domain.Country, error) {
	return []domain.Country{{ID: 1, Name: "Perú", ISOCode: "PER"}}, nil
}

func (stubCatalogs) Subdivisions(context.Context, *int64) ([]domain.Subdivision, error) {
	return []domain.Subdivision{}, nil
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 30 * time.Second, nil
}

func newTestRouter(t *testing.T) (*echo.Echo, *service.TokenCodec) {
	t.Helper()
	codec := service.NewTokenCodec("router-secret", time.Hour)
	e := NewRouter(Dependencies{
		Catalogs:    stubCatalogs{},
		Tokens:      codec,
		Revocations: noRevocations{},
		Limiter:     denyAll{},
		Readiness: map[string]handler.PingFunc{
			"mongodb": func(context.Context) error { return nil },
		},
	}, Options{
		Production:   true,
		AllowOrigins: []string{"http://localhost:5173"},
		Log:          zerolog.Nop(),
		Registry:     prometheus.NewRegistry(),
	})
	return e, codec
}

func serve(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_AccessControl(t *testing.T) {
	e, codec := newTestRouter(t)
	userToken, _, err := codec.Issue("acc-1", domain.RoleSet{domain.RoleUser})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	tests := []struct {
		name   string
		method string
		target string
		token  string
		code   int
		msg    string
	}{
		{"public catalog", http.MethodGet, "/api/catalogs/countries", "", http.StatusOK, ""},
		{"liveness", http.MethodGet, "/health", "", http.StatusOK, ""},
		{"readiness", http.MethodGet, "/health/ready", "", http.StatusOK, ""},
		{"missing token", http.MethodGet, "/api/users/me", "", http.StatusUnauthorized, "Authentication token missing"},
		{"bad token", http.MethodGet, "/api/users/me", "garbage", http.StatusUnauthorized, "Invalid or expired token"},
		{"admin only", http.MethodGet, "/api/rbac/roles", userToken, http.StatusForbidden, "You do not have permission to perform this action"},
		{"entrepreneur only", http.MethodPost, "/api/emprendimientos", userToken, http.StatusForbidden, "You do not have permission to perform this action"},
		{"pending queue", http.MethodGet, "/api/emprendimientos/admin/pending", userToken, http.StatusForbidden, "You do not have permission to perform this action"},
		{"unknown route", http.MethodGet, "/api/nope", "", http.StatusNotFound, "Not Found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(e, tc.method, tc.target, tc.token)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d (%s)", tc.code, rec.Code, rec.Body.String())
			}
			if tc.msg == "" {
				return
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Code != tc.code || resp.Message != tc.msg {
				t.Fatalf("unexpected envelope: %+v", resp)
			}
		})
	}
}

func TestRouter_RateLimitsCredentialEndpoints(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := serve(e, http.MethodPost, "/api/auth/login", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderRetryAfter) != "30" {
		t.Fatalf("expected Retry-After 30, got %q", rec.Header().Get(echo.HeaderRetryAfter))
	}
}

func TestRouter_RequestIDAndMetrics(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := serve(e, http.MethodGet, "/api/catalogs/countries", "")
	if id := rec.Header().Get(echo.HeaderXRequestID); len(id) != 26 {
		t.Fatalf("expected ULID request id, got %q", id)
	}

	rec = serve(e, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics endpoint, got %d", rec.Code)
	}
}
