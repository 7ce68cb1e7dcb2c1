package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/service"
)

type stubRevocations struct {
	revoked map[string]bool
}

func (s stubRevocations) IsRevoked(_ context.Context, raw string) bool {
	return s.revoked[raw]
}

func newAuthContext(header string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthenticate_ValidToken(t *testing.T) {
	codec := service.NewTokenCodec("secret", time.Hour)
	token, _, err := codec.Issue("acc-1", domain.RoleSet{domain.RoleUser})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	c, rec := newAuthContext("Bearer " + token)
	called := false
	mw := Authenticate(codec, stubRevocations{})
	handler := mw(func(c echo.Context) error {
		called = true
		identity := IdentityFrom(c)
		if identity == nil || identity.AccountID != "acc-1" || !identity.Roles.Has(domain.RoleUser) {
			t.Fatalf("identity not set: %+v", identity)
		}
		if RawToken(c) != token {
			t.Fatalf("raw token not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	codec := service.NewTokenCodec("secret", time.Hour)
	token, _, err := codec.Issue("acc-1", domain.RoleSet{domain.RoleUser})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	other := service.NewTokenCodec("other-secret", time.Hour)
	forged, _, _ := other.Issue("acc-1", domain.RoleSet{domain.RoleAdmin})

	tests := []struct {
		name    string
		header  string
		revoked map[string]bool
		want    error
	}{
		{"missing header", "", nil, domain.ErrMissingToken},
		{"wrong scheme", "Token " + token, nil, domain.ErrMissingToken},
		{"empty bearer", "Bearer ", nil, domain.ErrMissingToken},
		{"bad signature", "Bearer " + forged, nil, domain.ErrInvalidSession},
		{"garbage", "Bearer not-a-jwt", nil, domain.ErrInvalidSession},
		{"revoked", "Bearer " + token, map[string]bool{token: true}, domain.ErrSessionRevoked},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newAuthContext(tc.header)
			mw := Authenticate(codec, stubRevocations{revoked: tc.revoked})
			handler := mw(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})
			if err := handler(c); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOptionalIdentity(t *testing.T) {
	codec := service.NewTokenCodec("secret", time.Hour)
	token, _, _ := codec.Issue("acc-1", domain.RoleSet{domain.RoleAdmin})

	tests := []struct {
		name    string
		header  string
		revoked map[string]bool
		want    string
	}{
		{"anonymous", "", nil, ""},
		{"valid", "Bearer " + token, nil, "acc-1"},
		{"invalid token", "Bearer nope", nil, ""},
		{"revoked token", "Bearer " + token, map[string]bool{token: true}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newAuthContext(tc.header)
			called := false
			mw := OptionalIdentity(codec, stubRevocations{revoked: tc.revoked})
			handler := mw(func(c echo.Context) error {
				called = true
				got := ""
				if id := IdentityFrom(c); id != nil {
					got = id.AccountID
				}
				if got != tc.want {
					t.Fatalf("expected identity %q, got %q", tc.want, got)
				}
				return nil
			})
			if err := handler(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if !called {
				t.Fatalf("next not called")
			}
		})
	}
}

func TestRequestMeta(t *testing.T) {
	c, _ := newAuthContext("")
	c.Request().Header.Set(echo.HeaderXForwardedFor, "203.0.113.7, 10.0.0.1")
	c.Request().Header.Set("User-Agent", "curl/8.0")

	meta := RequestMeta(c)
	if meta.IP != "203.0.113.7" || meta.UserAgent != "curl/8.0" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}
