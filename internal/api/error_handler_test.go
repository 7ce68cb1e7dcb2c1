package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/capachica/turismo-api/internal/core/domain"
)

func runErrorHandler(t *testing.T, err error, production bool) (int, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop(), production)(err, c)

	var resp errorResponse
	if jerr := json.Unmarshal(rec.Body.Bytes(), &resp); jerr != nil {
		t.Fatalf("invalid json: %v (%s)", jerr, rec.Body.String())
	}
	return rec.Code, resp
}

func TestErrorHandler_DomainKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"bad request", domain.ErrInvalidResetToken, http.StatusBadRequest, "Invalid or expired password reset token"},
		{"unauthorized", domain.ErrMissingToken, http.StatusUnauthorized, "Authentication token missing"},
		{"forbidden", domain.ErrInsufficientRole, http.StatusForbidden, "You do not have permission to perform this action"},
		{"not found", domain.ErrListingNotFound, http.StatusNotFound, "Emprendimiento not found"},
		{"conflict", domain.ErrEmailTaken, http.StatusConflict, "Email is already registered"},
		{"wrapped", fmt.Errorf("load: %w", domain.ErrAccountNotFound), http.StatusNotFound, "User not found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, resp := runErrorHandler(t, tc.err, true)
			if code != tc.code || resp.Code != tc.code {
				t.Fatalf("expected %d, got status %d body %d", tc.code, code, resp.Code)
			}
			if resp.Message != tc.msg {
				t.Fatalf("expected message %q, got %q", tc.msg, resp.Message)
			}
		})
	}
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	code, resp := runErrorHandler(t, echo.NewHTTPError(http.StatusTooManyRequests, "slow down"), true)
	if code != http.StatusTooManyRequests || resp.Message != "slow down" {
		t.Fatalf("unexpected response: %d %+v", code, resp)
	}
}

func TestErrorHandler_UnexpectedError(t *testing.T) {
	err := fmt.Errorf("list users: %w", errors.New("connection refused"))

	code, resp := runErrorHandler(t, err, true)
	if code != http.StatusInternalServerError || resp.Message != internalErrorMessage || resp.Detail != "" {
		t.Fatalf("production must mask internal errors, got %d %+v", code, resp)
	}

	code, resp = runErrorHandler(t, err, false)
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if resp.Message != "list users: connection refused" || resp.Detail != "connection refused" {
		t.Fatalf("development must expose the error chain, got %+v", resp)
	}
}
