package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

type stubDirectory struct {
	lastCountry *int64
	lastRole    int64
	lastFilter  ports.AccessLogFilter
}

func (s *stubDirectory) Countries(context.Context) ([]domain.Country, error) {
	return []domain.Country{{ID: 1, Name: "Perú", ISOCode: "PER"}}, nil
}

func (s *stubDirectory) Subdivisions(_ context.Context, countryID *int64) ([]domain.Subdivision, error) {
	s.lastCountry = countryID
	return []domain.Subdivision{{ID: 1, CountryID: 1, Name: "Puno"}}, nil
}

func (s *stubDirectory) Roles(context.Context) ([]domain.RoleRecord, error) {
	return []domain.RoleRecord{{ID: 1, Name: domain.RoleAdmin}}, nil
}

func (s *stubDirectory) Permissions(context.Context) ([]domain.Permission, error) {
	return domain.BasePermissions, nil
}

func (s *stubDirectory) RolePermissions(_ context.Context, roleID int64) ([]domain.Permission, error) {
	s.lastRole = roleID
	if roleID != 1 {
		return nil, domain.ErrRoleNotFound
	}
	return domain.BasePermissions[:2], nil
}

func (s *stubDirectory) List(_ context.Context, filter ports.AccessLogFilter) (domain.Page[domain.AccessLogEntry], error) {
	s.lastFilter = filter
	return domain.NewPage([]domain.AccessLogEntry{{ID: "log-1", EventType: filter.EventType}}, 1, filter.Page.Normalize(20)), nil
}

func TestCatalogHandler(t *testing.T) {
	stub := &stubDirectory{}
	handler := NewCatalogHandler(stub)

	c, rec := newTestContext(http.MethodGet, "/api/catalogs/countries", nil)
	if err := handler.Countries(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("countries: %v %d", err, rec.Code)
	}

	c, _ = newTestContext(http.MethodGet, "/api/catalogs/subdivisions?country_id=1", nil)
	if err := handler.Subdivisions(c); err != nil {
		t.Fatalf("subdivisions: %v", err)
	}
	if stub.lastCountry == nil || *stub.lastCountry != 1 {
		t.Fatalf("country filter not parsed")
	}

	c, _ = newTestContext(http.MethodGet, "/api/catalogs/subdivisions", nil)
	if err := handler.Subdivisions(c); err != nil || stub.lastCountry != nil {
		t.Fatalf("expected unfiltered subdivisions, got %v", stub.lastCountry)
	}

	c, _ = newTestContext(http.MethodGet, "/api/catalogs/subdivisions?country_id=pe", nil)
	if err := handler.Subdivisions(c); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestRBACHandler_RolePermissions(t *testing.T) {
	stub := &stubDirectory{}
	handler := NewRBACHandler(stub)

	c, rec := newTestContext(http.MethodGet, "/api/rbac/roles/1/permissions", nil)
	c.SetParamNames("roleId")
	c.SetParamValues("1")
	if err := handler.RolePermissions(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("role permissions: %v %d", err, rec.Code)
	}

	c, _ = newTestContext(http.MethodGet, "/api/rbac/roles/7/permissions", nil)
	c.SetParamNames("roleId")
	c.SetParamValues("7")
	if err := handler.RolePermissions(c); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected role not found, got %v", err)
	}

	c, _ = newTestContext(http.MethodGet, "/api/rbac/roles/0/permissions", nil)
	c.SetParamNames("roleId")
	c.SetParamValues("0")
	if err := handler.RolePermissions(c); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestAccessLogHandler_List(t *testing.T) {
	stub := &stubDirectory{}
	handler := NewAccessLogHandler(stub)

	c, rec := newTestContext(http.MethodGet, "/api/access-logs?user_id=acc-1&event_type=logout&page=2", nil)
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.lastFilter.AccountID != "acc-1" || stub.lastFilter.EventType != domain.EventLogout || stub.lastFilter.Page.Page != 2 {
		t.Fatalf("unexpected filter: %+v", stub.lastFilter)
	}
	items := decodeBody(t, rec)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one entry, got %d", len(items))
	}
}
