package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

type CatalogHandler struct {
	catalogs ports.CatalogService
}

func NewCatalogHandler(catalogs ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogs: catalogs}
}

// Countries lists every country.
//
// @Summary      List countries
// @Tags         catalogs
// @Produce      json
// @Success      200  {array}  domain.Country
// @Router       /api/catalogs/countries [get]
func (h *CatalogHandler) Countries(c echo.Context) error {
	res, err := h.catalogs.Countries(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Subdivisions lists subdivisions, optionally of one country.
//
// @Summary      List subdivisions
// @Tags         catalogs
// @Produce      json
// @Param        country_id  query    int  false  "Country filter"
// @Success      200         {array}  domain.Subdivision
// @Router       /api/catalogs/subdivisions [get]
func (h *CatalogHandler) Subdivisions(c echo.Context) error {
	countryID, err := optionalInt64Query(c, "country_id")
	if err != nil {
		return err
	}
	res, err := h.catalogs.Subdivisions(c.Request().Context(), countryID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

type RBACHandler struct {
	rbac ports.RBACService
}

func NewRBACHandler(rbac ports.RBACService) *RBACHandler {
	return &RBACHandler{rbac: rbac}
}

// Roles lists the provisioned roles.
//
// @Summary      List roles
// @Tags         rbac
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.RoleRecord
// @Router       /api/rbac/roles [get]
func (h *RBACHandler) Roles(c echo.Context) error {
	res, err := h.rbac.Roles(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Permissions lists the provisioned permissions.
//
// @Summary      List permissions
// @Tags         rbac
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Permission
// @Router       /api/rbac/permissions [get]
func (h *RBACHandler) Permissions(c echo.Context) error {
	res, err := h.rbac.Permissions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// RolePermissions lists the permissions granted to one role.
//
// @Summary      List permissions of a role
// @Tags         rbac
// @Produce      json
// @Security     BearerAuth
// @Param        roleId  path     int  true  "Role ID"
// @Success      200     {array}  domain.Permission
// @Failure      404     {object}  map[string]any
// @Router       /api/rbac/roles/{roleId}/permissions [get]
func (h *RBACHandler) RolePermissions(c echo.Context) error {
	roleID, err := int64Param(c, "roleId")
	if err != nil {
		return err
	}
	res, err := h.rbac.RolePermissions(c.Request().Context(), roleID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

type AccessLogHandler struct {
	logs ports.AccessLogService
}

func NewAccessLogHandler(logs ports.AccessLogService) *AccessLogHandler {
	return &AccessLogHandler{logs: logs}
}

// List pages through the access log, newest first.
//
// @Summary      List access logs
// @Tags         access-logs
// @Produce      json
// @Security     BearerAuth
// @Param        user_id     query     string  false  "Account filter"
// @Param        event_type  query     string  false  "Event filter"
// @Param        page        query     int     false  "Page (1-based)"
// @Param        limit       query     int     false  "Page size"
// @Success      200         {object}  domain.Page[domain.AccessLogEntry]
// @Router       /api/access-logs [get]
func (h *AccessLogHandler) List(c echo.Context) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}
	res, err := h.logs.List(c.Request().Context(), ports.AccessLogFilter{
		AccountID: c.QueryParam("user_id"),
		EventType: domain.EventType(c.QueryParam("event_type")),
		Page:      page,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
