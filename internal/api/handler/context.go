package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/capachica/turismo-api/internal/api/middleware"
	"github.com/capachica/turismo-api/internal/core/domain"
)

// currentIdentity returns the authenticated caller. Routes behind
// Authenticate always have one; the check guards against miswired routes.
func currentIdentity(c echo.Context) (domain.Identity, error) {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return domain.Identity{}, domain.ErrAuthenticationRequired
	}
	return *identity, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.BadRequest("Invalid request body")
	}
	return c.Validate(req)
}

// pageFromQuery reads ?page=&limit=. Clamping is left to the services.
func pageFromQuery(c echo.Context) (domain.PageRequest, error) {
	var p domain.PageRequest
	var err error
	if p.Page, err = optionalIntQuery(c, "page"); err != nil {
		return p, err
	}
	if p.Limit, err = optionalIntQuery(c, "limit"); err != nil {
		return p, err
	}
	return p, nil
}

func optionalIntQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.BadRequest(name + " must be an integer")
	}
	return n, nil
}

func optionalInt64Query(c echo.Context, name string) (*int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.BadRequest(name + " must be an integer")
	}
	return &n, nil
}

func int64Param(c echo.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n <= 0 {
		return 0, domain.BadRequest(name + " must be a positive integer")
	}
	return n, nil
}
