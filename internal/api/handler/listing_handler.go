package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/capachica/turismo-api/internal/api/middleware"
	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

type ListingHandler struct {
	listings ports.ListingService
}

func NewListingHandler(listings ports.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// List returns approved listings; admins may filter by any status.
//
// @Summary      List emprendimientos
// @Tags         emprendimientos
// @Produce      json
// @Param        page            query     int     false  "Page (1-based)"
// @Param        limit           query     int     false  "Page size"
// @Param        status          query     string  false  "Status filter (admin only)"
// @Param        type            query     string  false  "Type filter"
// @Param        subdivision_id  query     int     false  "Subdivision filter"
// @Param        search          query     string  false  "Name or description search"
// @Success      200             {object}  domain.Page[domain.Listing]
// @Router       /api/emprendimientos [get]
func (h *ListingHandler) List(c echo.Context) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}
	subdivision, err := optionalInt64Query(c, "subdivision_id")
	if err != nil {
		return err
	}

	res, err := h.listings.List(c.Request().Context(), middleware.IdentityFrom(c), ports.ListingQuery{
		Status:        domain.ListingStatus(c.QueryParam("status")),
		Type:          domain.ListingType(c.QueryParam("type")),
		SubdivisionID: subdivision,
		Search:        c.QueryParam("search"),
		Page:          page,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Get returns one listing when the caller may see it.
//
// @Summary      Get an emprendimiento
// @Tags         emprendimientos
// @Produce      json
// @Param        id   path      string  true  "Emprendimiento ID"
// @Success      200  {object}  domain.Listing
// @Failure      404  {object}  map[string]any
// @Router       /api/emprendimientos/{id} [get]
func (h *ListingHandler) Get(c echo.Context) error {
	l, err := h.listings.Get(c.Request().Context(), c.Param("id"), middleware.IdentityFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

// Create registers a listing owned by the caller. It starts pending.
//
// @Summary      Create an emprendimiento
// @Tags         emprendimientos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createListingRequest  true  "Emprendimiento"
// @Success      201   {object}  domain.Listing
// @Failure      400   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Router       /api/emprendimientos [post]
func (h *ListingHandler) Create(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req createListingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	l, err := h.listings.Create(c.Request().Context(), identity, req.toInput(), middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, l)
}

// ListMine returns the caller's own listings in any status.
//
// @Summary      List my emprendimientos
// @Tags         emprendimientos
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page (1-based)"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  domain.Page[domain.Listing]
// @Router       /api/emprendimientos/my/list [get]
func (h *ListingHandler) ListMine(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	res, err := h.listings.ListMine(c.Request().Context(), identity, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Update changes a listing owned by the caller, or any listing for admins.
//
// @Summary      Update an emprendimiento
// @Tags         emprendimientos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Emprendimiento ID"
// @Param        body  body      updateListingRequest  true  "Fields to change"
// @Success      200   {object}  domain.Listing
// @Failure      403   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /api/emprendimientos/{id} [put]
func (h *ListingHandler) Update(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req updateListingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	l, err := h.listings.Update(c.Request().Context(), identity, c.Param("id"), req.toUpdate(), middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

// Delete removes a listing owned by the caller, or any listing for admins.
//
// @Summary      Delete an emprendimiento
// @Tags         emprendimientos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Emprendimiento ID"
// @Success      200  {object}  ports.MessageResult
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /api/emprendimientos/{id} [delete]
func (h *ListingHandler) Delete(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if err := h.listings.Delete(c.Request().Context(), identity, id, middleware.RequestMeta(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ports.MessageResult{Message: "Emprendimiento " + id + " deleted successfully"})
}

// ChangeStatus moderates a listing.
//
// @Summary      Change emprendimiento status
// @Tags         emprendimientos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Emprendimiento ID"
// @Param        body  body      statusRequest  true  "New status"
// @Success      200   {object}  ports.StatusChangeResult
// @Failure      400   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /api/emprendimientos/{id}/status [patch]
func (h *ListingHandler) ChangeStatus(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.listings.ChangeStatus(c.Request().Context(), identity, c.Param("id"),
		domain.ListingStatus(req.Status), req.Reason, middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// ListPending returns the moderation queue, oldest first.
//
// @Summary      List pending emprendimientos
// @Tags         emprendimientos
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page (1-based)"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  domain.Page[domain.Listing]
// @Router       /api/emprendimientos/admin/pending [get]
func (h *ListingHandler) ListPending(c echo.Context) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	res, err := h.listings.ListPending(c.Request().Context(), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
