package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/capachica/turismo-api/internal/api/middleware"
	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
	"github.com/capachica/turismo-api/internal/core/service"
)

const photoFormField = "photo"

type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the caller's profile.
//
// @Summary      Get my profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.UserProfile
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	p, err := h.users.Me(c.Request().Context(), identity.AccountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateMe changes the caller's profile and preferences.
//
// @Summary      Update my profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateMeRequest  true  "Fields to change"
// @Success      200   {object}  domain.UserProfile
// @Failure      400   {object}  map[string]any
// @Router       /api/users/me [put]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req updateMeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	person, err := req.toUpdate()
	if err != nil {
		return err
	}

	p, err := h.users.UpdateMe(c.Request().Context(), identity.AccountID, ports.ProfileUpdate{
		Preferences: req.Preferences,
		Person:      person,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// UploadMyPhoto replaces the caller's profile photo.
//
// @Summary      Upload my profile photo
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        photo  formData  file  true  "JPG, PNG or WebP up to 5MB"
// @Success      200    {object}  ports.PhotoResult
// @Failure      400    {object}  map[string]any
// @Router       /api/users/me/profile-photo [post]
func (h *UserHandler) UploadMyPhoto(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return h.uploadPhoto(c, identity, identity.AccountID)
}

// DeleteMyPhoto removes the caller's profile photo.
//
// @Summary      Delete my profile photo
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.MessageResult
// @Router       /api/users/me/profile-photo [delete]
func (h *UserHandler) DeleteMyPhoto(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return h.removePhoto(c, identity, identity.AccountID)
}

// List returns accounts, optionally filtered by email and state.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email   query     string  false  "Email contains"
// @Param        active  query     bool    false  "Active state"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  domain.Page[domain.UserProfile]
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}
	filter := ports.AccountFilter{EmailContains: c.QueryParam("email"), Page: page}
	if raw := c.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.BadRequest("active must be true or false")
		}
		filter.Active = &active
	}

	res, err := h.users.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Get returns one user profile.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  domain.UserProfile
// @Failure      404  {object}  map[string]any
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	p, err := h.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Update changes any user as an administrator.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                  true  "User ID"
// @Param        body  body      adminUpdateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.UserProfile
// @Failure      409   {object}  map[string]any
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req adminUpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	person, err := req.toUpdate()
	if err != nil {
		return err
	}

	p, err := h.users.UpdateByAdmin(c.Request().Context(), identity, c.Param("id"), ports.AdminUserUpdate{
		Email:       req.Email,
		Active:      req.Active,
		Preferences: req.Preferences,
		Person:      person,
	}, middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Deactivate soft-deletes a user.
//
// @Summary      Deactivate a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  ports.MessageResult
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Deactivate(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	res, err := h.users.Deactivate(c.Request().Context(), identity, c.Param("id"), middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// UploadPhoto replaces the profile photo of any user.
//
// @Summary      Upload a user's profile photo
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true  "User ID"
// @Param        photo  formData  file    true  "JPG, PNG or WebP up to 5MB"
// @Success      200    {object}  ports.PhotoResult
// @Router       /api/users/{id}/profile-photo [post]
func (h *UserHandler) UploadPhoto(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return h.uploadPhoto(c, identity, c.Param("id"))
}

// DeletePhoto removes the profile photo of any user.
//
// @Summary      Delete a user's profile photo
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  ports.MessageResult
// @Router       /api/users/{id}/profile-photo [delete]
func (h *UserHandler) DeletePhoto(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return h.removePhoto(c, identity, c.Param("id"))
}

// AssignRole grants a role to a user.
//
// @Summary      Assign a role
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "User ID"
// @Param        roleId  path      int     true  "Role ID"
// @Success      200     {object}  ports.MessageResult
// @Failure      404     {object}  map[string]any
// @Router       /api/users/{id}/roles/{roleId} [post]
func (h *UserHandler) AssignRole(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	roleID, err := int64Param(c, "roleId")
	if err != nil {
		return err
	}
	res, err := h.users.AssignRole(c.Request().Context(), identity, c.Param("id"), roleID, middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// RemoveRole revokes a role from a user.
//
// @Summary      Remove a role
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "User ID"
// @Param        roleId  path      int     true  "Role ID"
// @Success      200     {object}  ports.MessageResult
// @Failure      404     {object}  map[string]any
// @Router       /api/users/{id}/roles/{roleId} [delete]
func (h *UserHandler) RemoveRole(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	roleID, err := int64Param(c, "roleId")
	if err != nil {
		return err
	}
	res, err := h.users.RemoveRole(c.Request().Context(), identity, c.Param("id"), roleID, middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *UserHandler) uploadPhoto(c echo.Context, actor domain.Identity, id string) error {
	fh, err := c.FormFile(photoFormField)
	if err != nil {
		return service.ErrPhotoEmpty
	}
	if fh.Size > service.MaxPhotoBytes {
		return service.ErrPhotoSize
	}
	f, err := fh.Open()
	if err != nil {
		return service.ErrPhotoEmpty
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxPhotoBytes+1))
	if err != nil {
		return err
	}

	res, err := h.users.UploadPhoto(c.Request().Context(), actor, id, ports.PhotoUpload{
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *UserHandler) removePhoto(c echo.Context, actor domain.Identity, id string) error {
	res, err := h.users.RemovePhoto(c.Request().Context(), actor, id, middleware.RequestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
