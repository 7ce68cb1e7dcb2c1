package handler

import (
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

// MediaHandler serves stored profile photos.
type MediaHandler struct {
	users ports.UserService
}

func NewMediaHandler(users ports.UserService) *MediaHandler {
	return &MediaHandler{users: users}
}

// ProfilePhoto streams /media/profile-photos/:accountId/:file.
//
// @Summary      Download a profile photo
// @Tags         media
// @Produce      image/jpeg
// @Param        accountId  path  string  true  "Account ID"
// @Param        file       path  string  true  "File name"
// @Success      200
// @Failure      404  {object}  map[string]any
// @Router       /media/profile-photos/{accountId}/{file} [get]
func (h *MediaHandler) ProfilePhoto(c echo.Context) error {
	accountID, file := c.Param("accountId"), c.Param("file")
	if accountID == "" || file == "" || path.Base(file) != file || path.Base(accountID) != accountID {
		return domain.ErrPhotoNotFound
	}

	photo, err := h.users.OpenPhoto(c.Request().Context(), accountID+"/"+file)
	if err != nil {
		return err
	}
	defer photo.Body.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderCacheControl, "public, max-age=86400")
	if photo.Size > 0 {
		res.Header().Set(echo.HeaderContentLength, strconv.FormatInt(photo.Size, 10))
	}
	contentType := photo.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	res.Header().Set(echo.HeaderContentType, contentType)
	res.WriteHeader(http.StatusOK)
	_, err = io.Copy(res, photo.Body)
	return err
}
