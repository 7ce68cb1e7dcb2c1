package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/capachica/turismo-api/internal/core/domain"
)

const internalErrorMessage = "Internal Server Error"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps operational domain errors to the status of their kind.
//   - Logs unexpected errors and, in production, hides their text.
//   - Renders a consistent JSON envelope: {"code": 404, "message": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := resolveError(err, production)
		if resp.Code >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(resp.Code)
			return
		}
		_ = c.JSON(resp.Code, resp)
	}
}

func resolveError(err error, production bool) errorResponse {
	// Echo's own errors (bind failures, 404 from router, rate limiting, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = fmt.Sprintf("%v", he.Message)
		}
		if he.Code >= http.StatusInternalServerError && production {
			msg = internalErrorMessage
		}
		return errorResponse{Code: he.Code, Message: msg}
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return errorResponse{Code: statusForKind(de.Kind), Message: de.Message}
	}

	if production {
		return errorResponse{Code: http.StatusInternalServerError, Message: internalErrorMessage}
	}
	return errorResponse{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
		Detail:  rootCause(err).Error(),
	}
}

func statusForKind(kind error) int {
	switch {
	case errors.Is(kind, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(kind, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// rootCause follows single-error Unwrap chains to the innermost error.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
