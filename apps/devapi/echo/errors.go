package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
	"github.com/trezcool/masomo-console/storage/database"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "invalid credentials")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

type errorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler rendering every error as {message}.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code int
			resp errorResponse
			vErr *core.ValidationError
		)

		switch origErr := errors.Cause(err); {
		case errors.As(err, &vErr):
			code = http.StatusBadRequest
			resp.Message = vErr.Error()
			resp.Fields = vErr.FieldMap()
		case origErr == database.ErrRecordNotFound, origErr == user.ErrNotFound:
			code = http.StatusNotFound
			resp.Message = errHttpNotFound.Message.(string)
		case origErr == user.ErrInvalidCredentials:
			code = http.StatusBadRequest
			resp.Message = origErr.Error()
		default:
			if hErr, ok := origErr.(*echo.HTTPError); ok {
				if hErr == middleware.ErrJWTMissing {
					hErr = errUnauthorized
				} else if inner, ok := hErr.Internal.(*echo.HTTPError); ok {
					hErr = inner
				}
				code = hErr.Code
				resp.Message, _ = hErr.Message.(string)
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			resp.Message = http.StatusText(http.StatusInternalServerError)
			who, _ := principal(ctx)
			if logger != nil {
				logger.Error(resp.Message, errors.Wrap(err, resp.Message), who)
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			resp.Message = err.Error()
		}
		if resp.Message == "" {
			resp.Message = http.StatusText(code)
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
