package router

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"restopos/internal/errors"
	"restopos/internal/logging"
)

// httpErrorHandler renders every error as an ErrorResponse.
func httpErrorHandler(log logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := errors.ErrorResponse{Error: "internal server error", Code: errors.CodeInternal}

		var he *echo.HTTPError
		if stderrors.As(err, &he) {
			status = he.Code
			switch msg := he.Message.(type) {
			case errors.ErrorResponse:
				body = msg
			case string:
				body = errors.ErrorResponse{Error: msg, Code: codeForStatus(status)}
			default:
				body = errors.ErrorResponse{Error: http.StatusText(status), Code: codeForStatus(status)}
			}
			if status == http.StatusNotFound && body.Code == errors.CodeNotFound {
				body.Error = "Resource not found"
				log.Warn(c.Request().Context(), "route not found", "method", c.Request().Method, "path", c.Request().URL.Path)
			}
		} else {
			log.Error(c.Request().Context(), "unhandled error", "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error(c.Request().Context(), "write error response", "error", err)
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return errors.CodeNotFound
	case http.StatusUnauthorized:
		return errors.CodeUnauthorized
	case http.StatusTooManyRequests:
		return errors.CodeRateLimited
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return errors.CodeInvalidRequest
	default:
		return errors.CodeInternal
	}
}
