// Package response renders every API result in one envelope:
// {status, statusCode, result: {message, data}, time}.
package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	apperrors "storefront/internal/errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result holds the localized message and the payload.
type Result struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Envelope is the body of every response. Time is Unix milliseconds.
type Envelope struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Result     Result `json:"result"`
	Time       int64  `json:"time"`
}

func build(c echo.Context, status string, statusCode int, code string, data any) Envelope {
	if data == nil {
		data = ""
	}
	return Envelope{
		Status:     status,
		StatusCode: statusCode,
		Result: Result{
			Message: defaultCatalog.Message(c.Request().Header.Get("Accept-Language"), code, statusCode),
			Data:    data,
		},
		Time: time.Now().UnixMilli(),
	}
}

// Success writes a success envelope with the message for code.
func Success(c echo.Context, statusCode int, code string, data any) error {
	return c.JSON(statusCode, build(c, StatusSuccess, statusCode, code, data))
}

// Error writes an error envelope for an HTTP error.
func Error(c echo.Context, httpErr *apperrors.HTTPError) error {
	return c.JSON(httpErr.StatusCode, build(c, StatusError, httpErr.StatusCode, httpErr.Code, httpErr.Data))
}

// HTTPErrorHandler is installed as echo's error handler. Domain errors map
// through apperrors; framework errors (unknown route, wrong method, body
// limit) get their own codes. Server-side failures are logged.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	httpErr := toHTTPError(err)
	if apperrors.IsInternal(httpErr) {
		c.Logger().Errorj(log.JSON{
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			"method":     c.Request().Method,
			"uri":        c.Request().RequestURI,
			"error":      err.Error(),
		})
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(httpErr.StatusCode)
	} else {
		writeErr = Error(c, httpErr)
	}
	if writeErr != nil {
		c.Logger().Error(writeErr)
	}
}

func toHTTPError(err error) *apperrors.HTTPError {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		switch echoErr.Code {
		case http.StatusNotFound:
			return apperrors.NewHTTPError(echoErr.Code, "route not found", apperrors.CodeRouteNotFound)
		case http.StatusMethodNotAllowed:
			return apperrors.NewHTTPError(echoErr.Code, "method not allowed", apperrors.CodeMethodNotAllowed)
		case http.StatusRequestEntityTooLarge:
			return apperrors.NewHTTPError(echoErr.Code, "payload too large", apperrors.CodePayloadTooLarge)
		case http.StatusBadRequest:
			return apperrors.NewHTTPError(echoErr.Code, "bad request", apperrors.CodeValidation)
		case http.StatusUnauthorized:
			return apperrors.MapErrorToHTTP(apperrors.ErrUnauthorized)
		case http.StatusForbidden:
			return apperrors.MapErrorToHTTP(apperrors.ErrForbidden)
		default:
			return apperrors.NewHTTPError(echoErr.Code, http.StatusText(echoErr.Code), "")
		}
	}
	return apperrors.MapErrorToHTTP(err)
}
