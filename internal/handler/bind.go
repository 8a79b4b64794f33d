// Package handler holds the HTTP handlers. Handlers bind and validate input,
// call one service operation and render the envelope. Errors are returned to
// the echo error handler.
package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "storefront/internal/errors"
)

var errMissingBody = apperrors.NewHTTPError(http.StatusBadRequest, "request body is required", apperrors.CodeMissingBody)

// bindAndValidate requires a JSON body, binds it into req and validates it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if c.Request().ContentLength == 0 {
		return errMissingBody
	}
	if err := c.Bind(req); err != nil {
		return apperrors.NewHTTPError(http.StatusBadRequest, "invalid request body", apperrors.CodeValidation)
	}
	return c.Validate(req)
}

// bindOptional binds a body when one was sent.
func bindOptional(c echo.Context, req interface{}) error {
	if c.Request().ContentLength == 0 {
		return nil
	}
	if err := c.Bind(req); err != nil {
		return apperrors.NewHTTPError(http.StatusBadRequest, "invalid request body", apperrors.CodeValidation)
	}
	return nil
}

func paramUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.NewHTTPError(http.StatusBadRequest, "validation failed", apperrors.CodeValidation).
			WithData(map[string]string{name: "must be a valid UUID"})
	}
	return id, nil
}
