package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "storefront/internal/errors"
	"storefront/internal/middleware"
	"storefront/internal/response"
	"storefront/internal/service"
)

// UserHandler serves the signed-in user's account.
type UserHandler struct {
	svc     service.UserService
	cookies CookiePolicy
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, cookies CookiePolicy) *UserHandler {
	return &UserHandler{svc: svc, cookies: cookies}
}

// GetMe godoc
// @Summary Get the signed-in user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{result=response.Result{data=model.Profile}}
// @Failure 401 {object} response.Envelope
// @Router /users/me [get]
func (h *UserHandler) GetMe(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}
	return response.Success(c, http.StatusOK, "PROFILE_FETCHED_SUCCESSFULLY", user)
}

// DeleteMe godoc
// @Summary Deactivate the signed-in user
// @Description Soft-deletes the account and ends the session. Logging in again restores it.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /users/me [delete]
func (h *UserHandler) DeleteMe(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}
	if err := h.svc.Deactivate(c.Request().Context(), user.ID); err != nil {
		return err
	}
	h.cookies.Clear(c)
	return response.Success(c, http.StatusOK, "ACCOUNT_DEACTIVATED_SUCCESSFULLY", nil)
}
