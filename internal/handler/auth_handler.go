package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	apperrors "storefront/internal/errors"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/phone"
	"storefront/internal/response"
	"storefront/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	cookies     CookiePolicy
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookies CookiePolicy) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// PhoneRequest carries a phone number for login and resend.
type PhoneRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,indian_mobile" example:"+916123456789"`
}

// VerifyPhoneRequest represents a phone OTP verification request.
type VerifyPhoneRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,indian_mobile" example:"+916123456789"`
	OTP         string `json:"otp" validate:"required,numeric,max=10" example:"1234"`
}

// EmailRequest carries the email address an OTP is sent to.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email,max=255" example:"jane@example.com"`
}

// VerifyEmailRequest represents an email OTP verification request.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=255" example:"jane@example.com"`
	OTP   string `json:"otp" validate:"required,numeric,max=10" example:"1234"`
}

// RefreshTokenRequest carries a refresh token when no cookie is sent.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SessionResponse is returned after a successful phone verification.
type SessionResponse struct {
	User         model.Profile `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
}

// AccessTokenResponse is returned by the refresh endpoint.
type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login godoc
// @Summary Log in or register with a phone number
// @Description Creates the user on first login and texts a one-time code.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body PhoneRequest true "Phone number"
// @Success 200 {object} response.Envelope "OTP_SENT_SUCCESSFULLY"
// @Success 201 {object} response.Envelope "USER_REGISTERED_OTP_SENT"
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	phoneNumber, err := bindPhone(c)
	if err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), phoneNumber)
	if err != nil {
		return err
	}

	if result.Created {
		return response.Success(c, http.StatusCreated, "USER_REGISTERED_OTP_SENT", nil)
	}
	return response.Success(c, http.StatusOK, "OTP_SENT_SUCCESSFULLY", nil)
}

// ResendPhoneOTP godoc
// @Summary Resend the phone OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body PhoneRequest true "Phone number"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /auth/resend-otp-phone [post]
func (h *AuthHandler) ResendPhoneOTP(c echo.Context) error {
	phoneNumber, err := bindPhone(c)
	if err != nil {
		return err
	}

	if err := h.authService.SendPhoneOTP(c.Request().Context(), phoneNumber); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, "OTP_SENT_SUCCESSFULLY", nil)
}

// VerifyPhoneOTP godoc
// @Summary Verify the phone OTP and start a session
// @Description Sets the accessToken and refreshToken cookies. Any earlier session ends.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyPhoneRequest true "Phone number and code"
// @Success 201 {object} response.Envelope{result=response.Result{data=SessionResponse}}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/verify-otp-phone [post]
func (h *AuthHandler) VerifyPhoneOTP(c echo.Context) error {
	var req VerifyPhoneRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	phoneNumber, err := normalizePhone(req.PhoneNumber)
	if err != nil {
		return err
	}

	session, err := h.authService.VerifyPhoneOTP(c.Request().Context(), phoneNumber, req.OTP)
	if err != nil {
		return err
	}

	h.cookies.SetToken(c, auth.AccessToken, session.AccessToken)
	h.cookies.SetToken(c, auth.RefreshToken, session.RefreshToken)
	return response.Success(c, http.StatusCreated, "OTP_VERIFIED_SUCCESSFULLY", SessionResponse{
		User:         session.User,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	})
}

// SendEmailOTP godoc
// @Summary Attach an email and send it an OTP
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EmailRequest true "Email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /auth/send-otp-email [post]
func (h *AuthHandler) SendEmailOTP(c echo.Context) error {
	return h.sendEmailOTP(c)
}

// ResendEmailOTP godoc
// @Summary Resend the email OTP
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EmailRequest true "Email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /auth/resend-otp-email [post]
func (h *AuthHandler) ResendEmailOTP(c echo.Context) error {
	return h.sendEmailOTP(c)
}

func (h *AuthHandler) sendEmailOTP(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}
	var req EmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.SendEmailOTP(c.Request().Context(), user.ID, req.Email); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, "OTP_SENT_SUCCESSFULLY", nil)
}

// VerifyEmailOTP godoc
// @Summary Verify the email OTP
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VerifyEmailRequest true "Email and code"
// @Success 200 {object} response.Envelope{result=response.Result{data=model.Profile}}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/verify-otp-email [post]
func (h *AuthHandler) VerifyEmailOTP(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperrors.ErrUnauthorized
	}
	var req VerifyEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	profile, err := h.authService.VerifyEmailOTP(c.Request().Context(), user.ID, req.Email, req.OTP)
	if err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, "EMAIL_VERIFIED_SUCCESSFULLY", profile)
}

// Logout godoc
// @Summary Log out
// @Description Reads the refresh token from the cookie or the body. Without one the call succeeds and does nothing.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest false "Refresh token"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token, err := refreshTokenFrom(c)
	if err != nil {
		return err
	}

	h.cookies.Clear(c)
	if err := h.authService.Logout(c.Request().Context(), token); err != nil {
		return err
	}
	return response.Success(c, http.StatusOK, "LOGGED_OUT_SUCCESSFULLY", nil)
}

// RefreshAccessToken godoc
// @Summary Mint a new access token
// @Description The refresh token is not rotated.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest false "Refresh token"
// @Success 200 {object} response.Envelope{result=response.Result{data=AccessTokenResponse}}
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh-access-token [post]
func (h *AuthHandler) RefreshAccessToken(c echo.Context) error {
	token, err := refreshTokenFrom(c)
	if err != nil {
		return err
	}

	access, err := h.authService.RefreshAccessToken(c.Request().Context(), token)
	if err != nil {
		return err
	}

	h.cookies.SetToken(c, auth.AccessToken, access)
	return response.Success(c, http.StatusOK, "ACCESS_TOKEN_REFRESHED_SUCCESSFULLY", AccessTokenResponse{AccessToken: access})
}

func bindPhone(c echo.Context) (string, error) {
	var req PhoneRequest
	if err := bindAndValidate(c, &req); err != nil {
		return "", err
	}
	return normalizePhone(req.PhoneNumber)
}

func normalizePhone(raw string) (string, error) {
	normalized, err := phone.Normalize(raw)
	if err != nil {
		return "", apperrors.NewHTTPError(http.StatusBadRequest, "validation failed", apperrors.CodeValidation).
			WithData(map[string]string{"phoneNumber": "must be a valid 10-digit Indian mobile number"})
	}
	return normalized, nil
}

// refreshTokenFrom prefers the cookie and falls back to the body.
func refreshTokenFrom(c echo.Context) (string, error) {
	if token := tokenFromCookie(c, middleware.RefreshTokenCookie); token != "" {
		return token, nil
	}
	var req RefreshTokenRequest
	if err := bindOptional(c, &req); err != nil {
		return "", err
	}
	return req.RefreshToken, nil
}
