// Package middleware holds the echo middleware specific to this service.
package middleware

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/service"
)

const (
	// AccessTokenCookie and RefreshTokenCookie carry the session.
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	claimsKey = "tokenClaims"
	userKey   = "currentUser"
)

// Authenticate accepts an access token from the accessToken cookie or an
// Authorization: Bearer header and loads the user it names.
func Authenticate(tokens *auth.TokenService, users service.UserService) echo.MiddlewareFunc {
	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "cookie:" + AccessTokenCookie + ",header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, ok := tokens.Verify(auth.AccessToken, token)
			if !ok {
				return nil, apperrors.ErrUnauthorized
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperrors.ErrUnauthorized
		},
	})

	loadUser := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(claimsKey).(*auth.Claims)
			if !ok {
				return apperrors.ErrUnauthorized
			}
			userID, err := claims.ParsedUserID()
			if err != nil {
				return apperrors.ErrUnauthorized
			}

			profile, err := users.GetProfile(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, apperrors.ErrUserNotFound) {
					return apperrors.ErrUserForTokenNotFound
				}
				return err
			}
			c.Set(userKey, profile)
			return next(c)
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMiddleware(loadUser(next))
	}
}

// RequireRole rejects authenticated users whose role is not one of roles.
// It must run after Authenticate.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return apperrors.ErrUnauthorized
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return apperrors.ErrForbidden
		}
	}
}

// CurrentUser returns the user loaded by Authenticate.
func CurrentUser(c echo.Context) (model.Profile, bool) {
	profile, ok := c.Get(userKey).(model.Profile)
	return profile, ok
}

// SetCurrentUser stores the authenticated user on the context.
func SetCurrentUser(c echo.Context, profile model.Profile) {
	c.Set(userKey, profile)
}
