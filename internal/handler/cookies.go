package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	"storefront/internal/middleware"
)

// CookiePolicy decides how session cookies are scoped. Development runs over
// plain HTTP on one site, everything else is cross-site over TLS.
type CookiePolicy struct {
	Development bool
	Tokens      *auth.TokenService
}

func (p CookiePolicy) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(maxAge.Seconds()),
		SameSite: http.SameSiteNoneMode,
		Secure:   true,
	}
	if p.Development {
		cookie.SameSite = http.SameSiteStrictMode
		cookie.Secure = false
	}
	return cookie
}

func cookieName(kind auth.Kind) string {
	if kind == auth.RefreshToken {
		return middleware.RefreshTokenCookie
	}
	return middleware.AccessTokenCookie
}

// SetToken writes the cookie for kind with the token's lifetime.
func (p CookiePolicy) SetToken(c echo.Context, kind auth.Kind, token string) {
	c.SetCookie(p.cookie(cookieName(kind), token, p.Tokens.TTL(kind)))
}

// Clear expires both session cookies.
func (p CookiePolicy) Clear(c echo.Context) {
	for _, kind := range []auth.Kind{auth.AccessToken, auth.RefreshToken} {
		cookie := p.cookie(cookieName(kind), "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		c.SetCookie(cookie)
	}
}

func tokenFromCookie(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
