package middleware

import (
	"github.com/labstack/echo/v4"
)

// ParameterPollution collapses repeated query parameters to their last
// value so handlers never see ?category=MEN&category=WOMEN as two values.
func ParameterPollution() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.URL.RawQuery == "" {
				return next(c)
			}

			query := req.URL.Query()
			polluted := false
			for key, values := range query {
				if len(values) > 1 {
					query[key] = values[len(values)-1:]
					polluted = true
				}
			}
			if polluted {
				req.URL.RawQuery = query.Encode()
			}
			return next(c)
		}
	}
}
