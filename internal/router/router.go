package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/response"
	"storefront/internal/service"
	"storefront/internal/validation"
)

// BasePath prefixes every API route.
const BasePath = "/api/v1"

// Handlers groups what Register mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Product *handler.ProductHandler

	Tokens *auth.TokenService
	Users  service.UserService
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, h Handlers) {
	e.HideBanner = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = response.HTTPErrorHandler

	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, "Accept-Language",
		},
	}))
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("10M"))
	e.Use(middleware.ParameterPollution())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group(BasePath)
	authenticated := middleware.Authenticate(h.Tokens, h.Users)
	admin := middleware.RequireRole(model.RoleAdmin)

	// Auth
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/verify-otp-phone", h.Auth.VerifyPhoneOTP)
	api.POST("/auth/resend-otp-phone", h.Auth.ResendPhoneOTP)
	api.POST("/auth/send-otp-email", h.Auth.SendEmailOTP, authenticated)
	api.POST("/auth/verify-otp-email", h.Auth.VerifyEmailOTP, authenticated)
	api.POST("/auth/resend-otp-email", h.Auth.ResendEmailOTP, authenticated)
	api.POST("/auth/logout", h.Auth.Logout)
	api.POST("/auth/refresh-access-token", h.Auth.RefreshAccessToken)

	// Users
	users := api.Group("/users", authenticated)
	users.GET("/me", h.User.GetMe)
	users.DELETE("/me", h.User.DeleteMe)

	// Products
	api.GET("/products", h.Product.ListProducts)
	api.GET("/products/:id", h.Product.GetProduct)
	api.POST("/products", h.Product.CreateProduct, authenticated, admin)
	api.POST("/products/import", h.Product.ImportProducts, authenticated, admin)
	api.DELETE("/products/:id", h.Product.DeleteProduct, authenticated, admin)
}
