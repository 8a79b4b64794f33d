package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"storefront/docs"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/handler"
	"storefront/internal/notify"
	"storefront/internal/otp"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
)

// @title Storefront API
// @version 1.0
// @description E-commerce backend with phone and email OTP sign-in and a product catalog.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	logger := log.New("storefront")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(parseLevel(cfg.LogLevel))

	gormDB, err := db.Open(cfg.DBDialect, cfg.DBDSN)
	if err != nil {
		logger.Fatalf("database init: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatalf("database migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logger.Warnj(log.JSON{"event": "cache_unavailable", "addr": cfg.RedisAddr, "error": err.Error()})
	}
	cancelPing()

	// Delivery falls back to the log when credentials are missing.
	logSender := notify.NewLogSender(logger)
	var sms notify.SMSSender = logSender
	if cfg.SMSEnabled() {
		sms = notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	} else {
		logger.Warn("TWILIO_* not set, SMS messages are only logged")
	}
	var email notify.EmailSender = logSender
	if cfg.EmailEnabled() {
		email = notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		logger.Warn("SMTP_USERNAME/SMTP_PASSWORD not set, emails are only logged")
	}

	// Initialize repositories
	hasher := otp.NewBcryptHasher(cfg.OTPHashCost)
	userRepo := repository.NewUserRepository(gormDB, hasher)
	productRepo := repository.NewProductRepository(gormDB)

	// Initialize services
	tokens := auth.NewTokenService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := service.NewAuthService(service.AuthDeps{
		Users:     userRepo,
		Tokens:    tokens,
		Hasher:    hasher,
		SMS:       sms,
		Email:     email,
		Cache:     cacheClient,
		Logger:    logger,
		OTPLength: cfg.OTPLength,
		OTPTTL:    cfg.OTPTTL,
	})
	userService := service.NewUserService(userRepo, cacheClient)
	productService := service.NewProductService(productRepo, cacheClient)

	// Initialize handlers
	cookies := handler.CookiePolicy{Development: cfg.IsDevelopment(), Tokens: tokens}

	e := echo.New()
	e.Logger = logger
	router.Register(e, cfg, router.Handlers{
		Auth:    handler.NewAuthHandler(authService, cookies),
		User:    handler.NewUserHandler(userService, cookies),
		Product: handler.NewProductHandler(productService),
		Tokens:  tokens,
		Users:   userService,
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	logger.Infof("Swagger documentation available at: http://%s/swagger/index.html", docs.SwaggerInfo.Host)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server start: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func parseLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
