package router_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/otp"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
)

const (
	rawPhone  = "6123456789"
	e164Phone = "+916123456789"
)

var codePattern = regexp.MustCompile(`code is (\d+)\.`)

type recordingSMS struct {
	mu     sync.Mutex
	bodies []string
}

func (r *recordingSMS) SendSMS(_ context.Context, _, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies = append(r.bodies, body)
	return nil
}

func (r *recordingSMS) lastCode(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.bodies)
	match := codePattern.FindStringSubmatch(r.bodies[len(r.bodies)-1])
	require.Len(t, match, 2)
	return match[1]
}

type discardEmail struct{}

func (discardEmail) SendEmail(context.Context, notify.EmailMessage) error { return nil }

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

type envelope struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Result     struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"result"`
	Time int64 `json:"time"`
}

type server struct {
	e     *echo.Echo
	db    *gorm.DB
	sms   *recordingSMS
	clock *clock
}

func newServer(t *testing.T) *server {
	t.Helper()
	gormDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{AppEnv: config.EnvDevelopment, AllowedOrigins: []string{"*"}}
	clk := &clock{t: time.Now().Truncate(time.Second)}
	hasher := otp.NewBcryptHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour, auth.WithClock(clk.Now))
	userRepo := repository.NewUserRepository(gormDB, hasher)
	sms := &recordingSMS{}

	logger := log.New("test")
	logger.SetOutput(io.Discard)

	authService := service.NewAuthService(service.AuthDeps{
		Users:     userRepo,
		Tokens:    tokens,
		Hasher:    hasher,
		SMS:       sms,
		Email:     discardEmail{},
		Logger:    logger,
		OTPLength: 4,
		OTPTTL:    2 * time.Minute,
		Now:       clk.Now,
	})
	userService := service.NewUserService(userRepo, nil)
	productService := service.NewProductService(repository.NewProductRepository(gormDB), nil)

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

	return &server{e: e, db: gormDB, sms: sms, clock: clk}
}

func (s *server) do(t *testing.T, method, path, body string, prepare ...func(*http.Request)) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, p := range prepare {
		p(req)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) }
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// signIn logs in and verifies the phone, returning the access token.
func (s *server) signIn(t *testing.T) string {
	t.Helper()
	_, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", `{"phoneNumber":"`+rawPhone+`"}`)
	code := s.sms.lastCode(t)
	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/verify-otp-phone", `{"phoneNumber":"`+rawPhone+`","otp":"`+code+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, env.Result.Message)

	var session handler.SessionResponse
	require.NoError(t, json.Unmarshal(env.Result.Data, &session))
	return session.AccessToken
}

func TestPhoneLoginFlow(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", `{"phoneNumber":"`+rawPhone+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, http.StatusCreated, env.StatusCode)
	assert.Equal(t, "Account created. OTP sent successfully.", env.Result.Message)
	assert.NotZero(t, env.Time)

	code := s.sms.lastCode(t)
	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/verify-otp-phone", `{"phoneNumber":"`+rawPhone+`","otp":"`+code+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, env.Result.Message)
	assert.Equal(t, "OTP verified successfully.", env.Result.Message)

	access := cookieByName(rec, middleware.AccessTokenCookie)
	refresh := cookieByName(rec, middleware.RefreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
	assert.False(t, access.Secure)
	assert.Equal(t, int((15 * time.Minute).Seconds()), access.MaxAge)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), refresh.MaxAge)

	var user model.User
	require.NoError(t, s.db.Where("phone_number = ?", e164Phone).First(&user).Error)
	assert.NotNil(t, user.PhoneNumberVerifiedAt)

	rec, env = s.do(t, http.MethodGet, "/api/v1/users/me", "", func(r *http.Request) { r.AddCookie(access) })
	require.Equal(t, http.StatusOK, rec.Code)
	var profile model.Profile
	require.NoError(t, json.Unmarshal(env.Result.Data, &profile))
	assert.Equal(t, e164Phone, profile.PhoneNumber)
	assert.Equal(t, model.RoleUser, profile.Role)

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/refresh-access-token", "", func(r *http.Request) { r.AddCookie(refresh) })
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Access token refreshed successfully.", env.Result.Message)
	assert.NotNil(t, cookieByName(rec, middleware.AccessTokenCookie))
}

func TestVerifyPhoneOTP_Expired(t *testing.T) {
	s := newServer(t)

	_, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", `{"phoneNumber":"`+rawPhone+`"}`)
	code := s.sms.lastCode(t)
	s.clock.t = s.clock.t.Add(2*time.Minute + time.Second)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/verify-otp-phone", `{"phoneNumber":"`+rawPhone+`","otp":"`+code+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "The OTP has expired. Please request a new one.", env.Result.Message)
	assert.Nil(t, cookieByName(rec, middleware.AccessTokenCookie))
}

func TestLogout_WithoutToken(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully.", env.Result.Message)
	assert.Equal(t, `""`, string(env.Result.Data))

	cleared := cookieByName(rec, middleware.RefreshTokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestLogout_EndsSession(t *testing.T) {
	s := newServer(t)
	_ = s.signIn(t)

	var user model.User
	require.NoError(t, s.db.Where("phone_number = ?", e164Phone).First(&user).Error)
	require.NotNil(t, user.RefreshToken)
	refresh := *user.RefreshToken

	rec, _ := s.do(t, http.MethodPost, "/api/v1/auth/logout", `{"refreshToken":"`+refresh+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/refresh-access-token", `{"refreshToken":"`+refresh+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "You are not authorized. Please log in.", env.Result.Message)
}

func TestDeleteMe_EndsAccess(t *testing.T) {
	s := newServer(t)
	token := s.signIn(t)

	rec, env := s.do(t, http.MethodDelete, "/api/v1/users/me", "", bearer(token))
	require.Equal(t, http.StatusOK, rec.Code, env.Result.Message)
	assert.Equal(t, "Account deactivated successfully.", env.Result.Message)
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		cleared := cookieByName(rec, name)
		require.NotNil(t, cleared, name)
		assert.Empty(t, cleared.Value)
		assert.Negative(t, cleared.MaxAge)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/users/me", "", bearer(token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "The user for this session no longer exists.", env.Result.Message)
}

func TestRequestErrors(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		message string
	}{
		{"missing body", http.MethodPost, "/api/v1/auth/login", "", http.StatusBadRequest, "Request body is missing required fields."},
		{"invalid phone", http.MethodPost, "/api/v1/auth/login", `{"phoneNumber":"12345"}`, http.StatusBadRequest, "Validation failed."},
		{"unknown user", http.MethodPost, "/api/v1/auth/resend-otp-phone", `{"phoneNumber":"9876543210"}`, http.StatusNotFound, "User not found."},
		{"unknown route", http.MethodGet, "/api/v1/nope", "", http.StatusNotFound, "The requested route does not exist."},
		{"wrong method", http.MethodPut, "/api/v1/auth/login", "", http.StatusMethodNotAllowed, "This method is not allowed on the requested route."},
		{"no access token", http.MethodGet, "/api/v1/users/me", "", http.StatusUnauthorized, "You are not authorized. Please log in."},
		{"bad product id", http.MethodGet, "/api/v1/products/not-a-uuid", "", http.StatusBadRequest, "Validation failed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status, env.StatusCode)
			assert.Equal(t, "error", env.Status)
			assert.Equal(t, tt.message, env.Result.Message)
		})
	}
}

func TestLocalizedMessage(t *testing.T) {
	s := newServer(t)

	_, en := s.do(t, http.MethodPost, "/api/v1/auth/logout", "")
	_, hi := s.do(t, http.MethodPost, "/api/v1/auth/logout", "", func(r *http.Request) {
		r.Header.Set("Accept-Language", "hi-IN,hi;q=0.9")
	})
	assert.NotEmpty(t, hi.Result.Message)
	assert.NotEqual(t, en.Result.Message, hi.Result.Message)
}

const productBody = `{
	"name": "Runner",
	"description": "Lightweight running shoe",
	"brandName": "Acme",
	"category": "MEN",
	"variants": [{
		"color": "black",
		"sizes": [{"size": 9, "originalPrice": "1999.00", "discount": "200.00", "finalPrice": "1799.00", "stock": 5}],
		"images": [{"imageUrl": "https://cdn.example.com/runner.jpg", "isThumbnail": true}]
	}]
}`

func TestProducts(t *testing.T) {
	s := newServer(t)
	token := s.signIn(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/products", productBody, bearer(token))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You do not have permission to perform this action.", env.Result.Message)

	require.NoError(t, s.db.Model(&model.User{}).Where("phone_number = ?", e164Phone).Update("role", model.RoleAdmin).Error)

	rec, env = s.do(t, http.MethodPost, "/api/v1/products", productBody, bearer(token))
	require.Equal(t, http.StatusCreated, rec.Code, env.Result.Message)
	var created model.Product
	require.NoError(t, json.Unmarshal(env.Result.Data, &created))
	require.Len(t, created.Variants, 1)
	assert.Equal(t, "1799", created.Variants[0].Sizes[0].FinalPrice.String())

	rec, env = s.do(t, http.MethodGet, "/api/v1/products/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched model.Product
	require.NoError(t, json.Unmarshal(env.Result.Data, &fetched))
	assert.Equal(t, "Runner", fetched.Name)

	rec, env = s.do(t, http.MethodGet, "/api/v1/products?category=MEN&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page service.ProductPage
	require.NoError(t, json.Unmarshal(env.Result.Data, &page))
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 10, page.Limit)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/products?category=SHOES", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/products/"+created.ID.String(), "", bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/products/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found.", env.Result.Message)
}

func TestImportProducts_AllOrNothing(t *testing.T) {
	s := newServer(t)
	token := s.signIn(t)
	require.NoError(t, s.db.Model(&model.User{}).Where("phone_number = ?", e164Phone).Update("role", model.RoleAdmin).Error)

	bad := strings.Replace(productBody, `"finalPrice": "1799.00"`, `"finalPrice": "2999.00"`, 1)
	rec, env := s.do(t, http.MethodPost, "/api/v1/products/import", `{"products":[`+productBody+`,`+bad+`]}`, bearer(token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "The product details are invalid.", env.Result.Message)

	var count int64
	require.NoError(t, s.db.Model(&model.Product{}).Count(&count).Error)
	assert.Zero(t, count)

	rec, env = s.do(t, http.MethodPost, "/api/v1/products/import", `{"products":[`+productBody+`,`+productBody+`]}`, bearer(token))
	require.Equal(t, http.StatusCreated, rec.Code, env.Result.Message)
	var imported handler.ImportProductsResponse
	require.NoError(t, json.Unmarshal(env.Result.Data, &imported))
	assert.Equal(t, 2, imported.Count)
}

func TestHealthz(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
