package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
)

// MockUserService is a mock implementation of service.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetProfile(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Profile), args.Error(1)
}

func (m *MockUserService) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func run(t *testing.T, h echo.HandlerFunc, req *http.Request) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())
	return c, h(c)
}

func ok(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenService("access", "refresh", 0, 0)
	userID := uuid.New()
	access, err := tokens.Issue(auth.AccessToken, userID)
	require.NoError(t, err)
	refresh, err := tokens.Issue(auth.RefreshToken, userID)
	require.NoError(t, err)

	profile := model.Profile{ID: userID, PhoneNumber: "+916123456789", Role: model.RoleUser}

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		wantErr error
	}{
		{name: "cookie", prepare: func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: access})
		}},
		{name: "bearer header", prepare: func(r *http.Request) {
			r.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
		}},
		{name: "missing", prepare: func(r *http.Request) {}, wantErr: apperrors.ErrUnauthorized},
		{name: "refresh token rejected", prepare: func(r *http.Request) {
			r.Header.Set(echo.HeaderAuthorization, "Bearer "+refresh)
		}, wantErr: apperrors.ErrUnauthorized},
		{name: "garbage", prepare: func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "garbage"})
		}, wantErr: apperrors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserService)
			users.On("GetProfile", mock.Anything, userID).Return(profile, nil).Maybe()

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			tt.prepare(req)

			c, err := run(t, Authenticate(tokens, users)(ok), req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				users.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			got, found := CurrentUser(c)
			require.True(t, found)
			assert.Equal(t, profile, got)
		})
	}
}

func TestAuthenticate_UserGone(t *testing.T) {
	tokens := auth.NewTokenService("access", "refresh", 0, 0)
	userID := uuid.New()
	access, err := tokens.Issue(auth.AccessToken, userID)
	require.NoError(t, err)

	users := new(MockUserService)
	users.On("GetProfile", mock.Anything, userID).Return(model.Profile{}, apperrors.ErrUserNotFound)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)

	_, err = run(t, Authenticate(tokens, users)(ok), req)
	assert.ErrorIs(t, err, apperrors.ErrUserForTokenNotFound)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		user    *model.Profile
		wantErr error
	}{
		{name: "admin", user: &model.Profile{Role: model.RoleAdmin}},
		{name: "user", user: &model.Profile{Role: model.RoleUser}, wantErr: apperrors.ErrForbidden},
		{name: "anonymous", wantErr: apperrors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/products", nil), httptest.NewRecorder())
			if tt.user != nil {
				SetCurrentUser(c, *tt.user)
			}

			err := RequireRole(model.RoleAdmin)(ok)(c)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParameterPollution(t *testing.T) {
	var seen []string
	h := ParameterPollution()(func(c echo.Context) error {
		seen = c.QueryParams()["category"]
		return nil
	})

	_, err := run(t, h, httptest.NewRequest(http.MethodGet, "/products?category=MEN&category=WOMEN&page=2", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"WOMEN"}, seen)
}
