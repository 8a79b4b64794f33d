package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(clock *fakeClock) *TokenService {
	return NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour, WithClock(clock.Now))
}

func TestTokenService_IssueVerify(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(clock)
	userID := uuid.New()

	for _, kind := range []Kind{AccessToken, RefreshToken} {
		t.Run(kind.String(), func(t *testing.T) {
			token, err := svc.Issue(kind, userID)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, ok := svc.Verify(kind, token)
			require.True(t, ok)
			assert.Equal(t, userID.String(), claims.UserID)
			assert.Equal(t, clock.t.Unix(), claims.IssuedAt.Unix())
			assert.Equal(t, clock.t.Add(svc.TTL(kind)).Unix(), claims.ExpiresAt.Unix())
			assert.NotEmpty(t, claims.ID)
			assert.Empty(t, claims.Subject)

			parsed, err := claims.ParsedUserID()
			require.NoError(t, err)
			assert.Equal(t, userID, parsed)
		})
	}
}

func TestTokenService_ExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(clock)

	token, err := svc.Issue(AccessToken, uuid.New())
	require.NoError(t, err)

	clock.Advance(14 * time.Minute)
	_, ok := svc.Verify(AccessToken, token)
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = svc.Verify(AccessToken, token)
	assert.False(t, ok)
}

func TestTokenService_SameInstantTokensDiffer(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(clock)
	userID := uuid.New()

	first, err := svc.Issue(RefreshToken, userID)
	require.NoError(t, err)
	second, err := svc.Issue(RefreshToken, userID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	firstClaims, ok := svc.Verify(RefreshToken, first)
	require.True(t, ok)
	secondClaims, ok := svc.Verify(RefreshToken, second)
	require.True(t, ok)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestTokenService_KindsUseDifferentKeys(t *testing.T) {
	svc := newTestService(&fakeClock{t: time.Now()})
	userID := uuid.New()

	access, err := svc.Issue(AccessToken, userID)
	require.NoError(t, err)
	refresh, err := svc.Issue(RefreshToken, userID)
	require.NoError(t, err)

	_, ok := svc.Verify(RefreshToken, access)
	assert.False(t, ok, "access token must not verify as refresh token")
	_, ok = svc.Verify(AccessToken, refresh)
	assert.False(t, ok, "refresh token must not verify as access token")
}

func TestTokenService_InvalidInputs(t *testing.T) {
	svc := newTestService(&fakeClock{t: time.Now()})

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "malformed", token: "invalid.token.string"},
		{name: "garbage", token: "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, ok := svc.Verify(AccessToken, tt.token)
			assert.False(t, ok)
			assert.Nil(t, claims)
		})
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	issuer := NewTokenService("secret1", "refresh1", 0, 0, WithClock(clock.Now))
	verifier := NewTokenService("secret2", "refresh2", 0, 0, WithClock(clock.Now))

	token, err := issuer.Issue(AccessToken, uuid.New())
	require.NoError(t, err)

	_, ok := verifier.Verify(AccessToken, token)
	assert.False(t, ok)
}

func TestTokenService_RejectsOtherSigningMethod(t *testing.T) {
	svc := newTestService(&fakeClock{t: time.Now()})
	claims := &Claims{
		UserID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, ok := svc.Verify(AccessToken, token)
	assert.False(t, ok)
}

func TestTokenService_RequiresUserID(t *testing.T) {
	svc := newTestService(&fakeClock{t: time.Now()})
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, ok := svc.Verify(AccessToken, token)
	assert.False(t, ok)
}

func TestNewTokenService_DefaultTTLs(t *testing.T) {
	svc := NewTokenService("a", "b", 0, -1)
	assert.Equal(t, DefaultAccessTokenExpiry, svc.TTL(AccessToken))
	assert.Equal(t, DefaultRefreshTokenExpiry, svc.TTL(RefreshToken))
}
