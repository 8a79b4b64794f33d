package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenExpiry is the duration for which access tokens are valid.
	DefaultAccessTokenExpiry = 15 * time.Minute
	// DefaultRefreshTokenExpiry is the duration for which refresh tokens are valid.
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour
)

// Kind selects which key and lifetime a token uses.
type Kind int

const (
	AccessToken Kind = iota
	RefreshToken
)

func (k Kind) String() string {
	switch k {
	case AccessToken:
		return "access"
	case RefreshToken:
		return "refresh"
	default:
		return "unknown"
	}
}

// Claims represents JWT claims. The user id is the only custom claim.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// ParsedUserID returns the user id claim as a UUID.
func (c *Claims) ParsedUserID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

type keyConfig struct {
	secret []byte
	ttl    time.Duration
}

// TokenService issues and verifies access and refresh tokens.
// Each kind is signed with its own secret.
type TokenService struct {
	keys map[Kind]keyConfig
	now  func() time.Time
}

// Option customizes a TokenService.
type Option func(*TokenService)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService creates a token service. Non-positive TTLs fall back to the defaults.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, opts ...Option) *TokenService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenExpiry
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenExpiry
	}
	s := &TokenService{
		keys: map[Kind]keyConfig{
			AccessToken:  {secret: []byte(accessSecret), ttl: accessTTL},
			RefreshToken: {secret: []byte(refreshSecret), ttl: refreshTTL},
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the lifetime of tokens of the given kind.
func (s *TokenService) TTL(kind Kind) time.Duration {
	return s.keys[kind].ttl
}

// Issue signs a token of the given kind for the user. Every token gets a
// fresh jti, so two tokens issued in the same second still differ.
func (s *TokenService) Issue(kind Kind, userID uuid.UUID) (string, error) {
	key, ok := s.keys[kind]
	if !ok {
		return "", errors.New("unknown token kind")
	}

	now := s.now()
	claims := &Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key.secret)
}

// Verify validates signature and expiry. Any failure, including an expired
// token, a malformed token or the other kind's key, yields ok == false.
func (s *TokenService) Verify(kind Kind, tokenString string) (*Claims, bool) {
	key, ok := s.keys[kind]
	if !ok || tokenString == "" {
		return nil, false
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return key.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, false
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, false
	}
	return claims, true
}
