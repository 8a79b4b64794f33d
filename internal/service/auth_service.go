package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"

	"storefront/internal/auth"
	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/otp"
	"storefront/internal/repository"
)

// DefaultOTPTTL is how long a one-time code stays valid.
const DefaultOTPTTL = 2 * time.Minute

// LoginResult is returned after a phone number logs in.
type LoginResult struct {
	User    model.Profile
	Created bool
}

// Session carries the tokens minted by a successful phone verification.
type Session struct {
	User         model.Profile
	AccessToken  string
	RefreshToken string
}

// AuthService drives the OTP and session lifecycle.
type AuthService interface {
	Login(ctx context.Context, phone string) (LoginResult, error)
	SendPhoneOTP(ctx context.Context, phone string) error
	VerifyPhoneOTP(ctx context.Context, phone, code string) (Session, error)
	SendEmailOTP(ctx context.Context, userID uuid.UUID, email string) error
	VerifyEmailOTP(ctx context.Context, userID uuid.UUID, email, code string) (model.Profile, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
}

// AuthDeps groups the collaborators of the auth service.
type AuthDeps struct {
	Users  repository.UserRepository
	Tokens *auth.TokenService
	Hasher otp.Hasher
	SMS    notify.SMSSender
	Email  notify.EmailSender
	Cache  *cache.Client
	Logger *log.Logger

	OTPLength int
	OTPTTL    time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type authService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	hasher    otp.Hasher
	sms       notify.SMSSender
	email     notify.EmailSender
	cache     *cache.Client
	logger    *log.Logger
	otpLength int
	otpTTL    time.Duration
	now       func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(deps AuthDeps) AuthService {
	s := &authService{
		users:     deps.Users,
		tokens:    deps.Tokens,
		hasher:    deps.Hasher,
		sms:       deps.SMS,
		email:     deps.Email,
		cache:     deps.Cache,
		logger:    deps.Logger,
		otpLength: deps.OTPLength,
		otpTTL:    deps.OTPTTL,
		now:       deps.Now,
	}
	if s.otpLength <= 0 {
		s.otpLength = otp.DefaultLength
	}
	if s.otpTTL <= 0 {
		s.otpTTL = DefaultOTPTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = log.New("auth")
	}
	return s
}

// Login finds or creates the user for phone and sends a fresh OTP.
func (s *authService) Login(ctx context.Context, phone string) (LoginResult, error) {
	var (
		result LoginResult
		code   string
	)
	err := s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		rec, created, err := repo.FindOrCreateByPhone(ctx, phone)
		if err != nil {
			return fmt.Errorf("find or create user: %w", err)
		}
		if code, err = s.issueOTP(ctx, repo, rec, model.OTPChannelPhone); err != nil {
			return err
		}
		result = LoginResult{User: rec.Profile(), Created: created}
		return nil
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	if result.Created {
		s.logger.Infoj(log.JSON{"event": "user_registered", "user_id": result.User.ID.String()})
	}
	return result, s.sendSMS(ctx, result.User.ID, phone, code)
}

// SendPhoneOTP replaces the user's OTP and texts it. Resend uses it too.
func (s *authService) SendPhoneOTP(ctx context.Context, phone string) error {
	var (
		userID uuid.UUID
		code   string
	)
	err := s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		rec, err := repo.FindByPhone(ctx, phone)
		if err != nil {
			return userLookupError(err, apperrors.ErrUserNotFound)
		}
		userID = rec.ID
		code, err = s.issueOTP(ctx, repo, rec, model.OTPChannelPhone)
		return err
	})
	if err != nil {
		return fmt.Errorf("send phone otp: %w", err)
	}
	return s.sendSMS(ctx, userID, phone, code)
}

// VerifyPhoneOTP checks the code, marks the phone verified and opens a new
// session. The stored refresh token is replaced, ending any prior session.
func (s *authService) VerifyPhoneOTP(ctx context.Context, phone, code string) (Session, error) {
	var session Session
	err := s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		rec, err := repo.FindByPhone(ctx, phone)
		if err != nil {
			return userLookupError(err, apperrors.ErrUserNotFound)
		}

		now := s.now()
		if err := s.checkOTP(rec, model.OTPChannelPhone, code, now); err != nil {
			return err
		}

		access, err := s.tokens.Issue(auth.AccessToken, rec.ID)
		if err != nil {
			return fmt.Errorf("issue access token: %w", err)
		}
		refresh, err := s.tokens.Issue(auth.RefreshToken, rec.ID)
		if err != nil {
			return fmt.Errorf("issue refresh token: %w", err)
		}

		rec.ClearOTP()
		rec.PhoneNumberVerifiedAt = &now
		rec.RefreshToken = &refresh
		if err := repo.Save(ctx, rec); err != nil {
			return fmt.Errorf("save user: %w", err)
		}

		session = Session{User: rec.Profile(), AccessToken: access, RefreshToken: refresh}
		return nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("verify phone otp: %w", err)
	}

	s.cache.Delete(ctx, userCacheKey(session.User.ID))
	return session, nil
}

// SendEmailOTP attaches email to the user when it changed and mails an OTP.
// Resend uses it too.
func (s *authService) SendEmailOTP(ctx context.Context, userID uuid.UUID, email string) error {
	email = normalizeEmail(email)

	var (
		code string
		name string
	)
	err := s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		rec, err := repo.FindByID(ctx, userID)
		if err != nil {
			return userLookupError(err, apperrors.ErrUserNotFound)
		}

		taken, err := repo.EmailTakenByOther(ctx, email, rec.ID)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return apperrors.ErrEmailInUse
		}

		if rec.Email == nil || *rec.Email != email {
			rec.Email = &email
			rec.EmailVerifiedAt = nil
		}
		if rec.FirstName != nil {
			name = *rec.FirstName
		}

		code, err = s.issueOTP(ctx, repo, rec, model.OTPChannelEmail)
		return err
	})
	if err != nil {
		return fmt.Errorf("send email otp: %w", err)
	}

	s.cache.Delete(ctx, userCacheKey(userID))

	msg, err := notify.OTPEmail(email, name, code, s.otpTTL)
	if err != nil {
		return err
	}
	if err := s.email.SendEmail(ctx, msg); err != nil {
		s.logger.Errorj(log.JSON{"event": "otp_delivery_failed", "channel": "email", "user_id": userID.String(), "error": err.Error()})
		return fmt.Errorf("%w: %v", apperrors.ErrOTPDelivery, err)
	}
	return nil
}

// VerifyEmailOTP checks the code sent to the user's email and marks it verified.
func (s *authService) VerifyEmailOTP(ctx context.Context, userID uuid.UUID, email, code string) (model.Profile, error) {
	email = normalizeEmail(email)

	var profile model.Profile
	err := s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		rec, err := repo.FindByID(ctx, userID)
		if err != nil {
			return userLookupError(err, apperrors.ErrUserNotFound)
		}
		if rec.Email == nil || *rec.Email != email {
			return apperrors.ErrEmailMismatch
		}

		now := s.now()
		if err := s.checkOTP(rec, model.OTPChannelEmail, code, now); err != nil {
			return err
		}

		rec.ClearOTP()
		rec.EmailVerifiedAt = &now
		if err := repo.Save(ctx, rec); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		profile = rec.Profile()
		return nil
	})
	if err != nil {
		return model.Profile{}, fmt.Errorf("verify email otp: %w", err)
	}

	s.cache.Delete(ctx, userCacheKey(userID))
	return profile, nil
}

// Logout drops the stored refresh token. An empty token means the caller
// is already logged out and touches nothing.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	userID, ok := s.refreshTokenUser(refreshToken)
	if !ok {
		return apperrors.ErrUnauthorized
	}

	err := s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		n, err := repo.ClearRefreshToken(ctx, userID, refreshToken)
		if err != nil {
			return fmt.Errorf("clear refresh token: %w", err)
		}
		if n == 0 {
			return apperrors.ErrTokenUserMismatch
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// RefreshAccessToken mints a new access token for a refresh token that is
// both valid and still the one stored for its user.
func (s *authService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.ErrUnauthorized
	}

	userID, ok := s.refreshTokenUser(refreshToken)
	if !ok {
		return "", apperrors.ErrSessionExpired
	}

	var access string
	err := s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		rec, err := repo.FindByID(ctx, userID)
		if err != nil {
			return userLookupError(err, apperrors.ErrUserForTokenNotFound)
		}
		if rec.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*rec.RefreshToken), []byte(refreshToken)) != 1 {
			return apperrors.ErrUnauthorized
		}

		access, err = s.tokens.Issue(auth.AccessToken, rec.ID)
		if err != nil {
			return fmt.Errorf("issue access token: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	return access, nil
}

func (s *authService) refreshTokenUser(token string) (uuid.UUID, bool) {
	claims, ok := s.tokens.Verify(auth.RefreshToken, token)
	if !ok {
		return uuid.Nil, false
	}
	userID, err := claims.ParsedUserID()
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

// issueOTP stores a new code for channel on rec and returns its plaintext.
// The repository hashes it on save.
func (s *authService) issueOTP(ctx context.Context, repo repository.UserRepository, rec *repository.UserRecord, channel model.OTPChannel) (string, error) {
	code, err := otp.Generate(s.otpLength)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	rec.SetOTP(code, channel, s.now().Add(s.otpTTL))
	if err := repo.Save(ctx, rec); err != nil {
		return "", fmt.Errorf("save otp: %w", err)
	}
	return code, nil
}

// checkOTP tests correctness before expiry so a matching but stale code
// reports OTP_EXPIRED rather than INCORRECT_OTP. A code delivered on another
// channel is incorrect.
func (s *authService) checkOTP(rec *repository.UserRecord, channel model.OTPChannel, code string, now time.Time) error {
	if rec.OTP == nil || !rec.OTPSentTo(channel) || !s.hasher.Compare(*rec.OTP, code) {
		return apperrors.ErrIncorrectOTP
	}
	if rec.OTPExpired(now) {
		return apperrors.ErrOTPExpired
	}
	return nil
}

func (s *authService) sendSMS(ctx context.Context, userID uuid.UUID, phone, code string) error {
	if err := s.sms.SendSMS(ctx, phone, notify.OTPSMS(code, s.otpTTL)); err != nil {
		s.logger.Errorj(log.JSON{"event": "otp_delivery_failed", "channel": "sms", "user_id": userID.String(), "error": err.Error()})
		return fmt.Errorf("%w: %v", apperrors.ErrOTPDelivery, err)
	}
	return nil
}

func userLookupError(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("find user: %w", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
