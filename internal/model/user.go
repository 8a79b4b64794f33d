package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access level carried by a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// OTPChannel names where an outstanding code was delivered.
type OTPChannel string

const (
	OTPChannelPhone OTPChannel = "phone"
	OTPChannelEmail OTPChannel = "email"
)

// User is the credential record: one row per phone number.
type User struct {
	ID                    uuid.UUID      `gorm:"type:char(36);primaryKey"`
	FirstName             *string        `gorm:"size:100"`
	LastName              *string        `gorm:"size:100"`
	PhoneNumber           string         `gorm:"uniqueIndex;size:20;not null"`
	Email                 *string        `gorm:"uniqueIndex;size:255"`
	PhoneNumberVerifiedAt *time.Time     `gorm:"column:phone_number_verified_at"`
	EmailVerifiedAt       *time.Time     `gorm:"column:email_verified_at"`
	OTP                   *string        `gorm:"column:otp;size:255"` // bcrypt hash, never plaintext once saved
	OTPExpiredAt          *time.Time     `gorm:"column:otp_expired_at"`
	OTPChannel            *OTPChannel    `gorm:"column:otp_channel;type:varchar(10)"`
	RefreshToken          *string        `gorm:"column:refresh_token;size:512"`
	Role                  Role           `gorm:"type:varchar(20);not null;default:'USER'"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DeletedAt             gorm.DeletedAt `gorm:"index"`
}

// BeforeCreate sets UUID and default role before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// SetOTP stores a freshly generated plaintext code together with the channel
// it is sent on and its expiry. The repository hashes it on save.
func (u *User) SetOTP(plain string, channel OTPChannel, expiresAt time.Time) {
	u.OTP = &plain
	u.OTPChannel = &channel
	u.OTPExpiredAt = &expiresAt
}

// ClearOTP drops the outstanding code, its channel and its expiry together.
func (u *User) ClearOTP() {
	u.OTP = nil
	u.OTPChannel = nil
	u.OTPExpiredAt = nil
}

// OTPSentTo reports whether the outstanding code was delivered on channel.
func (u *User) OTPSentTo(channel OTPChannel) bool {
	return u.OTPChannel != nil && *u.OTPChannel == channel
}

// OTPExpired reports whether there is no usable expiry at now.
func (u *User) OTPExpired(now time.Time) bool {
	return u.OTPExpiredAt == nil || u.OTPExpiredAt.Before(now)
}

// Profile returns an immutable snapshot of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:                    u.ID,
		FirstName:             copyString(u.FirstName),
		LastName:              copyString(u.LastName),
		PhoneNumber:           u.PhoneNumber,
		Email:                 copyString(u.Email),
		PhoneNumberVerifiedAt: copyTime(u.PhoneNumberVerifiedAt),
		EmailVerifiedAt:       copyTime(u.EmailVerifiedAt),
		Role:                  u.Role,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

// Profile is the client-facing view of a user. It never carries the OTP hash
// or the refresh token.
type Profile struct {
	ID                    uuid.UUID  `json:"id" swaggertype:"string" format:"uuid"`
	FirstName             *string    `json:"firstName,omitempty"`
	LastName              *string    `json:"lastName,omitempty"`
	PhoneNumber           string     `json:"phoneNumber"`
	Email                 *string    `json:"email,omitempty"`
	PhoneNumberVerifiedAt *time.Time `json:"phoneNumberVerifiedAt"`
	EmailVerifiedAt       *time.Time `json:"emailVerifiedAt"`
	Role                  Role       `json:"role"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
