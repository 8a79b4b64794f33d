package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/model"
	"storefront/internal/otp"
)

// UserRecord is a mutable handle on a loaded user row. It remembers the
// OTP column as loaded so Save can tell whether a new code was set.
type UserRecord struct {
	*model.User
	loadedOTP *string
}

func newUserRecord(u *model.User) *UserRecord {
	rec := &UserRecord{User: u}
	rec.markClean()
	return rec
}

func (r *UserRecord) markClean() {
	if r.OTP == nil {
		r.loadedOTP = nil
		return
	}
	v := *r.OTP
	r.loadedOTP = &v
}

// OTPChanged reports whether the OTP differs from the value last loaded or saved.
func (r *UserRecord) OTPChanged() bool {
	switch {
	case r.OTP == nil && r.loadedOTP == nil:
		return false
	case r.OTP == nil || r.loadedOTP == nil:
		return true
	default:
		return *r.OTP != *r.loadedOTP
	}
}

// UserRepository defines persistence operations for the credential store.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*UserRecord, error)
	FindByPhone(ctx context.Context, phone string) (*UserRecord, error)
	FindProfile(ctx context.Context, id uuid.UUID) (model.Profile, error)
	FindOrCreateByPhone(ctx context.Context, phone string) (rec *UserRecord, created bool, err error)
	EmailTakenByOther(ctx context.Context, email string, userID uuid.UUID) (bool, error)
	Save(ctx context.Context, rec *UserRecord) error
	ClearRefreshToken(ctx context.Context, userID uuid.UUID, token string) (int64, error)
	SoftDelete(ctx context.Context, userID uuid.UUID) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error
}

type userRepository struct {
	db     *gorm.DB
	hasher otp.Hasher
}

// NewUserRepository builds a GORM-backed repository. The hasher turns a
// freshly set OTP into its stored form on Save.
func NewUserRepository(db *gorm.DB, hasher otp.Hasher) UserRepository {
	return &userRepository{db: db, hasher: hasher}
}

// FindByID finds a user by ID.
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*UserRecord, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return newUserRecord(&user), nil
}

// FindByPhone finds a user by canonical phone number.
func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*UserRecord, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&user).Error; err != nil {
		return nil, err
	}
	return newUserRecord(&user), nil
}

// FindProfile returns a read-only snapshot of a user.
func (r *userRepository) FindProfile(ctx context.Context, id uuid.UUID) (model.Profile, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return model.Profile{}, err
	}
	return user.Profile(), nil
}

// FindOrCreateByPhone returns the user for phone, creating it on first
// contact. A soft-deleted user is restored with the same id.
func (r *userRepository) FindOrCreateByPhone(ctx context.Context, phone string) (*UserRecord, bool, error) {
	var user model.User
	err := r.db.WithContext(ctx).Unscoped().Where("phone_number = ?", phone).First(&user).Error
	if err == nil {
		if user.DeletedAt.Valid {
			if err := r.db.WithContext(ctx).Unscoped().Model(&user).Update("deleted_at", nil).Error; err != nil {
				return nil, false, fmt.Errorf("restore user: %w", err)
			}
			user.DeletedAt = gorm.DeletedAt{}
		}
		return newUserRecord(&user), false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	// A concurrent first login may insert the same phone first.
	user = model.User{PhoneNumber: phone}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&user)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create user: %w", res.Error)
	}

	var stored model.User
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&stored).Error; err != nil {
		return nil, false, err
	}
	return newUserRecord(&stored), res.RowsAffected == 1, nil
}

// EmailTakenByOther reports whether a user other than userID owns email.
func (r *userRepository) EmailTakenByOther(ctx context.Context, email string, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&model.User{}).
		Where("email = ? AND id <> ?", email, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save writes every column of the record. A changed, non-nil OTP is hashed
// first, exactly once; unchanged hashes are written back as they are.
func (r *userRepository) Save(ctx context.Context, rec *UserRecord) error {
	if rec.OTPChanged() && rec.OTP != nil {
		hashed, err := r.hasher.Hash(*rec.OTP)
		if err != nil {
			return err
		}
		rec.OTP = &hashed
	}
	if err := r.db.WithContext(ctx).Save(rec.User).Error; err != nil {
		return err
	}
	rec.markClean()
	return nil
}

// ClearRefreshToken nulls the stored refresh token only if it still equals
// token. It returns the number of rows updated.
func (r *userRepository) ClearRefreshToken(ctx context.Context, userID uuid.UUID, token string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND refresh_token = ?", userID, token).
		Update("refresh_token", nil)
	return res.RowsAffected, res.Error
}

// SoftDelete marks the user deleted and drops its session and OTP.
func (r *userRepository) SoftDelete(ctx context.Context, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"refresh_token":  nil,
			"otp":            nil,
			"otp_expired_at": nil,
			"otp_channel":    nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.db.WithContext(ctx).Where("id = ?", userID).Delete(&model.User{}).Error
}

// WithTransaction executes a function within a database transaction.
func (r *userRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &userRepository{db: tx, hasher: r.hasher}
		return fn(ctx, txRepo)
	})
}
