// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"time"

	"wlm_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for user data operations.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
	Update(ctx context.Context, user *User) error
	FindHandle(ctx context.Context, id uuid.UUID) (string, error)
	SearchByHandle(ctx context.Context, prefix string, limit int) ([]User, error)
	MarkSeen(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkOfflineBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new user record into the database.
func (r *gormRepository) Create(ctx context.Context, user *User) error {
	user.Handle = NormalizeHandle(user.Handle)
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A user with this external ID already exists.")
		}
		return err
	}
	return nil
}

// FindByExternalID retrieves a user by the identity provider's user id.
func (r *gormRepository) FindByExternalID(ctx context.Context, externalID string) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found with this external ID.")
		}
		return nil, err
	}
	return &userModel, nil
}

// FindByID retrieves a user by their internal ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found with this ID.")
		}
		return nil, err
	}
	return &userModel, nil
}

// FindByIDs retrieves the users for a set of IDs. Missing IDs are skipped.
func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Update modifies an existing user record in place.
func (r *gormRepository) Update(ctx context.Context, user *User) error {
	user.Handle = NormalizeHandle(user.Handle)
	err := r.db.WithContext(ctx).Save(user).Error
	if err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrConflict.WithDetails("Update failed: external ID already taken.")
		}
		return err
	}
	return nil
}

// FindHandle resolves a user's stored handle by internal ID.
// The matcher uses this to resolve reciprocity candidates.
func (r *gormRepository) FindHandle(ctx context.Context, id uuid.UUID) (string, error) {
	var handle string
	err := r.db.WithContext(ctx).Model(&User{}).
		Select("handle").
		Where("id = ?", id).
		Take(&handle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", common.ErrNotFound.WithDetails("User not found with this ID.")
		}
		return "", err
	}
	return handle, nil
}

// SearchByHandle returns users whose handle starts with the given prefix.
// Handles are stored lowercased, so a plain LIKE works on both Postgres
// and the sqlite test databases.
func (r *gormRepository) SearchByHandle(ctx context.Context, prefix string, limit int) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Where("handle LIKE ?", NormalizeHandle(prefix)+"%").
		Order("handle ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// MarkSeen records a presence ping.
func (r *gormRepository) MarkSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_online": true, "last_seen_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("User not found with this ID.")
	}
	return nil
}

// MarkOfflineBefore flips is_online off for users whose last ping is older
// than the cutoff. Returns the number of rows changed.
func (r *gormRepository) MarkOfflineBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("is_online = ? AND (last_seen_at IS NULL OR last_seen_at < ?)", true, cutoff).
		Update("is_online", false)
	return res.RowsAffected, res.Error
}

// Count returns the total number of registered users.
func (r *gormRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&User{}).Count(&total).Error
	return total, err
}
