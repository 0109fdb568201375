// File: internal/crush/repository.go
package crush

import (
	"context"
	"errors"

	"wlm_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for crush data operations.
//
// InTransaction runs fn against a Repository bound to a single database
// transaction; the matcher uses it so the new-crush insert and the
// reciprocal-mark update commit or roll back together.
type Repository interface {
	Create(ctx context.Context, crush *Crush) error
	FindByID(ctx context.Context, id uuid.UUID) (*Crush, error)
	FindByDeclarer(ctx context.Context, declarerID uuid.UUID) ([]Crush, error)
	FindByTargetHandle(ctx context.Context, handle string) ([]Crush, error)
	MarkMatched(ctx context.Context, ids ...uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountMatched(ctx context.Context) (int64, error)
	InTransaction(ctx context.Context, fn func(txRepo Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM crush repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new crush row.
func (r *gormRepository) Create(ctx context.Context, crush *Crush) error {
	err := r.db.WithContext(ctx).Create(crush).Error
	if err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrConflict.WithDetails("This crush has already been declared.")
		}
		return err
	}
	return nil
}

// FindByID retrieves a crush by its ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Crush, error) {
	var crushModel Crush
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&crushModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Crush not found with this ID.")
		}
		return nil, err
	}
	return &crushModel, nil
}

// FindByDeclarer retrieves all crushes declared by a user, oldest first.
func (r *gormRepository) FindByDeclarer(ctx context.Context, declarerID uuid.UUID) ([]Crush, error) {
	var crushes []Crush
	err := r.db.WithContext(ctx).
		Where("declarer_id = ?", declarerID).
		Order("created_at ASC").
		Find(&crushes).Error
	if err != nil {
		return nil, err
	}
	return crushes, nil
}

// FindByTargetHandle retrieves all crushes naming a handle, oldest first.
// Insertion order is the tie-break rule for reciprocity candidates.
func (r *gormRepository) FindByTargetHandle(ctx context.Context, handle string) ([]Crush, error) {
	var crushes []Crush
	err := r.db.WithContext(ctx).
		Where("target_handle = ?", handle).
		Order("created_at ASC").
		Find(&crushes).Error
	if err != nil {
		return nil, err
	}
	return crushes, nil
}

// MarkMatched flips the matched flag on for the given rows. Setting it
// twice is harmless; the flag is one-way.
func (r *gormRepository) MarkMatched(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&Crush{}).
		Where("id IN ?", ids).
		Update("matched", true).Error
}

// Count returns the total number of declared crushes.
func (r *gormRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&Crush{}).Count(&total).Error
	return total, err
}

// CountMatched returns the number of matched crush rows. Every matched
// pair contributes two rows.
func (r *gormRepository) CountMatched(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&Crush{}).Where("matched = ?", true).Count(&total).Error
	return total, err
}

// InTransaction runs fn with a repository bound to one transaction.
func (r *gormRepository) InTransaction(ctx context.Context, fn func(txRepo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
