package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"contactvault/internal/model"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type userRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewUserRepository builds a GORM-backed repository. Every operation runs
// under the given timeout.
func NewUserRepository(db *gorm.DB, timeout time.Duration) UserRepository {
	return &userRepository{db: db, timeout: timeout}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return mapStorageError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, mapStorageError(err)
	}
	return &user, nil
}

// FindByEmail expects an already lowercased email; users are stored that way.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapStorageError(err)
	}
	return &user, nil
}
