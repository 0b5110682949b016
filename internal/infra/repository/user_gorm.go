package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
	domainrepo "github.com/NekoNeko6996/cusc-edx-api/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.go builds this and hands it to the usecases.
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

func (r *userGormRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userGormRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	return r.first(ctx, "username = ?", username)
}

// exact match; Lookup is the case-insensitive one
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userGormRepository) first(ctx context.Context, cond string, arg any) (model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where(cond, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, domainrepo.ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *userGormRepository) Lookup(ctx context.Context, f domainrepo.UserLookupFilter) ([]model.User, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if f.Username != "" {
		q = q.Where("username = ?", f.Username)
	}
	if f.Email != "" {
		q = q.Where("LOWER(email) = LOWER(?)", f.Email)
	}

	var users []model.User
	if err := q.Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("lookup users: %w", err)
	}
	return users, nil
}
