package usecase

import (
	"context"
	"strings"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
	repo "github.com/NekoNeko6996/cusc-edx-api/internal/repository"

	"github.com/samber/lo"
)

type UserUsecase struct {
	users repo.UserRepository
}

func NewUserUsecase(users repo.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

type UserLookupInput struct {
	Username string
	Email    string
}

type UserOutput struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

type UserLookupOutput struct {
	Count   int          `json:"count"`
	Results []UserOutput `json:"results"`
}

// Lookup lets the shop map its customers onto LMS accounts.
func (u *UserUsecase) Lookup(ctx context.Context, in UserLookupInput) (UserLookupOutput, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" && email == "" {
		return UserLookupOutput{}, validationError("Missing username or email")
	}

	users, err := u.users.Lookup(ctx, repo.UserLookupFilter{Username: username, Email: email})
	if err != nil {
		return UserLookupOutput{}, internalError(err)
	}

	return UserLookupOutput{
		Count: len(users),
		Results: lo.Map(users, func(m model.User, _ int) UserOutput {
			return UserOutput{ID: m.ID, Username: m.Username, Email: m.Email, IsActive: m.IsActive}
		}),
	}, nil
}
