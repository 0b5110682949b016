package repository

import (
	"context"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
)

// UserLookupFilter fields are AND-combined; Email matches case-insensitively.
type UserLookupFilter struct {
	Username string
	Email    string
}

// Read-only access to the LMS user table.
type UserRepository interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	// FindByEmail matches exactly, unlike Lookup.
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Lookup(ctx context.Context, f UserLookupFilter) ([]model.User, error)
}
