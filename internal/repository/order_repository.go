package repository

import (
	"context"
	"time"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
)

// OrderListFilter fields are AND-combined. Zero values mean "no filter".
type OrderListFilter struct {
	Status          string
	UserID          *int64
	Username        string
	ExternalOrderID string
	Limit           int
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	// FindByID loads the order together with its user.
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// List returns at most f.Limit orders, newest first, and the total
	// number of orders matching f.
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)

	// CompareAndSetStatus applies ch only while the row is still in status from.
	// false means nothing was written.
	CompareAndSetStatus(ctx context.Context, orderID int64, from model.OrderStatus, ch model.OrderStatusChange) (bool, error)

	//pending orders created before cutoff
	CountPendingCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ExpirePendingCreatedBefore(ctx context.Context, cutoff time.Time, now time.Time) (int64, error)
	DeletePendingCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
