package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
	repo "github.com/NekoNeko6996/cusc-edx-api/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

var _ repo.OrderRepository = (*OrderGormRepository)(nil)

func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	// the user row belongs to the LMS, never upsert it
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("find order %d: %w", orderID, err)
	}
	return o, nil
}

func (r *OrderGormRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	//count before the cap
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return []model.Order{}, 0, fmt.Errorf("count orders: %w", err)
	}

	var items []model.Order
	err := r.filtered(ctx, f).
		Preload("User").
		Order("id desc").
		Limit(f.Limit).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, fmt.Errorf("list orders: %w", err)
	}

	return items, total, nil
}

func (r *OrderGormRepository) filtered(ctx context.Context, f repo.OrderListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Order{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Username != "" {
		users := r.db.WithContext(ctx).Model(&model.User{}).Select("id").Where("username = ?", f.Username)
		q = q.Where("user_id IN (?)", users)
	}
	if f.ExternalOrderID != "" {
		q = q.Where("external_order_id = ?", f.ExternalOrderID)
	}
	return q
}

func (r *OrderGormRepository) CompareAndSetStatus(ctx context.Context, orderID int64, from model.OrderStatus, ch model.OrderStatusChange) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]any{
			"status":     ch.Status,
			"extra_data": ch.ExtraData,
			"expired_at": ch.ExpiredAt,
			"updated_at": ch.UpdatedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update order %d status: %w", orderID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) stalePending(ctx context.Context, cutoff time.Time) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ? AND created_at < ?", model.OrderStatusPending, cutoff)
}

func (r *OrderGormRepository) CountPendingCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	if err := r.stalePending(ctx, cutoff).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count stale orders: %w", err)
	}
	return n, nil
}

func (r *OrderGormRepository) ExpirePendingCreatedBefore(ctx context.Context, cutoff time.Time, now time.Time) (int64, error) {
	res := r.stalePending(ctx, cutoff).Updates(map[string]any{
		"status":     model.OrderStatusExpired,
		"expired_at": now,
		"updated_at": now,
	})
	if res.Error != nil {
		return 0, fmt.Errorf("expire stale orders: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *OrderGormRepository) DeletePendingCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.OrderStatusPending, cutoff).
		Delete(&model.Order{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete stale orders: %w", res.Error)
	}
	return res.RowsAffected, nil
}
