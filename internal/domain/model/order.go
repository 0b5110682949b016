package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusFailed   OrderStatus = "failed"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusRefunded OrderStatus = "refunded"
	OrderStatusExpired  OrderStatus = "expired"
)

// DefaultCurrency is used when the caller does not send one.
const DefaultCurrency = "VND"

// PaymentInfoKey is the extra_data key holding what the payment side reported.
const PaymentInfoKey = "payment_info"

// OrderStatuses lists every status in the order clients see in "allowed".
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusPaid,
		OrderStatusFailed,
		OrderStatusCanceled,
		OrderStatusRefunded,
		OrderStatusExpired,
	}
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses() {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Order is an e-commerce purchase of one course seat, created by the Node.js shop.
type Order struct {
	ID              int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64             `gorm:"not null;index" json:"user_id"`
	User            User              `gorm:"foreignKey:UserID;-:migration" json:"-"`
	CourseID        string            `gorm:"type:varchar(255);not null" json:"course_id"`
	ExternalOrderID *string           `gorm:"type:varchar(255);index" json:"external_order_id"`
	Amount          decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency        string            `gorm:"type:varchar(10);not null;default:'VND'" json:"currency"`
	Status          OrderStatus       `gorm:"type:varchar(20);not null;index" json:"status"`
	ExtraData       datatypes.JSONMap `json:"extra_data"`
	CreatedAt       time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;autoUpdateTime" json:"updated_at"`
	ExpiredAt       *time.Time        `json:"expired_at"`
}

func (Order) TableName() string {
	return "cusc_ecommerce_order"
}

// OrderStatusChange is everything a status transition writes in one UPDATE.
type OrderStatusChange struct {
	Status    OrderStatus
	ExtraData datatypes.JSONMap
	ExpiredAt *time.Time
	UpdatedAt time.Time
}
