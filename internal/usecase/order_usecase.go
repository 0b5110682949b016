package usecase

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
	repo "github.com/NekoNeko6996/cusc-edx-api/internal/repository"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// OrderListLimit caps /orders/ responses.
const OrderListLimit = 50

// numeric(12,2) holds at most 10 integer digits
var maxAmount = decimal.New(1, 10)

// Current time
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type OrderUsecase struct {
	orders repo.OrderRepository
	users  repo.UserRepository
}

func NewOrderUsecase(orders repo.OrderRepository, users repo.UserRepository) *OrderUsecase {
	return &OrderUsecase{orders: orders, users: users}
}

// CreateOrderInput identifies the buyer by UserID, Username or Email,
// first one set wins. Amount is the literal JSON text (number or string).
type CreateOrderInput struct {
	UserID          *int64
	Username        string
	Email           string
	CourseID        string
	Amount          string
	Currency        string
	ExternalOrderID *string
	ExtraData       map[string]any
}

type ListOrdersInput struct {
	Status          string
	UserID          *int64
	Username        string
	ExternalOrderID string
}

type OrderOutput struct {
	ID              int64          `json:"id"`
	ExternalOrderID *string        `json:"external_order_id"`
	UserID          int64          `json:"user_id"`
	Username        string         `json:"username"`
	Email           string         `json:"email"`
	CourseID        string         `json:"course_id"`
	Amount          string         `json:"amount"`
	Currency        string         `json:"currency"`
	Status          string         `json:"status"`
	ExtraData       map[string]any `json:"extra_data"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	ExpiredAt       *time.Time     `json:"expired_at"`
}

type OrderListOutput struct {
	Count   int64         `json:"count"`
	Results []OrderOutput `json:"results"`
}

func (u *OrderUsecase) CreateOrder(ctx context.Context, in CreateOrderInput) (OrderOutput, error) {
	courseID := strings.TrimSpace(in.CourseID)
	if courseID == "" {
		return OrderOutput{}, validationError("Missing course_id")
	}

	amount, ok := ParseAmount(in.Amount)
	if !ok {
		return OrderOutput{}, validationError("Missing or invalid amount")
	}

	cur := model.DefaultCurrency
	if c := strings.TrimSpace(in.Currency); c != "" {
		unit, err := currency.ParseISO(strings.ToUpper(c))
		if err != nil {
			return OrderOutput{}, validationError("Invalid currency")
		}
		cur = unit.String()
	}

	user, err := u.resolveUser(ctx, in)
	if err != nil {
		return OrderOutput{}, err
	}

	extra := in.ExtraData
	if extra == nil {
		extra = map[string]any{}
	}

	order := model.Order{
		UserID:          user.ID,
		CourseID:        courseID,
		ExternalOrderID: in.ExternalOrderID,
		Amount:          amount,
		Currency:        cur,
		Status:          model.OrderStatusPending,
		ExtraData:       extra,
	}
	if err := u.orders.Create(ctx, &order); err != nil {
		return OrderOutput{}, internalError(err)
	}
	order.User = user

	slog.InfoContext(ctx, "order created",
		"order_id", order.ID, "user_id", user.ID, "course_id", courseID, "amount", amount.StringFixed(2), "currency", cur)

	return toOrderOutput(order), nil
}

func (u *OrderUsecase) GetOrder(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, notFoundError("Order not found")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, notFoundError("Order not found")
	}
	if err != nil {
		return OrderOutput{}, internalError(err)
	}
	return toOrderOutput(o), nil
}

func (u *OrderUsecase) ListOrders(ctx context.Context, in ListOrdersInput) (OrderListOutput, error) {
	orders, total, err := u.orders.List(ctx, repo.OrderListFilter{
		Status:          in.Status,
		UserID:          in.UserID,
		Username:        in.Username,
		ExternalOrderID: in.ExternalOrderID,
		Limit:           OrderListLimit,
	})
	if err != nil {
		return OrderListOutput{}, internalError(err)
	}

	return OrderListOutput{
		Count:   total,
		Results: lo.Map(orders, func(o model.Order, _ int) OrderOutput { return toOrderOutput(o) }),
	}, nil
}

func (u *OrderUsecase) resolveUser(ctx context.Context, in CreateOrderInput) (model.User, error) {
	var (
		user model.User
		err  error
	)

	switch {
	case in.UserID != nil && *in.UserID > 0:
		user, err = u.users.FindByID(ctx, *in.UserID)
	case strings.TrimSpace(in.Username) != "":
		user, err = u.users.FindByUsername(ctx, strings.TrimSpace(in.Username))
	case strings.TrimSpace(in.Email) != "":
		user, err = u.users.FindByEmail(ctx, strings.TrimSpace(in.Email))
	default:
		return model.User{}, validationError("Missing user identifier (user_id | username | email)")
	}

	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, notFoundError("User not found")
	}
	if err != nil {
		return model.User{}, internalError(err)
	}
	return user, nil
}

// ParseAmount accepts the text of a JSON number or string.
// Negative values and values that do not fit numeric(12,2) are rejected.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	d = d.Round(2)
	if d.GreaterThanOrEqual(maxAmount) {
		return decimal.Decimal{}, false
	}
	return d, true
}

func toOrderOutput(o model.Order) OrderOutput {
	extra := map[string]any{}
	maps.Copy(extra, o.ExtraData)

	return OrderOutput{
		ID:              o.ID,
		ExternalOrderID: o.ExternalOrderID,
		UserID:          o.UserID,
		Username:        o.User.Username,
		Email:           o.User.Email,
		CourseID:        o.CourseID,
		Amount:          o.Amount.StringFixed(2),
		Currency:        o.Currency,
		Status:          string(o.Status),
		ExtraData:       extra,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		ExpiredAt:       o.ExpiredAt,
	}
}
