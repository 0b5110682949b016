package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"net/http"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/coursekey"
	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
	repo "github.com/NekoNeko6996/cusc-edx-api/internal/repository"

	"github.com/samber/lo"
)

// CourseKeyParser turns an order's course_id into an LMS course key.
type CourseKeyParser interface {
	Parse(raw string) (coursekey.CourseKey, error)
}

// OrderStatusUsecase applies payment results reported by the shop and
// enrolls the buyer when an order becomes paid.
type OrderStatusUsecase struct {
	orders      repo.OrderRepository
	enrollments repo.EnrollmentRepository
	parser      CourseKeyParser
	clock       Clock
	mode        string
}

// DI
func NewOrderStatusUsecase(
	orders repo.OrderRepository,
	enrollments repo.EnrollmentRepository,
	parser CourseKeyParser,
	clock Clock,
	enrollmentMode string,
) *OrderStatusUsecase {
	if enrollmentMode == "" {
		enrollmentMode = model.EnrollmentModeVerified
	}
	return &OrderStatusUsecase{
		orders:      orders,
		enrollments: enrollments,
		parser:      parser,
		clock:       clock,
		mode:        enrollmentMode,
	}
}

// UpdateOrderStatusInput.PaymentInfo is nil when the body had no
// payment_info key; a JSON null arrives as the literal "null".
type UpdateOrderStatusInput struct {
	Status      string
	PaymentInfo json.RawMessage
}

type OrderStatusOutput struct {
	OrderOutput
	EnrollmentCreated bool `json:"enrollment_created"`
}

// AllowedStatuses is the "allowed" list sent back with InvalidStatus.
func AllowedStatuses() []string {
	return lo.Map(model.OrderStatuses(), func(s model.OrderStatus, _ int) string { return string(s) })
}

func (u *OrderStatusUsecase) UpdateStatus(ctx context.Context, orderID int64, in UpdateOrderStatusInput) (OrderStatusOutput, error) {
	newStatus, ok := model.ParseOrderStatus(in.Status)
	if !ok {
		return OrderStatusOutput{}, &HTTPError{
			Status:  http.StatusBadRequest,
			Message: "Invalid status",
			Allowed: AllowedStatuses(),
			Kind:    ErrInvalidStatus,
		}
	}

	var paymentInfo any
	if in.PaymentInfo != nil {
		dec := json.NewDecoder(bytes.NewReader(in.PaymentInfo))
		dec.UseNumber()
		if err := dec.Decode(&paymentInfo); err != nil {
			return OrderStatusOutput{}, validationError("Invalid payment_info")
		}
	}

	order, err := u.load(ctx, orderID)
	if err != nil {
		return OrderStatusOutput{}, err
	}

	// no-op, nothing is written
	if order.Status == newStatus {
		return OrderStatusOutput{OrderOutput: toOrderOutput(order)}, nil
	}

	now := u.clock.Now()
	ch := model.OrderStatusChange{
		Status:    newStatus,
		ExtraData: map[string]any{},
		UpdatedAt: now,
	}
	maps.Copy(ch.ExtraData, order.ExtraData)
	if in.PaymentInfo != nil {
		ch.ExtraData[model.PaymentInfoKey] = paymentInfo
	}
	if newStatus == model.OrderStatusExpired {
		ch.ExpiredAt = &now
	}

	swapped, err := u.orders.CompareAndSetStatus(ctx, order.ID, order.Status, ch)
	if err != nil {
		return OrderStatusOutput{}, internalError(err)
	}
	if !swapped {
		// someone else moved the order between our read and write
		current, err := u.load(ctx, orderID)
		if err != nil {
			return OrderStatusOutput{}, err
		}
		if current.Status == newStatus {
			return OrderStatusOutput{OrderOutput: toOrderOutput(current)}, nil
		}
		out := toOrderOutput(current)
		return OrderStatusOutput{}, &HTTPError{
			Status:  http.StatusConflict,
			Message: "Order status changed concurrently",
			Order:   &out,
			Kind:    ErrConflict,
		}
	}

	slog.InfoContext(ctx, "order status changed",
		"order_id", order.ID, "from", order.Status, "to", newStatus)

	prev := order.Status
	order.Status = newStatus
	order.ExtraData = ch.ExtraData
	order.ExpiredAt = ch.ExpiredAt
	order.UpdatedAt = now
	out := OrderStatusOutput{OrderOutput: toOrderOutput(order)}

	if newStatus != model.OrderStatusPaid {
		return out, nil
	}

	// paid => enroll. The status write above is kept even if this fails.
	key, err := u.parser.Parse(order.CourseID)
	if err != nil {
		slog.WarnContext(ctx, "paid order has invalid course_id",
			"order_id", order.ID, "course_id", order.CourseID, "previous_status", prev)
		return OrderStatusOutput{}, &HTTPError{
			Status:  http.StatusBadRequest,
			Message: "Invalid course_id format",
			Order:   &out.OrderOutput,
			Kind:    ErrInvalidCourseID,
		}
	}

	active, err := u.enrollments.IsActive(ctx, order.UserID, key)
	if err != nil {
		return OrderStatusOutput{}, internalError(err)
	}
	if active {
		return out, nil
	}

	if err := u.enrollments.Enroll(ctx, order.UserID, key, u.mode); err != nil {
		return OrderStatusOutput{}, internalError(err)
	}
	out.EnrollmentCreated = true

	slog.InfoContext(ctx, "user enrolled",
		"order_id", order.ID, "user_id", order.UserID, "course_key", key.String(), "mode", u.mode)

	return out, nil
}

func (u *OrderStatusUsecase) load(ctx context.Context, orderID int64) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, notFoundError("Order not found")
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, notFoundError("Order not found")
	}
	if err != nil {
		return model.Order{}, internalError(err)
	}
	return o, nil
}
