package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/coursekey"
	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
	repo "github.com/NekoNeko6996/cusc-edx-api/internal/repository"
	"github.com/NekoNeko6996/cusc-edx-api/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCourseID = "course-v1:CUSC+GO101+2025"

func newStatusUC(orders *OrderRepoMock, enroll *EnrollmentRepoMock, mode string) *usecase.OrderStatusUsecase {
	return usecase.NewOrderStatusUsecase(orders, enroll, coursekey.Parser{}, fixedClock{now: testNow}, mode)
}

func pendingOrder(id int64) model.Order {
	return model.Order{
		ID:        id,
		UserID:    8,
		User:      model.User{ID: 8, Username: "buyer", Email: "buyer@example.com"},
		CourseID:  testCourseID,
		Status:    model.OrderStatusPending,
		Currency:  "VND",
		ExtraData: map[string]any{"source": "node"},
	}
}

func mustKey(t *testing.T, raw string) coursekey.CourseKey {
	t.Helper()
	k, err := coursekey.Parse(raw)
	require.NoError(t, err)
	return k
}

func TestOrderStatusUsecase_InvalidStatus(t *testing.T) {
	orders := new(OrderRepoMock)
	uc := newStatusUC(orders, new(EnrollmentRepoMock), "")

	_, err := uc.UpdateStatus(context.Background(), 1, usecase.UpdateOrderStatusInput{Status: "shipped"})
	he := requireHTTPError(t, err, 400)
	assert.Equal(t, "Invalid status", he.Message)
	assert.Equal(t, []string{"pending", "paid", "failed", "canceled", "refunded", "expired"}, he.Allowed)
	assert.ErrorIs(t, err, usecase.ErrInvalidStatus)

	// checked before the order is loaded
	orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestOrderStatusUsecase_StatusNotTrimmed(t *testing.T) {
	orders := new(OrderRepoMock)
	uc := newStatusUC(orders, new(EnrollmentRepoMock), "")

	_, err := uc.UpdateStatus(context.Background(), 1, usecase.UpdateOrderStatusInput{Status: "paid "})
	requireHTTPError(t, err, 400)
	assert.ErrorIs(t, err, usecase.ErrInvalidStatus)
	orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestOrderStatusUsecase_NotFound(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{}, repo.ErrNotFound)

	uc := newStatusUC(orders, new(EnrollmentRepoMock), "")

	_, err := uc.UpdateStatus(context.Background(), 5, usecase.UpdateOrderStatusInput{Status: "paid"})
	he := requireHTTPError(t, err, 404)
	assert.Equal(t, "Order not found", he.Message)
}

func TestOrderStatusUsecase_SameStatus_NoOp(t *testing.T) {
	o := pendingOrder(3)
	o.Status = model.OrderStatusPaid

	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(3)).Return(o, nil)
	enroll := new(EnrollmentRepoMock)

	uc := newStatusUC(orders, enroll, "")

	out, err := uc.UpdateStatus(context.Background(), 3, usecase.UpdateOrderStatusInput{
		Status:      "paid",
		PaymentInfo: json.RawMessage(`{"txn":"ignored"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "paid", out.Status)
	assert.False(t, out.EnrollmentCreated)
	assert.NotContains(t, out.ExtraData, "payment_info")

	orders.AssertNotCalled(t, "CompareAndSetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	enroll.AssertNotCalled(t, "IsActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderStatusUsecase_Failed_MergesPaymentInfo(t *testing.T) {
	o := pendingOrder(4)

	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(4)).Return(o, nil)
	orders.On("CompareAndSetStatus", mock.Anything, int64(4), model.OrderStatusPending, mock.MatchedBy(func(ch model.OrderStatusChange) bool {
		info, ok := ch.ExtraData["payment_info"].(map[string]any)
		return ch.Status == model.OrderStatusFailed &&
			ok && info["code"] == "51" &&
			ch.ExtraData["source"] == "node" &&
			ch.ExpiredAt == nil &&
			ch.UpdatedAt.Equal(testNow)
	})).Return(true, nil)

	uc := newStatusUC(orders, new(EnrollmentRepoMock), "")

	out, err := uc.UpdateStatus(context.Background(), 4, usecase.UpdateOrderStatusInput{
		Status:      "failed",
		PaymentInfo: json.RawMessage(`{"code":"51"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "failed", out.Status)
	assert.False(t, out.EnrollmentCreated)
	assert.Equal(t, map[string]any{"code": "51"}, out.ExtraData["payment_info"])

	// the loaded order's map is not mutated
	assert.NotContains(t, o.ExtraData, "payment_info")
	orders.AssertExpectations(t)
}

func TestOrderStatusUsecase_PaymentInfoNullIsStored(t *testing.T) {
	o := pendingOrder(4)
	o.ExtraData = map[string]any{"payment_info": "old"}

	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(4)).Return(o, nil)
	orders.On("CompareAndSetStatus", mock.Anything, int64(4), model.OrderStatusPending, mock.MatchedBy(func(ch model.OrderStatusChange) bool {
		v, ok := ch.ExtraData["payment_info"]
		return ok && v == nil
	})).Return(true, nil)

	uc := newStatusUC(orders, new(EnrollmentRepoMock), "")

	out, err := uc.UpdateStatus(context.Background(), 4, usecase.UpdateOrderStatusInput{
		Status:      "canceled",
		PaymentInfo: json.RawMessage(`null`),
	})
	require.NoError(t, err)
	v, ok := out.ExtraData["payment_info"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestOrderStatusUsecase_PaymentInfoKeepsLargeIntegers(t *testing.T) {
	o := pendingOrder(4)

	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(4)).Return(o, nil)
	orders.On("CompareAndSetStatus", mock.Anything, int64(4), model.OrderStatusPending, mock.MatchedBy(func(ch model.OrderStatusChange) bool {
		info, ok := ch.ExtraData["payment_info"].(map[string]any)
		return ok && info["txn"] == json.Number("9007199254740993")
	})).Return(true, nil)

	uc := newStatusUC(orders, new(EnrollmentRepoMock), "")

	out, err := uc.UpdateStatus(context.Background(), 4, usecase.UpdateOrderStatusInput{
		Status:      "failed",
		PaymentInfo: json.RawMessage(`{"txn":9007199254740993}`),
	})
	require.NoError(t, err)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"txn":9007199254740993`)
	orders.AssertExpectations(t)
}

func TestOrderStatusUsecase_Expired_SetsExpiredAt(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(6)).Return(pendingOrder(6), nil)
	orders.On("CompareAndSetStatus", mock.Anything, int64(6), model.OrderStatusPending, mock.MatchedBy(func(ch model.OrderStatusChange) bool {
		return ch.ExpiredAt != nil && ch.ExpiredAt.Equal(testNow)
	})).Return(true, nil)

	uc := newStatusUC(orders, new(EnrollmentRepoMock), "")

	out, err := uc.UpdateStatus(context.Background(), 6, usecase.UpdateOrderStatusInput{Status: "expired"})
	require.NoError(t, err)
	require.NotNil(t, out.ExpiredAt)
	assert.True(t, out.ExpiredAt.Equal(testNow))
}

func TestOrderStatusUsecase_LeavingExpired_ClearsExpiredAt(t *testing.T) {
	o := pendingOrder(6)
	o.Status = model.OrderStatusExpired
	o.ExpiredAt = &testNow

	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(6)).Return(o, nil)
	orders.On("CompareAndSetStatus", mock.Anything, int64(6), model.OrderStatusExpired, mock.MatchedBy(func(ch model.OrderStatusChange) bool {
		return ch.ExpiredAt == nil
	})).Return(true, nil)

	uc := newStatusUC(orders, new(EnrollmentRepoMock), "")

	out, err := uc.UpdateStatus(context.Background(), 6, usecase.UpdateOrderStatusInput{Status: "refunded"})
	require.NoError(t, err)
	assert.Nil(t, out.ExpiredAt)
}

func TestOrderStatusUsecase_Paid_Enrolls(t *testing.T) {
	key := mustKey(t, testCourseID)

	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(9)).Return(pendingOrder(9), nil)
	orders.On("CompareAndSetStatus", mock.Anything, int64(9), model.OrderStatusPending, mock.Anything).Return(true, nil)

	enroll := new(EnrollmentRepoMock)
	enroll.On("IsActive", mock.Anything, int64(8), key).Return(false, nil)
	enroll.On("Enroll", mock.Anything, int64(8), key, "verified").Return(nil)

	uc := newStatusUC(orders, enroll, "")

	out, err := uc.UpdateStatus(context.Background(), 9, usecase.UpdateOrderStatusInput{Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, "paid", out.Status)
	assert.True(t, out.EnrollmentCreated)

	orders.AssertExpectations(t)
	enroll.AssertExpectations(t)
}

func TestOrderStatusUsecase_Paid_CustomMode(t *testing.T) {
	key := mustKey(t, testCourseID)

	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(9)).Return(pendingOrder(9), nil)
	orders.On("CompareAndSetStatus", mock.Anything, int64(9), model.OrderStatusPending, mock.Anything).Return(true, nil)

	enroll := new(EnrollmentRepoMock)
	enroll.On("IsActive", mock.Anything, int64(8), key).Return(false, nil)
	enroll.On("Enroll", mock.Anything, int64(8), key, "honor").Return(nil)

	uc := newStatusUC(orders, enroll, "honor")

	_, err := uc.UpdateStatus(context.Background(), 9, usecase.UpdateOrderStatusInput{Status: "paid"})
	require.NoError(t, err)
	enroll.AssertExpectations(t)
}

func TestOrderStatusUsecase_Paid_AlreadyEnrolled(t *testing.T) {
	key := mustKey(t, testCourseID)

	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(9)).Return(pendingOrder(9), nil)
	orders.On("CompareAndSetStatus", mock.Anything, int64(9), model.OrderStatusPending, mock.Anything).Return(true, nil)

	enroll := new(EnrollmentRepoMock)
	enroll.On("IsActive", mock.Anything, int64(8), key).Return(true, nil)

	uc := newStatusUC(orders, enroll, "")

	out, err := uc.UpdateStatus(context.Background(), 9, usecase.UpdateOrderStatusInput{Status: "paid"})
	require.NoError(t, err)
	assert.False(t, out.EnrollmentCreated)
	enroll.AssertNotCalled(t, "Enroll", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderStatusUsecase_Paid_InvalidCourseID_KeepsStatus(t *testing.T) {
	o := pendingOrder(11)
	o.CourseID = "not a course"

	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(11)).Return(o, nil)
	orders.On("CompareAndSetStatus", mock.Anything, int64(11), model.OrderStatusPending, mock.Anything).Return(true, nil)
	enroll := new(EnrollmentRepoMock)

	uc := newStatusUC(orders, enroll, "")

	_, err := uc.UpdateStatus(context.Background(), 11, usecase.UpdateOrderStatusInput{Status: "paid"})
	he := requireHTTPError(t, err, 400)
	assert.Equal(t, "Invalid course_id format", he.Message)
	assert.ErrorIs(t, err, usecase.ErrInvalidCourseID)
	require.NotNil(t, he.Order)
	assert.Equal(t, "paid", he.Order.Status)

	orders.AssertExpectations(t)
	enroll.AssertNotCalled(t, "IsActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderStatusUsecase_Paid_EnrollFailure(t *testing.T) {
	key := mustKey(t, testCourseID)

	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(9)).Return(pendingOrder(9), nil)
	orders.On("CompareAndSetStatus", mock.Anything, int64(9), model.OrderStatusPending, mock.Anything).Return(true, nil)

	enroll := new(EnrollmentRepoMock)
	enroll.On("IsActive", mock.Anything, int64(8), key).Return(false, nil)
	enroll.On("Enroll", mock.Anything, int64(8), key, "verified").Return(errors.New("lms unavailable"))

	uc := newStatusUC(orders, enroll, "")

	_, err := uc.UpdateStatus(context.Background(), 9, usecase.UpdateOrderStatusInput{Status: "paid"})
	requireHTTPError(t, err, 500)
	assert.ErrorIs(t, err, usecase.ErrInternal)
}

// =====================
// concurrent updates
// =====================

func TestOrderStatusUsecase_LostRace_SameTarget_IsIdempotent(t *testing.T) {
	paid := pendingOrder(12)
	paid.Status = model.OrderStatusPaid

	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(12)).Return(pendingOrder(12), nil).Once()
	orders.On("FindByID", mock.Anything, int64(12)).Return(paid, nil).Once()
	orders.On("CompareAndSetStatus", mock.Anything, int64(12), model.OrderStatusPending, mock.Anything).Return(false, nil)
	enroll := new(EnrollmentRepoMock)

	uc := newStatusUC(orders, enroll, "")

	out, err := uc.UpdateStatus(context.Background(), 12, usecase.UpdateOrderStatusInput{Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, "paid", out.Status)
	assert.False(t, out.EnrollmentCreated)

	// the winner enrolls, not us
	enroll.AssertNotCalled(t, "Enroll", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orders.AssertExpectations(t)
}

func TestOrderStatusUsecase_LostRace_OtherTarget_Conflict(t *testing.T) {
	canceled := pendingOrder(13)
	canceled.Status = model.OrderStatusCanceled

	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, int64(13)).Return(pendingOrder(13), nil).Once()
	orders.On("FindByID", mock.Anything, int64(13)).Return(canceled, nil).Once()
	orders.On("CompareAndSetStatus", mock.Anything, int64(13), model.OrderStatusPending, mock.Anything).Return(false, nil)

	uc := newStatusUC(orders, new(EnrollmentRepoMock), "")

	_, err := uc.UpdateStatus(context.Background(), 13, usecase.UpdateOrderStatusInput{Status: "paid"})
	he := requireHTTPError(t, err, 409)
	assert.ErrorIs(t, err, usecase.ErrConflict)
	require.NotNil(t, he.Order)
	assert.Equal(t, "canceled", he.Order.Status)
}
