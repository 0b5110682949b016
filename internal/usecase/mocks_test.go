package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/coursekey"
	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
	repo "github.com/NekoNeko6996/cusc-edx-api/internal/repository"
	"github.com/NekoNeko6996/cusc-edx-api/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) CompareAndSetStatus(ctx context.Context, orderID int64, from model.OrderStatus, ch model.OrderStatusChange) (bool, error) {
	args := m.Called(ctx, orderID, from, ch)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) CountPendingCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) ExpirePendingCreatedBefore(ctx context.Context, cutoff time.Time, now time.Time) (int64, error) {
	args := m.Called(ctx, cutoff, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) DeletePendingCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

var _ repo.OrderRepository = (*OrderRepoMock)(nil)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByUsername(ctx context.Context, username string) (model.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Lookup(ctx context.Context, f repo.UserLookupFilter) ([]model.User, error) {
	args := m.Called(ctx, f)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

var _ repo.UserRepository = (*UserRepoMock)(nil)

type EnrollmentRepoMock struct{ mock.Mock }

func (m *EnrollmentRepoMock) IsActive(ctx context.Context, userID int64, key coursekey.CourseKey) (bool, error) {
	args := m.Called(ctx, userID, key)
	return args.Bool(0), args.Error(1)
}

func (m *EnrollmentRepoMock) Enroll(ctx context.Context, userID int64, key coursekey.CourseKey, mode string) error {
	args := m.Called(ctx, userID, key, mode)
	return args.Error(0)
}

var _ repo.EnrollmentRepository = (*EnrollmentRepoMock)(nil)

type CourseModeRepoMock struct{ mock.Mock }

func (m *CourseModeRepoMock) ListByCourse(ctx context.Context, key coursekey.CourseKey, modeSlug string) ([]model.CourseMode, error) {
	args := m.Called(ctx, key, modeSlug)
	modes, _ := args.Get(0).([]model.CourseMode)
	return modes, args.Error(1)
}

var _ repo.CourseModeRepository = (*CourseModeRepoMock)(nil)

// =====================
// TxManager mock
// =====================

// TxManagerMock runs fn with fixed repos and records the call.
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders repo.OrderRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository { return r.orders }

// =====================
// helpers
// =====================

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func requireHTTPError(t *testing.T, err error, status int) *usecase.HTTPError {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if !assert.True(t, ok, "want *HTTPError, got %v", err) {
		t.FailNow()
	}
	assert.Equal(t, status, he.Status)
	return he
}
