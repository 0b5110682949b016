// Package repotest provides an in-memory implementation of the repository
// ports for HTTP level tests.
package repotest

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/coursekey"
	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
	repo "github.com/NekoNeko6996/cusc-edx-api/internal/repository"
)

type enrollmentKey struct {
	userID int64
	course string
}

// Store holds users, orders, enrollments and course modes in memory.
// All methods are safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]model.User
	orders      map[int64]model.Order
	enrollments map[enrollmentKey]model.CourseEnrollment
	modes       []model.CourseMode
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:       map[int64]model.User{},
		orders:      map[int64]model.Order{},
		enrollments: map[enrollmentKey]model.CourseEnrollment{},
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) AddCourseMode(m model.CourseMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes = append(s.modes, m)
}

// Order returns a copy of the stored order.
func (s *Store) Order(id int64) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return s.withUser(o), ok
}

// Backdate moves an order's creation time, for reaper tests.
func (s *Store) Backdate(id int64, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.CreatedAt = createdAt
		s.orders[id] = o
	}
}

func (s *Store) Enrollment(userID int64, key coursekey.CourseKey) (model.CourseEnrollment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[enrollmentKey{userID, key.String()}]
	return e, ok
}

func (s *Store) Orders() repo.OrderRepository           { return orderRepo{s} }
func (s *Store) Users() repo.UserRepository             { return userRepo{s} }
func (s *Store) Enrollments() repo.EnrollmentRepository { return enrollmentRepo{s} }
func (s *Store) CourseModes() repo.CourseModeRepository { return courseModeRepo{s} }

// WithinTx runs fn against the same store; there is no rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(s)
}

func (s *Store) withUser(o model.Order) model.Order {
	o.User = s.users[o.UserID]
	o.ExtraData = maps.Clone(o.ExtraData)
	return o
}

// =====================
// orders
// =====================

type orderRepo struct{ s *Store }

func (r orderRepo) Create(ctx context.Context, order *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextID++
	now := r.s.now()
	order.ID = r.s.nextID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	stored := *order
	stored.User = model.User{}
	stored.ExtraData = maps.Clone(order.ExtraData)
	r.s.orders[order.ID] = stored
	return nil
}

func (r orderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return r.s.withUser(o), nil
}

func (r orderRepo) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []model.Order
	for _, o := range r.s.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Username != "" && r.s.users[o.UserID].Username != f.Username {
			continue
		}
		if f.ExternalOrderID != "" && (o.ExternalOrderID == nil || *o.ExternalOrderID != f.ExternalOrderID) {
			continue
		}
		out = append(out, r.s.withUser(o))
	}
	slices.SortFunc(out, func(a, b model.Order) int { return int(b.ID - a.ID) })

	total := int64(len(out))
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r orderRepo) CompareAndSetStatus(ctx context.Context, orderID int64, from model.OrderStatus, ch model.OrderStatusChange) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = ch.Status
	o.ExtraData = maps.Clone(ch.ExtraData)
	o.ExpiredAt = ch.ExpiredAt
	o.UpdatedAt = ch.UpdatedAt
	r.s.orders[orderID] = o
	return true, nil
}

func (r orderRepo) stale(cutoff time.Time) []int64 {
	var ids []int64
	for id, o := range r.s.orders {
		if o.Status == model.OrderStatusPending && o.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r orderRepo) CountPendingCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.stale(cutoff))), nil
}

func (r orderRepo) ExpirePendingCreatedBefore(ctx context.Context, cutoff time.Time, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := r.stale(cutoff)
	for _, id := range ids {
		o := r.s.orders[id]
		o.Status = model.OrderStatusExpired
		o.ExpiredAt = &now
		o.UpdatedAt = now
		r.s.orders[id] = o
	}
	return int64(len(ids)), nil
}

func (r orderRepo) DeletePendingCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := r.stale(cutoff)
	for _, id := range ids {
		delete(r.s.orders, id)
	}
	return int64(len(ids)), nil
}

// =====================
// users
// =====================

type userRepo struct{ s *Store }

func (r userRepo) FindByID(ctx context.Context, userID int64) (model.User, error) {
	return r.first(func(u model.User) bool { return u.ID == userID })
}

func (r userRepo) FindByUsername(ctx context.Context, username string) (model.User, error) {
	return r.first(func(u model.User) bool { return u.Username == username })
}

func (r userRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.first(func(u model.User) bool { return u.Email == email })
}

func (r userRepo) first(match func(model.User) bool) (model.User, error) {
	users, _ := r.Lookup(context.Background(), repo.UserLookupFilter{})
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, repo.ErrNotFound
}

func (r userRepo) Lookup(ctx context.Context, f repo.UserLookupFilter) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []model.User{}
	for _, u := range r.s.users {
		if f.Username != "" && u.Username != f.Username {
			continue
		}
		if f.Email != "" && !strings.EqualFold(u.Email, f.Email) {
			continue
		}
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b model.User) int { return int(a.ID - b.ID) })
	return out, nil
}

// =====================
// enrollments / course modes
// =====================

type enrollmentRepo struct{ s *Store }

func (r enrollmentRepo) IsActive(ctx context.Context, userID int64, key coursekey.CourseKey) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.enrollments[enrollmentKey{userID, key.String()}]
	return ok && e.IsActive, nil
}

func (r enrollmentRepo) Enroll(ctx context.Context, userID int64, key coursekey.CourseKey, mode string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := enrollmentKey{userID, key.String()}
	e := r.s.enrollments[k]
	e.UserID, e.CourseID, e.IsActive, e.Mode = userID, key.String(), true, mode
	r.s.enrollments[k] = e
	return nil
}

type courseModeRepo struct{ s *Store }

func (r courseModeRepo) ListByCourse(ctx context.Context, key coursekey.CourseKey, modeSlug string) ([]model.CourseMode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []model.CourseMode
	for _, m := range r.s.modes {
		if m.CourseID != key.String() {
			continue
		}
		if modeSlug != "" && m.ModeSlug != modeSlug {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
