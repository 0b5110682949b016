package repository

import (
	"context"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/coursekey"
)

// EnrollmentRepository is the LMS enrollment service seen from this app.
type EnrollmentRepository interface {
	IsActive(ctx context.Context, userID int64, key coursekey.CourseKey) (bool, error)
	// Enroll creates the enrollment or reactivates an existing one with mode.
	Enroll(ctx context.Context, userID int64, key coursekey.CourseKey, mode string) error
}
