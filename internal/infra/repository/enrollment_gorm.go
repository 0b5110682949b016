package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/coursekey"
	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
	repo "github.com/NekoNeko6996/cusc-edx-api/internal/repository"

	"gorm.io/gorm"
)

// EnrollmentGormRepository talks to the LMS student_courseenrollment table directly.
type EnrollmentGormRepository struct {
	db *gorm.DB
}

func NewEnrollmentGormRepository(db *gorm.DB) *EnrollmentGormRepository {
	return &EnrollmentGormRepository{db: db}
}

var _ repo.EnrollmentRepository = (*EnrollmentGormRepository)(nil)

func (r *EnrollmentGormRepository) IsActive(ctx context.Context, userID int64, key coursekey.CourseKey) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ? AND is_active = ?", userID, key.String(), true).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return n > 0, nil
}

// Enroll keeps one row per (user, course) like the LMS does: an inactive
// enrollment is switched back on with the new mode.
func (r *EnrollmentGormRepository) Enroll(ctx context.Context, userID int64, key coursekey.CourseKey, mode string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e model.CourseEnrollment
		err := tx.Where("user_id = ? AND course_id = ?", userID, key.String()).First(&e).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			e = model.CourseEnrollment{
				UserID:   userID,
				CourseID: key.String(),
				IsActive: true,
				Mode:     mode,
			}
			if err := tx.Create(&e).Error; err != nil {
				return fmt.Errorf("create enrollment: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("find enrollment: %w", err)
		}

		err = tx.Model(&model.CourseEnrollment{}).
			Where("id = ?", e.ID).
			Updates(map[string]any{"is_active": true, "mode": mode}).Error
		if err != nil {
			return fmt.Errorf("reactivate enrollment: %w", err)
		}
		return nil
	})
}
