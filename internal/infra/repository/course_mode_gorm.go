package repository

import (
	"context"
	"fmt"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/coursekey"
	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
	repo "github.com/NekoNeko6996/cusc-edx-api/internal/repository"

	"gorm.io/gorm"
)

type courseModeGormRepository struct {
	db *gorm.DB
}

func NewCourseModeGormRepository(db *gorm.DB) repo.CourseModeRepository {
	return &courseModeGormRepository{db: db}
}

func (r *courseModeGormRepository) ListByCourse(ctx context.Context, key coursekey.CourseKey, modeSlug string) ([]model.CourseMode, error) {
	q := r.db.WithContext(ctx).Where("course_id = ?", key.String())
	if modeSlug != "" {
		q = q.Where("mode_slug = ?", modeSlug)
	}

	var modes []model.CourseMode
	if err := q.Order("id").Find(&modes).Error; err != nil {
		return nil, fmt.Errorf("list course modes: %w", err)
	}
	return modes, nil
}
