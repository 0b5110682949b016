package repository

import (
	"context"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/coursekey"
	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
)

type CourseModeRepository interface {
	// modeSlug == "" returns every mode of the course.
	ListByCourse(ctx context.Context, key coursekey.CourseKey, modeSlug string) ([]model.CourseMode, error)
}
