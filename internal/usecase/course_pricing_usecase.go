package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
	repo "github.com/NekoNeko6996/cusc-edx-api/internal/repository"

	"github.com/samber/lo"
)

type CoursePricingUsecase struct {
	modes  repo.CourseModeRepository
	parser CourseKeyParser
	clock  Clock
}

func NewCoursePricingUsecase(modes repo.CourseModeRepository, parser CourseKeyParser, clock Clock) *CoursePricingUsecase {
	return &CoursePricingUsecase{modes: modes, parser: parser, clock: clock}
}

type CoursePricingInput struct {
	CourseID string
	Mode     string
}

// CourseModeOutput mirrors one course_modes_coursemode row.
// Price is the minimum price in whole currency units.
type CourseModeOutput struct {
	ModeSlug           string     `json:"mode_slug"`
	ModeDisplayName    string     `json:"mode_display_name"`
	Currency           string     `json:"currency"`
	Price              *string    `json:"price"`
	Sku                *string    `json:"sku"`
	BulkSku            *string    `json:"bulk_sku"`
	ExpirationDatetime *time.Time `json:"expiration_datetime"`
	ExpirationDate     *string    `json:"expiration_date"`
	IsActive           bool       `json:"is_active"`
}

type CoursePricingOutput struct {
	CourseID string             `json:"course_id"`
	Modes    []CourseModeOutput `json:"modes"`
}

func (u *CoursePricingUsecase) Get(ctx context.Context, in CoursePricingInput) (CoursePricingOutput, error) {
	courseID := strings.TrimSpace(in.CourseID)
	if courseID == "" {
		return CoursePricingOutput{}, validationError("Missing course_id")
	}

	key, err := u.parser.Parse(courseID)
	if err != nil {
		return CoursePricingOutput{}, &HTTPError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Invalid course_id '%s'", courseID),
			Kind:    ErrInvalidCourseID,
		}
	}

	modes, err := u.modes.ListByCourse(ctx, key, strings.TrimSpace(in.Mode))
	if err != nil {
		return CoursePricingOutput{}, internalError(err)
	}
	if len(modes) == 0 {
		return CoursePricingOutput{}, notFoundError("Pricing not found for this course")
	}

	now := u.clock.Now()
	return CoursePricingOutput{
		CourseID: courseID,
		Modes: lo.Map(modes, func(m model.CourseMode, _ int) CourseModeOutput {
			return toCourseModeOutput(m, now)
		}),
	}, nil
}

func toCourseModeOutput(m model.CourseMode, now time.Time) CourseModeOutput {
	out := CourseModeOutput{
		ModeSlug:           m.ModeSlug,
		ModeDisplayName:    m.ModeDisplayName,
		Currency:           m.Currency,
		Price:              lo.ToPtr(strconv.FormatInt(m.MinPrice, 10)),
		Sku:                m.Sku,
		BulkSku:            m.BulkSku,
		ExpirationDatetime: m.ExpirationDatetime,
		IsActive:           m.ActiveAt(now),
	}
	if m.ExpirationDate != nil {
		out.ExpirationDate = lo.ToPtr(m.ExpirationDate.Format(time.DateOnly))
	}
	return out
}
