package model

import "time"

// CourseMode is a purchasable track of a course (audit, verified, ...) from
// the LMS course_modes_coursemode table. MinPrice is in whole currency units.
type CourseMode struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement"`
	CourseID           string     `gorm:"type:varchar(255);not null;index"`
	ModeSlug           string     `gorm:"type:varchar(100);not null"`
	ModeDisplayName    string     `gorm:"type:varchar(255);not null"`
	MinPrice           int64      `gorm:"not null"`
	Currency           string     `gorm:"type:varchar(8);not null"`
	ExpirationDatetime *time.Time `gorm:"column:expiration_datetime"`
	ExpirationDate     *time.Time `gorm:"column:expiration_date;type:date"`
	Sku                *string    `gorm:"column:sku;type:varchar(255)"`
	BulkSku            *string    `gorm:"column:bulk_sku;type:varchar(255)"`
}

func (CourseMode) TableName() string {
	return "course_modes_coursemode"
}

// ActiveAt reports whether the mode can still be bought at t.
func (m CourseMode) ActiveAt(t time.Time) bool {
	return m.ExpirationDatetime == nil || m.ExpirationDatetime.After(t)
}
