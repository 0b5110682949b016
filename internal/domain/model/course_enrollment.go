package model

import "time"

// Enrollment mode granted when an order is paid.
const EnrollmentModeVerified = "verified"

// CourseEnrollment mirrors the LMS student_courseenrollment table.
// One row per (user, course); deactivation flips IsActive instead of deleting.
type CourseEnrollment struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	UserID   int64     `gorm:"not null;uniqueIndex:uniq_enrollment_user_course"`
	CourseID string    `gorm:"type:varchar(255);not null;uniqueIndex:uniq_enrollment_user_course"`
	Created  time.Time `gorm:"autoCreateTime"`
	IsActive bool      `gorm:"not null"`
	Mode     string    `gorm:"type:varchar(100);not null"`
}

func (CourseEnrollment) TableName() string {
	return "student_courseenrollment"
}
