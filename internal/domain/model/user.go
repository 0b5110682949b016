package model

// User is the LMS account row (auth_user). The LMS owns the table,
// only the columns this service reads are mapped.
type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Username string `gorm:"type:varchar(150);uniqueIndex;not null"`
	Email    string `gorm:"type:varchar(254);not null;index"`
	IsActive bool   `gorm:"not null"`
}

func (User) TableName() string {
	return "auth_user"
}
