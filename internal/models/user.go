package models

import (
	"time"

	"gorm.io/gorm"
)

// User rows are written by the accounts service; this service only reads them
// to resolve the acting contributor/student.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;size:255"`
	FullName string `json:"full_name" gorm:"not null;size:100"`
	Email    string `json:"email" gorm:"uniqueIndex;not null;size:255"`

	IsBanned bool `json:"is_banned" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
