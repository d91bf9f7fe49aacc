package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleParent = "parent"
	RoleAdmin  = "admin"
)

// User is a parent account. Students hang off it; the account owner is the
// one who can request deletion of the whole family's data.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100" json:"name"`
	Email     string         `gorm:"uniqueIndex;size:100" json:"email"`
	Password  string         `gorm:"size:255" json:"-"`
	Provider  string         `gorm:"size:50" json:"provider"`
	Role      string         `gorm:"size:20;default:'parent'" json:"role"`
	Status    string         `gorm:"size:20;default:'active'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
