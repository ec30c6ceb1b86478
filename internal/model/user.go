package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an authenticated user in the system. The email is stored
// lowercased so uniqueness is case-insensitive regardless of collation.
type User struct {
	ID           string    `json:"id" gorm:"type:char(36);primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	FirstName    string    `json:"firstName" gorm:"size:100;not null"`
	LastName     string    `json:"lastName" gorm:"size:100;not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BeforeCreate sets the UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
