package model

import "time"

// Contact represents a single entry in one user's contact book. OwnerID is
// never serialized; callers only ever see their own contacts anyway.
//
// Active is 1 for live rows and NULL for soft-deleted ones. It exists so the
// composite unique index (owner_id, email, active) holds only among
// non-deleted rows: MySQL unique indexes skip NULL entries, so any number of
// deleted rows may share an email while two live ones may not.
type Contact struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	OwnerID     string     `json:"-" gorm:"type:char(36);not null;index;uniqueIndex:uq_owner_email_active,priority:1"`
	FirstName   string     `json:"firstName" gorm:"size:100;not null"`
	LastName    string     `json:"lastName" gorm:"size:100;not null"`
	Email       string     `json:"email" gorm:"size:255;not null;uniqueIndex:uq_owner_email_active,priority:2"`
	PhoneNumber string     `json:"phoneNumber,omitempty" gorm:"size:30"`
	BirthDate   *time.Time `json:"birthDate,omitempty"`
	Address     string     `json:"address,omitempty" gorm:"size:255"`
	Notes       string     `json:"notes,omitempty" gorm:"size:2000"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty" gorm:"autoUpdateTime:false"` // set by the service, stays null until the first update
	IsDeleted   bool       `json:"isDeleted" gorm:"not null;default:false"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	Active      *uint8     `json:"-" gorm:"uniqueIndex:uq_owner_email_active,priority:3"`
}

// MarkActive flags the row as live for the uniqueness index.
func (c *Contact) MarkActive() {
	one := uint8(1)
	c.Active = &one
	c.IsDeleted = false
	c.DeletedAt = nil
}

// MarkDeleted soft-deletes the row and releases its slot in the uniqueness
// index.
func (c *Contact) MarkDeleted(now time.Time) {
	c.Active = nil
	c.IsDeleted = true
	c.DeletedAt = &now
}
