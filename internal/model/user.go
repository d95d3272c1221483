package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a console account. The console is single-tenant: accounts exist so
// credentials can be checked, but only UIDs on the admin allow-list ever get
// past the access gate.
type User struct {
	UID      string `json:"uid" gorm:"primaryKey"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UID == "" {
		u.UID = uuid.New().String()
	}
	return nil
}
