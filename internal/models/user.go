package models

import "time"

type User struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"uniqueIndex;not null"`
	HashedPassword *string   `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasPassword reports whether registration stored a credential for the user.
func (u *User) HasPassword() bool {
	return u.HashedPassword != nil && *u.HashedPassword != ""
}
