package models

import (
	"time"
)

// UserProfile holds the presentation-facing identity for a user,
// separate from the User model which handles authentication.
type UserProfile struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"userID" gorm:"not null;uniqueIndex"`

	DisplayName string `json:"displayName" gorm:"size:100"`
	AvatarURL   string `json:"avatarURL"`
	Bio         string `json:"bio" gorm:"size:500"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
