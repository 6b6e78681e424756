package models

import (
	"time"
)

// EventStatus is the exchange status of a calendar slot.
type EventStatus string

const (
	EventStatusBusy        EventStatus = "BUSY"
	EventStatusSwappable   EventStatus = "SWAPPABLE"
	EventStatusSwapPending EventStatus = "SWAP_PENDING"
)

// Valid reports whether s is one of the persisted statuses. Adding a new
// status starts here; every switch over EventStatus enumerates all cases.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusBusy, EventStatusSwappable, EventStatusSwapPending:
		return true
	}
	return false
}

type Event struct {
	ID uint `json:"id" gorm:"primaryKey"`

	UserID uint `json:"userID" gorm:"not null;index"`
	User   User `json:"user" gorm:"foreignKey:UserID"`

	Title     string    `json:"title" gorm:"size:200;not null"`
	StartTime time.Time `json:"startTime" gorm:"not null;index"`
	EndTime   time.Time `json:"endTime" gorm:"not null"`

	Status EventStatus `json:"status" gorm:"size:16;not null;default:BUSY;index"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
