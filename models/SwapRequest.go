package models

import (
	"time"
)

// SwapStatus is the lifecycle state of a swap request.
type SwapStatus string

const (
	SwapStatusPending   SwapStatus = "PENDING"
	SwapStatusAccepted  SwapStatus = "ACCEPTED"
	SwapStatusRejected  SwapStatus = "REJECTED"
	SwapStatusWithdrawn SwapStatus = "WITHDRAWN"
)

func (s SwapStatus) Valid() bool {
	switch s {
	case SwapStatusPending, SwapStatusAccepted, SwapStatusRejected, SwapStatusWithdrawn:
		return true
	}
	return false
}

// Terminal reports whether the request can no longer change state.
func (s SwapStatus) Terminal() bool {
	return s != SwapStatusPending
}

// SwapRequest proposes exchanging ownership of two events between two users.
// On accept the two events literally swap their UserID.
type SwapRequest struct {
	ID uint `json:"id" gorm:"primaryKey"`

	RequesterID      uint  `json:"requesterID" gorm:"not null;index"`
	Requester        User  `json:"requester" gorm:"foreignKey:RequesterID"`
	RequesterEventID uint  `json:"requesterEventID" gorm:"not null;index"`
	RequesterEvent   Event `json:"requesterEvent" gorm:"foreignKey:RequesterEventID"`

	RecipientID      uint  `json:"recipientID" gorm:"not null;index"`
	Recipient        User  `json:"recipient" gorm:"foreignKey:RecipientID"`
	RecipientEventID uint  `json:"recipientEventID" gorm:"not null;index"`
	RecipientEvent   Event `json:"recipientEvent" gorm:"foreignKey:RecipientEventID"`

	Status SwapStatus `json:"status" gorm:"size:16;not null;default:PENDING;index"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	RespondedAt *time.Time `json:"respondedAt"`
}
