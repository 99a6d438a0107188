package model

import (
	"time"

	"github.com/google/uuid"
)

// SealStatus is the state of a green seal request.
type SealStatus string

const (
	SealStatusPending  SealStatus = "pending"
	SealStatusApproved SealStatus = "approved"
	SealStatusRejected SealStatus = "rejected"
)

// ParseSealStatus converts a string into a known SealStatus.
func ParseSealStatus(s string) (SealStatus, bool) {
	switch st := SealStatus(s); st {
	case SealStatusPending, SealStatusApproved, SealStatusRejected:
		return st, true
	}
	return "", false
}

// Description length bounds, in characters.
const (
	SealDescriptionMin = 50
	SealDescriptionMax = 1000
)

// GreenSealRequest is a producer's application for the sustainability seal.
type GreenSealRequest struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	ProducerID      uuid.UUID  `json:"producerId" db:"producer_id"`
	Description     string     `json:"description" db:"description"`
	Status          SealStatus `json:"status" db:"status"`
	ReviewerID      *uuid.UUID `json:"reviewerId,omitempty" db:"reviewer_id"`
	RejectionReason *string    `json:"rejectionReason,omitempty" db:"rejection_reason"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty" db:"reviewed_at"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
}

// SealRequestInput is the payload for a new green seal request.
type SealRequestInput struct {
	Description string `json:"description"`
}

// SealRejectInput is the payload for rejecting a request.
type SealRejectInput struct {
	Reason string `json:"reason"`
}

// SealFilter narrows green seal listings.
type SealFilter struct {
	ProducerID *uuid.UUID
	Status     *SealStatus
	Limit      int
	Offset     int
}
