package model

import (
	"time"

	"github.com/google/uuid"
)

// ProposalStatus is the negotiation state of a proposal.
type ProposalStatus string

const (
	ProposalStatusRequested ProposalStatus = "requested"
	ProposalStatusAnswered  ProposalStatus = "answered"
	ProposalStatusAccepted  ProposalStatus = "accepted"
	ProposalStatusDeclined  ProposalStatus = "declined"
	ProposalStatusExpired   ProposalStatus = "expired"
)

// ParseProposalStatus converts a string into a known ProposalStatus.
func ParseProposalStatus(s string) (ProposalStatus, bool) {
	switch st := ProposalStatus(s); st {
	case ProposalStatusRequested, ProposalStatusAnswered, ProposalStatusAccepted,
		ProposalStatusDeclined, ProposalStatusExpired:
		return st, true
	}
	return "", false
}

// Open reports whether producers may still respond.
func (s ProposalStatus) Open() bool {
	return s == ProposalStatusRequested || s == ProposalStatusAnswered
}

// Proposal is a restaurant's bulk quote request.
type Proposal struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	RequesterID        uuid.UUID      `json:"requesterId" db:"requester_id"`
	Items              []ProposalItem `json:"items" db:"items"`
	Note               string         `json:"note,omitempty" db:"note"`
	Status             ProposalStatus `json:"status" db:"status"`
	AcceptedResponseID *uuid.UUID     `json:"acceptedResponseId,omitempty" db:"accepted_response_id"`
	ExpiresAt          time.Time      `json:"expiresAt" db:"expires_at"`
	CreatedAt          time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time      `json:"updatedAt" db:"updated_at"`
}

// Expired reports whether the proposal window has passed at now.
func (p *Proposal) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// ProposalItem is a requested line without a price.
type ProposalItem struct {
	ProductName string     `json:"productName"`
	ProductID   *uuid.UUID `json:"productId,omitempty"`
	Quantity    int        `json:"quantity"`
	Unit        string     `json:"unit,omitempty"`
}

// ProposalResponse is a producer's quoted price for a proposal.
type ProposalResponse struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ProposalID uuid.UUID `json:"proposalId" db:"proposal_id"`
	ProducerID uuid.UUID `json:"producerId" db:"producer_id"`
	Price      float64   `json:"price" db:"price"`
	Note       string    `json:"note,omitempty" db:"note"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// ProposalInput is the payload for a new proposal.
type ProposalInput struct {
	Items []ProposalItem `json:"items"`
	Note  string         `json:"note,omitempty"`
}

// ProposalResponseInput is the payload for answering a proposal.
type ProposalResponseInput struct {
	Price float64 `json:"price"`
	Note  string  `json:"note,omitempty"`
}

// AcceptProposalInput selects the winning response.
type AcceptProposalInput struct {
	ResponseID uuid.UUID `json:"responseId"`
}

// ProposalFilter narrows proposal listings.
type ProposalFilter struct {
	RequesterID *uuid.UUID
	Statuses    []ProposalStatus
	OpenAt      *time.Time
	Limit       int
	Offset      int
}

// ProposalDetail is a proposal with its responses.
type ProposalDetail struct {
	Proposal
	Responses []ProposalResponse `json:"responses"`
}

// ExpireResult reports how many proposals were expired.
type ExpireResult struct {
	Expired int64 `json:"expired"`
}
