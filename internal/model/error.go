package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON             = "INVALID_JSON"
	ErrCodeValidation              = "VALIDATION_FAILED"
	ErrCodeInvalidQuantity         = "INVALID_QUANTITY"
	ErrCodeOrderNotFound           = "ORDER_NOT_FOUND"
	ErrCodeProductNotFound         = "PRODUCT_NOT_FOUND"
	ErrCodeAccountNotFound         = "ACCOUNT_NOT_FOUND"
	ErrCodeSealRequestNotFound     = "SEAL_REQUEST_NOT_FOUND"
	ErrCodeProposalNotFound        = "PROPOSAL_NOT_FOUND"
	ErrCodeResponseNotFound        = "RESPONSE_NOT_FOUND"
	ErrCodeCatalogFileNotFound     = "CATALOG_FILE_NOT_FOUND"
	ErrCodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeStaleStatus             = "STALE_STATUS"
	ErrCodeOrderNotCancellable     = "ORDER_NOT_CANCELLABLE"
	ErrCodeOrderNotCompleted       = "ORDER_NOT_COMPLETED"
	ErrCodeReviewExists            = "REVIEW_EXISTS"
	ErrCodeInsufficientStock       = "INSUFFICIENT_STOCK"
	ErrCodeSealRequestPending      = "SEAL_REQUEST_PENDING"
	ErrCodeSealAlreadyDecided      = "SEAL_ALREADY_DECIDED"
	ErrCodeDuplicateAccount        = "DUPLICATE_ACCOUNT"
	ErrCodeProposalClosed          = "PROPOSAL_CLOSED"
	ErrCodeResponseExists          = "RESPONSE_EXISTS"
	ErrCodeInvalidCredentials      = "INVALID_CREDENTIALS"
	ErrCodeUnauthorised            = "UNAUTHORIZED"
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeInternalError           = "INTERNAL_ERROR"
)

// ErrorKind groups error codes by how a client should react to them.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthenticated
	KindForbidden
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is matches wrapped or re-created errors by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Kind classifies the error code.
func (e *DomainError) Kind() ErrorKind {
	switch e.Code {
	case ErrCodeInvalidJSON, ErrCodeValidation, ErrCodeInvalidQuantity:
		return KindValidation
	case ErrCodeOrderNotFound, ErrCodeProductNotFound, ErrCodeAccountNotFound,
		ErrCodeSealRequestNotFound, ErrCodeProposalNotFound, ErrCodeResponseNotFound,
		ErrCodeCatalogFileNotFound:
		return KindNotFound
	case ErrCodeInvalidStatusTransition, ErrCodeStaleStatus, ErrCodeOrderNotCancellable,
		ErrCodeOrderNotCompleted, ErrCodeReviewExists, ErrCodeInsufficientStock,
		ErrCodeSealRequestPending, ErrCodeSealAlreadyDecided, ErrCodeDuplicateAccount,
		ErrCodeProposalClosed, ErrCodeResponseExists:
		return KindConflict
	case ErrCodeUnauthorised, ErrCodeInvalidCredentials:
		return KindUnauthenticated
	case ErrCodeForbidden:
		return KindForbidden
	default:
		return KindInternal
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with a formatted message.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// AsDomainError extracts a DomainError from an error chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrInvalidQuantity         = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrOrderNotFound           = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrProductNotFound         = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrAccountNotFound         = NewDomainError(ErrCodeAccountNotFound, "Account not found")
	ErrSealRequestNotFound     = NewDomainError(ErrCodeSealRequestNotFound, "Green seal request not found")
	ErrProposalNotFound        = NewDomainError(ErrCodeProposalNotFound, "Proposal not found")
	ErrResponseNotFound        = NewDomainError(ErrCodeResponseNotFound, "Proposal response not found")
	ErrCatalogFileNotFound     = NewDomainError(ErrCodeCatalogFileNotFound, "Catalog file not found")
	ErrInvalidStatusTransition = NewDomainError(ErrCodeInvalidStatusTransition, "Order cannot move to the requested status")
	ErrStaleStatus             = NewDomainError(ErrCodeStaleStatus, "Order status changed concurrently, reload and retry")
	ErrOrderNotCancellable     = NewDomainError(ErrCodeOrderNotCancellable, "Completed or cancelled orders cannot be cancelled")
	ErrOrderNotCompleted       = NewDomainError(ErrCodeOrderNotCompleted, "Only completed orders can be reviewed")
	ErrReviewExists            = NewDomainError(ErrCodeReviewExists, "Order already has a review")
	ErrInsufficientStock       = NewDomainError(ErrCodeInsufficientStock, "Not enough stock for one or more products")
	ErrSealRequestPending      = NewDomainError(ErrCodeSealRequestPending, "Producer already has a pending green seal request")
	ErrSealAlreadyDecided      = NewDomainError(ErrCodeSealAlreadyDecided, "Green seal request has already been reviewed")
	ErrDuplicateAccount        = NewDomainError(ErrCodeDuplicateAccount, "Email or national ID already registered")
	ErrProposalClosed          = NewDomainError(ErrCodeProposalClosed, "Proposal is not open for this action")
	ErrResponseExists          = NewDomainError(ErrCodeResponseExists, "Producer already answered this proposal")
	ErrInvalidCredentials      = NewDomainError(ErrCodeInvalidCredentials, "Invalid email or password")
	ErrUnauthorised            = NewDomainError(ErrCodeUnauthorised, "Authentication required")
	ErrForbidden               = NewDomainError(ErrCodeForbidden, "Not allowed to perform this action")
)
