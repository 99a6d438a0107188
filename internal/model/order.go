package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusPicking   OrderStatus = "picking"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderFlow lists the forward-only progression; cancelled is reachable
// only through cancellation.
var orderFlow = map[OrderStatus]OrderStatus{
	OrderStatusNew:     OrderStatusPicking,
	OrderStatusPicking: OrderStatusShipped,
	OrderStatusShipped: OrderStatusCompleted,
}

// ParseOrderStatus converts a string into a known OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusNew, OrderStatusPicking, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

// Next returns the status that follows s, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	next, ok := orderFlow[s]
	return next, ok
}

// CanAdvanceTo reports whether target is the immediate successor of s.
func (s OrderStatus) CanAdvanceTo(target OrderStatus) bool {
	next, ok := s.Next()
	return ok && next == target
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CancelActor identifies which party cancelled an order.
type CancelActor string

const (
	CancelActorProducer CancelActor = "producer"
	CancelActorConsumer CancelActor = "consumer"
)

// Order represents a consumer purchase from a single producer.
type Order struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	ConsumerID    uuid.UUID    `json:"consumerId" db:"consumer_id"`
	ProducerID    uuid.UUID    `json:"producerId" db:"producer_id"`
	Total         float64      `json:"total" db:"total"`
	Status        OrderStatus  `json:"status" db:"status"`
	CancelledBy   *CancelActor `json:"cancelledBy,omitempty" db:"cancelled_by"`
	CancelReason  *string      `json:"cancelReason,omitempty" db:"cancel_reason"`
	CancelledAt   *time.Time   `json:"cancelledAt,omitempty" db:"cancelled_at"`
	ReviewScore   *int         `json:"reviewScore,omitempty" db:"review_score"`
	ReviewComment *string      `json:"reviewComment,omitempty" db:"review_comment"`
	ReviewedAt    *time.Time   `json:"reviewedAt,omitempty" db:"reviewed_at"`
	CreatedAt     time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time    `json:"updatedAt" db:"updated_at"`
}

// HasReview reports whether a review is attached.
func (o *Order) HasReview() bool {
	return o.ReviewScore != nil
}

// OrderItem represents a line item in an order. Name and UnitPrice are
// snapshots taken when the order was placed.
type OrderItem struct {
	ID        uuid.UUID `json:"-" db:"id"`
	OrderID   uuid.UUID `json:"-" db:"order_id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice float64   `json:"unitPrice" db:"unit_price"`
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	ProducerID uuid.UUID          `json:"producerId"`
	Items      []OrderItemRequest `json:"items"`
	Total      *float64           `json:"total,omitempty"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// StatusUpdateRequest is the payload for advancing an order.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// CancelRequest is the payload for cancelling an order.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// ReviewRequest is the payload for reviewing a completed order.
type ReviewRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	ConsumerID *uuid.UUID
	ProducerID *uuid.UUID
	Status     *OrderStatus
	Limit      int
	Offset     int
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	Order
	Items []OrderItem `json:"items"`
}
