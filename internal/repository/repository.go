package repository

import (
	"context"
	"time"

	"agrolinq/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxBeginner starts database transactions. Methods taking a pgx.Tx run
// inside the caller's transaction; the caller commits or rolls back.
type TxBeginner interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// AccountRepository defines data access for accounts and role profiles.
type AccountRepository interface {
	TxBeginner

	// Create inserts an account. Returns model.ErrDuplicateAccount when the
	// email or national ID is already registered.
	Create(ctx context.Context, tx pgx.Tx, account *model.Account) error

	// CreateProducerProfile inserts the producer profile of an account.
	CreateProducerProfile(ctx context.Context, tx pgx.Tx, profile *model.ProducerProfile) error

	// CreateRestaurantProfile inserts the restaurant profile of an account.
	CreateRestaurantProfile(ctx context.Context, tx pgx.Tx, profile *model.RestaurantProfile) error

	// GetByID returns nil when no account exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)

	// GetByEmail matches case-insensitively and returns nil when no account exists.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)

	// GetProducerProfile returns nil when the account has no producer profile.
	GetProducerProfile(ctx context.Context, accountID uuid.UUID) (*model.ProducerProfile, error)

	// GetRestaurantProfile returns nil when the account has no restaurant profile.
	GetRestaurantProfile(ctx context.Context, accountID uuid.UUID) (*model.RestaurantProfile, error)

	// GetProducer returns the public producer view, or nil.
	GetProducer(ctx context.Context, id uuid.UUID) (*model.Producer, error)

	// ListLocatedProducers returns every producer with both coordinates set.
	ListLocatedProducers(ctx context.Context) ([]model.Producer, error)

	// SetCertified marks a producer as holding the green seal.
	SetCertified(ctx context.Context, tx pgx.Tx, producerID uuid.UUID, at time.Time) error
}

// StockAdjustment changes the stock of one product by Delta.
type StockAdjustment struct {
	ProductID uuid.UUID
	Delta     int
}

// ProductRepository defines data access for the product catalogue.
type ProductRepository interface {
	TxBeginner

	// List retrieves products matching the filter, newest first.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID returns nil when no product exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create inserts a product.
	Create(ctx context.Context, product *model.Product) error

	// CreateBatch inserts products within the provided transaction.
	CreateBatch(ctx context.Context, tx pgx.Tx, products []model.Product) error

	// Update overwrites the writable fields of a product owned by
	// product.ProducerID. Returns false when no such product exists.
	Update(ctx context.Context, product *model.Product) (bool, error)

	// LockByIDs loads and row-locks the given products in id order.
	// Missing ids are absent from the result.
	LockByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.Product, error)

	// AdjustStock applies stock deltas within the provided transaction.
	AdjustStock(ctx context.Context, tx pgx.Tx, adjustments []StockAdjustment) error
}

// OrderRepository defines data access for orders and their items.
type OrderRepository interface {
	TxBeginner

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	// Returns nil when no order exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// GetForUpdate is GetByID inside a transaction with the order row locked.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// List retrieves orders matching the filter, newest first.
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// UpdateStatus moves an order from one status to another. Returns false
	// when the order is no longer in status from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error)

	// MarkCancelled records a cancellation within the provided transaction.
	MarkCancelled(ctx context.Context, tx pgx.Tx, id uuid.UUID, actor model.CancelActor, reason string, at time.Time) error

	// SetReview attaches a review to a completed, unreviewed order. Returns
	// false when the order is not completed or already reviewed.
	SetReview(ctx context.Context, id uuid.UUID, score int, comment *string, at time.Time) (bool, error)
}

// SealRepository defines data access for green seal requests.
type SealRepository interface {
	TxBeginner

	// Create inserts a pending request. Returns model.ErrSealRequestPending
	// when the producer already has one.
	Create(ctx context.Context, req *model.GreenSealRequest) error

	// HasPending reports whether the producer has a pending request.
	HasPending(ctx context.Context, producerID uuid.UUID) (bool, error)

	// GetByID returns nil when no request exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.GreenSealRequest, error)

	// GetForUpdate is GetByID inside a transaction with the row locked.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.GreenSealRequest, error)

	// Decide stores the review outcome of a pending request. Returns false
	// when the request is no longer pending.
	Decide(ctx context.Context, tx pgx.Tx, req *model.GreenSealRequest) (bool, error)

	// List retrieves requests matching the filter, newest first.
	List(ctx context.Context, filter model.SealFilter) ([]model.GreenSealRequest, error)
}

// ProposalRepository defines data access for proposals and their responses.
type ProposalRepository interface {
	TxBeginner

	// Create inserts a proposal.
	Create(ctx context.Context, proposal *model.Proposal) error

	// GetByID returns nil when no proposal exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Proposal, error)

	// GetForUpdate is GetByID inside a transaction with the row locked.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Proposal, error)

	// List retrieves proposals matching the filter, newest first.
	List(ctx context.Context, filter model.ProposalFilter) ([]model.Proposal, error)

	// UpdateStatus sets the status and accepted response of a proposal.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.ProposalStatus, acceptedResponseID *uuid.UUID) error

	// ExpireOpen moves open proposals whose deadline passed before now to
	// expired and returns how many changed.
	ExpireOpen(ctx context.Context, now time.Time) (int64, error)

	// CreateResponse inserts a producer's answer. Returns
	// model.ErrResponseExists when the producer already answered.
	CreateResponse(ctx context.Context, tx pgx.Tx, response *model.ProposalResponse) error

	// GetResponse returns nil when no response exists.
	GetResponse(ctx context.Context, id uuid.UUID) (*model.ProposalResponse, error)

	// ListResponses returns a proposal's responses, oldest first.
	ListResponses(ctx context.Context, proposalID uuid.UUID) ([]model.ProposalResponse, error)
}
