package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"agrolinq/internal/events"
	"agrolinq/internal/model"
	"agrolinq/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// AccountService defines registration, login and session operations.
type AccountService interface {
	// Register creates a consumer, producer or restaurant account.
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AccountResponse, error)

	// Login verifies credentials and issues an access token.
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)

	// Logout revokes the caller's token.
	Logout(ctx context.Context, caller *model.Principal) error

	// Me returns the caller's account and profile.
	Me(ctx context.Context, caller *model.Principal) (*model.AccountResponse, error)

	// Authenticate verifies a bearer token and returns its principal.
	Authenticate(ctx context.Context, token string) (*model.Principal, error)

	// EnsureAdmin creates the bootstrap admin account if it does not exist.
	EnsureAdmin(ctx context.Context, email, password string) error
}

// ProductService defines operations for the product catalogue.
type ProductService interface {
	// List retrieves products with pagination and optional filters.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create adds a product to the caller's catalogue.
	Create(ctx context.Context, caller *model.Principal, input *model.ProductInput) (*model.Product, error)

	// Update overwrites one of the caller's products.
	Update(ctx context.Context, caller *model.Principal, id uuid.UUID, input *model.ProductInput) (*model.Product, error)

	// Import loads a catalog file and inserts all of its products or none.
	Import(ctx context.Context, caller *model.Principal, req *model.ImportRequest) (*model.ImportResult, error)
}

// OrderService defines the order lifecycle.
type OrderService interface {
	// CreateOrder reserves stock and records a new order.
	CreateOrder(ctx context.Context, caller *model.Principal, req *model.OrderRequest) (*model.OrderResponse, error)

	// GetByID retrieves an order visible to the caller.
	GetByID(ctx context.Context, caller *model.Principal, id uuid.UUID) (*model.OrderResponse, error)

	// List retrieves the caller's orders.
	List(ctx context.Context, caller *model.Principal, filter model.OrderFilter) ([]model.Order, error)

	// AdvanceStatus moves an order one step forward.
	AdvanceStatus(ctx context.Context, caller *model.Principal, id uuid.UUID, req *model.StatusUpdateRequest) (*model.Order, error)

	// Cancel cancels an open order and restores its stock.
	Cancel(ctx context.Context, caller *model.Principal, id uuid.UUID, req *model.CancelRequest) (*model.OrderResponse, error)

	// Review attaches the consumer's review to a completed order.
	Review(ctx context.Context, caller *model.Principal, id uuid.UUID, req *model.ReviewRequest) (*model.Order, error)
}

// SealService defines the green seal approval workflow.
type SealService interface {
	Request(ctx context.Context, caller *model.Principal, input *model.SealRequestInput) (*model.GreenSealRequest, error)
	List(ctx context.Context, caller *model.Principal, filter model.SealFilter) ([]model.GreenSealRequest, error)
	Approve(ctx context.Context, caller *model.Principal, id uuid.UUID) (*model.GreenSealRequest, error)
	Reject(ctx context.Context, caller *model.Principal, id uuid.UUID, input *model.SealRejectInput) (*model.GreenSealRequest, error)
}

// ProposalService defines restaurant quote negotiation.
type ProposalService interface {
	Create(ctx context.Context, caller *model.Principal, input *model.ProposalInput) (*model.Proposal, error)
	List(ctx context.Context, caller *model.Principal, filter model.ProposalFilter) ([]model.Proposal, error)
	Get(ctx context.Context, caller *model.Principal, id uuid.UUID) (*model.ProposalDetail, error)
	Respond(ctx context.Context, caller *model.Principal, id uuid.UUID, input *model.ProposalResponseInput) (*model.ProposalResponse, error)
	Accept(ctx context.Context, caller *model.Principal, id uuid.UUID, input *model.AcceptProposalInput) (*model.ProposalDetail, error)
	Decline(ctx context.Context, caller *model.Principal, id uuid.UUID) (*model.Proposal, error)
	Expire(ctx context.Context, caller *model.Principal) (*model.ExpireResult, error)
}

// ProducerService defines public producer lookups.
type ProducerService interface {
	// Nearby returns producers within radiusKm of a point, nearest first.
	Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]model.NearbyProducer, error)

	// Get returns a producer's public profile.
	Get(ctx context.Context, id uuid.UUID) (*model.Producer, error)
}

// TokenManager issues and verifies access tokens.
type TokenManager interface {
	Issue(accountID uuid.UUID, role model.Role) (string, time.Time, error)
	Parse(token string) (*model.Principal, error)
}

// Listing bounds.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// normalizePage applies the default limit and rejects out-of-range values.
func normalizePage(limit, offset int) (int, int, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 || limit > MaxLimit {
		return 0, 0, model.NewValidationError("limit must be between 1 and %d", MaxLimit)
	}
	if offset < 0 {
		return 0, 0, model.NewValidationError("offset must not be negative")
	}
	return limit, offset, nil
}

// requireRole fails unless the caller holds one of roles.
func requireRole(caller *model.Principal, roles ...model.Role) error {
	if caller == nil {
		return model.ErrUnauthorised
	}
	if !slices.Contains(roles, caller.Role) {
		return model.ErrForbidden
	}
	return nil
}

// runInTx runs fn inside a transaction, committing on success. The
// transaction is rolled back on every other exit, panics included.
func runInTx(ctx context.Context, db repository.TxBeginner, logger zerolog.Logger, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}

// maxAmount is the largest value a DECIMAL(12, 2) column holds.
const (
	maxAmount      = 9_999_999_999.99
	maxAmountCents = 999_999_999_999
)

// checkAmount rejects money values the store cannot hold exactly: negative,
// non-finite, above maxAmount or with more than two decimal places.
func checkAmount(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return model.NewValidationError("%s must be a non-negative number", field)
	}
	if v > maxAmount {
		return model.NewValidationError("%s must be at most %.2f", field, maxAmount)
	}
	if fromCents(toCents(v)) != v {
		return model.NewValidationError("%s must have at most 2 decimal places", field)
	}
	return nil
}

// emit publishes events after a successful commit. Failures are logged only.
func emit(ctx context.Context, publisher events.Publisher, logger zerolog.Logger, evts ...events.Event) {
	if err := publisher.Publish(ctx, evts...); err != nil {
		logger.Warn().Err(err).Str("event", evts[0].Type).Msg("failed to publish event")
	}
}
