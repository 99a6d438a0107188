package service

import (
	"context"
	"fmt"
	"time"

	"agrolinq/internal/events"
	"agrolinq/internal/model"
	"agrolinq/internal/repository"
	"agrolinq/internal/validate"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const maxRejectionReasonLength = 1000

// sealService implements SealService.
type sealService struct {
	sealRepo    repository.SealRepository
	accountRepo repository.AccountRepository
	publisher   events.Publisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSealService creates a new green seal service.
func NewSealService(
	sealRepo repository.SealRepository,
	accountRepo repository.AccountRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
) SealService {
	return &sealService{
		sealRepo:    sealRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
		logger:      logger.With().Str("service", "seal").Logger(),
		now:         time.Now,
	}
}

// Request opens a pending request. A producer holds at most one at a time.
func (s *sealService) Request(ctx context.Context, caller *model.Principal, input *model.SealRequestInput) (*model.GreenSealRequest, error) {
	if err := requireRole(caller, model.RoleProducer); err != nil {
		return nil, err
	}

	var text string
	if input != nil {
		text = input.Description
	}
	description, ok := validate.Text(text, model.SealDescriptionMin, model.SealDescriptionMax)
	if !ok {
		return nil, model.NewValidationError("description must be between %d and %d characters",
			model.SealDescriptionMin, model.SealDescriptionMax)
	}

	pending, err := s.sealRepo.HasPending(ctx, caller.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}
	if pending {
		return nil, model.ErrSealRequestPending
	}

	req := &model.GreenSealRequest{
		ID:          uuid.New(),
		ProducerID:  caller.AccountID,
		Description: description,
		Status:      model.SealStatusPending,
		CreatedAt:   s.now().UTC(),
	}

	// the unique index still catches a concurrent duplicate
	if err := s.sealRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("request_id", req.ID.String()).
		Str("producer_id", req.ProducerID.String()).
		Msg("green seal requested")

	return req, nil
}

// List shows producers their own requests and admins everything.
func (s *sealService) List(ctx context.Context, caller *model.Principal, filter model.SealFilter) ([]model.GreenSealRequest, error) {
	if err := requireRole(caller, model.RoleProducer, model.RoleAdmin); err != nil {
		return nil, err
	}

	limit, offset, err := normalizePage(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = limit, offset

	if caller.Role == model.RoleProducer {
		id := caller.AccountID
		filter.ProducerID = &id
	}

	requests, err := s.sealRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list green seal requests")
		return nil, fmt.Errorf("failed to list green seal requests: %w", err)
	}

	return requests, nil
}

// Approve decides a pending request and certifies its producer atomically.
func (s *sealService) Approve(ctx context.Context, caller *model.Principal, id uuid.UUID) (*model.GreenSealRequest, error) {
	req, err := s.decide(ctx, caller, id, model.SealStatusApproved, nil)
	if err != nil {
		return nil, err
	}

	emit(ctx, s.publisher, s.logger, events.New(events.GreenSealApproved, req.ProducerID.String(), req))
	return req, nil
}

func (s *sealService) Reject(ctx context.Context, caller *model.Principal, id uuid.UUID, input *model.SealRejectInput) (*model.GreenSealRequest, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}

	var text string
	if input != nil {
		text = input.Reason
	}
	reason, ok := validate.Text(text, 1, maxRejectionReasonLength)
	if !ok {
		return nil, model.NewValidationError("rejection reason is required and must be at most %d characters", maxRejectionReasonLength)
	}

	req, err := s.decide(ctx, caller, id, model.SealStatusRejected, &reason)
	if err != nil {
		return nil, err
	}

	emit(ctx, s.publisher, s.logger, events.New(events.GreenSealRejected, req.ProducerID.String(), req))
	return req, nil
}

func (s *sealService) decide(ctx context.Context, caller *model.Principal, id uuid.UUID, outcome model.SealStatus, reason *string) (*model.GreenSealRequest, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var req *model.GreenSealRequest

	err := runInTx(ctx, s.sealRepo, s.logger, func(tx pgx.Tx) error {
		var err error
		req, err = s.sealRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to lock green seal request: %w", err)
		}
		if req == nil {
			return model.ErrSealRequestNotFound
		}
		if req.Status != model.SealStatusPending {
			return model.ErrSealAlreadyDecided
		}

		reviewer := caller.AccountID
		req.Status = outcome
		req.ReviewerID = &reviewer
		req.RejectionReason = reason
		req.ReviewedAt = &now

		decided, err := s.sealRepo.Decide(ctx, tx, req)
		if err != nil {
			return fmt.Errorf("failed to store decision: %w", err)
		}
		if !decided {
			return model.ErrSealAlreadyDecided
		}

		if outcome == model.SealStatusApproved {
			return s.accountRepo.SetCertified(ctx, tx, req.ProducerID, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("request_id", id.String()).
		Str("producer_id", req.ProducerID.String()).
		Str("outcome", string(outcome)).
		Msg("green seal request decided")

	return req, nil
}
