package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"agrolinq/internal/events"
	"agrolinq/internal/model"
	"agrolinq/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const maxProposalNoteLength = 1000

// proposalService implements ProposalService.
type proposalService struct {
	proposalRepo repository.ProposalRepository
	publisher    events.Publisher
	ttl          time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

// NewProposalService creates a new proposal service. New proposals stay
// open for ttl.
func NewProposalService(
	proposalRepo repository.ProposalRepository,
	publisher events.Publisher,
	ttl time.Duration,
	logger zerolog.Logger,
) ProposalService {
	return &proposalService{
		proposalRepo: proposalRepo,
		publisher:    publisher,
		ttl:          ttl,
		logger:       logger.With().Str("service", "proposal").Logger(),
		now:          time.Now,
	}
}

func (s *proposalService) Create(ctx context.Context, caller *model.Principal, input *model.ProposalInput) (*model.Proposal, error) {
	if err := requireRole(caller, model.RoleRestaurant); err != nil {
		return nil, err
	}

	if input == nil || len(input.Items) == 0 {
		return nil, model.NewValidationError("proposal must contain at least one item")
	}

	items := make([]model.ProposalItem, len(input.Items))
	for i, item := range input.Items {
		name := strings.TrimSpace(item.ProductName)
		if name == "" {
			return nil, model.NewValidationError("item %d: product name is required", i)
		}
		if item.Quantity <= 0 {
			return nil, model.ErrInvalidQuantity
		}
		items[i] = model.ProposalItem{
			ProductName: name,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Unit:        strings.TrimSpace(item.Unit),
		}
	}

	note, err := cleanNote(input.Note)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	proposal := &model.Proposal{
		ID:          uuid.New(),
		RequesterID: caller.AccountID,
		Items:       items,
		Note:        note,
		Status:      model.ProposalStatusRequested,
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.proposalRepo.Create(ctx, proposal); err != nil {
		s.logger.Error().Err(err).Msg("failed to create proposal")
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	s.logger.Info().
		Str("proposal_id", proposal.ID.String()).
		Int("item_count", len(items)).
		Time("expires_at", proposal.ExpiresAt).
		Msg("proposal created")

	return proposal, nil
}

// List scopes restaurants to their own proposals and producers to the ones
// they can still answer.
func (s *proposalService) List(ctx context.Context, caller *model.Principal, filter model.ProposalFilter) ([]model.Proposal, error) {
	if err := requireRole(caller, model.RoleRestaurant, model.RoleProducer, model.RoleAdmin); err != nil {
		return nil, err
	}

	limit, offset, err := normalizePage(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = limit, offset

	switch caller.Role {
	case model.RoleRestaurant:
		id := caller.AccountID
		filter.RequesterID = &id
	case model.RoleProducer:
		now := s.now().UTC()
		filter.Statuses = []model.ProposalStatus{model.ProposalStatusRequested, model.ProposalStatusAnswered}
		filter.OpenAt = &now
	}

	proposals, err := s.proposalRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list proposals")
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	return proposals, nil
}

// Get returns a proposal with its responses. Producers only see their own
// response.
func (s *proposalService) Get(ctx context.Context, caller *model.Principal, id uuid.UUID) (*model.ProposalDetail, error) {
	if err := requireRole(caller, model.RoleRestaurant, model.RoleProducer, model.RoleAdmin); err != nil {
		return nil, err
	}

	proposal, err := s.proposalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	if proposal == nil {
		return nil, model.ErrProposalNotFound
	}
	if caller.Role == model.RoleRestaurant && proposal.RequesterID != caller.AccountID {
		return nil, model.ErrForbidden
	}

	responses, err := s.proposalRepo.ListResponses(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposal responses: %w", err)
	}

	if caller.Role == model.RoleProducer {
		own := make([]model.ProposalResponse, 0, 1)
		for _, r := range responses {
			if r.ProducerID == caller.AccountID {
				own = append(own, r)
			}
		}
		responses = own
	}

	return &model.ProposalDetail{Proposal: *proposal, Responses: responses}, nil
}

// Respond records a producer's quote and marks the proposal answered.
func (s *proposalService) Respond(ctx context.Context, caller *model.Principal, id uuid.UUID, input *model.ProposalResponseInput) (*model.ProposalResponse, error) {
	if err := requireRole(caller, model.RoleProducer); err != nil {
		return nil, err
	}

	if input == nil {
		return nil, model.NewValidationError("price is required")
	}
	if err := checkAmount("price", input.Price); err != nil {
		return nil, err
	}

	note, err := cleanNote(input.Note)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	response := &model.ProposalResponse{
		ID:         uuid.New(),
		ProposalID: id,
		ProducerID: caller.AccountID,
		Price:      input.Price,
		Note:       note,
		CreatedAt:  now,
	}

	err = runInTx(ctx, s.proposalRepo, s.logger, func(tx pgx.Tx) error {
		proposal, err := s.lockOpen(ctx, tx, id, now)
		if err != nil {
			return err
		}

		if err := s.proposalRepo.CreateResponse(ctx, tx, response); err != nil {
			return err
		}

		if proposal.Status == model.ProposalStatusRequested {
			return s.proposalRepo.UpdateStatus(ctx, tx, id, model.ProposalStatusAnswered, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("proposal_id", id.String()).
		Str("producer_id", caller.AccountID.String()).
		Msg("proposal answered")

	return response, nil
}

// Accept closes an answered proposal with one of its responses.
func (s *proposalService) Accept(ctx context.Context, caller *model.Principal, id uuid.UUID, input *model.AcceptProposalInput) (*model.ProposalDetail, error) {
	if err := requireRole(caller, model.RoleRestaurant); err != nil {
		return nil, err
	}

	if input == nil || input.ResponseID == uuid.Nil {
		return nil, model.NewValidationError("response ID is required")
	}
	responseID := input.ResponseID

	now := s.now().UTC()
	var proposal *model.Proposal

	err := runInTx(ctx, s.proposalRepo, s.logger, func(tx pgx.Tx) error {
		var err error
		proposal, err = s.lockOwned(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if proposal.Status != model.ProposalStatusAnswered || proposal.Expired(now) {
			return model.ErrProposalClosed
		}

		response, err := s.proposalRepo.GetResponse(ctx, responseID)
		if err != nil {
			return fmt.Errorf("failed to get proposal response: %w", err)
		}
		if response == nil || response.ProposalID != id {
			return model.ErrResponseNotFound
		}

		if err := s.proposalRepo.UpdateStatus(ctx, tx, id, model.ProposalStatusAccepted, &responseID); err != nil {
			return err
		}

		proposal.Status = model.ProposalStatusAccepted
		proposal.AcceptedResponseID = &responseID
		proposal.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	responses, err := s.proposalRepo.ListResponses(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposal responses: %w", err)
	}

	s.logger.Info().
		Str("proposal_id", id.String()).
		Str("response_id", responseID.String()).
		Msg("proposal accepted")

	emit(ctx, s.publisher, s.logger, events.New(events.ProposalAccepted, id.String(), map[string]any{
		"proposalId":  id,
		"requesterId": proposal.RequesterID,
		"responseId":  responseID,
	}))

	return &model.ProposalDetail{Proposal: *proposal, Responses: responses}, nil
}

// Decline closes an open proposal without accepting any response.
func (s *proposalService) Decline(ctx context.Context, caller *model.Principal, id uuid.UUID) (*model.Proposal, error) {
	if err := requireRole(caller, model.RoleRestaurant); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var proposal *model.Proposal

	err := runInTx(ctx, s.proposalRepo, s.logger, func(tx pgx.Tx) error {
		var err error
		proposal, err = s.lockOwned(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if !proposal.Status.Open() {
			return model.ErrProposalClosed
		}

		if err := s.proposalRepo.UpdateStatus(ctx, tx, id, model.ProposalStatusDeclined, nil); err != nil {
			return err
		}

		proposal.Status = model.ProposalStatusDeclined
		proposal.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("proposal_id", id.String()).Msg("proposal declined")
	return proposal, nil
}

func (s *proposalService) Expire(ctx context.Context, caller *model.Principal) (*model.ExpireResult, error) {
	if err := requireRole(caller, model.RoleAdmin); err != nil {
		return nil, err
	}

	n, err := s.proposalRepo.ExpireOpen(ctx, s.now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to expire proposals")
		return nil, fmt.Errorf("failed to expire proposals: %w", err)
	}

	s.logger.Info().Int64("expired", n).Msg("expired open proposals")
	return &model.ExpireResult{Expired: n}, nil
}

// lockOpen locks a proposal that can still take responses.
func (s *proposalService) lockOpen(ctx context.Context, tx pgx.Tx, id uuid.UUID, now time.Time) (*model.Proposal, error) {
	proposal, err := s.proposalRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock proposal: %w", err)
	}
	if proposal == nil {
		return nil, model.ErrProposalNotFound
	}
	if !proposal.Status.Open() || proposal.Expired(now) {
		return nil, model.ErrProposalClosed
	}
	return proposal, nil
}

// lockOwned locks a proposal requested by the caller.
func (s *proposalService) lockOwned(ctx context.Context, tx pgx.Tx, caller *model.Principal, id uuid.UUID) (*model.Proposal, error) {
	proposal, err := s.proposalRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock proposal: %w", err)
	}
	if proposal == nil {
		return nil, model.ErrProposalNotFound
	}
	if proposal.RequesterID != caller.AccountID {
		return nil, model.ErrForbidden
	}
	return proposal, nil
}

func cleanNote(note string) (string, error) {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > maxProposalNoteLength {
		return "", model.NewValidationError("note must be at most %d characters", maxProposalNoteLength)
	}
	return note, nil
}
