package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agrolinq/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type proposalRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProposalRepository creates a new PostgreSQL-backed proposal repository.
func NewProposalRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProposalRepository {
	return &proposalRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "proposal").Logger(),
	}
}

func (r *proposalRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := beginTx(ctx, r.pool)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
	}
	return tx, err
}

const proposalColumns = `id, requester_id, items, note, status, accepted_response_id, expires_at, created_at, updated_at`

// Items are stored as JSONB and decoded by pgx into the slice.
func scanProposal(row pgx.Row) (*model.Proposal, error) {
	var p model.Proposal
	err := row.Scan(&p.ID, &p.RequesterID, &p.Items, &p.Note, &p.Status, &p.AcceptedResponseID, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *proposalRepository) Create(ctx context.Context, p *model.Proposal) error {
	query := `
		INSERT INTO proposals (id, requester_id, items, note, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query, p.ID, p.RequesterID, p.Items, p.Note, p.Status, p.ExpiresAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("proposal_id", p.ID.String()).Msg("failed to create proposal")
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	return nil
}

func (r *proposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	return r.get(ctx, r.pool, `SELECT `+proposalColumns+` FROM proposals WHERE id = $1`, id)
}

func (r *proposalRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Proposal, error) {
	return r.get(ctx, tx, `SELECT `+proposalColumns+` FROM proposals WHERE id = $1 FOR UPDATE`, id)
}

func (r *proposalRepository) get(ctx context.Context, q querier, query string, id uuid.UUID) (*model.Proposal, error) {
	p, err := scanProposal(q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("proposal_id", id.String()).Msg("failed to query proposal")
		return nil, fmt.Errorf("failed to query proposal: %w", err)
	}
	return p, nil
}

func (r *proposalRepository) List(ctx context.Context, filter model.ProposalFilter) ([]model.Proposal, error) {
	var (
		conds []string
		args  []any
	)
	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		conds = append(conds, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.OpenAt != nil {
		args = append(args, *filter.OpenAt)
		conds = append(conds, fmt.Sprintf("expires_at > $%d", len(args)))
	}

	query := `SELECT ` + proposalColumns + ` FROM proposals`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query proposals")
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer rows.Close()

	proposals := []model.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan proposal row")
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposals: %w", err)
	}

	return proposals, nil
}

func (r *proposalRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.ProposalStatus, acceptedResponseID *uuid.UUID) error {
	query := `UPDATE proposals SET status = $2, accepted_response_id = $3, updated_at = NOW() WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id, status, acceptedResponseID)
	if err != nil {
		r.logger.Error().Err(err).Str("proposal_id", id.String()).Msg("failed to update proposal status")
		return fmt.Errorf("failed to update proposal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProposalNotFound
	}
	return nil
}

func (r *proposalRepository) ExpireOpen(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE proposals
		SET status = $1, updated_at = $2
		WHERE status = ANY($3) AND expires_at <= $2
	`

	open := []string{string(model.ProposalStatusRequested), string(model.ProposalStatusAnswered)}
	tag, err := r.pool.Exec(ctx, query, model.ProposalStatusExpired, now, open)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to expire proposals")
		return 0, fmt.Errorf("failed to expire proposals: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *proposalRepository) CreateResponse(ctx context.Context, tx pgx.Tx, resp *model.ProposalResponse) error {
	query := `
		INSERT INTO proposal_responses (id, proposal_id, producer_id, price, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query, resp.ID, resp.ProposalID, resp.ProducerID, resp.Price, resp.Note, resp.CreatedAt)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return model.ErrResponseExists
		}
		r.logger.Error().Err(err).Str("proposal_id", resp.ProposalID.String()).Msg("failed to create proposal response")
		return fmt.Errorf("failed to create proposal response: %w", err)
	}
	return nil
}

const responseColumns = `id, proposal_id, producer_id, price, note, created_at`

func scanResponse(row pgx.Row) (*model.ProposalResponse, error) {
	var resp model.ProposalResponse
	if err := row.Scan(&resp.ID, &resp.ProposalID, &resp.ProducerID, &resp.Price, &resp.Note, &resp.CreatedAt); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *proposalRepository) GetResponse(ctx context.Context, id uuid.UUID) (*model.ProposalResponse, error) {
	resp, err := scanResponse(r.pool.QueryRow(ctx, `SELECT `+responseColumns+` FROM proposal_responses WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("response_id", id.String()).Msg("failed to query proposal response")
		return nil, fmt.Errorf("failed to query proposal response: %w", err)
	}
	return resp, nil
}

func (r *proposalRepository) ListResponses(ctx context.Context, proposalID uuid.UUID) ([]model.ProposalResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM proposal_responses WHERE proposal_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, proposalID)
	if err != nil {
		r.logger.Error().Err(err).Str("proposal_id", proposalID.String()).Msg("failed to query proposal responses")
		return nil, fmt.Errorf("failed to query proposal responses: %w", err)
	}
	defer rows.Close()

	responses := []model.ProposalResponse{}
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal response: %w", err)
		}
		responses = append(responses, *resp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposal responses: %w", err)
	}

	return responses, nil
}
