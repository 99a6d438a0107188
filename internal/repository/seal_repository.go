package repository

import (
	"context"
	"fmt"
	"strings"

	"agrolinq/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type sealRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSealRepository creates a new PostgreSQL-backed green seal repository.
func NewSealRepository(pool *pgxpool.Pool, logger zerolog.Logger) SealRepository {
	return &sealRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "green_seal").Logger(),
	}
}

func (r *sealRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := beginTx(ctx, r.pool)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
	}
	return tx, err
}

const sealColumns = `id, producer_id, description, status, reviewer_id, rejection_reason, reviewed_at, created_at`

func scanSeal(row pgx.Row) (*model.GreenSealRequest, error) {
	var s model.GreenSealRequest
	err := row.Scan(&s.ID, &s.ProducerID, &s.Description, &s.Status, &s.ReviewerID, &s.RejectionReason, &s.ReviewedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create relies on the partial unique index over pending requests to
// reject a second pending request from the same producer.
func (r *sealRepository) Create(ctx context.Context, req *model.GreenSealRequest) error {
	query := `
		INSERT INTO green_seal_requests (id, producer_id, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, req.ID, req.ProducerID, req.Description, req.Status, req.CreatedAt)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return model.ErrSealRequestPending
		}
		r.logger.Error().Err(err).Str("producer_id", req.ProducerID.String()).Msg("failed to create green seal request")
		return fmt.Errorf("failed to create green seal request: %w", err)
	}

	return nil
}

func (r *sealRepository) HasPending(ctx context.Context, producerID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM green_seal_requests WHERE producer_id = $1 AND status = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, producerID, model.SealStatusPending).Scan(&exists); err != nil {
		r.logger.Error().Err(err).Str("producer_id", producerID.String()).Msg("failed to check pending requests")
		return false, fmt.Errorf("failed to check pending requests: %w", err)
	}

	return exists, nil
}

func (r *sealRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.GreenSealRequest, error) {
	return r.get(ctx, r.pool, `SELECT `+sealColumns+` FROM green_seal_requests WHERE id = $1`, id)
}

func (r *sealRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.GreenSealRequest, error) {
	return r.get(ctx, tx, `SELECT `+sealColumns+` FROM green_seal_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *sealRepository) get(ctx context.Context, q querier, query string, id uuid.UUID) (*model.GreenSealRequest, error) {
	req, err := scanSeal(q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("request_id", id.String()).Msg("failed to query green seal request")
		return nil, fmt.Errorf("failed to query green seal request: %w", err)
	}
	return req, nil
}

func (r *sealRepository) Decide(ctx context.Context, tx pgx.Tx, req *model.GreenSealRequest) (bool, error) {
	query := `
		UPDATE green_seal_requests
		SET status = $2, reviewer_id = $3, rejection_reason = $4, reviewed_at = $5
		WHERE id = $1 AND status = $6
	`

	tag, err := tx.Exec(ctx, query,
		req.ID, req.Status, req.ReviewerID, req.RejectionReason, req.ReviewedAt, model.SealStatusPending,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("request_id", req.ID.String()).Msg("failed to store green seal decision")
		return false, fmt.Errorf("failed to store green seal decision: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *sealRepository) List(ctx context.Context, filter model.SealFilter) ([]model.GreenSealRequest, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ProducerID != nil {
		args = append(args, *filter.ProducerID)
		conds = append(conds, fmt.Sprintf("producer_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + sealColumns + ` FROM green_seal_requests`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query green seal requests")
		return nil, fmt.Errorf("failed to query green seal requests: %w", err)
	}
	defer rows.Close()

	requests := []model.GreenSealRequest{}
	for rows.Next() {
		req, err := scanSeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan green seal request: %w", err)
		}
		requests = append(requests, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating green seal requests: %w", err)
	}

	return requests, nil
}
