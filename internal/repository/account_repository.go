package repository

import (
	"context"
	"fmt"
	"time"

	"agrolinq/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// accountRepository implements the AccountRepository interface using PostgreSQL.
type accountRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAccountRepository creates a new PostgreSQL-backed account repository.
func NewAccountRepository(pool *pgxpool.Pool, logger zerolog.Logger) AccountRepository {
	return &accountRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "account").Logger(),
	}
}

func (r *accountRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := beginTx(ctx, r.pool)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
	}
	return tx, err
}

const accountColumns = `id, role, name, email, national_id, password_hash, created_at`

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Role, &a.Name, &a.Email, &a.NationalID, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) Create(ctx context.Context, tx pgx.Tx, account *model.Account) error {
	query := `
		INSERT INTO accounts (id, role, name, email, national_id, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.Exec(ctx, query,
		account.ID, account.Role, account.Name, account.Email,
		account.NationalID, account.PasswordHash, account.CreatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			r.logger.Debug().Str("constraint", constraint).Msg("duplicate account")
			return model.ErrDuplicateAccount
		}
		r.logger.Error().Err(err).Str("account_id", account.ID.String()).Msg("failed to create account")
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (r *accountRepository) CreateProducerProfile(ctx context.Context, tx pgx.Tx, p *model.ProducerProfile) error {
	query := `
		INSERT INTO producer_profiles (account_id, farm_name, city, latitude, longitude, certified, certified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.Exec(ctx, query, p.AccountID, p.FarmName, p.City, p.Latitude, p.Longitude, p.Certified, p.CertifiedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("account_id", p.AccountID.String()).Msg("failed to create producer profile")
		return fmt.Errorf("failed to create producer profile: %w", err)
	}
	return nil
}

func (r *accountRepository) CreateRestaurantProfile(ctx context.Context, tx pgx.Tx, p *model.RestaurantProfile) error {
	query := `
		INSERT INTO restaurant_profiles (account_id, establishment_name, city, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.Exec(ctx, query, p.AccountID, p.EstablishmentName, p.City, p.Latitude, p.Longitude)
	if err != nil {
		r.logger.Error().Err(err).Str("account_id", p.AccountID.String()).Msg("failed to create restaurant profile")
		return fmt.Errorf("failed to create restaurant profile: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("account_id", id.String()).Msg("failed to query account")
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(email) = LOWER($1)`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query account by email")
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return account, nil
}

func (r *accountRepository) GetProducerProfile(ctx context.Context, accountID uuid.UUID) (*model.ProducerProfile, error) {
	query := `
		SELECT account_id, farm_name, city, latitude, longitude, certified, certified_at
		FROM producer_profiles
		WHERE account_id = $1
	`

	var p model.ProducerProfile
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&p.AccountID, &p.FarmName, &p.City, &p.Latitude, &p.Longitude, &p.Certified, &p.CertifiedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("account_id", accountID.String()).Msg("failed to query producer profile")
		return nil, fmt.Errorf("failed to query producer profile: %w", err)
	}
	return &p, nil
}

func (r *accountRepository) GetRestaurantProfile(ctx context.Context, accountID uuid.UUID) (*model.RestaurantProfile, error) {
	query := `
		SELECT account_id, establishment_name, city, latitude, longitude
		FROM restaurant_profiles
		WHERE account_id = $1
	`

	var p model.RestaurantProfile
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&p.AccountID, &p.EstablishmentName, &p.City, &p.Latitude, &p.Longitude,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("account_id", accountID.String()).Msg("failed to query restaurant profile")
		return nil, fmt.Errorf("failed to query restaurant profile: %w", err)
	}
	return &p, nil
}

const producerQuery = `
	SELECT a.id, a.name, p.account_id, p.farm_name, p.city, p.latitude, p.longitude, p.certified, p.certified_at
	FROM accounts a
	JOIN producer_profiles p ON p.account_id = a.id
`

func scanProducer(row pgx.Row) (*model.Producer, error) {
	var p model.Producer
	err := row.Scan(
		&p.ID, &p.Name, &p.AccountID, &p.FarmName, &p.City,
		&p.Latitude, &p.Longitude, &p.Certified, &p.CertifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *accountRepository) GetProducer(ctx context.Context, id uuid.UUID) (*model.Producer, error) {
	producer, err := scanProducer(r.pool.QueryRow(ctx, producerQuery+` WHERE a.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("producer_id", id.String()).Msg("failed to query producer")
		return nil, fmt.Errorf("failed to query producer: %w", err)
	}
	return producer, nil
}

func (r *accountRepository) ListLocatedProducers(ctx context.Context) ([]model.Producer, error) {
	query := producerQuery + ` WHERE p.latitude IS NOT NULL AND p.longitude IS NOT NULL ORDER BY a.name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query producers")
		return nil, fmt.Errorf("failed to query producers: %w", err)
	}
	defer rows.Close()

	var producers []model.Producer
	for rows.Next() {
		p, err := scanProducer(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan producer row")
			return nil, fmt.Errorf("failed to scan producer: %w", err)
		}
		producers = append(producers, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating producer rows")
		return nil, fmt.Errorf("error iterating producers: %w", err)
	}

	return producers, nil
}

func (r *accountRepository) SetCertified(ctx context.Context, tx pgx.Tx, producerID uuid.UUID, at time.Time) error {
	query := `UPDATE producer_profiles SET certified = TRUE, certified_at = $2 WHERE account_id = $1`

	tag, err := tx.Exec(ctx, query, producerID, at)
	if err != nil {
		r.logger.Error().Err(err).Str("producer_id", producerID.String()).Msg("failed to certify producer")
		return fmt.Errorf("failed to certify producer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}

	r.logger.Info().Str("producer_id", producerID.String()).Msg("producer certified")
	return nil
}
