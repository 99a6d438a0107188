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

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func (r *productRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := beginTx(ctx, r.pool)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
	}
	return tx, err
}

const productColumns = `id, producer_id, name, description, price, category, stock, unit, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.ProducerID, &p.Name, &p.Description, &p.Price,
		&p.Category, &p.Stock, &p.Unit, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) collect(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// List retrieves products with optional category and producer filters.
func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.ProducerID != nil {
		args = append(args, *filter.ProducerID)
		conds = append(conds, fmt.Sprintf("producer_id = $%d", len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	return r.collect(rows)
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

const insertProduct = `
	INSERT INTO products (id, producer_id, name, description, price, category, stock, unit, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

func productArgs(p *model.Product) []any {
	return []any{p.ID, p.ProducerID, p.Name, p.Description, p.Price, p.Category, p.Stock, p.Unit, p.CreatedAt, p.UpdatedAt}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	if _, err := r.pool.Exec(ctx, insertProduct, productArgs(product)...); err != nil {
		r.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// CreateBatch inserts products within the provided transaction.
func (r *productRepository) CreateBatch(ctx context.Context, tx pgx.Tx, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range products {
		batch.Queue(insertProduct, productArgs(&products[i])...)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range products {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Int("index", i).
				Str("name", products[i].Name).
				Msg("failed to insert product")
			return fmt.Errorf("failed to insert product %d: %w", i, err)
		}
	}

	r.logger.Debug().Int("count", len(products)).Msg("products inserted")
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) (bool, error) {
	query := `
		UPDATE products
		SET name = $3, description = $4, price = $5, category = $6, stock = $7, unit = $8, updated_at = $9
		WHERE id = $1 AND producer_id = $2
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		product.ID, product.ProducerID, product.Name, product.Description,
		product.Price, product.Category, product.Stock, product.Unit, product.UpdatedAt,
	).Scan(&product.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		r.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to update product")
		return false, fmt.Errorf("failed to update product: %w", err)
	}

	return true, nil
}

// LockByIDs locks rows in id order so concurrent orders touching the same
// products cannot deadlock.
func (r *productRepository) LockByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to lock products")
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	return r.collect(rows)
}

// AdjustStock applies stock deltas within the provided transaction.
func (r *productRepository) AdjustStock(ctx context.Context, tx pgx.Tx, adjustments []StockAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	query := `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`

	batch := &pgx.Batch{}
	for _, a := range adjustments {
		batch.Queue(query, a.ProductID, a.Delta)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for _, a := range adjustments {
		tag, err := results.Exec()
		if err != nil {
			if isCheckViolation(err) {
				return model.ErrInsufficientStock
			}
			r.logger.Error().
				Err(err).
				Str("product_id", a.ProductID.String()).
				Int("delta", a.Delta).
				Msg("failed to adjust stock")
			return fmt.Errorf("failed to adjust stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			r.logger.Error().Str("product_id", a.ProductID.String()).Msg("stock adjustment matched no product")
			return fmt.Errorf("failed to adjust stock: product %s missing", a.ProductID)
		}
	}

	r.logger.Debug().Int("count", len(adjustments)).Msg("stock adjusted")
	return nil
}
