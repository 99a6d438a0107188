package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"agrolinq/internal/database"
	"agrolinq/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container with the application schema.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

var seq int

// seedAccount inserts an account of the given role with unique email and
// national id. Producers and restaurants also get a profile.
func seedAccount(t *testing.T, pool *pgxpool.Pool, role model.Role) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	seq++

	id := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO accounts (id, role, name, email, national_id, password_hash)
		 VALUES ($1, $2, $3, $4, $5, 'x')`,
		id, role, fmt.Sprintf("%s %d", role, seq), fmt.Sprintf("%s%d@test.local", role, seq), fmt.Sprintf("%03d.000.000-00", seq),
	)
	require.NoError(t, err)

	switch role {
	case model.RoleProducer:
		_, err = pool.Exec(ctx, `INSERT INTO producer_profiles (account_id, farm_name) VALUES ($1, 'Farm')`, id)
	case model.RoleRestaurant:
		_, err = pool.Exec(ctx, `INSERT INTO restaurant_profiles (account_id, establishment_name) VALUES ($1, 'Bistro')`, id)
	}
	require.NoError(t, err)

	return id
}

// seedProduct inserts a product owned by producerID.
func seedProduct(t *testing.T, pool *pgxpool.Pool, producerID uuid.UUID, name string, price float64, stock int) model.Product {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	p := model.Product{
		ID:         uuid.New(),
		ProducerID: producerID,
		Name:       name,
		Price:      price,
		Category:   "vegetables",
		Stock:      stock,
		Unit:       "kg",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, NewProductRepository(pool, zerolog.Nop()).Create(context.Background(), &p))

	return p
}

func stockOf(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) int {
	t.Helper()

	var stock int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock))
	return stock
}
