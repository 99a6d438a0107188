package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"agrolinq/internal/auth"
	"agrolinq/internal/catalog"
	"agrolinq/internal/database"
	"agrolinq/internal/events"
	"agrolinq/internal/handler"
	"agrolinq/internal/repository"
	"agrolinq/internal/router"
	"agrolinq/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testJWTSecret = "integration-secret-that-is-long-enough"

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application
// schema applied.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// Services is the fully wired service layer over a test database.
type Services struct {
	Accounts  service.AccountService
	Products  service.ProductService
	Producers service.ProducerService
	Orders    service.OrderService
	Seals     service.SealService
	Proposals service.ProposalService

	// CatalogDir is the local directory catalog imports read from.
	CatalogDir string
}

// NewServices wires every service against testDB. Token revocation runs on
// an in-memory Redis.
func NewServices(t *testing.T, testDB *TestDB) *Services {
	t.Helper()

	logger := zerolog.Nop()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	accountRepo := repository.NewAccountRepository(testDB.Pool, logger)
	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	publisher := events.NewNopPublisher(logger)
	tokens := auth.NewTokenManager(testJWTSecret, time.Hour)
	catalogDir := t.TempDir()

	return &Services{
		Accounts:  service.NewAccountService(accountRepo, tokens, auth.NewRedisRevocationStore(client, logger), logger),
		Products:  service.NewProductService(productRepo, catalog.NewFileLoader(catalogDir, logger), logger),
		Producers: service.NewProducerService(accountRepo, logger),
		Orders:    service.NewOrderService(repository.NewOrderRepository(testDB.Pool, logger), productRepo, publisher, logger),
		Seals:     service.NewSealService(repository.NewSealRepository(testDB.Pool, logger), accountRepo, publisher, logger),
		Proposals: service.NewProposalService(repository.NewProposalRepository(testDB.Pool, logger), publisher, 72*time.Hour, logger),

		CatalogDir: catalogDir,
	}
}

// NewServer builds the HTTP router over svc.
func NewServer(svc *Services) http.Handler {
	logger := zerolog.Nop()
	return router.New(router.Handlers{
		Auth:     handler.NewAuthHandler(svc.Accounts, logger),
		Product:  handler.NewProductHandler(svc.Products, logger),
		Producer: handler.NewProducerHandler(svc.Producers, logger),
		Order:    handler.NewOrderHandler(svc.Orders, logger),
		Seal:     handler.NewSealHandler(svc.Seals, logger),
		Proposal: handler.NewProposalHandler(svc.Proposals, logger),
	}, svc.Accounts, "agrolinq-integration", logger)
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"proposal_responses", "proposals", "green_seal_requests", "order_items", "orders",
		"products", "producer_profiles", "restaurant_profiles", "accounts",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
