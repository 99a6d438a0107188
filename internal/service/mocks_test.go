package service

import (
	"context"
	"time"

	"agrolinq/internal/catalog"
	"agrolinq/internal/events"
	"agrolinq/internal/model"
	"agrolinq/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func principal(role model.Role) *model.Principal {
	return &model.Principal{
		AccountID: uuid.New(),
		Role:      role,
		TokenID:   uuid.NewString(),
		ExpiresAt: fixedNow.Add(time.Hour),
	}
}

// beginTx makes BeginTx on repo return tx.
func beginTx(repo *mock.Mock, tx *MockTx) {
	repo.On("BeginTx", mock.Anything).Return(tx, nil)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

func txFrom(args mock.Arguments) (pgx.Tx, error) {
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return txFrom(m.Called(ctx))
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).([]model.OrderItem), args.Error(2)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).([]model.OrderItem), args.Error(2)
}

func (m *MockOrderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkCancelled(ctx context.Context, tx pgx.Tx, id uuid.UUID, actor model.CancelActor, reason string, at time.Time) error {
	args := m.Called(ctx, tx, id, actor, reason, at)
	return args.Error(0)
}

func (m *MockOrderRepository) SetReview(ctx context.Context, id uuid.UUID, score int, comment *string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, score, comment, at)
	return args.Bool(0), args.Error(1)
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return txFrom(m.Called(ctx))
}

func (m *MockProductRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *model.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) CreateBatch(ctx context.Context, tx pgx.Tx, products []model.Product) error {
	return m.Called(ctx, tx, products).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *model.Product) (bool, error) {
	args := m.Called(ctx, product)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) LockByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, tx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, tx pgx.Tx, adjustments []repository.StockAdjustment) error {
	return m.Called(ctx, tx, adjustments).Error(0)
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return txFrom(m.Called(ctx))
}

func (m *MockAccountRepository) Create(ctx context.Context, tx pgx.Tx, account *model.Account) error {
	return m.Called(ctx, tx, account).Error(0)
}

func (m *MockAccountRepository) CreateProducerProfile(ctx context.Context, tx pgx.Tx, profile *model.ProducerProfile) error {
	return m.Called(ctx, tx, profile).Error(0)
}

func (m *MockAccountRepository) CreateRestaurantProfile(ctx context.Context, tx pgx.Tx, profile *model.RestaurantProfile) error {
	return m.Called(ctx, tx, profile).Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepository) GetProducerProfile(ctx context.Context, accountID uuid.UUID) (*model.ProducerProfile, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProducerProfile), args.Error(1)
}

func (m *MockAccountRepository) GetRestaurantProfile(ctx context.Context, accountID uuid.UUID) (*model.RestaurantProfile, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RestaurantProfile), args.Error(1)
}

func (m *MockAccountRepository) GetProducer(ctx context.Context, id uuid.UUID) (*model.Producer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Producer), args.Error(1)
}

func (m *MockAccountRepository) ListLocatedProducers(ctx context.Context) ([]model.Producer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Producer), args.Error(1)
}

func (m *MockAccountRepository) SetCertified(ctx context.Context, tx pgx.Tx, producerID uuid.UUID, at time.Time) error {
	return m.Called(ctx, tx, producerID, at).Error(0)
}

// MockSealRepository is a mock implementation of SealRepository.
type MockSealRepository struct {
	mock.Mock
}

func (m *MockSealRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return txFrom(m.Called(ctx))
}

func (m *MockSealRepository) Create(ctx context.Context, req *model.GreenSealRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockSealRepository) HasPending(ctx context.Context, producerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, producerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSealRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.GreenSealRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GreenSealRequest), args.Error(1)
}

func (m *MockSealRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.GreenSealRequest, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GreenSealRequest), args.Error(1)
}

func (m *MockSealRepository) Decide(ctx context.Context, tx pgx.Tx, req *model.GreenSealRequest) (bool, error) {
	args := m.Called(ctx, tx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockSealRepository) List(ctx context.Context, filter model.SealFilter) ([]model.GreenSealRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GreenSealRequest), args.Error(1)
}

// MockProposalRepository is a mock implementation of ProposalRepository.
type MockProposalRepository struct {
	mock.Mock
}

func (m *MockProposalRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return txFrom(m.Called(ctx))
}

func (m *MockProposalRepository) Create(ctx context.Context, proposal *model.Proposal) error {
	return m.Called(ctx, proposal).Error(0)
}

func (m *MockProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Proposal), args.Error(1)
}

func (m *MockProposalRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Proposal, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Proposal), args.Error(1)
}

func (m *MockProposalRepository) List(ctx context.Context, filter model.ProposalFilter) ([]model.Proposal, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Proposal), args.Error(1)
}

func (m *MockProposalRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.ProposalStatus, acceptedResponseID *uuid.UUID) error {
	return m.Called(ctx, tx, id, status, acceptedResponseID).Error(0)
}

func (m *MockProposalRepository) ExpireOpen(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProposalRepository) CreateResponse(ctx context.Context, tx pgx.Tx, response *model.ProposalResponse) error {
	return m.Called(ctx, tx, response).Error(0)
}

func (m *MockProposalRepository) GetResponse(ctx context.Context, id uuid.UUID) (*model.ProposalResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProposalResponse), args.Error(1)
}

func (m *MockProposalRepository) ListResponses(ctx context.Context, proposalID uuid.UUID) ([]model.ProposalResponse, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProposalResponse), args.Error(1)
}

// MockPublisher records published events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, evts ...events.Event) error {
	return m.Called(ctx, evts).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

// eventOfType matches a Publish call carrying a single event of type t.
func eventOfType(t string) any {
	return mock.MatchedBy(func(evts []events.Event) bool {
		return len(evts) == 1 && evts[0].Type == t
	})
}

// MockLoader is a mock implementation of catalog.Loader.
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, name string) ([]catalog.Record, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Record), args.Error(1)
}

// MockTokenManager is a mock implementation of TokenManager.
type MockTokenManager struct {
	mock.Mock
}

func (m *MockTokenManager) Issue(accountID uuid.UUID, role model.Role) (string, time.Time, error) {
	args := m.Called(accountID, role)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenManager) Parse(token string) (*model.Principal, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Principal), args.Error(1)
}

// MockRevocationStore is a mock implementation of auth.RevocationStore.
type MockRevocationStore struct {
	mock.Mock
}

func (m *MockRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	return m.Called(ctx, tokenID, until).Error(0)
}

func (m *MockRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}
