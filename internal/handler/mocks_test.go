package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agrolinq/internal/middleware"
	"agrolinq/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newRequest builds a request authenticated as caller. A nil caller leaves
// the context anonymous.
func newRequest(t *testing.T, method, target string, body any, caller *model.Principal) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), caller))
	}
	return req
}

func principal(role model.Role) *model.Principal {
	return &model.Principal{AccountID: uuid.New(), Role: role, TokenID: uuid.NewString()}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// result returns the first mocked value cast to T, or the zero value.
func result[T any](args mock.Arguments) T {
	var zero T
	if v := args.Get(0); v != nil {
		return v.(T)
	}
	return zero
}

// MockAccountService is a mock implementation of AccountService.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AccountResponse, error) {
	args := m.Called(ctx, req)
	return result[*model.AccountResponse](args), args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	args := m.Called(ctx, req)
	return result[*model.LoginResponse](args), args.Error(1)
}

func (m *MockAccountService) Logout(ctx context.Context, caller *model.Principal) error {
	return m.Called(ctx, caller).Error(0)
}

func (m *MockAccountService) Me(ctx context.Context, caller *model.Principal) (*model.AccountResponse, error) {
	args := m.Called(ctx, caller)
	return result[*model.AccountResponse](args), args.Error(1)
}

func (m *MockAccountService) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	args := m.Called(ctx, token)
	return result[*model.Principal](args), args.Error(1)
}

func (m *MockAccountService) EnsureAdmin(ctx context.Context, email, password string) error {
	return m.Called(ctx, email, password).Error(0)
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, filter)
	return result[[]model.Product](args), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	return result[*model.Product](args), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, caller *model.Principal, input *model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, caller, input)
	return result[*model.Product](args), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, caller *model.Principal, id uuid.UUID, input *model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, caller, id, input)
	return result[*model.Product](args), args.Error(1)
}

func (m *MockProductService) Import(ctx context.Context, caller *model.Principal, req *model.ImportRequest) (*model.ImportResult, error) {
	args := m.Called(ctx, caller, req)
	return result[*model.ImportResult](args), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, caller *model.Principal, req *model.OrderRequest) (*model.OrderResponse, error) {
	args := m.Called(ctx, caller, req)
	return result[*model.OrderResponse](args), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, caller *model.Principal, id uuid.UUID) (*model.OrderResponse, error) {
	args := m.Called(ctx, caller, id)
	return result[*model.OrderResponse](args), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, caller *model.Principal, filter model.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, caller, filter)
	return result[[]model.Order](args), args.Error(1)
}

func (m *MockOrderService) AdvanceStatus(ctx context.Context, caller *model.Principal, id uuid.UUID, req *model.StatusUpdateRequest) (*model.Order, error) {
	args := m.Called(ctx, caller, id, req)
	return result[*model.Order](args), args.Error(1)
}

func (m *MockOrderService) Cancel(ctx context.Context, caller *model.Principal, id uuid.UUID, req *model.CancelRequest) (*model.OrderResponse, error) {
	args := m.Called(ctx, caller, id, req)
	return result[*model.OrderResponse](args), args.Error(1)
}

func (m *MockOrderService) Review(ctx context.Context, caller *model.Principal, id uuid.UUID, req *model.ReviewRequest) (*model.Order, error) {
	args := m.Called(ctx, caller, id, req)
	return result[*model.Order](args), args.Error(1)
}

// MockSealService is a mock implementation of SealService.
type MockSealService struct {
	mock.Mock
}

func (m *MockSealService) Request(ctx context.Context, caller *model.Principal, input *model.SealRequestInput) (*model.GreenSealRequest, error) {
	args := m.Called(ctx, caller, input)
	return result[*model.GreenSealRequest](args), args.Error(1)
}

func (m *MockSealService) List(ctx context.Context, caller *model.Principal, filter model.SealFilter) ([]model.GreenSealRequest, error) {
	args := m.Called(ctx, caller, filter)
	return result[[]model.GreenSealRequest](args), args.Error(1)
}

func (m *MockSealService) Approve(ctx context.Context, caller *model.Principal, id uuid.UUID) (*model.GreenSealRequest, error) {
	args := m.Called(ctx, caller, id)
	return result[*model.GreenSealRequest](args), args.Error(1)
}

func (m *MockSealService) Reject(ctx context.Context, caller *model.Principal, id uuid.UUID, input *model.SealRejectInput) (*model.GreenSealRequest, error) {
	args := m.Called(ctx, caller, id, input)
	return result[*model.GreenSealRequest](args), args.Error(1)
}

// MockProposalService is a mock implementation of ProposalService.
type MockProposalService struct {
	mock.Mock
}

func (m *MockProposalService) Create(ctx context.Context, caller *model.Principal, input *model.ProposalInput) (*model.Proposal, error) {
	args := m.Called(ctx, caller, input)
	return result[*model.Proposal](args), args.Error(1)
}

func (m *MockProposalService) List(ctx context.Context, caller *model.Principal, filter model.ProposalFilter) ([]model.Proposal, error) {
	args := m.Called(ctx, caller, filter)
	return result[[]model.Proposal](args), args.Error(1)
}

func (m *MockProposalService) Get(ctx context.Context, caller *model.Principal, id uuid.UUID) (*model.ProposalDetail, error) {
	args := m.Called(ctx, caller, id)
	return result[*model.ProposalDetail](args), args.Error(1)
}

func (m *MockProposalService) Respond(ctx context.Context, caller *model.Principal, id uuid.UUID, input *model.ProposalResponseInput) (*model.ProposalResponse, error) {
	args := m.Called(ctx, caller, id, input)
	return result[*model.ProposalResponse](args), args.Error(1)
}

func (m *MockProposalService) Accept(ctx context.Context, caller *model.Principal, id uuid.UUID, input *model.AcceptProposalInput) (*model.ProposalDetail, error) {
	args := m.Called(ctx, caller, id, input)
	return result[*model.ProposalDetail](args), args.Error(1)
}

func (m *MockProposalService) Decline(ctx context.Context, caller *model.Principal, id uuid.UUID) (*model.Proposal, error) {
	args := m.Called(ctx, caller, id)
	return result[*model.Proposal](args), args.Error(1)
}

func (m *MockProposalService) Expire(ctx context.Context, caller *model.Principal) (*model.ExpireResult, error) {
	args := m.Called(ctx, caller)
	return result[*model.ExpireResult](args), args.Error(1)
}

// MockProducerService is a mock implementation of ProducerService.
type MockProducerService struct {
	mock.Mock
}

func (m *MockProducerService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]model.NearbyProducer, error) {
	args := m.Called(ctx, lat, lng, radiusKm)
	return result[[]model.NearbyProducer](args), args.Error(1)
}

func (m *MockProducerService) Get(ctx context.Context, id uuid.UUID) (*model.Producer, error) {
	args := m.Called(ctx, id)
	return result[*model.Producer](args), args.Error(1)
}
