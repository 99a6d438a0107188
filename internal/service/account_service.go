package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agrolinq/internal/auth"
	"agrolinq/internal/model"
	"agrolinq/internal/repository"
	"agrolinq/internal/validate"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// accountService implements AccountService.
type accountService struct {
	accountRepo repository.AccountRepository
	tokens      TokenManager
	revocations auth.RevocationStore
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAccountService creates a new account service.
func NewAccountService(
	accountRepo repository.AccountRepository,
	tokens TokenManager,
	revocations auth.RevocationStore,
	logger zerolog.Logger,
) AccountService {
	return &accountService{
		accountRepo: accountRepo,
		tokens:      tokens,
		revocations: revocations,
		logger:      logger.With().Str("service", "account").Logger(),
		now:         time.Now,
	}
}

// Register validates the request for its role and stores the account with
// its profile in one transaction.
func (s *accountService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AccountResponse, error) {
	if req == nil {
		return nil, model.NewValidationError("registration request is required")
	}

	role, ok := model.ParseRole(strings.TrimSpace(req.Role))
	if !ok || role == model.RoleAdmin {
		return nil, model.NewValidationError("role must be consumer, producer or restaurant")
	}

	name, ok := validate.Text(req.Name, 1, 255)
	if !ok {
		return nil, model.NewValidationError("name is required and must be at most 255 characters")
	}

	email, ok := validate.Email(req.Email)
	if !ok {
		return nil, model.NewValidationError("email is invalid")
	}

	nationalID := strings.TrimSpace(req.NationalID)
	if err := checkNationalID(role, nationalID); err != nil {
		return nil, err
	}

	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}

	lat, lng, err := checkCoordinates(req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}
	city := strings.TrimSpace(req.City)

	account := &model.Account{
		ID:         uuid.New(),
		Role:       role,
		Name:       name,
		Email:      email,
		NationalID: nationalID,
		CreatedAt:  s.now().UTC(),
	}
	resp := &model.AccountResponse{}

	switch role {
	case model.RoleProducer:
		farm, ok := validate.Text(req.FarmName, 1, 255)
		if !ok {
			return nil, model.NewValidationError("farm name is required for producers")
		}
		resp.Producer = &model.ProducerProfile{
			AccountID: account.ID,
			FarmName:  farm,
			City:      city,
			Latitude:  lat,
			Longitude: lng,
		}
	case model.RoleRestaurant:
		establishment, ok := validate.Text(req.EstablishmentName, 1, 255)
		if !ok {
			return nil, model.NewValidationError("establishment name is required for restaurants")
		}
		resp.Restaurant = &model.RestaurantProfile{
			AccountID:         account.ID,
			EstablishmentName: establishment,
			City:              city,
			Latitude:          lat,
			Longitude:         lng,
		}
	}

	account.PasswordHash, err = auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err = runInTx(ctx, s.accountRepo, s.logger, func(tx pgx.Tx) error {
		if err := s.accountRepo.Create(ctx, tx, account); err != nil {
			return err
		}
		if resp.Producer != nil {
			return s.accountRepo.CreateProducerProfile(ctx, tx, resp.Producer)
		}
		if resp.Restaurant != nil {
			return s.accountRepo.CreateRestaurantProfile(ctx, tx, resp.Restaurant)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account_id", account.ID.String()).
		Str("role", string(role)).
		Msg("account registered")

	resp.Account = *account
	return resp, nil
}

// Login returns the same error for an unknown email and a wrong password.
func (s *accountService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if req == nil {
		return nil, model.ErrInvalidCredentials
	}

	email, ok := validate.Email(req.Email)
	if !ok || req.Password == "" {
		return nil, model.ErrInvalidCredentials
	}

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to look up account")
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return nil, model.ErrInvalidCredentials
	}

	match, err := auth.CheckPassword(account.PasswordHash, req.Password)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", account.ID.String()).Msg("failed to verify password")
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		s.logger.Info().Str("account_id", account.ID.String()).Msg("login rejected")
		return nil, model.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to issue token")
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &model.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		AccountID: account.ID,
		Role:      account.Role,
	}, nil
}

func (s *accountService) Logout(ctx context.Context, caller *model.Principal) error {
	if caller == nil {
		return model.ErrUnauthorised
	}

	if err := s.revocations.Revoke(ctx, caller.TokenID, caller.ExpiresAt); err != nil {
		s.logger.Error().Err(err).Str("account_id", caller.AccountID.String()).Msg("failed to revoke token")
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

func (s *accountService) Me(ctx context.Context, caller *model.Principal) (*model.AccountResponse, error) {
	if caller == nil {
		return nil, model.ErrUnauthorised
	}

	account, err := s.accountRepo.GetByID(ctx, caller.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, model.ErrAccountNotFound
	}

	resp := &model.AccountResponse{Account: *account}
	switch account.Role {
	case model.RoleProducer:
		if resp.Producer, err = s.accountRepo.GetProducerProfile(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("failed to get producer profile: %w", err)
		}
	case model.RoleRestaurant:
		if resp.Restaurant, err = s.accountRepo.GetRestaurantProfile(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("failed to get restaurant profile: %w", err)
		}
	}

	return resp, nil
}

// Authenticate fails closed when the revocation store is unreachable.
func (s *accountService) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	principal, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("rejected token")
		return nil, model.ErrUnauthorised
	}

	revoked, err := s.revocations.IsRevoked(ctx, principal.TokenID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check token revocation")
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, model.ErrUnauthorised
	}

	return principal, nil
}

// EnsureAdmin is idempotent. It fails when the email belongs to a
// non-admin account.
func (s *accountService) EnsureAdmin(ctx context.Context, email, password string) error {
	email, ok := validate.Email(email)
	if !ok {
		return fmt.Errorf("invalid admin email")
	}
	if err := checkPassword(password); err != nil {
		return fmt.Errorf("invalid admin password: %w", err)
	}

	existing, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}
	if existing != nil {
		if existing.Role != model.RoleAdmin {
			return fmt.Errorf("admin email %s belongs to a %s account", email, existing.Role)
		}
		s.logger.Debug().Str("account_id", existing.ID.String()).Msg("admin account present")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	id := uuid.New()
	admin := &model.Account{
		ID:           id,
		Role:         model.RoleAdmin,
		Name:         "Administrator",
		Email:        email,
		NationalID:   "admin:" + id.String(),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	err = runInTx(ctx, s.accountRepo, s.logger, func(tx pgx.Tx) error {
		return s.accountRepo.Create(ctx, tx, admin)
	})
	if err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	s.logger.Info().Str("account_id", id.String()).Msg("admin account created")
	return nil
}

// checkNationalID enforces CPF for consumers, CNPJ for restaurants and
// either for producers.
func checkNationalID(role model.Role, id string) error {
	switch role {
	case model.RoleConsumer:
		if !validate.CPF(id) {
			return model.NewValidationError("national ID must be a CPF in the format 000.000.000-00")
		}
	case model.RoleRestaurant:
		if !validate.CNPJ(id) {
			return model.NewValidationError("national ID must be a CNPJ in the format 00.000.000/0000-00")
		}
	case model.RoleProducer:
		if !validate.CPF(id) && !validate.CNPJ(id) {
			return model.NewValidationError("national ID must be a CPF or CNPJ")
		}
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < auth.MinPasswordLength || len(password) > auth.MaxPasswordLength {
		return model.NewValidationError("password must be between %d and %d bytes", auth.MinPasswordLength, auth.MaxPasswordLength)
	}
	return nil
}

// checkCoordinates requires latitude and longitude together.
func checkCoordinates(lat, lng *float64) (*float64, *float64, error) {
	if (lat == nil) != (lng == nil) {
		return nil, nil, model.NewValidationError("latitude and longitude must be provided together")
	}
	if lat == nil {
		return nil, nil, nil
	}
	if !validate.Latitude(*lat) || !validate.Longitude(*lng) {
		return nil, nil, model.NewValidationError("coordinates are out of range")
	}
	return lat, lng, nil
}
