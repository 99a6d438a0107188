package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"agrolinq/internal/catalog"
	"agrolinq/internal/model"
	"agrolinq/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	loader      catalog.Loader
	logger      zerolog.Logger
	now         func() time.Time
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, loader catalog.Loader, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		loader:      loader,
		logger:      logger.With().Str("service", "product").Logger(),
		now:         time.Now,
	}
}

// List retrieves products with pagination.
func (s *productService) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	limit, offset, err := normalizePage(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = limit, offset
	filter.Category = strings.TrimSpace(filter.Category)

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.NewDomainError(model.ErrCodeProductNotFound, "Product not found")
	}

	return product, nil
}

func (s *productService) Create(ctx context.Context, caller *model.Principal, input *model.ProductInput) (*model.Product, error) {
	if err := requireRole(caller, model.RoleProducer); err != nil {
		return nil, err
	}

	clean, err := cleanProductInput(input)
	if err != nil {
		return nil, err
	}

	product := newProduct(caller.AccountID, clean, s.now().UTC())
	if err := s.productRepo.Create(ctx, &product); err != nil {
		s.logger.Error().Err(err).Str("producer_id", caller.AccountID.String()).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("producer_id", product.ProducerID.String()).
		Msg("product created")

	return &product, nil
}

func (s *productService) Update(ctx context.Context, caller *model.Principal, id uuid.UUID, input *model.ProductInput) (*model.Product, error) {
	if err := requireRole(caller, model.RoleProducer); err != nil {
		return nil, err
	}

	clean, err := cleanProductInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.ProducerID != caller.AccountID {
		return nil, model.ErrForbidden
	}

	product := newProduct(caller.AccountID, clean, s.now().UTC())
	product.ID = id
	product.CreatedAt = existing.CreatedAt

	updated, err := s.productRepo.Update(ctx, &product)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if !updated {
		return nil, model.NewDomainError(model.ErrCodeProductNotFound, "Product not found")
	}

	return &product, nil
}

// Import reads a catalog file and inserts every record for the caller in one
// transaction. A bad record fails the whole import with its line number.
func (s *productService) Import(ctx context.Context, caller *model.Principal, req *model.ImportRequest) (*model.ImportResult, error) {
	if err := requireRole(caller, model.RoleProducer); err != nil {
		return nil, err
	}

	if req == nil || strings.TrimSpace(req.File) == "" {
		return nil, model.NewValidationError("file is required")
	}
	file := strings.TrimSpace(req.File)

	records, err := s.loader.Load(ctx, file)
	if err != nil {
		var parseErr *catalog.ParseError
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			return nil, model.ErrCatalogFileNotFound
		case errors.As(err, &parseErr):
			return nil, model.NewValidationError("line %d: %v", parseErr.Line, parseErr.Err)
		}
		s.logger.Error().Err(err).Str("file", file).Msg("failed to load catalog")
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	if len(records) == 0 {
		return nil, model.NewValidationError("catalog %s has no products", file)
	}

	now := s.now().UTC()
	products := make([]model.Product, len(records))
	for i, rec := range records {
		clean, err := cleanProductInput(&rec.ProductInput)
		if err != nil {
			return nil, model.NewValidationError("line %d: %v", rec.Line, err)
		}
		products[i] = newProduct(caller.AccountID, clean, now)
	}

	err = runInTx(ctx, s.productRepo, s.logger, func(tx pgx.Tx) error {
		return s.productRepo.CreateBatch(ctx, tx, products)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("file", file).Msg("failed to import catalog")
		return nil, fmt.Errorf("failed to import catalog: %w", err)
	}

	s.logger.Info().
		Str("file", file).
		Str("producer_id", caller.AccountID.String()).
		Int("imported", len(products)).
		Msg("catalog imported")

	return &model.ImportResult{File: file, Imported: len(products)}, nil
}

func newProduct(producerID uuid.UUID, in model.ProductInput, now time.Time) model.Product {
	return model.Product{
		ID:          uuid.New(),
		ProducerID:  producerID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Stock:       in.Stock,
		Unit:        in.Unit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// cleanProductInput trims text fields and checks their bounds.
func cleanProductInput(in *model.ProductInput) (model.ProductInput, error) {
	if in == nil {
		return model.ProductInput{}, model.NewValidationError("product is required")
	}

	out := model.ProductInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Stock:       in.Stock,
		Unit:        strings.TrimSpace(in.Unit),
	}

	switch n := utf8.RuneCountInString(out.Name); {
	case n == 0:
		return out, model.NewValidationError("name is required")
	case n > 255:
		return out, model.NewValidationError("name must be at most 255 characters")
	}
	if utf8.RuneCountInString(out.Description) > 2000 {
		return out, model.NewValidationError("description must be at most 2000 characters")
	}
	if err := checkAmount("price", out.Price); err != nil {
		return out, err
	}
	if utf8.RuneCountInString(out.Category) > 100 {
		return out, model.NewValidationError("category must be at most 100 characters")
	}
	if out.Stock < 0 || out.Stock > math.MaxInt32 {
		return out, model.NewValidationError("stock must be between 0 and %d", math.MaxInt32)
	}
	if n := utf8.RuneCountInString(out.Unit); n == 0 || n > 32 {
		return out, model.NewValidationError("unit is required and must be at most 32 characters")
	}

	return out, nil
}
