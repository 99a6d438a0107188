package service

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"agrolinq/internal/events"
	"agrolinq/internal/model"
	"agrolinq/internal/repository"
	"agrolinq/internal/validate"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	maxCancelReasonLength  = 500
	maxReviewCommentLength = 1000
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	publisher   events.Publisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		logger:      logger.With().Str("service", "order").Logger(),
		now:         time.Now,
	}
}

// CreateOrder reserves stock for every line and records the order in a
// single transaction. The total is computed from current product prices.
func (s *orderService) CreateOrder(ctx context.Context, caller *model.Principal, req *model.OrderRequest) (*model.OrderResponse, error) {
	if err := requireRole(caller, model.RoleConsumer); err != nil {
		return nil, err
	}

	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}

	now := s.now().UTC()
	order := &model.Order{
		ID:         uuid.New(),
		ConsumerID: caller.AccountID,
		ProducerID: req.ProducerID,
		Status:     model.OrderStatusNew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	var orderItems []model.OrderItem

	err := runInTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		products, err := s.productRepo.LockByIDs(ctx, tx, productIDs)
		if err != nil {
			return fmt.Errorf("failed to lock products: %w", err)
		}

		if len(products) != len(productIDs) {
			s.logger.Warn().
				Int("requested", len(productIDs)).
				Int("found", len(products)).
				Msg("order references unknown products")
			return model.ErrProductNotFound
		}

		byID := make(map[uuid.UUID]model.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		var totalCents int64
		orderItems = make([]model.OrderItem, len(req.Items))
		adjustments := make([]repository.StockAdjustment, len(req.Items))
		for i, item := range req.Items {
			p := byID[item.ProductID]
			if p.ProducerID != req.ProducerID {
				return model.NewValidationError("product %s does not belong to producer %s", p.ID, req.ProducerID)
			}
			if p.Stock < item.Quantity {
				s.logger.Info().
					Str("product_id", p.ID.String()).
					Int("stock", p.Stock).
					Int("quantity", item.Quantity).
					Msg("insufficient stock")
				return model.ErrInsufficientStock
			}

			// Checked before multiplying so the sum cannot overflow.
			unitCents := toCents(p.Price)
			if unitCents > 0 && int64(item.Quantity) > (maxAmountCents-totalCents)/unitCents {
				return model.NewValidationError("order total exceeds %.2f", maxAmount)
			}
			totalCents += unitCents * int64(item.Quantity)
			orderItems[i] = model.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  item.Quantity,
				UnitPrice: p.Price,
			}
			adjustments[i] = repository.StockAdjustment{ProductID: p.ID, Delta: -item.Quantity}
		}

		if req.Total != nil {
			if diff := toCents(*req.Total) - totalCents; diff > 1 || diff < -1 {
				return model.NewValidationError("total %.2f does not match computed total %.2f", *req.Total, fromCents(totalCents))
			}
		}
		order.Total = fromCents(totalCents)

		if err := s.productRepo.AdjustStock(ctx, tx, adjustments); err != nil {
			return err
		}

		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
			return fmt.Errorf("failed to create order: %w", err)
		}

		if err := s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
			s.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Int("item_count", len(orderItems)).
				Msg("failed to create order items")
			return fmt.Errorf("failed to create order items: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(orderItems)).
		Float64("total", order.Total).
		Msg("order created successfully")

	resp := &model.OrderResponse{Order: *order, Items: orderItems}
	emit(ctx, s.publisher, s.logger, events.New(events.OrderCreated, order.ID.String(), resp))

	return resp, nil
}

// GetByID retrieves an order visible to its consumer, its producer or an admin.
func (s *orderService) GetByID(ctx context.Context, caller *model.Principal, id uuid.UUID) (*model.OrderResponse, error) {
	if caller == nil {
		return nil, model.ErrUnauthorised
	}

	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	if !canViewOrder(caller, order) {
		return nil, model.ErrForbidden
	}

	return &model.OrderResponse{Order: *order, Items: items}, nil
}

// List returns the caller's own orders. Admins may filter freely.
func (s *orderService) List(ctx context.Context, caller *model.Principal, filter model.OrderFilter) ([]model.Order, error) {
	if err := requireRole(caller, model.RoleConsumer, model.RoleProducer, model.RoleAdmin); err != nil {
		return nil, err
	}

	limit, offset, err := normalizePage(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = limit, offset

	id := caller.AccountID
	switch caller.Role {
	case model.RoleConsumer:
		filter.ConsumerID = &id
	case model.RoleProducer:
		filter.ProducerID = &id
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", id.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// AdvanceStatus moves an order exactly one step along
// new → picking → shipped → completed. The update is a compare-and-set on
// the status read, so concurrent callers cannot both win.
func (s *orderService) AdvanceStatus(ctx context.Context, caller *model.Principal, id uuid.UUID, req *model.StatusUpdateRequest) (*model.Order, error) {
	if err := requireRole(caller, model.RoleProducer, model.RoleAdmin); err != nil {
		return nil, err
	}

	if req == nil {
		return nil, model.NewValidationError("status is required")
	}

	target, ok := model.ParseOrderStatus(strings.TrimSpace(req.Status))
	if !ok {
		return nil, model.NewValidationError("unknown order status %q", req.Status)
	}
	if target == model.OrderStatusCancelled {
		return nil, model.NewDomainError(model.ErrCodeInvalidStatusTransition, "Use the cancel operation to cancel an order")
	}

	order, _, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if caller.Role == model.RoleProducer && order.ProducerID != caller.AccountID {
		return nil, model.ErrForbidden
	}

	if !order.Status.CanAdvanceTo(target) {
		s.logger.Info().
			Str("order_id", id.String()).
			Str("from", string(order.Status)).
			Str("to", string(target)).
			Msg("rejected status transition")
		return nil, model.ErrInvalidStatusTransition
	}

	from := order.Status
	updated, err := s.orderRepo.UpdateStatus(ctx, id, from, target)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !updated {
		return nil, model.ErrStaleStatus
	}

	order.Status = target
	order.UpdatedAt = s.now().UTC()

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(from)).
		Str("to", string(target)).
		Msg("order status advanced")

	emit(ctx, s.publisher, s.logger, events.New(events.OrderStatusChanged, id.String(), map[string]any{
		"orderId": id,
		"from":    from,
		"to":      target,
	}))

	return order, nil
}

// Cancel cancels a new, picking or shipped order on behalf of its consumer
// or producer and puts the reserved stock back.
func (s *orderService) Cancel(ctx context.Context, caller *model.Principal, id uuid.UUID, req *model.CancelRequest) (*model.OrderResponse, error) {
	if err := requireRole(caller, model.RoleConsumer, model.RoleProducer); err != nil {
		return nil, err
	}

	var reason string
	if req != nil {
		reason = req.Reason
	}
	reason, ok := validate.Text(reason, 1, maxCancelReasonLength)
	if !ok {
		return nil, model.NewValidationError("cancel reason is required and must be at most %d characters", maxCancelReasonLength)
	}

	actor := model.CancelActorConsumer
	if caller.Role == model.RoleProducer {
		actor = model.CancelActorProducer
	}

	now := s.now().UTC()
	var resp *model.OrderResponse

	err := runInTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		order, items, err := s.orderRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if order == nil {
			return model.ErrOrderNotFound
		}

		owner := order.ConsumerID
		if actor == model.CancelActorProducer {
			owner = order.ProducerID
		}
		if owner != caller.AccountID {
			return model.ErrForbidden
		}

		if order.Status.Terminal() {
			return model.ErrOrderNotCancellable
		}

		if err := s.productRepo.AdjustStock(ctx, tx, restockAdjustments(items)); err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}

		if err := s.orderRepo.MarkCancelled(ctx, tx, id, actor, reason, now); err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		order.Status = model.OrderStatusCancelled
		order.CancelledBy = &actor
		order.CancelReason = &reason
		order.CancelledAt = &now
		order.UpdatedAt = now
		resp = &model.OrderResponse{Order: *order, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("cancelled_by", string(actor)).
		Msg("order cancelled")

	emit(ctx, s.publisher, s.logger, events.New(events.OrderCancelled, id.String(), resp))

	return resp, nil
}

// Review records the consumer's score for a completed order. Each order
// takes one review.
func (s *orderService) Review(ctx context.Context, caller *model.Principal, id uuid.UUID, req *model.ReviewRequest) (*model.Order, error) {
	if err := requireRole(caller, model.RoleConsumer); err != nil {
		return nil, err
	}

	if req == nil || req.Score < 1 || req.Score > 5 {
		return nil, model.NewValidationError("score must be between 1 and 5")
	}

	var comment *string
	if c := strings.TrimSpace(req.Comment); c != "" {
		if utf8.RuneCountInString(c) > maxReviewCommentLength {
			return nil, model.NewValidationError("comment must be at most %d characters", maxReviewCommentLength)
		}
		comment = &c
	}

	order, _, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.ConsumerID != caller.AccountID {
		return nil, model.ErrForbidden
	}
	if order.Status != model.OrderStatusCompleted {
		return nil, model.ErrOrderNotCompleted
	}
	if order.HasReview() {
		return nil, model.ErrReviewExists
	}

	now := s.now().UTC()
	stored, err := s.orderRepo.SetReview(ctx, id, req.Score, comment, now)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to store review")
		return nil, fmt.Errorf("failed to store review: %w", err)
	}
	if !stored {
		// a completed order only loses eligibility by being reviewed
		return nil, model.ErrReviewExists
	}

	score := req.Score
	order.ReviewScore = &score
	order.ReviewComment = comment
	order.ReviewedAt = &now

	emit(ctx, s.publisher, s.logger, events.New(events.OrderReviewed, id.String(), map[string]any{
		"orderId":    id,
		"producerId": order.ProducerID,
		"score":      score,
	}))

	return order, nil
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.NewValidationError("order request is required")
	}

	if req.ProducerID == uuid.Nil {
		return model.NewValidationError("producer ID is required")
	}

	if len(req.Items) == 0 {
		return model.NewValidationError("order must contain at least one item")
	}

	if req.Total != nil && (*req.Total < 0 || *req.Total > maxAmount || math.IsNaN(*req.Total) || math.IsInf(*req.Total, 0)) {
		return model.NewValidationError("total must be between 0 and %.2f", maxAmount)
	}

	seen := make(map[uuid.UUID]struct{}, len(req.Items))
	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return model.NewValidationError("item %d: product ID is required", i)
		}

		if item.Quantity <= 0 || item.Quantity > math.MaxInt32 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID.String()).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}

		if _, dup := seen[item.ProductID]; dup {
			return model.NewValidationError("item %d: product %s appears more than once", i, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}

	return nil
}

func canViewOrder(caller *model.Principal, order *model.Order) bool {
	switch caller.Role {
	case model.RoleAdmin:
		return true
	case model.RoleConsumer:
		return order.ConsumerID == caller.AccountID
	case model.RoleProducer:
		return order.ProducerID == caller.AccountID
	}
	return false
}

// restockAdjustments sums item quantities per product, in product id order.
func restockAdjustments(items []model.OrderItem) []repository.StockAdjustment {
	totals := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		totals[item.ProductID] += item.Quantity
	}

	adjustments := make([]repository.StockAdjustment, 0, len(totals))
	for id, qty := range totals {
		adjustments = append(adjustments, repository.StockAdjustment{ProductID: id, Delta: qty})
	}
	slices.SortFunc(adjustments, func(a, b repository.StockAdjustment) int {
		return strings.Compare(a.ProductID.String(), b.ProductID.String())
	})
	return adjustments
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}
