package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/pishop/storefront/internal/domain"
	"github.com/pishop/storefront/internal/gateway"
	"github.com/pishop/storefront/internal/repository"
	apperrors "github.com/pishop/storefront/pkg/errors"
)

var ordersPlacedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed, by delivery zone",
	},
	[]string{"zone"},
)

// DeliveryQuoter computes ranked delivery quotes for a destination.
// *RateService satisfies this.
type DeliveryQuoter interface {
	Quote(ctx context.Context, dest domain.Address) (*QuoteResult, error)
}

// EventPublisher publishes storefront domain events. *event.Producer
// satisfies this.
type EventPublisher interface {
	PublishQuoteComputed(ctx context.Context, session *domain.CartSession, zone domain.Zone) error
	PublishOrderPlaced(ctx context.Context, sessionID string, order *domain.Order) error
}

// CheckoutService implements cart and checkout business logic on top of the
// session repository, the rate service, and the payment gateway.
type CheckoutService struct {
	sessions  repository.CartSessionRepository
	rates     DeliveryQuoter
	payment   gateway.PaymentGateway
	publisher EventPublisher
	currency  string
	logger    *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	sessions repository.CartSessionRepository,
	rates DeliveryQuoter,
	payment gateway.PaymentGateway,
	publisher EventPublisher,
	currency string,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		sessions:  sessions,
		rates:     rates,
		payment:   payment,
		publisher: publisher,
		currency:  currency,
		logger:    logger,
	}
}

// CreateSession starts a new empty cart session.
func (s *CheckoutService) CreateSession(ctx context.Context) (*domain.CartSession, error) {
	now := time.Now().UTC()
	session := &domain.CartSession{
		ID:        uuid.New().String(),
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.InfoContext(ctx, "cart session created", slog.String("session_id", session.ID))
	return session, nil
}

// GetSession retrieves a cart session by its identifier.
func (s *CheckoutService) GetSession(ctx context.Context, sessionID string) (*domain.CartSession, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	return s.sessions.GetByID(ctx, sessionID)
}

// AddItemInput holds the parameters for adding a product to the cart.
type AddItemInput struct {
	ProductID string
	Name      string
	Category  string
	Price     decimal.Decimal
	Quantity  int
}

// AddItem adds a product to the cart, merging with an existing line for the
// same product.
func (s *CheckoutService) AddItem(ctx context.Context, sessionID string, input *AddItemInput) (*domain.CartSession, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("item input is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.Price.IsNegative() {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.AddItem(domain.CartItem{
		ProductID: input.ProductID,
		Name:      input.Name,
		Category:  input.Category,
		Price:     input.Price,
		Quantity:  input.Quantity,
	})
	session.UpdatedAt = time.Now().UTC()

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return session, nil
}

// RemoveItem removes a product line from the cart entirely.
func (s *CheckoutService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.CartSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.RemoveItem(productID) {
		return nil, apperrors.NotFound("cart item", productID)
	}
	session.UpdatedAt = time.Now().UTC()

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return session, nil
}

// UpdateQuantity sets the quantity on an existing cart line. Quantities below
// 1 are rejected; removal is an explicit operation.
func (s *CheckoutService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*domain.CartSession, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.SetQuantity(productID, quantity) {
		return nil, apperrors.NotFound("cart item", productID)
	}
	session.UpdatedAt = time.Now().UTC()

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return session, nil
}

// SetShippingAddress stores the destination, computes a fresh delivery quote,
// and auto-selects the cheapest option. Publishing the quote event is best
// effort; a broker outage must not block checkout.
func (s *CheckoutService) SetShippingAddress(ctx context.Context, sessionID string, addr domain.Address) (*domain.CartSession, error) {
	if addr.FullName == "" {
		return nil, apperrors.InvalidInput("full name is required")
	}
	if addr.Street == "" {
		return nil, apperrors.InvalidInput("street is required")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	quote, err := s.rates.Quote(ctx, addr)
	if err != nil {
		return nil, err
	}

	session.ShippingAddress = &addr
	session.ApplyQuote(quote.QuoteID, quote.Options)
	session.UpdatedAt = time.Now().UTC()

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if err := s.publisher.PublishQuoteComputed(ctx, session, quote.Zone); err != nil {
		s.logger.WarnContext(ctx, "failed to publish quote event",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	return session, nil
}

// SelectDeliveryOption switches the selected option within the current quote.
func (s *CheckoutService) SelectDeliveryOption(ctx context.Context, sessionID, optionID string) (*domain.CartSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.SelectOption(optionID) {
		return nil, apperrors.InvalidInput("delivery option does not belong to the current quote")
	}
	session.UpdatedAt = time.Now().UTC()

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return session, nil
}

// ResetShipping discards the current quote and selection so the visitor can
// edit the destination.
func (s *CheckoutService) ResetShipping(ctx context.Context, sessionID string) (*domain.CartSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.ResetShipping()
	session.UpdatedAt = time.Now().UTC()

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return session, nil
}

// PlaceOrder charges the cart total through the payment gateway and converts
// the session into an order. The cart is emptied afterwards; the session
// itself survives for the next purchase.
func (s *CheckoutService) PlaceOrder(ctx context.Context, sessionID string) (*domain.Order, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(session.Items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}
	if session.ShippingAddress == nil {
		return nil, apperrors.InvalidInput("shipping address is required")
	}
	selected := session.SelectedOption()
	if selected == nil {
		return nil, apperrors.InvalidInput("a delivery option must be selected")
	}

	total := session.Total()

	result, err := s.payment.Charge(ctx, &gateway.ChargeInput{
		Amount:      total,
		Currency:    s.currency,
		Description: fmt.Sprintf("order for session %s", session.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("charge payment: %w", err)
	}
	if result.Status != "succeeded" {
		return nil, apperrors.PaymentFailed(result.FailureReason)
	}

	order := &domain.Order{
		ID:              uuid.New().String(),
		Items:           session.Items,
		Subtotal:        session.Subtotal(),
		ShippingCost:    session.ShippingCost(),
		Total:           total,
		Currency:        s.currency,
		ShippingAddress: *session.ShippingAddress,
		Delivery:        *selected,
		PaymentRef:      result.PaymentRef,
		Status:          domain.OrderStatusProcessing,
		PlacedAt:        time.Now().UTC(),
	}

	session.Clear()
	session.UpdatedAt = order.PlacedAt
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	ordersPlacedTotal.WithLabelValues(string(order.Delivery.Zone)).Inc()

	if err := s.publisher.PublishOrderPlaced(ctx, session.ID, order); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("session_id", session.ID),
		slog.String("total", order.Total.StringFixed(2)),
	)

	return order, nil
}
