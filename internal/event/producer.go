package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pishop/storefront/internal/domain"
	pkgkafka "github.com/pishop/storefront/pkg/kafka"
)

// Kafka topic constants for storefront domain events.
const (
	TopicQuoteComputed = "storefront.quote.computed"
	TopicOrderPlaced   = "storefront.order.placed"
)

// Aggregate type constants.
const (
	AggregateTypeCartSession = "cart_session"
	AggregateTypeOrder       = "order"
)

// Source identifier for events originating from the storefront service.
const SourceStorefront = "storefront"

// QuoteComputedData is the payload for a quote.computed event.
type QuoteComputedData struct {
	SessionID   string `json:"session_id"`
	QuoteID     string `json:"quote_id"`
	Zone        string `json:"zone"`
	OptionCount int    `json:"option_count"`
	SelectedID  string `json:"selected_id,omitempty"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	OrderID      string `json:"order_id"`
	SessionID    string `json:"session_id"`
	Subtotal     string `json:"subtotal"`
	ShippingCost string `json:"shipping_cost"`
	Total        string `json:"total"`
	Currency     string `json:"currency"`
	ProviderID   string `json:"provider_id"`
	Zone         string `json:"zone"`
	PaymentRef   string `json:"payment_ref"`
	ItemCount    int    `json:"item_count"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the storefront service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishQuoteComputed publishes a quote.computed event.
func (p *Producer) PublishQuoteComputed(ctx context.Context, session *domain.CartSession, zone domain.Zone) error {
	data := QuoteComputedData{
		SessionID:   session.ID,
		QuoteID:     session.QuoteID,
		Zone:        string(zone),
		OptionCount: len(session.Options),
		SelectedID:  session.SelectedID,
	}

	event, err := pkgkafka.NewEvent(TopicQuoteComputed, session.ID, AggregateTypeCartSession, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create quote.computed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicQuoteComputed, event); err != nil {
		return fmt.Errorf("publish quote.computed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published quote.computed event",
		slog.String("session_id", session.ID),
		slog.String("quote_id", session.QuoteID),
		slog.Int("option_count", len(session.Options)),
	)

	return nil
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, sessionID string, order *domain.Order) error {
	data := OrderPlacedData{
		OrderID:      order.ID,
		SessionID:    sessionID,
		Subtotal:     order.Subtotal.StringFixed(2),
		ShippingCost: order.ShippingCost.StringFixed(2),
		Total:        order.Total.StringFixed(2),
		Currency:     order.Currency,
		ProviderID:   order.Delivery.ProviderID,
		Zone:         string(order.Delivery.Zone),
		PaymentRef:   order.PaymentRef,
		ItemCount:    len(order.Items),
	}

	event, err := pkgkafka.NewEvent(TopicOrderPlaced, order.ID, AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order.placed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderPlaced, event); err != nil {
		return fmt.Errorf("publish order.placed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("order_id", order.ID),
		slog.String("total", order.Total.StringFixed(2)),
	)

	return nil
}
