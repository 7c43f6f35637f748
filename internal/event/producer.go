package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topics for storefront domain events.
var (
	TopicCartUpdated = pkgkafka.Topic("storefront", "cart", "updated")
	TopicCartCleared = pkgkafka.Topic("storefront", "cart", "cleared")
	TopicOrderPlaced = pkgkafka.Topic("storefront", "order", "placed")
)

// Aggregate types.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// SourceStorefront identifies events published by this service.
const SourceStorefront = "storefront"

// Publisher is the event sink used by the cart and checkout services.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart, items []domain.CartItem) error
	PublishCartCleared(ctx context.Context, cart *domain.Cart) error
	PublishOrderPlaced(ctx context.Context, order *domain.Order) error
}

// EventWriter is satisfied by *pkgkafka.Producer.
type EventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CartUpdatedData is the payload for storefront.cart.updated.
type CartUpdatedData struct {
	CartID    string          `json:"cart_id"`
	UserID    string          `json:"user_id"`
	Items     []CartItemData  `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartClearedData is the payload for storefront.cart.cleared.
type CartClearedData struct {
	CartID string `json:"cart_id"`
	UserID string `json:"user_id"`
}

// OrderItemData is the item payload within order events.
type OrderItemData struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
}

// OrderPlacedData is the payload for storefront.order.placed.
type OrderPlacedData struct {
	OrderID  string          `json:"order_id"`
	UserID   string          `json:"user_id"`
	Status   string          `json:"status"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	Country  string          `json:"country"`
	Items    []OrderItemData `json:"items"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  EventWriter
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka EventWriter, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event with the cart contents
// as re-read after the mutation.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart, items []domain.CartItem) error {
	data := CartUpdatedData{
		CartID:    cart.ID,
		UserID:    cart.UserID,
		Items:     make([]CartItemData, len(items)),
		ItemCount: domain.ItemCount(items),
		Subtotal:  domain.Subtotal(items),
	}
	for i, item := range items {
		data.Items[i] = CartItemData{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Product.Price}
	}

	if err := p.publish(ctx, TopicCartUpdated, cart.ID, AggregateTypeCart, cart.UserID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("cart_id", cart.ID),
		slog.Int("item_count", data.ItemCount),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, cart *domain.Cart) error {
	data := CartClearedData{CartID: cart.ID, UserID: cart.UserID}
	if err := p.publish(ctx, TopicCartCleared, cart.ID, AggregateTypeCart, cart.UserID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.cleared event", slog.String("cart_id", cart.ID))
	return nil
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	data := OrderPlacedData{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Status:   order.Status,
		Subtotal: order.Subtotal,
		Shipping: order.Shipping,
		Total:    order.Total,
		Country:  order.Country,
		Items:    make([]OrderItemData, len(order.Items)),
	}
	for i, item := range order.Items {
		data.Items[i] = OrderItemData{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
		}
	}

	if err := p.publish(ctx, TopicOrderPlaced, order.ID, AggregateTypeOrder, order.UserID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("order_id", order.ID),
		slog.String("total", order.Total.StringFixed(2)),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType, userID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.WithUserID(userID).WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// Noop discards every event. It is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishCartUpdated(context.Context, *domain.Cart, []domain.CartItem) error { return nil }
func (Noop) PublishCartCleared(context.Context, *domain.Cart) error                    { return nil }
func (Noop) PublishOrderPlaced(context.Context, *domain.Order) error                   { return nil }
