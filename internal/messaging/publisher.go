package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"soulkitchen/internal/logger"
	"soulkitchen/internal/models"
)

// OrderEvent is published whenever an order is created or its status
// changes. Subscribers (kitchen displays, customer notifications) consume
// it; this service never does.
type OrderEvent struct {
	EventType  string             `json:"event_type"`
	OrderID    int                `json:"order_id"`
	UserID     int                `json:"user_id"`
	FromStatus models.OrderStatus `json:"from_status,omitempty"`
	ToStatus   models.OrderStatus `json:"to_status"`
	Total      string             `json:"total_amount,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Publisher handles message publishing to RabbitMQ
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new message publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishOrderCreated publishes an order-created event to the orders topic exchange
func (p *Publisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	event := OrderEvent{
		EventType: "order_created",
		OrderID:   order.ID,
		UserID:    order.UserID,
		ToStatus:  order.Status,
		Total:     order.TotalAmount.StringFixed(2),
		Timestamp: time.Now().UTC(),
	}
	return p.publishMessage(ctx, OrdersExchange, "orders.created", event, true)
}

// PublishStatusChanged publishes a status-change event to the notifications fanout exchange
func (p *Publisher) PublishStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	event := OrderEvent{
		EventType:  "status_changed",
		OrderID:    order.ID,
		UserID:     order.UserID,
		FromStatus: from,
		ToStatus:   order.Status,
		Timestamp:  time.Now().UTC(),
	}
	return p.publishMessage(ctx, NotificationsExchange, "", event, false)
}

// publishMessage is the generic message publishing function
func (p *Publisher) publishMessage(ctx context.Context, exchange, routingKey string, message interface{}, persistent bool) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	deliveryMode := uint8(1)
	if persistent {
		deliveryMode = 2
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: deliveryMode,
		Timestamp:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		publishing,
	)

	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", exchange),
			"", err, map[string]interface{}{
				"exchange":    exchange,
				"routing_key": routingKey,
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", exchange),
		"", map[string]interface{}{
			"exchange":     exchange,
			"routing_key":  routingKey,
			"message_size": len(body),
		})

	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return p.conn.Close()
}
