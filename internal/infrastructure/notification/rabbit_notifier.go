package notification

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
)

// DefaultExchange is the topic exchange order notifications go to
const DefaultExchange = "orders"

// Routing keys, one per message type
const (
	RoutingKeyConfirmation = "order.confirmation.v1"
	RoutingKeyStatusUpdate = "order.status_update.v1"
)

const publishTimeout = 3 * time.Second

// amqpChannel is the part of *amqp.Channel the notifier uses
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitNotifier publishes notifications to a durable topic exchange
type RabbitNotifier struct {
	ch       amqpChannel
	conn     *amqp.Connection
	exchange string
	logger   *zap.Logger
	now      func() time.Time
}

// DialRabbitNotifier connects to url and declares the exchange
func DialRabbitNotifier(url, exchange string, logger *zap.Logger) (*RabbitNotifier, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	n, err := NewRabbitNotifier(conn, exchange, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	n.conn = conn
	return n, nil
}

// NewRabbitNotifier opens a channel on conn and declares the exchange
func NewRabbitNotifier(conn *amqp.Connection, exchange string, logger *zap.Logger) (*RabbitNotifier, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return newRabbitNotifier(ch, exchange, logger), nil
}

func newRabbitNotifier(ch amqpChannel, exchange string, logger *zap.Logger) *RabbitNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RabbitNotifier{ch: ch, exchange: exchange, logger: logger.Named("notifier.rabbitmq"), now: time.Now}
}

// SendOrderConfirmation implements order.Notifier
func (n *RabbitNotifier) SendOrderConfirmation(ctx context.Context, to order.Recipient, o *order.Order) error {
	return n.publish(ctx, RoutingKeyConfirmation, confirmationMessage(to, o, n.now()))
}

// SendOrderStatusUpdate implements order.Notifier
func (n *RabbitNotifier) SendOrderStatusUpdate(ctx context.Context, to order.Recipient, o *order.Order, newStatus order.OrderStatus) error {
	return n.publish(ctx, RoutingKeyStatusUpdate, statusUpdateMessage(to, o, newStatus, n.now()))
}

func (n *RabbitNotifier) publish(ctx context.Context, routingKey string, m Message) error {
	body, err := m.encode()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", m.Type, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = n.ch.PublishWithContext(pubCtx, n.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    m.OrderID.String() + ":" + m.Type + ":" + m.OrderStatus,
		Type:         m.Type,
		Timestamp:    m.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", m.Type, err)
	}
	n.logger.Debug("notification published", zap.String("routing_key", routingKey), zap.String("order_id", m.OrderID.String()))
	return nil
}

// Close closes the channel and, when the notifier dialed it, the connection
func (n *RabbitNotifier) Close() error {
	err := n.ch.Close()
	if n.conn != nil {
		if cerr := n.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
