package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
)

// DefaultKafkaTopic receives order notifications
const DefaultKafkaTopic = "order-notifications"

// messageWriter is the part of *kafka.Writer the notifier uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes notifications as JSON messages keyed by order id,
// so all messages of one order land on one partition in order.
type KafkaNotifier struct {
	writer messageWriter
	logger *zap.Logger
	now    func() time.Time
}

// NewKafkaNotifier creates a notifier writing to topic on brokers
func NewKafkaNotifier(brokers []string, topic string, logger *zap.Logger) *KafkaNotifier {
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaNotifier(w, logger)
}

func newKafkaNotifier(w messageWriter, logger *zap.Logger) *KafkaNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaNotifier{writer: w, logger: logger.Named("notifier.kafka"), now: time.Now}
}

// SendOrderConfirmation implements order.Notifier
func (n *KafkaNotifier) SendOrderConfirmation(ctx context.Context, to order.Recipient, o *order.Order) error {
	return n.publish(ctx, confirmationMessage(to, o, n.now()))
}

// SendOrderStatusUpdate implements order.Notifier
func (n *KafkaNotifier) SendOrderStatusUpdate(ctx context.Context, to order.Recipient, o *order.Order, newStatus order.OrderStatus) error {
	return n.publish(ctx, statusUpdateMessage(to, o, newStatus, n.now()))
}

func (n *KafkaNotifier) publish(ctx context.Context, m Message) error {
	body, err := m.encode()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", m.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(m.OrderID.String()),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(m.Type)},
		},
		Time: m.OccurredAt,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", m.Type, err)
	}

	n.logger.Debug("notification published", zap.String("type", m.Type), zap.String("order_id", m.OrderID.String()))
	return nil
}

// Close flushes and closes the writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
