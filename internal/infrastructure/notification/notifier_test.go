package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/config"
)

var testRecipient = order.Recipient{Email: "shopper@example.com", Name: "Shopper"}

func newTestOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.PlaceOrder(order.PlaceOrderParams{
		UserID:   uuid.New(),
		CartID:   uuid.New(),
		Customer: testRecipient,
		Lines: []order.LineSnapshot{
			{ProductID: uuid.New(), Title: "Linen Shirt", Price: decimal.RequireFromString("29.99"), Quantity: 2},
		},
		Address: order.AddressInfo{
			Address: "12 Harbour Rd",
			City:    "Colombo",
			Pincode: "00100",
			Phone:   "0771234567",
		},
		Schedule: order.DeliverySchedule{Date: time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC), TimeSlot: "09:00-12:00"},
	})
	require.NoError(t, err)
	return o
}

func TestMessages(t *testing.T) {
	o := newTestOrder(t)
	now := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

	t.Run("confirmation carries lines and totals", func(t *testing.T) {
		m := confirmationMessage(testRecipient, o, now)

		assert.Equal(t, TypeOrderConfirmation, m.Type)
		assert.Equal(t, o.ID, m.OrderID)
		assert.Equal(t, "shopper@example.com", m.To)
		assert.Equal(t, "59.98", m.TotalAmount)
		assert.Equal(t, "09:00-12:00", m.DeliverySlot)
		require.Len(t, m.Lines, 1)
		assert.Equal(t, "29.99", m.Lines[0].Price)
		assert.Equal(t, 2, m.Lines[0].Quantity)
	})

	t.Run("status update names the new status", func(t *testing.T) {
		m := statusUpdateMessage(testRecipient, o, order.OrderStatusInShipping, now)

		assert.Equal(t, TypeOrderStatusUpdate, m.Type)
		assert.Equal(t, string(order.OrderStatusInShipping), m.OrderStatus)
		assert.Empty(t, m.Lines)
	})
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))
	o := newTestOrder(t)

	require.NoError(t, n.SendOrderConfirmation(context.Background(), testRecipient, o))
	require.NoError(t, n.SendOrderStatusUpdate(context.Background(), testRecipient, o, order.OrderStatusDelivered))

	entries := logs.FilterMessage("order notification").All()
	require.Len(t, entries, 2)
	assert.Equal(t, TypeOrderConfirmation, entries[0].ContextMap()["type"])
	assert.Equal(t, string(order.OrderStatusDelivered), entries[1].ContextMap()["order_status"])
	assert.NoError(t, n.Close())
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaNotifier(t *testing.T) {
	o := newTestOrder(t)

	t.Run("publishes keyed json", func(t *testing.T) {
		w := &fakeWriter{}
		n := newKafkaNotifier(w, nil)

		require.NoError(t, n.SendOrderConfirmation(context.Background(), testRecipient, o))
		require.Len(t, w.msgs, 1)

		msg := w.msgs[0]
		assert.Equal(t, o.ID.String(), string(msg.Key))
		require.Len(t, msg.Headers, 1)
		assert.Equal(t, TypeOrderConfirmation, string(msg.Headers[0].Value))

		var decoded Message
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, "59.98", decoded.TotalAmount)
		assert.Equal(t, testRecipient.Email, decoded.To)
	})

	t.Run("write failure is returned", func(t *testing.T) {
		w := &fakeWriter{err: errors.New("broker down")}
		n := newKafkaNotifier(w, nil)

		err := n.SendOrderStatusUpdate(context.Background(), testRecipient, o, order.OrderStatusInProcess)
		assert.ErrorContains(t, err, "broker down")
	})

	t.Run("close closes the writer", func(t *testing.T) {
		w := &fakeWriter{}
		require.NoError(t, newKafkaNotifier(w, nil).Close())
		assert.True(t, w.closed)
	})
}

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []published
	err       error
	closed    bool
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestRabbitNotifier(t *testing.T) {
	o := newTestOrder(t)

	t.Run("routes by message type", func(t *testing.T) {
		ch := &fakeChannel{}
		n := newRabbitNotifier(ch, DefaultExchange, nil)

		require.NoError(t, n.SendOrderConfirmation(context.Background(), testRecipient, o))
		require.NoError(t, n.SendOrderStatusUpdate(context.Background(), testRecipient, o, order.OrderStatusInShipping))
		require.Len(t, ch.published, 2)

		assert.Equal(t, "orders", ch.published[0].exchange)
		assert.Equal(t, RoutingKeyConfirmation, ch.published[0].key)
		assert.Equal(t, RoutingKeyStatusUpdate, ch.published[1].key)
		assert.Equal(t, "application/json", ch.published[0].msg.ContentType)
		assert.Equal(t, amqp.Persistent, ch.published[0].msg.DeliveryMode)

		var decoded Message
		require.NoError(t, json.Unmarshal(ch.published[1].msg.Body, &decoded))
		assert.Equal(t, string(order.OrderStatusInShipping), decoded.OrderStatus)
	})

	t.Run("publish failure is returned", func(t *testing.T) {
		ch := &fakeChannel{err: amqp.ErrClosed}
		n := newRabbitNotifier(ch, DefaultExchange, nil)

		err := n.SendOrderConfirmation(context.Background(), testRecipient, o)
		assert.ErrorIs(t, err, amqp.ErrClosed)
	})

	t.Run("close closes the channel", func(t *testing.T) {
		ch := &fakeChannel{}
		require.NoError(t, newRabbitNotifier(ch, DefaultExchange, nil).Close())
		assert.True(t, ch.closed)
	})
}

func TestNew(t *testing.T) {
	t.Run("log by default", func(t *testing.T) {
		n, err := New(config.NotificationConfig{}, nil)
		require.NoError(t, err)
		assert.IsType(t, &LogNotifier{}, n)
	})

	t.Run("kafka", func(t *testing.T) {
		n, err := New(config.NotificationConfig{Driver: "kafka", KafkaBrokers: []string{"localhost:9092"}}, nil)
		require.NoError(t, err)
		assert.IsType(t, &KafkaNotifier{}, n)
		assert.NoError(t, n.Close())
	})

	t.Run("kafka without brokers", func(t *testing.T) {
		_, err := New(config.NotificationConfig{Driver: "kafka"}, nil)
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := New(config.NotificationConfig{Driver: "pigeon"}, nil)
		assert.Error(t, err)
	})
}
