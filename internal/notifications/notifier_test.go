package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
)

type fakePublishResult struct {
	id  string
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return f.id, f.err
}

type fakePubSub struct {
	msgs   []*pubsub.Message
	result pubsub.PublishResult
}

func (f *fakePubSub) Publish(_ context.Context, msg *pubsub.Message) pubsub.PublishResult {
	f.msgs = append(f.msgs, msg)
	return f.result
}

type fakeAMQP struct {
	key  string
	body []byte
	err  error
}

func (f *fakeAMQP) Publish(_ context.Context, routingKey string, body []byte) error {
	f.key = routingKey
	f.body = body
	return f.err
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-ABCDE12345",
		Status:        enums.OrderStatusPending,
		CustomerName:  "Ana Souza",
		CustomerEmail: "ana@example.com",
		Subtotal:      decimal.RequireFromString("60.00"),
		Discount:      decimal.Zero,
		Shipping:      decimal.RequireFromString("15.00"),
		Total:         decimal.RequireFromString("75.00"),
		Items: []models.OrderItem{
			{ProductName: "Mug", Quantity: 2, Price: decimal.RequireFromString("30.00"), Total: decimal.RequireFromString("60.00")},
		},
	}
}

func TestLogNotifierWritesStructuredLine(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	n, err := NewLogNotifier(logg)
	if err != nil {
		t.Fatalf("new log notifier: %v", err)
	}

	if err := n.OrderConfirmed(context.Background(), sampleOrder()); err != nil {
		t.Fatalf("order confirmed: %v", err)
	}
	for _, field := range []string{`"order_number":"ORD-ABCDE12345"`, `"total":"75.00"`, `"message":"order confirmation"`} {
		if !strings.Contains(buf.String(), field) {
			t.Fatalf("expected %s in %s", field, buf.String())
		}
	}
}

func TestPubSubNotifierPublishesConfirmation(t *testing.T) {
	pub := &fakePubSub{result: fakePublishResult{id: "msg-1"}}
	n, err := NewPubSubNotifier(pub, nil)
	if err != nil {
		t.Fatalf("new pubsub notifier: %v", err)
	}
	n.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	order := sampleOrder()
	if err := n.OrderConfirmed(context.Background(), order); err != nil {
		t.Fatalf("order confirmed: %v", err)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.Attributes["order_number"] != order.OrderNumber {
		t.Fatalf("unexpected attributes %v", msg.Attributes)
	}

	var decoded Confirmation
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.OrderID != order.ID || len(decoded.Items) != 1 || !decoded.Total.Equal(order.Total) {
		t.Fatalf("unexpected confirmation %+v", decoded)
	}
	if !decoded.ConfirmedAt.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected confirmed at %v", decoded.ConfirmedAt)
	}
}

func TestPubSubNotifierSurfacesPublishFailure(t *testing.T) {
	pub := &fakePubSub{result: fakePublishResult{err: errors.New("deadline exceeded")}}
	n, _ := NewPubSubNotifier(pub, nil)

	err := n.OrderConfirmed(context.Background(), sampleOrder())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestAMQPNotifierUsesRoutingKey(t *testing.T) {
	pub := &fakeAMQP{}
	n, err := NewAMQPNotifier(pub, nil)
	if err != nil {
		t.Fatalf("new amqp notifier: %v", err)
	}
	if err := n.OrderConfirmed(context.Background(), sampleOrder()); err != nil {
		t.Fatalf("order confirmed: %v", err)
	}
	if pub.key != RoutingKey {
		t.Fatalf("unexpected routing key %q", pub.key)
	}
	if !bytes.Contains(pub.body, []byte(`"orderNumber":"ORD-ABCDE12345"`)) {
		t.Fatalf("unexpected body %s", pub.body)
	}

	pub.err = errors.New("channel closed")
	if err := n.OrderConfirmed(context.Background(), sampleOrder()); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewSelectsDriver(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})

	n, err := New(config.NotificationsConfig{}, Deps{Logger: logg})
	if err != nil {
		t.Fatalf("default driver: %v", err)
	}
	if _, ok := n.(*LogNotifier); !ok {
		t.Fatalf("expected log notifier, got %T", n)
	}

	if _, err := New(config.NotificationsConfig{Driver: "pubsub"}, Deps{Logger: logg}); err == nil {
		t.Fatal("expected pubsub driver without publisher to fail")
	}
	n, err = New(config.NotificationsConfig{Driver: "AMQP"}, Deps{AMQP: &fakeAMQP{}})
	if err != nil {
		t.Fatalf("amqp driver: %v", err)
	}
	if _, ok := n.(*AMQPNotifier); !ok {
		t.Fatalf("expected amqp notifier, got %T", n)
	}
	if _, err := New(config.NotificationsConfig{Driver: "fax"}, Deps{}); err == nil {
		t.Fatal("expected unknown driver to fail")
	}
}
