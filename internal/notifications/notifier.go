// Package notifications delivers order confirmations after checkout commits.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pubsub"
)

const publishTimeout = 10 * time.Second

var errNilOrder = errors.New("order required")

// Notifier is told about every committed order.
type Notifier interface {
	OrderConfirmed(ctx context.Context, order *models.Order) error
}

type amqpPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Deps carries the transports New may pick from.
type Deps struct {
	Logger *logger.Logger
	PubSub pubsub.Publisher
	AMQP   amqpPublisher
}

// New returns the notifier selected by cfg. The chosen driver's transport
// must be present in deps.
func New(cfg config.NotificationsConfig, deps Deps) (Notifier, error) {
	switch driver := cfg.NormalizedDriver(); driver {
	case config.NotifierDriverLog:
		return NewLogNotifier(deps.Logger)
	case config.NotifierDriverPubSub:
		return NewPubSubNotifier(deps.PubSub, deps.Logger)
	case config.NotifierDriverAMQP:
		return NewAMQPNotifier(deps.AMQP, deps.Logger)
	default:
		return nil, fmt.Errorf("unknown notifier driver %q", driver)
	}
}

// LogNotifier writes the confirmation as a structured log line.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) (*LogNotifier, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogNotifier{logg: logg}, nil
}

func (n *LogNotifier) OrderConfirmed(ctx context.Context, order *models.Order) error {
	if order == nil {
		return errNilOrder
	}
	fields := map[string]any{
		"order_number":   order.OrderNumber,
		"customer_email": order.CustomerEmail,
		"total":          order.Total.StringFixed(2),
		"items":          len(order.Items),
	}
	n.logg.Info(n.logg.WithFields(ctx, fields), "order confirmation")
	return nil
}

// PubSubNotifier publishes the confirmation on the confirmation topic.
type PubSubNotifier struct {
	publisher pubsub.Publisher
	logg      *logger.Logger
	now       func() time.Time
}

func NewPubSubNotifier(publisher pubsub.Publisher, logg *logger.Logger) (*PubSubNotifier, error) {
	if publisher == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &PubSubNotifier{publisher: publisher, logg: logg, now: time.Now}, nil
}

func (n *PubSubNotifier) OrderConfirmed(ctx context.Context, order *models.Order) error {
	if order == nil {
		return errNilOrder
	}
	body, err := encode(order, n.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order confirmation")
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	result := n.publisher.Publish(publishCtx, &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		},
	})
	if result == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "publisher returned no result")
	}
	id, err := result.Get(publishCtx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish order confirmation")
	}
	if n.logg != nil {
		n.logg.Info(n.logg.WithField(ctx, "message_id", id), "order confirmation published")
	}
	return nil
}

// AMQPNotifier publishes the confirmation on the orders exchange.
type AMQPNotifier struct {
	publisher amqpPublisher
	logg      *logger.Logger
	now       func() time.Time
}

func NewAMQPNotifier(publisher amqpPublisher, logg *logger.Logger) (*AMQPNotifier, error) {
	if publisher == nil {
		return nil, fmt.Errorf("amqp publisher required")
	}
	return &AMQPNotifier{publisher: publisher, logg: logg, now: time.Now}, nil
}

func (n *AMQPNotifier) OrderConfirmed(ctx context.Context, order *models.Order) error {
	if order == nil {
		return errNilOrder
	}
	body, err := encode(order, n.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order confirmation")
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := n.publisher.Publish(publishCtx, RoutingKey, body); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish order confirmation")
	}
	return nil
}
