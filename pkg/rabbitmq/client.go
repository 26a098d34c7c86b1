// Package rabbitmq publishes JSON messages to a durable topic exchange.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	exchangeType = "topic"
	dialAttempts = 5
	dialBackoff  = 2 * time.Second
)

var errURLRequired = errors.New("amqp url is required")

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Client struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       channel
	exchange string
}

// Dial connects, opens a channel and declares the exchange. The broker is
// retried a few times so the service can start alongside it.
func Dial(ctx context.Context, cfg config.AMQPConfig, logg *logger.Logger) (*Client, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errURLRequired
	}
	exchange := strings.TrimSpace(cfg.Exchange)
	if exchange == "" {
		return nil, errors.New("amqp exchange is required")
	}

	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		if logg != nil {
			logg.Warn(logg.WithFields(ctx, map[string]any{"attempt": attempt, "error": err.Error()}), "rabbitmq dial failed")
		}
		if attempt == dialAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("could not open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("could not declare exchange: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "exchange", exchange), "rabbitmq client initialized")
	}
	return &Client{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends body to the exchange under routingKey as a persistent
// JSON message.
func (c *Client) Publish(ctx context.Context, routingKey string, body []byte) error {
	if c == nil || c.ch == nil {
		return errors.New("rabbitmq client not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch.PublishWithContext(ctx,
		c.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.ch != nil {
		errs = append(errs, c.ch.Close())
	}
	if c.conn != nil {
		errs = append(errs, c.conn.Close())
	}
	return errors.Join(errs...)
}
