package pubsub

import (
	"context"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// Message is the Pub/Sub message type publishers accept.
type Message = pubsub.Message

// Publisher is the narrow publish surface the relay and notifier depend on.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) PublishResult
}

// PublishResult resolves to the server-assigned message id.
type PublishResult interface {
	Get(ctx context.Context) (string, error)
}

// Wrap adapts a Pub/Sub publisher handle to Publisher.
func Wrap(p *pubsub.Publisher) Publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*pubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *Message) PublishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
