package enums

import (
	"fmt"
	"strings"
)

// OutboxAggregateType names the entity an outbox event belongs to.
type OutboxAggregateType string

const AggregateOrder OutboxAggregateType = "order"

func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateOrder
}

// OutboxEventType names what happened to the aggregate.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderCanceled      OutboxEventType = "order_canceled"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
)

// eventAggregates fixes which aggregate owns each event type.
var eventAggregates = map[OutboxEventType]OutboxAggregateType{
	EventOrderCreated:       AggregateOrder,
	EventOrderCanceled:      AggregateOrder,
	EventOrderStatusChanged: AggregateOrder,
}

func (e OutboxEventType) IsValid() bool {
	_, ok := eventAggregates[e]
	return ok
}

// Aggregate returns the aggregate type that emits e, or "" when e is unknown.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	return eventAggregates[e]
}

// ParseOutboxEventType accepts any casing and surrounding whitespace.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	candidate := OutboxEventType(strings.ToLower(strings.TrimSpace(value)))
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid event type %q", value)
	}
	return candidate, nil
}
