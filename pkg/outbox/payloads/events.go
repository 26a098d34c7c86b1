package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderLine is the per-item slice of an order event.
type OrderLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	VariationID *uuid.UUID      `json:"variation_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// OrderCreatedEvent signals a committed checkout.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID         `json:"order_id"`
	OrderNumber   string            `json:"order_number"`
	Status        enums.OrderStatus `json:"status"`
	CouponID      *uuid.UUID        `json:"coupon_id,omitempty"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	Discount      decimal.Decimal   `json:"discount"`
	Shipping      decimal.Decimal   `json:"shipping"`
	Total         decimal.Decimal   `json:"total"`
	CustomerEmail string            `json:"customer_email"`
	Items         []OrderLine       `json:"items"`
}

// OrderCanceledEvent is emitted after stock and coupon usage were restored.
type OrderCanceledEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	CouponID       *uuid.UUID        `json:"coupon_id,omitempty"`
	Items          []OrderLine       `json:"items"`
	CanceledAt     time.Time         `json:"canceled_at"`
}

// OrderStatusChangedEvent covers every lifecycle write other than cancel.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// Lines snapshots order items for an event payload.
func Lines(items []models.OrderItem) []OrderLine {
	lines := make([]OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderLine{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	return lines
}
