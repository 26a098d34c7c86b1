package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// RoutingKey is used for confirmations on the AMQP exchange.
const RoutingKey = "order.confirmation"

// ConfirmationLine is one purchased line in the confirmation message.
type ConfirmationLine struct {
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// Confirmation is the message body handed to downstream mailers.
type Confirmation struct {
	OrderID       uuid.UUID          `json:"orderId"`
	OrderNumber   string             `json:"orderNumber"`
	Status        enums.OrderStatus  `json:"status"`
	CustomerName  string             `json:"customerName"`
	CustomerEmail string             `json:"customerEmail"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Discount      decimal.Decimal    `json:"discount"`
	Shipping      decimal.Decimal    `json:"shipping"`
	Total         decimal.Decimal    `json:"total"`
	Items         []ConfirmationLine `json:"items"`
	ConfirmedAt   time.Time          `json:"confirmedAt"`
}

func newConfirmation(order *models.Order, now time.Time) Confirmation {
	lines := make([]ConfirmationLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, ConfirmationLine{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Total,
		})
	}
	return Confirmation{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Subtotal:      order.Subtotal,
		Discount:      order.Discount,
		Shipping:      order.Shipping,
		Total:         order.Total,
		Items:         lines,
		ConfirmedAt:   now.UTC(),
	}
}

func encode(order *models.Order, now time.Time) ([]byte, error) {
	return json.Marshal(newConfirmation(order, now))
}
