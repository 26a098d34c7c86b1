package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ListFilters describe the inputs supported by the admin orders list.
type ListFilters struct {
	Status  *enums.OrderStatus
	SortBy  string
	SortDir string
}

// OrderItemDTO is the API view of an order line.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariationID *uuid.UUID      `json:"variation_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// OrderDTO is the API view of an order.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	OrderNumber     string            `json:"order_number"`
	Status          enums.OrderStatus `json:"status"`
	CanBeCancelled  bool              `json:"can_be_cancelled"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	Discount        decimal.Decimal   `json:"discount"`
	Shipping        decimal.Decimal   `json:"shipping"`
	Total           decimal.Decimal   `json:"total"`
	CouponID        *uuid.UUID        `json:"coupon_id,omitempty"`
	CouponCode      *string           `json:"coupon_code,omitempty"`
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	ShippingAddress string            `json:"shipping_address"`
	ShippingCity    string            `json:"shipping_city"`
	ShippingState   string            `json:"shipping_state"`
	ShippingZipcode string            `json:"shipping_zipcode"`
	ShippingCountry string            `json:"shipping_country"`
	Notes           *string           `json:"notes,omitempty"`
	Items           []OrderItemDTO    `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
}

// OrderList wraps one page of orders.
type OrderList struct {
	Orders     []OrderDTO      `json:"orders"`
	Pagination pagination.Meta `json:"pagination"`
}

func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		CanBeCancelled:  order.Status.CanBeCancelled(),
		Subtotal:        order.Subtotal,
		Discount:        order.Discount,
		Shipping:        order.Shipping,
		Total:           order.Total,
		CouponID:        order.CouponID,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		ShippingAddress: order.ShippingAddress,
		ShippingCity:    order.ShippingCity,
		ShippingState:   order.ShippingState,
		ShippingZipcode: order.ShippingZipcode,
		ShippingCountry: order.ShippingCountry,
		Notes:           order.Notes,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
	}
	if order.Coupon != nil {
		code := order.Coupon.Code
		dto.CouponCode = &code
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Total,
		})
	}
	return dto
}
