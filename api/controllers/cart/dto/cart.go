package cartdto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the cart snapshot returned by every cart endpoint. Token must be
// persisted by the client and sent back as the cart_id query parameter.
type Cart struct {
	Token      string          `json:"cart_id"`
	Items      []CartItem      `json:"items"`
	ItemCount  int             `json:"item_count"`
	CouponCode *string         `json:"coupon_code,omitempty"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Shipping   decimal.Decimal `json:"shipping"`
	Total      decimal.Decimal `json:"total"`
}

// CartItem is one cart line. Index addresses the line in update and remove.
type CartItem struct {
	Index         int             `json:"index"`
	ProductID     uuid.UUID       `json:"product_id"`
	VariationID   *uuid.UUID      `json:"variation_id,omitempty"`
	Name          string          `json:"name"`
	ProductName   string          `json:"product_name"`
	VariationName *string         `json:"variation_name,omitempty"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Total         decimal.Decimal `json:"total"`
}

type AddItemRequest struct {
	ProductID   uuid.UUID  `json:"product_id" validate:"required"`
	VariationID *uuid.UUID `json:"variation_id,omitempty"`
	Quantity    int        `json:"quantity" validate:"required,min=1"`
}

type UpdateItemRequest struct {
	ItemIndex *int `json:"item_index" validate:"required,min=0"`
	Quantity  int  `json:"quantity" validate:"required,min=1"`
}

type RemoveItemRequest struct {
	ItemIndex *int `json:"item_index" validate:"required,min=0"`
}

type ApplyCouponRequest struct {
	CouponCode string `json:"coupon_code" validate:"required,max=20"`
}
