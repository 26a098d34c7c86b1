package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order freezes the cart totals at checkout time.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string            `gorm:"column:order_number;size:20;not null;uniqueIndex"`
	CouponID        *uuid.UUID        `gorm:"column:coupon_id;type:uuid"`
	Status          enums.OrderStatus `gorm:"column:status;size:20;not null"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Discount        decimal.Decimal   `gorm:"column:discount;type:numeric(10,2);not null"`
	Shipping        decimal.Decimal   `gorm:"column:shipping;type:numeric(10,2);not null"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null"`
	CustomerName    string            `gorm:"column:customer_name;size:255;not null"`
	CustomerEmail   string            `gorm:"column:customer_email;size:255;not null"`
	ShippingAddress string            `gorm:"column:shipping_address;not null"`
	ShippingCity    string            `gorm:"column:shipping_city;size:255;not null"`
	ShippingState   string            `gorm:"column:shipping_state;size:255;not null"`
	ShippingZipcode string            `gorm:"column:shipping_zipcode;size:20;not null"`
	ShippingCountry string            `gorm:"column:shipping_country;size:100;not null"`
	Notes           *string           `gorm:"column:notes"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Coupon          *Coupon           `gorm:"foreignKey:CouponID"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem is a line of an order. Total is recomputed on every save.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariationID *uuid.UUID      `gorm:"column:variation_id;type:uuid"`
	ProductName string          `gorm:"column:product_name;size:255;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

func (i *OrderItem) BeforeSave(*gorm.DB) error {
	i.Total = i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
	return nil
}
