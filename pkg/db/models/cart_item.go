package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartItem snapshots price and display names at add time. Position keeps
// the insertion order that item indexes refer to.
type CartItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID        uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	Position      int             `gorm:"column:position;not null"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariationID   *uuid.UUID      `gorm:"column:variation_id;type:uuid"`
	ProductName   string          `gorm:"column:product_name;size:255;not null"`
	VariationName *string         `gorm:"column:variation_name;size:255"`
	Quantity      int             `gorm:"column:quantity;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// LineTotal is price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// DisplayName joins product and variation names the way they are shown to shoppers.
func (i CartItem) DisplayName() string {
	if i.VariationName != nil && *i.VariationName != "" {
		return i.ProductName + " - " + *i.VariationName
	}
	return i.ProductName
}
