package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is an anonymous shopping cart keyed by an opaque client token. The
// monetary fields are derived and rewritten on every mutation.
type Cart struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Token      string          `gorm:"column:token;size:100;not null;uniqueIndex"`
	CouponID   *uuid.UUID      `gorm:"column:coupon_id;type:uuid"`
	CouponCode *string         `gorm:"column:coupon_code;size:20"`
	Subtotal   decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Discount   decimal.Decimal `gorm:"column:discount;type:numeric(10,2);not null"`
	Shipping   decimal.Decimal `gorm:"column:shipping;type:numeric(10,2);not null"`
	Total      decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null"`
	Items      []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
