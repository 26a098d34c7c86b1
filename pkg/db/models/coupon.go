package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Coupon is a named discount rule. Code is stored upper-cased.
type Coupon struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Code       string              `gorm:"column:code;size:20;not null;uniqueIndex"`
	Type       enums.CouponType    `gorm:"column:type;size:20;not null"`
	Value      decimal.Decimal     `gorm:"column:value;type:numeric(10,2);not null"`
	MinValue   decimal.NullDecimal `gorm:"column:min_value;type:numeric(10,2)"`
	MaxUses    *int                `gorm:"column:max_uses"`
	UsedTimes  int                 `gorm:"column:used_times;not null"`
	Active     bool                `gorm:"column:active;not null"`
	ValidFrom  *time.Time          `gorm:"column:valid_from"`
	ValidUntil *time.Time          `gorm:"column:valid_until"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
