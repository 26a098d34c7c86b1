package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// CouponInput is the admin payload for creating or replacing a coupon.
type CouponInput struct {
	Code       string           `json:"code" validate:"required,max=20"`
	Type       string           `json:"type" validate:"required,oneof=percentage fixed"`
	Value      decimal.Decimal  `json:"value"`
	MinValue   *decimal.Decimal `json:"min_value,omitempty"`
	MaxUses    *int             `json:"max_uses,omitempty" validate:"omitempty,min=1"`
	Active     *bool            `json:"active,omitempty"`
	ValidFrom  *time.Time       `json:"valid_from,omitempty"`
	ValidUntil *time.Time       `json:"valid_until,omitempty"`
}

// CouponDTO is the admin view of a coupon.
type CouponDTO struct {
	ID         uuid.UUID        `json:"id"`
	Code       string           `json:"code"`
	Type       enums.CouponType `json:"type"`
	Value      decimal.Decimal  `json:"value"`
	MinValue   *decimal.Decimal `json:"min_value,omitempty"`
	MaxUses    *int             `json:"max_uses,omitempty"`
	UsedTimes  int              `json:"used_times"`
	Active     bool             `json:"active"`
	ValidFrom  *time.Time       `json:"valid_from,omitempty"`
	ValidUntil *time.Time       `json:"valid_until,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func NewCouponDTO(c *models.Coupon) CouponDTO {
	dto := CouponDTO{
		ID:         c.ID,
		Code:       c.Code,
		Type:       c.Type,
		Value:      c.Value,
		MaxUses:    c.MaxUses,
		UsedTimes:  c.UsedTimes,
		Active:     c.Active,
		ValidFrom:  c.ValidFrom,
		ValidUntil: c.ValidUntil,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if c.MinValue.Valid {
		floor := c.MinValue.Decimal
		dto.MinValue = &floor
	}
	return dto
}

func NewCouponDTOs(rows []models.Coupon) []CouponDTO {
	out := make([]CouponDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewCouponDTO(&rows[i]))
	}
	return out
}
