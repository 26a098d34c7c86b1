package coupons

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	MessageNotFound        = "invalid or expired coupon"
	MessageInvalidForOrder = "coupon is not valid for this order"
	MessageBelowMinimum    = "minimum order value not reached, add more products"
)

var hundred = decimal.NewFromInt(100)

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid reports whether the coupon may discount a cart with the given
// subtotal at instant now.
func IsValid(c *models.Coupon, subtotal decimal.Decimal, now time.Time) bool {
	if c == nil || !c.Active {
		return false
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	if exhausted(c) {
		return false
	}
	if belowMinimum(c, subtotal) {
		return false
	}
	return true
}

// Check is IsValid returning a COUPON_INVALID error that tells the
// minimum-value case apart from the rest.
func Check(c *models.Coupon, subtotal decimal.Decimal, now time.Time) error {
	if IsValid(c, subtotal, now) {
		return nil
	}
	if c != nil && belowMinimum(c, subtotal) {
		return pkgerrors.New(pkgerrors.CodeCouponInvalid, MessageBelowMinimum).WithDetails(map[string]any{
			"min_value": c.MinValue.Decimal.StringFixed(2),
			"subtotal":  subtotal.StringFixed(2),
		})
	}
	return pkgerrors.New(pkgerrors.CodeCouponInvalid, MessageInvalidForOrder)
}

// CalculateDiscount returns the discount for subtotal, zero when the coupon
// is not valid. Percentage discounts are rounded to cents and fixed discounts
// never exceed the subtotal.
func CalculateDiscount(c *models.Coupon, subtotal decimal.Decimal, now time.Time) decimal.Decimal {
	if !IsValid(c, subtotal, now) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.Type {
	case enums.CouponTypePercentage:
		discount = subtotal.Mul(c.Value).Div(hundred).Round(2)
	default:
		discount = decimal.Min(c.Value, subtotal)
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

func exhausted(c *models.Coupon) bool {
	return c.MaxUses != nil && *c.MaxUses > 0 && c.UsedTimes >= *c.MaxUses
}

func belowMinimum(c *models.Coupon, subtotal decimal.Decimal) bool {
	return c.MinValue.Valid && c.MinValue.Decimal.IsPositive() && subtotal.LessThan(c.MinValue.Decimal)
}
