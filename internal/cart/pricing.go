package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Recalculate rewrites the derived totals of cart. coupon is the record
// behind cart.CouponID, or nil when it no longer exists. A coupon that is no
// longer valid for the new subtotal is detached silently.
//
// An empty cart carries no shipping charge so it matches a freshly created
// or cleared cart.
func Recalculate(cart *models.Cart, coupon *models.Coupon, now time.Time) {
	subtotal := Subtotal(cart)
	cart.Subtotal = subtotal

	cart.Discount = decimal.Zero
	if cart.CouponID != nil {
		if coupon != nil && coupon.ID == *cart.CouponID && coupons.IsValid(coupon, subtotal, now) {
			cart.Discount = coupons.CalculateDiscount(coupon, subtotal, now)
		} else {
			DetachCoupon(cart)
		}
	}

	cart.Shipping = decimal.Zero
	if len(cart.Items) > 0 {
		cart.Shipping = shipping.Cost(subtotal)
	}

	cart.Total = cart.Subtotal.Sub(cart.Discount).Add(cart.Shipping)
}

// Subtotal sums the line totals of cart.
func Subtotal(cart *models.Cart) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range cart.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// AttachCoupon links coupon to cart; totals are stale until Recalculate.
func AttachCoupon(cart *models.Cart, coupon *models.Coupon) {
	id := coupon.ID
	code := coupon.Code
	cart.CouponID = &id
	cart.CouponCode = &code
}

func DetachCoupon(cart *models.Cart) {
	cart.CouponID = nil
	cart.CouponCode = nil
}

// Reset returns cart to the empty-cart defaults.
func Reset(cart *models.Cart) {
	cart.Items = nil
	DetachCoupon(cart)
	cart.Subtotal = decimal.Zero
	cart.Discount = decimal.Zero
	cart.Shipping = decimal.Zero
	cart.Total = decimal.Zero
}
