package cart

import (
	"net/http"

	cartdto "github.com/angelmondragon/storefront-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CartShow returns the cart for the request token, creating it if needed.
func CartShow(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		record, err := svc.Get(r.Context(), middleware.CartToken(r))
		writeCart(w, r, logg, record, err, "")
	}
}

// CartAdd adds a product (or variation) to the cart.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}

		var payload cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AddItem(r.Context(), middleware.CartToken(r), toAddItemInput(payload))
		writeCart(w, r, logg, record, err, "Product added to cart")
	}
}

// CartUpdate sets the quantity of the item at item_index.
func CartUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}

		var payload cartdto.UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateItem(r.Context(), middleware.CartToken(r), *payload.ItemIndex, payload.Quantity)
		writeCart(w, r, logg, record, err, "Cart updated")
	}
}

// CartRemove drops the item at item_index.
func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}

		var payload cartdto.RemoveItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.RemoveItem(r.Context(), middleware.CartToken(r), *payload.ItemIndex)
		writeCart(w, r, logg, record, err, "Item removed from cart")
	}
}

// CartClear empties the cart and drops its coupon.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		record, err := svc.Clear(r.Context(), middleware.CartToken(r))
		writeCart(w, r, logg, record, err, "Cart cleared")
	}
}

// CartApplyCoupon attaches an active coupon to the cart.
func CartApplyCoupon(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}

		var payload cartdto.ApplyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.ApplyCoupon(r.Context(), middleware.CartToken(r), payload.CouponCode)
		writeCart(w, r, logg, record, err, "Coupon applied")
	}
}

// CartRemoveCoupon detaches the coupon, if any.
func CartRemoveCoupon(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !available(w, r, svc, logg) {
			return
		}
		record, err := svc.RemoveCoupon(r.Context(), middleware.CartToken(r))
		writeCart(w, r, logg, record, err, "Coupon removed")
	}
}

func available(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return false
	}
	return true
}

func writeCart(w http.ResponseWriter, r *http.Request, logg *logger.Logger, record *models.Cart, err error, message string) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	if record == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
		return
	}
	responses.WriteSuccessMessage(w, http.StatusOK, message, newCartResponse(record))
}
