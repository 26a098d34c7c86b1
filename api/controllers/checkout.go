package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	ordersvc "github.com/angelmondragon/storefront-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxNotesLen = 2000

type checkoutRequest struct {
	CustomerName    string  `json:"customer_name" validate:"required,notblank,max=255"`
	CustomerEmail   string  `json:"customer_email" validate:"required,email,max=255"`
	ShippingAddress string  `json:"shipping_address" validate:"required,notblank"`
	ShippingCity    string  `json:"shipping_city" validate:"required,max=255"`
	ShippingState   string  `json:"shipping_state" validate:"required,max=255"`
	ShippingZipcode string  `json:"shipping_zipcode" validate:"required,max=20"`
	Notes           *string `json:"notes,omitempty"`
}

func (req checkoutRequest) toInput() checkoutsvc.Input {
	input := checkoutsvc.Input{
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		ShippingCity:    strings.TrimSpace(req.ShippingCity),
		ShippingState:   strings.TrimSpace(req.ShippingState),
		ShippingZipcode: strings.TrimSpace(req.ShippingZipcode),
	}
	if req.Notes != nil {
		if notes := validators.SanitizeString(*req.Notes, maxNotesLen); notes != "" {
			input.Notes = &notes
		}
	}
	return input
}

type checkoutResponse struct {
	Order       ordersvc.OrderDTO `json:"order"`
	OrderNumber string            `json:"order_number"`
}

// CheckoutProcess converts the request cart into an order.
func CheckoutProcess(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := middleware.CartToken(r)
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithCartToken(ctx, token)
		}

		order, err := svc.Process(ctx, token, payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusCreated, "Order placed successfully", checkoutResponse{
			Order:       ordersvc.NewOrderDTO(order),
			OrderNumber: order.OrderNumber,
		})
	}
}

// CheckoutSuccess shows a placed order by id or order number.
func CheckoutSuccess(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		order, err := svc.Get(r.Context(), chi.URLParam(r, "order"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ordersvc.NewOrderDTO(order))
	}
}
