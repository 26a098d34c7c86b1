package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type webhookRequest struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// AdminList returns a filtered, sorted page of orders.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		perPage, err := validators.ParseQueryInt(r, "per_page", pagination.DefaultPerPage, 1, pagination.MaxPerPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		list, err := svc.List(r.Context(), internalorders.ListInput{
			Status:  strings.TrimSpace(query.Get("status")),
			SortBy:  strings.TrimSpace(query.Get("sort_by")),
			SortDir: strings.TrimSpace(query.Get("sort_dir")),
			Page:    page,
			PerPage: perPage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AdminShow returns one order by id or order number.
func AdminShow(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
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

		responses.WriteSuccess(w, internalorders.NewOrderDTO(order))
	}
}

// AdminUpdateStatus moves an order through the lifecycle. Setting
// "cancelled" runs the full cancellation.
func AdminUpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ref := chi.URLParam(r, "order")
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"order_ref": ref, "target_status": payload.Status})
		}

		order, err := svc.UpdateStatus(ctx, ref, payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "Order status updated", internalorders.NewOrderDTO(order))
	}
}

// WebhookOrderStatus applies an external status update {order_id, status}.
func WebhookOrderStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload webhookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"order_ref": payload.OrderID, "target_status": payload.Status})
			logg.Info(ctx, "order status webhook received")
		}

		order, err := svc.HandleStatusUpdate(ctx, payload.OrderID, payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessMessage(w, http.StatusOK, "Order status updated", map[string]any{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
		})
	}
}
