package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const eventSource = "orders"

// ListInput carries the admin list query.
type ListInput struct {
	Status  string
	SortBy  string
	SortDir string
	Page    int
	PerPage int
}

// Service exposes order reads and the order lifecycle.
type Service interface {
	Get(ctx context.Context, ref string) (*models.Order, error)
	List(ctx context.Context, input ListInput) (*OrderList, error)
	UpdateStatus(ctx context.Context, ref, status string) (*models.Order, error)
	HandleStatusUpdate(ctx context.Context, ref, status string) (*models.Order, error)
	Cancel(ctx context.Context, ref string) (*models.Order, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	ledger  *stock.Ledger
	coupons *coupons.Repository
	outbox  outboxPublisher
	metrics transitionRecorder
}

// NewService builds the order service. metrics may be nil.
func NewService(repo Repository, tx txRunner, ledger *stock.Ledger, couponRepo *coupons.Repository, publisher outboxPublisher, metrics transitionRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if couponRepo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		ledger:  ledger,
		coupons: couponRepo,
		outbox:  publisher,
		metrics: metrics,
	}, nil
}

// Get resolves ref as an order id first and as an order number otherwise.
func (s *service) Get(ctx context.Context, ref string) (*models.Order, error) {
	return find(ctx, s.repo, ref)
}

func (s *service) List(ctx context.Context, input ListInput) (*OrderList, error) {
	filters := ListFilters{
		SortBy:  strings.ToLower(strings.TrimSpace(input.SortBy)),
		SortDir: strings.ToLower(strings.TrimSpace(input.SortDir)),
	}
	if strings.TrimSpace(input.Status) != "" {
		status, err := enums.ParseOrderStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"status": "is not a known order status"})
		}
		filters.Status = &status
	}

	params := pagination.Params{Page: input.Page, PerPage: input.PerPage}.Normalize()
	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, err
	}

	list := &OrderList{
		Orders:     make([]OrderDTO, 0, len(rows)),
		Pagination: pagination.NewMeta(params, total),
	}
	for i := range rows {
		list.Orders = append(list.Orders, NewOrderDTO(&rows[i]))
	}
	return list, nil
}

// UpdateStatus is the admin entry point; an unknown status is a field error.
func (s *service) UpdateStatus(ctx context.Context, ref, status string) (*models.Order, error) {
	target, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"status": "is not a known order status"})
	}
	return s.transition(ctx, ref, target)
}

// HandleStatusUpdate is the webhook entry point; an unknown status is a bad request.
func (s *service) HandleStatusUpdate(ctx context.Context, ref, status string) (*models.Order, error) {
	if strings.TrimSpace(ref) == "" || strings.TrimSpace(status) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "order_id and status are required")
	}
	target, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, fmt.Sprintf("unrecognized order status %q", status))
	}
	return s.transition(ctx, ref, target)
}

func (s *service) transition(ctx context.Context, ref string, target enums.OrderStatus) (*models.Order, error) {
	if target == enums.OrderStatusCancelled {
		return s.Cancel(ctx, ref)
	}

	var (
		result  *models.Order
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := find(ctx, repo, ref)
		if err != nil {
			return err
		}
		result = order
		if order.Status == target {
			return nil
		}

		from := order.Status
		if !from.CanTransitionTo(target) {
			return illegalTransition(from, target)
		}
		ok, err := repo.UpdateStatus(ctx, order.ID, from, target)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeIllegalTransition, "order status changed concurrently, reload and retry")
		}
		order.Status = target
		changed = true

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Source:        eventSource,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				From:        from,
				To:          target,
				ChangedAt:   time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, asTransactionFailure(err, "error updating order status")
	}
	if changed && s.metrics != nil {
		s.metrics.IncOrderTransition(string(target))
	}
	return result, nil
}

// Cancel moves a pending or processing order to cancelled, returning every
// line item to stock and releasing the coupon usage in one transaction.
func (s *service) Cancel(ctx context.Context, ref string) (*models.Order, error) {
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := find(ctx, repo, ref)
		if err != nil {
			return err
		}

		from := order.Status
		if !from.CanBeCancelled() {
			return pkgerrors.New(pkgerrors.CodeIllegalTransition, "order cannot be cancelled in its current status").
				WithDetails(map[string]string{"status": string(from)})
		}
		ok, err := repo.UpdateStatus(ctx, order.ID, from, enums.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeIllegalTransition, "order status changed concurrently, reload and retry")
		}

		ledger := s.ledger.WithTx(tx)
		for _, item := range order.Items {
			if err := ledger.Increase(ctx, item.ProductID, item.VariationID, item.Quantity); err != nil {
				return err
			}
		}
		if order.CouponID != nil {
			if err := s.coupons.WithTx(tx).DecrementUsage(ctx, *order.CouponID); err != nil {
				return err
			}
		}

		order.Status = enums.OrderStatusCancelled
		result = order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Source:        eventSource,
			Data: payloads.OrderCanceledEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				PreviousStatus: from,
				CouponID:       order.CouponID,
				Items:          payloads.Lines(order.Items),
				CanceledAt:     time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, asTransactionFailure(err, "error cancelling order")
	}
	if s.metrics != nil {
		s.metrics.IncOrderTransition(string(enums.OrderStatusCancelled))
	}
	return result, nil
}

func find(ctx context.Context, repo Repository, ref string) (*models.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return repo.FindByID(ctx, id)
	}
	return repo.FindByNumber(ctx, strings.ToUpper(ref))
}

func illegalTransition(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeIllegalTransition, fmt.Sprintf("cannot change order status from %s to %s", from, to)).
		WithDetails(map[string]string{"from": string(from), "to": string(to)})
}

// asTransactionFailure keeps business errors as they are and reports
// everything else as a failed transaction carrying the cause.
func asTransactionFailure(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeDependency, pkgerrors.CodeInternal:
		default:
			return err
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, message)
}
