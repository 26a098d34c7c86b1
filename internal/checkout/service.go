package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// ShippingCountry is stamped on every order.
const ShippingCountry = "Brasil"

const eventSource = "checkout"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Notifier is told about every committed order.
type Notifier interface {
	OrderConfirmed(ctx context.Context, order *models.Order) error
}

type checkoutRecorder interface {
	ObserveCheckout(outcome string, elapsed time.Duration)
	IncStockConflict()
}

// Input carries the customer and shipping fields submitted with the order.
type Input struct {
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
	ShippingCity    string
	ShippingState   string
	ShippingZipcode string
	Notes           *string
}

// Service converts carts into orders.
type Service interface {
	Process(ctx context.Context, token string, input Input) (*models.Order, error)
}

// Params wires the checkout service.
type Params struct {
	Tx       txRunner
	Carts    cart.CartRepository
	Orders   orders.Repository
	Ledger   *stock.Ledger
	Coupons  *coupons.Repository
	Outbox   outboxPublisher
	Notifier Notifier
	Metrics  checkoutRecorder
	Logger   *logger.Logger
	Clock    cart.Clock
	// FailOnInvalidCoupon aborts the checkout when the attached coupon is no
	// longer valid instead of dropping it.
	FailOnInvalidCoupon bool
}

type service struct {
	tx           txRunner
	carts        cart.CartRepository
	orders       orders.Repository
	ledger       *stock.Ledger
	coupons      *coupons.Repository
	outbox       outboxPublisher
	notifier     Notifier
	metrics      checkoutRecorder
	logg         *logger.Logger
	now          cart.Clock
	failOnCoupon bool
}

// NewService builds the checkout service. Notifier, Metrics, Logger and
// Clock are optional.
func NewService(p Params) (Service, error) {
	if p.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if p.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if p.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if p.Coupons == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		tx:           p.Tx,
		carts:        p.Carts,
		orders:       p.Orders,
		ledger:       p.Ledger,
		coupons:      p.Coupons,
		outbox:       p.Outbox,
		notifier:     p.Notifier,
		metrics:      p.Metrics,
		logg:         p.Logger,
		now:          clock,
		failOnCoupon: p.FailOnInvalidCoupon,
	}, nil
}

// Process creates the order, its items, the stock decrements and the coupon
// usage, and empties the cart, in one transaction. A second submit of the
// same cart waits on the cart row and then finds it empty. Notification
// happens after the commit and never fails the checkout.
func (s *service) Process(ctx context.Context, token string, input Input) (*models.Order, error) {
	started := time.Now()
	order, err := s.process(ctx, strings.TrimSpace(token), input)
	if s.metrics != nil {
		s.metrics.ObserveCheckout(outcomeOf(err), time.Since(started))
	}
	return order, err
}

func (s *service) process(ctx context.Context, token string, input Input) (*models.Order, error) {
	if token == "" {
		return nil, emptyCart()
	}
	if err := cart.CheckToken(token); err != nil {
		return nil, err
	}
	current, err := s.carts.FindByToken(ctx, token)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, emptyCart()
		}
		return nil, err
	}
	if current.IsEmpty() {
		return nil, emptyCart()
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		locked, err := carts.LockByToken(ctx, token)
		if err != nil {
			return err
		}
		if locked.IsEmpty() {
			return emptyCart()
		}
		current = locked

		coupon, err := s.claimCoupon(ctx, tx, current)
		if err != nil {
			return err
		}
		cart.Recalculate(current, coupon, s.now())

		order, err = s.createOrder(ctx, tx, current, coupon, input)
		if err != nil {
			return err
		}
		if err := s.createItems(ctx, tx, order, current.Items); err != nil {
			return err
		}

		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Source:        eventSource,
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				Status:        order.Status,
				CouponID:      order.CouponID,
				Subtotal:      order.Subtotal,
				Discount:      order.Discount,
				Shipping:      order.Shipping,
				Total:         order.Total,
				CustomerEmail: order.CustomerEmail,
				Items:         payloads.Lines(order.Items),
			},
		})
		if err != nil {
			return err
		}

		cart.Reset(current)
		return carts.Save(ctx, current)
	})
	if err != nil {
		return nil, asTransactionFailure(err)
	}
	s.afterCommit(ctx, current, order)
	return order, nil
}

// claimCoupon re-validates the attached coupon against the cart and records
// one use. A coupon that is gone, invalid or exhausted by a concurrent
// checkout is dropped, or fails the checkout under the strict policy.
func (s *service) claimCoupon(ctx context.Context, tx *gorm.DB, c *models.Cart) (*models.Coupon, error) {
	if c.CouponID == nil {
		return nil, nil
	}
	repo := s.coupons.WithTx(tx)

	coupon, err := repo.FindByID(ctx, *c.CouponID)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}

	if checkErr := coupons.Check(coupon, cart.Subtotal(c), s.now()); checkErr != nil {
		if coupon == nil {
			checkErr = pkgerrors.New(pkgerrors.CodeCouponInvalid, coupons.MessageNotFound)
		}
		return nil, s.rejectCoupon(c, checkErr)
	}

	claimed, err := repo.IncrementUsage(ctx, coupon.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, s.rejectCoupon(c, pkgerrors.New(pkgerrors.CodeCouponInvalid, coupons.MessageInvalidForOrder))
	}

	cart.AttachCoupon(c, coupon)
	return coupon, nil
}

func (s *service) rejectCoupon(c *models.Cart, reason error) error {
	if s.failOnCoupon {
		return reason
	}
	cart.DetachCoupon(c)
	return nil
}

func (s *service) createOrder(ctx context.Context, tx *gorm.DB, c *models.Cart, coupon *models.Coupon, input Input) (*models.Order, error) {
	repo := s.orders.WithTx(tx)
	number, err := s.uniqueNumber(ctx, repo)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNumber:     number,
		Status:          enums.OrderStatusPending,
		Subtotal:        c.Subtotal,
		Discount:        c.Discount,
		Shipping:        c.Shipping,
		Total:           c.Total,
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		ShippingCity:    strings.TrimSpace(input.ShippingCity),
		ShippingState:   strings.TrimSpace(input.ShippingState),
		ShippingZipcode: strings.TrimSpace(input.ShippingZipcode),
		ShippingCountry: ShippingCountry,
		Notes:           input.Notes,
	}
	if coupon != nil {
		id := coupon.ID
		order.CouponID = &id
	}
	if err := repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) uniqueNumber(ctx context.Context, repo orders.Repository) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := NewOrderNumber()
		if err != nil {
			return "", err
		}
		exists, err := repo.NumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique order number")
}

// createItems writes each line and takes its stock. The first shortfall
// aborts the whole transaction.
func (s *service) createItems(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.CartItem) error {
	repo := s.orders.WithTx(tx)
	ledger := s.ledger.WithTx(tx)

	for _, line := range items {
		item := models.OrderItem{
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			VariationID: line.VariationID,
			ProductName: line.DisplayName(),
			Quantity:    line.Quantity,
			Price:       line.Price,
		}
		if err := repo.CreateItem(ctx, &item); err != nil {
			return err
		}
		if err := ledger.Decrease(ctx, line.ProductID, line.VariationID, line.Quantity); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
				if s.metrics != nil {
					s.metrics.IncStockConflict()
				}
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for product: "+line.DisplayName()).
					WithDetails(typed.Details())
			}
			return err
		}
		order.Items = append(order.Items, item)
	}
	return nil
}

func (s *service) afterCommit(ctx context.Context, c *models.Cart, order *models.Order) {
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
		ctx = s.logg.WithCartToken(ctx, c.Token)
	}

	if s.notifier != nil {
		if err := s.notifier.OrderConfirmed(ctx, order); err != nil && s.logg != nil {
			s.logg.Error(ctx, "order confirmation failed", err)
		}
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_number", order.OrderNumber), "order placed")
	}
}

func emptyCart() error {
	return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
}

// asTransactionFailure keeps business rejections as they are and reports
// everything else as a failed transaction carrying the cause.
func asTransactionFailure(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeDependency, pkgerrors.CodeInternal:
		default:
			return err
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeTransaction, err, "error processing order")
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart):
		return metrics.OutcomeEmptyCart
	case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
		return metrics.OutcomeInsufficientStock
	case pkgerrors.IsCode(err, pkgerrors.CodeCouponInvalid):
		return metrics.OutcomeCouponInvalid
	default:
		return metrics.OutcomeFailure
	}
}
