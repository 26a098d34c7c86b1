package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const tokenPrefix = "cart_"

// MaxTokenLength matches the width of carts.token.
const MaxTokenLength = 100

// AddItemInput identifies what to put in the cart.
type AddItemInput struct {
	ProductID   uuid.UUID
	VariationID *uuid.UUID
	Quantity    int
}

// Service manages anonymous carts addressed by an opaque token.
type Service interface {
	Get(ctx context.Context, token string) (*models.Cart, error)
	AddItem(ctx context.Context, token string, input AddItemInput) (*models.Cart, error)
	UpdateItem(ctx context.Context, token string, index, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, token string, index int) (*models.Cart, error)
	Clear(ctx context.Context, token string) (*models.Cart, error)
	ApplyCoupon(ctx context.Context, token, code string) (*models.Cart, error)
	RemoveCoupon(ctx context.Context, token string) (*models.Cart, error)
}

type service struct {
	repo    CartRepository
	catalog productCatalog
	stock   stockChecker
	coupons couponLookup
	now     Clock
}

// NewService builds the cart service. clock may be nil.
func NewService(repo CartRepository, catalog productCatalog, stock stockChecker, couponRepo couponLookup, clock Clock) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock checker required")
	}
	if couponRepo == nil {
		return nil, fmt.Errorf("coupon lookup required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: repo, catalog: catalog, stock: stock, coupons: couponRepo, now: clock}, nil
}

// NewToken returns a fresh server-assigned cart token.
func NewToken() string {
	return tokenPrefix + uuid.NewString()
}

// CheckToken rejects client tokens the carts table cannot store.
func CheckToken(token string) error {
	if len(token) > MaxTokenLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart token").
			WithDetails(map[string]string{"cart_id": fmt.Sprintf("must be at most %d characters", MaxTokenLength)})
	}
	return nil
}

// Get returns the cart for token, creating an empty one when none exists.
// An empty token is replaced by a server-assigned one.
func (s *service) Get(ctx context.Context, token string) (*models.Cart, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		token = NewToken()
	}
	if err := CheckToken(token); err != nil {
		return nil, err
	}

	cart, err := s.repo.FindByToken(ctx, token)
	if err == nil {
		return cart, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}

	cart = &models.Cart{Token: token}
	Reset(cart)
	if err := s.repo.Create(ctx, cart); err != nil {
		// another request created the same token first
		if db.IsUniqueViolation(err, "") {
			return s.repo.FindByToken(ctx, token)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, token string, input AddItemInput) (*models.Cart, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"quantity": "must be at least 1"})
	}

	product, err := s.catalog.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	var variation *models.ProductVariation
	if input.VariationID != nil {
		variation, err = s.catalog.FindVariationByID(ctx, *input.VariationID)
		if err != nil {
			return nil, err
		}
		if variation.ProductID != product.ID {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidVariation, "invalid product variation")
		}
	}

	if err := s.stock.EnsureAvailable(ctx, product.ID, input.VariationID, input.Quantity); err != nil {
		return nil, err
	}

	cart, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if idx := findItem(cart.Items, product.ID, input.VariationID); idx >= 0 {
		newQuantity := cart.Items[idx].Quantity + input.Quantity
		if err := s.stock.EnsureAvailable(ctx, product.ID, input.VariationID, newQuantity); err != nil {
			return nil, relabel(err, "insufficient stock for the requested quantity")
		}
		cart.Items[idx].Quantity = newQuantity
	} else {
		item := models.CartItem{
			ProductID:   product.ID,
			VariationID: input.VariationID,
			ProductName: product.Name,
			Quantity:    input.Quantity,
			Price:       product.Price,
		}
		if variation != nil {
			name := variation.Name
			item.VariationName = &name
			item.Price = product.Price.Add(variation.PriceAdjustment)
		}
		cart.Items = append(cart.Items, item)
	}

	return s.persist(ctx, cart)
}

func (s *service) UpdateItem(ctx context.Context, token string, index, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"quantity": "must be at least 1"})
	}

	cart, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	// empty cart is a 400, not ITEM_NOT_FOUND; clients key on this message
	if cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "cart is empty, there are no items to update")
	}
	if index < 0 || index >= len(cart.Items) {
		return nil, itemNotFound(index, len(cart.Items))
	}

	item := cart.Items[index]
	if err := s.stock.EnsureAvailable(ctx, item.ProductID, item.VariationID, quantity); err != nil {
		return nil, err
	}
	cart.Items[index].Quantity = quantity

	return s.persist(ctx, cart)
}

func (s *service) RemoveItem(ctx context.Context, token string, index int) (*models.Cart, error) {
	cart, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty, there are no items to remove")
	}
	if index < 0 || index >= len(cart.Items) {
		return nil, itemNotFound(index, len(cart.Items))
	}

	cart.Items = append(cart.Items[:index], cart.Items[index+1:]...)
	return s.persist(ctx, cart)
}

func (s *service) Clear(ctx context.Context, token string) (*models.Cart, error) {
	cart, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	Reset(cart)
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) ApplyCoupon(ctx context.Context, token, code string) (*models.Cart, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"coupon_code": "is required"})
	}

	cart, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	coupon, err := s.coupons.FindActiveByCode(ctx, code)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, coupons.MessageNotFound)
		}
		return nil, err
	}

	Recalculate(cart, nil, s.now())
	if err := coupons.Check(coupon, cart.Subtotal, s.now()); err != nil {
		return nil, err
	}

	AttachCoupon(cart, coupon)
	Recalculate(cart, coupon, s.now())
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) RemoveCoupon(ctx context.Context, token string) (*models.Cart, error) {
	cart, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	DetachCoupon(cart)
	return s.persist(ctx, cart)
}

// persist recalculates against the attached coupon's current state and saves.
func (s *service) persist(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	var coupon *models.Coupon
	if cart.CouponID != nil {
		found, err := s.coupons.FindByID(ctx, *cart.CouponID)
		switch {
		case err == nil:
			coupon = found
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		default:
			return nil, err
		}
	}

	Recalculate(cart, coupon, s.now())
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func findItem(items []models.CartItem, productID uuid.UUID, variationID *uuid.UUID) int {
	for i, item := range items {
		if item.ProductID != productID {
			continue
		}
		switch {
		case item.VariationID == nil && variationID == nil:
			return i
		case item.VariationID != nil && variationID != nil && *item.VariationID == *variationID:
			return i
		}
	}
	return -1
}

func itemNotFound(index, count int) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart, try reloading the page").
		WithDetails(map[string]int{"item_index": index, "items_count": count})
}

func relabel(err error, message string) error {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		return err
	}
	return pkgerrors.New(typed.Code(), message).WithDetails(typed.Details())
}
