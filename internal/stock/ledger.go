package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Ledger tracks available quantity per exact (product, variation) pair.
// A nil variation addresses the simple-product row and never matches a
// variation row, and vice versa.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to the provided transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

func pair(productID uuid.UUID, variationID *uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("product_id = ?", productID)
		if variationID == nil {
			return db.Where("variation_id IS NULL")
		}
		return db.Where("variation_id = ?", *variationID)
	}
}

// Find returns the stock row for the pair or a NOT_FOUND error.
func (l *Ledger) Find(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID) (*models.Stock, error) {
	var row models.Stock
	err := l.db.WithContext(ctx).Scopes(pair(productID, variationID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}
	return &row, nil
}

// Available returns the quantity on hand, zero when no row exists.
func (l *Ledger) Available(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID) (int, error) {
	row, err := l.Find(ctx, productID, variationID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.Quantity, nil
}

// EnsureAvailable fails with INSUFFICIENT_STOCK when fewer than quantity
// units are on hand. A missing row counts as zero.
func (l *Ledger) EnsureAvailable(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID, quantity int) error {
	available, err := l.Available(ctx, productID, variationID)
	if err != nil {
		return err
	}
	if available < quantity {
		return insufficient(productID, variationID, quantity, available)
	}
	return nil
}

// Decrease subtracts quantity with a conditional update so two concurrent
// callers can never take the same unit.
func (l *Ledger) Decrease(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	res := l.db.WithContext(ctx).
		Model(&models.Stock{}).
		Scopes(pair(productID, variationID)).
		Where("quantity >= ?", quantity).
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrease stock")
	}
	if res.RowsAffected == 0 {
		available, err := l.Available(ctx, productID, variationID)
		if err != nil {
			return err
		}
		return insufficient(productID, variationID, quantity, available)
	}
	return nil
}

// Increase adds quantity back, creating the row when it no longer exists.
func (l *Ledger) Increase(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return nil
	}

	res := l.db.WithContext(ctx).
		Model(&models.Stock{}).
		Scopes(pair(productID, variationID)).
		Update("quantity", gorm.Expr("quantity + ?", quantity))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increase stock")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	row := &models.Stock{ProductID: productID, VariationID: variationID, Quantity: quantity}
	if err := l.db.WithContext(ctx).Create(row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock")
	}
	return nil
}

// Set overwrites the quantity for the pair, creating the row if needed.
func (l *Ledger) Set(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID, quantity int) error {
	res := l.db.WithContext(ctx).
		Model(&models.Stock{}).
		Scopes(pair(productID, variationID)).
		Update("quantity", quantity)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "set stock")
	}
	if res.RowsAffected > 0 {
		return nil
	}
	row := &models.Stock{ProductID: productID, VariationID: variationID, Quantity: quantity}
	if err := l.db.WithContext(ctx).Create(row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock")
	}
	return nil
}

func insufficient(productID uuid.UUID, variationID *uuid.UUID, requested, available int) error {
	details := map[string]any{
		"product_id": productID.String(),
		"requested":  requested,
		"available":  available,
	}
	if variationID != nil {
		details["variation_id"] = variationID.String()
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").WithDetails(details)
}
