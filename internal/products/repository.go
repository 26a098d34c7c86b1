package product

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const availableStockClause = "EXISTS (SELECT 1 FROM stocks WHERE stocks.product_id = products.id AND stocks.quantity > 0)"

// Repository wires together product, variation and stock persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, mapErr(err, "product not found")
	}
	return &product, nil
}

// FindByName returns the oldest product carrying the exact name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("created_at ASC").
		First(&product).Error
	if err != nil {
		return nil, mapErr(err, "product not found")
	}
	return &product, nil
}

// FindVariationByID loads a single variation.
func (r *Repository) FindVariationByID(ctx context.Context, id uuid.UUID) (*models.ProductVariation, error) {
	var variation models.ProductVariation
	if err := r.db.WithContext(ctx).First(&variation, "id = ?", id).Error; err != nil {
		return nil, mapErr(err, "product variation not found")
	}
	return &variation, nil
}

// GetDetail loads the product with variations and every stock row.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variations", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Variations.Stock").
		Preload("Stocks").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, mapErr(err, "product not found")
	}
	return &product, nil
}

// List returns active products with variations and stock rows.
func (r *Repository) List(ctx context.Context, availableOnly bool, order string) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Preload("Variations", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Stocks").
		Where("active = ?", true)
	if availableOnly {
		q = q.Where(availableStockClause)
	}

	var products []models.Product
	if err := q.Order(order).Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

// CreateProduct inserts the product row only.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Variations", "Stocks").Create(product).Error
}

// UpdateProduct writes the scalar product columns.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]any{
		"name":           product.Name,
		"description":    product.Description,
		"price":          product.Price,
		"has_variations": product.HasVariations,
		"active":         product.Active,
	}).Error
}

// DeleteProduct removes the product with its variations and stock rows.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", id).Delete(&models.Stock{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariation{}).Error; err != nil {
		return err
	}
	res := tx.Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (r *Repository) CreateVariation(ctx context.Context, variation *models.ProductVariation) error {
	return r.db.WithContext(ctx).Omit("Stock").Create(variation).Error
}

func (r *Repository) UpdateVariation(ctx context.Context, variation *models.ProductVariation) error {
	return r.db.WithContext(ctx).Model(&models.ProductVariation{}).
		Where("id = ? AND product_id = ?", variation.ID, variation.ProductID).
		Updates(map[string]any{
			"name":             variation.Name,
			"price_adjustment": variation.PriceAdjustment,
			"active":           variation.Active,
		}).Error
}

// ListVariationIDs returns the ids of every variation of the product.
func (r *Repository) ListVariationIDs(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.ProductVariation{}).
		Where("product_id = ?", productID).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteVariations removes the variations and their stock rows.
func (r *Repository) DeleteVariations(ctx context.Context, productID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ? AND variation_id IN ?", productID, ids).Delete(&models.Stock{}).Error; err != nil {
		return err
	}
	return tx.Where("product_id = ? AND id IN ?", productID, ids).Delete(&models.ProductVariation{}).Error
}

// DeleteSimpleStock removes the null-variation stock row.
func (r *Repository) DeleteSimpleStock(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ? AND variation_id IS NULL", productID).
		Delete(&models.Stock{}).Error
}

func mapErr(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}
