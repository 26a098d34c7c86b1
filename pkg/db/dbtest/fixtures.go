package dbtest

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Money parses a decimal literal and fails the test on bad input.
func Money(t testing.TB, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse money %q: %v", value, err)
	}
	return d
}

// SimpleProduct creates an active product with a single null-variation stock row.
func SimpleProduct(t testing.TB, db *gorm.DB, name, price string, quantity int) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, Price: Money(t, price), Active: true}
	if err := db.Omit("Variations", "Stocks").Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	row := models.Stock{ProductID: product.ID, Quantity: quantity}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create stock: %v", err)
	}
	product.Stocks = []models.Stock{row}
	return product
}

// VariantSpec describes one variation for VariantProduct.
type VariantSpec struct {
	Name       string
	Adjustment string
	Quantity   int
}

// VariantProduct creates an active product whose stock lives on its variations.
func VariantProduct(t testing.TB, db *gorm.DB, name, price string, variants ...VariantSpec) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, Price: Money(t, price), HasVariations: true, Active: true}
	if err := db.Omit("Variations", "Stocks").Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	for _, spec := range variants {
		variation := models.ProductVariation{
			ProductID:       product.ID,
			Name:            spec.Name,
			PriceAdjustment: Money(t, spec.Adjustment),
			Active:          true,
		}
		if err := db.Omit("Stock").Create(&variation).Error; err != nil {
			t.Fatalf("create variation: %v", err)
		}
		row := models.Stock{ProductID: product.ID, VariationID: &variation.ID, Quantity: spec.Quantity}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("create variation stock: %v", err)
		}
		variation.Stock = &row
		product.Variations = append(product.Variations, variation)
		product.Stocks = append(product.Stocks, row)
	}
	return product
}

// Coupon inserts an active coupon with the given type and value.
func Coupon(t testing.TB, db *gorm.DB, code string, kind enums.CouponType, value string, mutate ...func(*models.Coupon)) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{Code: code, Type: kind, Value: Money(t, value), Active: true}
	for _, fn := range mutate {
		fn(coupon)
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	return coupon
}

// StockOf reads the quantity for a pair straight from the table.
func StockOf(t testing.TB, db *gorm.DB, product *models.Product, variation *models.ProductVariation) int {
	t.Helper()
	var row models.Stock
	q := db.Where("product_id = ?", product.ID)
	if variation == nil {
		q = q.Where("variation_id IS NULL")
	} else {
		q = q.Where("variation_id = ?", variation.ID)
	}
	if err := q.First(&row).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	return row.Quantity
}
