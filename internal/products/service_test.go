package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(db.Wrap(conn), NewRepository(conn), stock.NewLedger(conn))
	require.NoError(t, err)
	return svc, conn
}

func intPtr(v int) *int { return &v }

func TestCreateSimpleProductSeedsNullVariationStock(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	dto, err := svc.CreateProduct(ctx, ProductInput{
		Name:          "Mug",
		Price:         decimal.RequireFromString("30.00"),
		StockQuantity: intPtr(7),
	})
	require.NoError(t, err)
	assert.True(t, dto.Active)
	assert.True(t, dto.IsAvailable)
	assert.Equal(t, 7, dto.TotalStock)
	assert.Empty(t, dto.Variations)

	var rows []models.Stock
	require.NoError(t, conn.Where("product_id = ?", dto.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].VariationID)
}

func TestCreateProductRequiresStockShape(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductInput{Name: "Mug", Price: decimal.NewFromInt(10)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Shirt", Price: decimal.NewFromInt(10), HasVariations: true})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateProductReplacesVariations(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, ProductInput{
		Name:          "Shirt",
		Price:         decimal.NewFromInt(50),
		HasVariations: true,
		Variations: []VariationInput{
			{Name: "M", PriceAdjustment: decimal.Zero, StockQuantity: 3},
			{Name: "L", PriceAdjustment: decimal.NewFromInt(5), StockQuantity: 0},
		},
	})
	require.NoError(t, err)
	require.Len(t, created.Variations, 2)
	assert.Equal(t, 3, created.TotalStock)
	byName := map[string]VariationDTO{}
	for _, v := range created.Variations {
		byName[v.Name] = v
	}
	assert.True(t, byName["L"].FinalPrice.Equal(decimal.NewFromInt(55)))
	assert.False(t, byName["L"].IsAvailable)

	keep := byName["M"].ID
	updated, err := svc.UpdateProduct(ctx, created.ID, ProductInput{
		Name:          "Shirt",
		Price:         decimal.NewFromInt(60),
		HasVariations: true,
		Variations: []VariationInput{
			{ID: &keep, Name: "M", PriceAdjustment: decimal.Zero, StockQuantity: 9},
			{Name: "XL", PriceAdjustment: decimal.NewFromInt(10), StockQuantity: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Variations, 2)
	assert.Equal(t, 10, updated.TotalStock)

	var count int64
	require.NoError(t, conn.Model(&models.ProductVariation{}).Where("product_id = ?", created.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
	require.NoError(t, conn.Model(&models.Stock{}).Where("product_id = ?", created.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	simple, err := svc.UpdateProduct(ctx, created.ID, ProductInput{
		Name:          "Shirt",
		Price:         decimal.NewFromInt(60),
		StockQuantity: intPtr(4),
	})
	require.NoError(t, err)
	assert.Empty(t, simple.Variations)
	assert.Equal(t, 4, simple.TotalStock)
}

func TestUpdateProductRejectsForeignVariation(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	other := dbtest.VariantProduct(t, conn, "Hat", "10.00", dbtest.VariantSpec{Name: "One", Adjustment: "0", Quantity: 1})
	own := dbtest.VariantProduct(t, conn, "Shirt", "50.00", dbtest.VariantSpec{Name: "M", Adjustment: "0", Quantity: 1})

	foreign := other.Variations[0].ID
	_, err := svc.UpdateProduct(ctx, own.ID, ProductInput{
		Name:          "Shirt",
		Price:         decimal.NewFromInt(50),
		HasVariations: true,
		Variations:    []VariationInput{{ID: &foreign, Name: "M", StockQuantity: 1}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListProductsFiltersAndSorts(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	dbtest.SimpleProduct(t, conn, "Bowl", "12.00", 0)
	dbtest.SimpleProduct(t, conn, "Apron", "40.00", 2)
	dbtest.SimpleProduct(t, conn, "Cup", "8.00", 5)

	all, err := svc.ListProducts(ctx, ListProductsInput{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Apron", all[0].Name)
	assert.False(t, all[1].IsAvailable)

	available, err := svc.ListProducts(ctx, ListProductsInput{AvailableOnly: true, SortBy: "price", SortDir: "desc"})
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, "Apron", available[0].Name)
	assert.Equal(t, "Cup", available[1].Name)

	_, err = svc.ListProducts(ctx, ListProductsInput{SortBy: "id; DROP TABLE products"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeleteProductRemovesStock(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	p := dbtest.VariantProduct(t, conn, "Shirt", "50.00", dbtest.VariantSpec{Name: "M", Adjustment: "0", Quantity: 1})

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))

	var count int64
	require.NoError(t, conn.Model(&models.Stock{}).Where("product_id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)

	_, err := svc.GetProduct(ctx, p.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(svc.DeleteProduct(ctx, p.ID), pkgerrors.CodeNotFound))
}
