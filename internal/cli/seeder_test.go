package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

const catalogFixture = `
products:
  - name: Ceramic Mug
    description: Stoneware, 350ml
    price: "30.00"
    stock_quantity: 12
  - name: Cotton Tee
    price: "59.90"
    variations:
      - name: M
        stock_quantity: 4
      - name: XL
        price_adjustment: "5.00"
        stock_quantity: 2
coupons:
  - code: welcome10
    type: percentage
    value: "10"
    min_value: "50.00"
    max_uses: 100
  - code: FRETE15
    type: fixed
    value: "15"
    valid_from: 2026-01-01T00:00:00Z
    valid_until: 2026-12-31T23:59:59Z
`

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSeedFileRejectsUnknownKeys(t *testing.T) {
	path := writeFixture(t, "products:\n  - name: Mug\n    colour: blue\n")
	_, err := LoadSeedFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestSeederAppliesAndUpserts(t *testing.T) {
	client := dbtest.Client(t)
	conn := client.DB()
	ctx := context.Background()

	file, err := LoadSeedFile(writeFixture(t, catalogFixture))
	require.NoError(t, err)

	seeder, err := NewSeeder(client)
	require.NoError(t, err)

	result, err := seeder.Apply(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{ProductsCreated: 2, CouponsCreated: 2}, result)

	var tee models.Product
	require.NoError(t, conn.Preload("Variations").Where("name = ?", "Cotton Tee").First(&tee).Error)
	require.Len(t, tee.Variations, 2)
	firstIDs := map[string]string{}
	for _, v := range tee.Variations {
		firstIDs[v.Name] = v.ID.String()
	}

	var coupon models.Coupon
	require.NoError(t, conn.Where("code = ?", "WELCOME10").First(&coupon).Error)
	assert.Equal(t, "50.00", coupon.MinValue.Decimal.StringFixed(2))

	result, err = seeder.Apply(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{ProductsUpdated: 2, CouponsUpdated: 2}, result)

	var count int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
	require.NoError(t, conn.Model(&models.ProductVariation{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	var again models.Product
	require.NoError(t, conn.Preload("Variations").Where("name = ?", "Cotton Tee").First(&again).Error)
	for _, v := range again.Variations {
		assert.Equal(t, firstIDs[v.Name], v.ID.String(), "variation %s was recreated", v.Name)
	}
}

func TestSeederCollectsEntryErrors(t *testing.T) {
	client := dbtest.Client(t)
	ctx := context.Background()

	seeder, err := NewSeeder(client)
	require.NoError(t, err)

	stockless := SeedProduct{Name: "Poster", Price: "12.00"}
	qty := 3
	file := &SeedFile{
		Products: []SeedProduct{
			{Name: "Lamp", Price: "not-money", StockQuantity: &qty},
			stockless,
			{Name: "Candle", Price: "18.50", StockQuantity: &qty},
		},
		Coupons: []SeedCoupon{
			{Code: "BROKEN", Type: "bogus", Value: "5"},
		},
	}

	result, err := seeder.Apply(ctx, file)
	require.Error(t, err)
	assert.Equal(t, 1, result.ProductsCreated)
	for _, want := range []string{`product "Lamp"`, `product "Poster"`, `coupon "BROKEN"`} {
		assert.Contains(t, err.Error(), want)
	}

	var count int64
	require.NoError(t, client.DB().Model(&models.Product{}).Where("name = ?", "Candle").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
