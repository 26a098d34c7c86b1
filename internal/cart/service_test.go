package cart

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/coupons"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/stock"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(
		NewRepository(conn),
		product.NewRepository(conn),
		stock.NewLedger(conn),
		coupons.NewRepository(conn),
		func() time.Time { return fixedNow },
	)
	require.NoError(t, err)
	return svc, conn
}

func assertTotals(t *testing.T, cart *models.Cart, subtotal, discount, shipping, total string) {
	t.Helper()
	assert.Equal(t, subtotal, cart.Subtotal.StringFixed(2), "subtotal")
	assert.Equal(t, discount, cart.Discount.StringFixed(2), "discount")
	assert.Equal(t, shipping, cart.Shipping.StringFixed(2), "shipping")
	assert.Equal(t, total, cart.Total.StringFixed(2), "total")
	assert.True(t, cart.Total.Equal(cart.Subtotal.Sub(cart.Discount).Add(cart.Shipping)))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	conn := dbtest.Open(t)
	_, err := NewService(nil, product.NewRepository(conn), stock.NewLedger(conn), coupons.NewRepository(conn), nil)
	require.Error(t, err)
}

func TestGetAssignsTokenAndCreatesEmptyCart(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cart, err := svc.Get(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, cart.Token, tokenPrefix)
	assert.True(t, cart.IsEmpty())
	assertTotals(t, cart, "0.00", "0.00", "0.00", "0.00")

	again, err := svc.Get(ctx, cart.Token)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestAddItemSnapshotsPriceAndComputesTotals(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	mug := dbtest.SimpleProduct(t, conn, "Mug", "30.00", 10)

	cart, err := svc.AddItem(ctx, "cart_a", AddItemInput{ProductID: mug.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Mug", cart.Items[0].ProductName)
	assertTotals(t, cart, "60.00", "0.00", "15.00", "75.00")

	// price changes after add do not touch the snapshot
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", mug.ID).Update("price", dbtest.Money(t, "99.00")).Error)
	reloaded, err := svc.Get(ctx, "cart_a")
	require.NoError(t, err)
	assert.Equal(t, "30.00", reloaded.Items[0].Price.StringFixed(2))
}

func TestAddItemMergesSamePairAndChecksCombinedQuantity(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	mug := dbtest.SimpleProduct(t, conn, "Mug", "30.00", 5)

	_, err := svc.AddItem(ctx, "cart_m", AddItemInput{ProductID: mug.ID, Quantity: 3})
	require.NoError(t, err)

	cart, err := svc.AddItem(ctx, "cart_m", AddItemInput{ProductID: mug.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	_, err = svc.AddItem(ctx, "cart_m", AddItemInput{ProductID: mug.ID, Quantity: 1})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Equal(t, "insufficient stock for the requested quantity", typed.Message())

	reloaded, err := svc.Get(ctx, "cart_m")
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.Items[0].Quantity)
}

func TestAddItemVariationRules(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	shirt := dbtest.VariantProduct(t, conn, "Shirt", "50.00",
		dbtest.VariantSpec{Name: "M", Adjustment: "0", Quantity: 3},
		dbtest.VariantSpec{Name: "XL", Adjustment: "5.50", Quantity: 1},
	)
	other := dbtest.VariantProduct(t, conn, "Cap", "20.00", dbtest.VariantSpec{Name: "One", Adjustment: "0", Quantity: 1})
	xl := shirt.Variations[1].ID

	cart, err := svc.AddItem(ctx, "cart_v", AddItemInput{ProductID: shirt.ID, VariationID: &xl, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "55.50", cart.Items[0].Price.StringFixed(2))
	assert.Equal(t, "Shirt - XL", cart.Items[0].DisplayName())

	foreign := other.Variations[0].ID
	_, err = svc.AddItem(ctx, "cart_v", AddItemInput{ProductID: shirt.ID, VariationID: &foreign, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidVariation))

	_, err = svc.AddItem(ctx, "cart_v", AddItemInput{ProductID: shirt.ID, VariationID: &xl, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
}

func TestAddItemRejectsUnknownOrInactiveProduct(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "cart_x", AddItemInput{ProductID: uuid.New(), Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	lamp := dbtest.SimpleProduct(t, conn, "Lamp", "10.00", 4)
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", lamp.ID).Update("active", false).Error)
	_, err = svc.AddItem(ctx, "cart_x", AddItemInput{ProductID: lamp.ID, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, "cart_x", AddItemInput{ProductID: lamp.ID, Quantity: 0})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetRejectsOverlongToken(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	longest := strings.Repeat("t", MaxTokenLength)
	cart, err := svc.Get(ctx, longest)
	require.NoError(t, err)
	assert.Equal(t, longest, cart.Token)

	_, err = svc.Get(ctx, longest+"t")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	mug := dbtest.SimpleProduct(t, conn, "Mug", "30.00", 4)
	_, err = svc.AddItem(ctx, longest+"t", AddItemInput{ProductID: mug.ID, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, conn.Model(&models.Cart{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpdateItemErrors(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateItem(ctx, "cart_u", 0, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeBadRequest))

	mug := dbtest.SimpleProduct(t, conn, "Mug", "30.00", 4)
	_, err = svc.AddItem(ctx, "cart_u", AddItemInput{ProductID: mug.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, "cart_u", 3, 1)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, map[string]int{"item_index": 3, "items_count": 1}, typed.Details())

	_, err = svc.UpdateItem(ctx, "cart_u", 0, 5)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	cart, err := svc.UpdateItem(ctx, "cart_u", 0, 4)
	require.NoError(t, err)
	assertTotals(t, cart, "120.00", "0.00", "15.00", "135.00")
}

func TestRemoveItemKeepsOrderOfRemainingItems(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	_, err := svc.RemoveItem(ctx, "cart_r", 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	a := dbtest.SimpleProduct(t, conn, "A", "10.00", 5)
	b := dbtest.SimpleProduct(t, conn, "B", "20.00", 5)
	c := dbtest.SimpleProduct(t, conn, "C", "30.00", 5)
	for _, p := range []*models.Product{a, b, c} {
		_, err := svc.AddItem(ctx, "cart_r", AddItemInput{ProductID: p.ID, Quantity: 1})
		require.NoError(t, err)
	}

	cart, err := svc.RemoveItem(ctx, "cart_r", 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "A", cart.Items[0].ProductName)
	assert.Equal(t, "C", cart.Items[1].ProductName)

	reloaded, err := svc.Get(ctx, "cart_r")
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 2)
	assert.Equal(t, "C", reloaded.Items[1].ProductName)
	assertTotals(t, reloaded, "40.00", "0.00", "20.00", "60.00")

	_, err = svc.RemoveItem(ctx, "cart_r", 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestApplyCoupon(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	kettle := dbtest.SimpleProduct(t, conn, "Kettle", "100.00", 5)
	dbtest.Coupon(t, conn, "TEN", enums.CouponTypePercentage, "10")
	dbtest.Coupon(t, conn, "MIN500", enums.CouponTypeFixed, "50", func(c *models.Coupon) {
		c.MinValue.Valid = true
		c.MinValue.Decimal = dbtest.Money(t, "500")
	})

	_, err := svc.AddItem(ctx, "cart_c", AddItemInput{ProductID: kettle.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.ApplyCoupon(ctx, "cart_c", "nope")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeCouponInvalid, typed.Code())
	assert.Equal(t, coupons.MessageNotFound, typed.Message())

	_, err = svc.ApplyCoupon(ctx, "cart_c", "min500")
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, coupons.MessageBelowMinimum, typed.Message())

	cart, err := svc.ApplyCoupon(ctx, "cart_c", " ten ")
	require.NoError(t, err)
	require.NotNil(t, cart.CouponCode)
	assert.Equal(t, "TEN", *cart.CouponCode)
	assertTotals(t, cart, "100.00", "10.00", "15.00", "105.00")

	cart, err = svc.RemoveCoupon(ctx, "cart_c")
	require.NoError(t, err)
	assert.Nil(t, cart.CouponID)
	assertTotals(t, cart, "100.00", "0.00", "15.00", "115.00")
}

func TestCouponDetachesWhenNoLongerValid(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	lamp := dbtest.SimpleProduct(t, conn, "Lamp", "120.00", 5)
	mug := dbtest.SimpleProduct(t, conn, "Mug", "30.00", 5)
	coupon := dbtest.Coupon(t, conn, "MIN150", enums.CouponTypeFixed, "20", func(c *models.Coupon) {
		c.MinValue.Valid = true
		c.MinValue.Decimal = dbtest.Money(t, "150")
	})

	_, err := svc.AddItem(ctx, "cart_d", AddItemInput{ProductID: lamp.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "cart_d", AddItemInput{ProductID: mug.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err := svc.ApplyCoupon(ctx, "cart_d", "MIN150")
	require.NoError(t, err)
	assertTotals(t, cart, "150.00", "20.00", "15.00", "145.00")

	cart, err = svc.RemoveItem(ctx, "cart_d", 1)
	require.NoError(t, err)
	assert.Nil(t, cart.CouponID)
	assert.Nil(t, cart.CouponCode)
	assertTotals(t, cart, "120.00", "0.00", "15.00", "135.00")

	// a deactivated coupon is dropped on the next mutation as well
	_, err = svc.AddItem(ctx, "cart_d", AddItemInput{ProductID: mug.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, "cart_d", "MIN150")
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.Coupon{}).Where("id = ?", coupon.ID).Update("active", false).Error)

	cart, err = svc.UpdateItem(ctx, "cart_d", 0, 1)
	require.NoError(t, err)
	assert.Nil(t, cart.CouponID)
	assert.True(t, cart.Discount.IsZero())
}

func TestClearResetsCart(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	mug := dbtest.SimpleProduct(t, conn, "Mug", "30.00", 5)
	dbtest.Coupon(t, conn, "FIVE", enums.CouponTypeFixed, "5")

	_, err := svc.AddItem(ctx, "cart_z", AddItemInput{ProductID: mug.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ctx, "cart_z", "FIVE")
	require.NoError(t, err)

	cart, err := svc.Clear(ctx, "cart_z")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Nil(t, cart.CouponID)
	assertTotals(t, cart, "0.00", "0.00", "0.00", "0.00")

	reloaded, err := svc.Get(ctx, "cart_z")
	require.NoError(t, err)
	assert.True(t, reloaded.IsEmpty())
	assert.Nil(t, reloaded.CouponCode)
}
