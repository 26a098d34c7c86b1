package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestDeleteAbandonedBeforeRemovesStaleCartsAndItems(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	mug := dbtest.SimpleProduct(t, conn, "Mug", "30.00", 10)

	stale, err := svc.AddItem(ctx, "cart_stale", AddItemInput{ProductID: mug.ID, Quantity: 1})
	require.NoError(t, err)
	fresh, err := svc.AddItem(ctx, "cart_fresh", AddItemInput{ProductID: mug.ID, Quantity: 2})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, conn.Model(&models.Cart{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", now.Add(-45*24*time.Hour)).Error)
	require.NoError(t, conn.Model(&models.Cart{}).Where("id = ?", fresh.ID).
		UpdateColumn("updated_at", now).Error)

	deleted, err := NewRepository(conn).DeleteAbandonedBefore(ctx, nil, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var carts []string
	require.NoError(t, conn.Model(&models.Cart{}).Pluck("token", &carts).Error)
	assert.Equal(t, []string{"cart_fresh"}, carts)

	var items int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("cart_id = ?", stale.ID).Count(&items).Error)
	assert.Zero(t, items)
	require.NoError(t, conn.Model(&models.CartItem{}).Where("cart_id = ?", fresh.ID).Count(&items).Error)
	assert.EqualValues(t, 1, items)
}

func TestLockByTokenLoadsItemsInsideTransaction(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	mug := dbtest.SimpleProduct(t, conn, "Mug", "30.00", 10)
	cup := dbtest.SimpleProduct(t, conn, "Cup", "12.00", 10)
	_, err := svc.AddItem(ctx, "cart_lock", AddItemInput{ProductID: mug.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "cart_lock", AddItemInput{ProductID: cup.ID, Quantity: 3})
	require.NoError(t, err)

	repo := NewRepository(conn)
	err = conn.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.WithTx(tx).LockByToken(ctx, "cart_lock")
		require.NoError(t, err)
		require.Len(t, locked.Items, 2)
		assert.Equal(t, mug.ID, locked.Items[0].ProductID)
		assert.Equal(t, cup.ID, locked.Items[1].ProductID)
		return nil
	})
	require.NoError(t, err)

	_, err = repo.LockByToken(ctx, "cart_missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
