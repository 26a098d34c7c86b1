package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Repository persists carts and their ordered items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByToken loads the cart and its items in position order.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.Cart, error) {
	return findByToken(ctx, r.db, token)
}

// LockByToken is FindByToken with the cart row held FOR UPDATE until the
// surrounding transaction ends. SQLite has no row locks; its writers are
// already serialized.
func (r *Repository) LockByToken(ctx context.Context, token string) (*models.Cart, error) {
	q := r.db
	if q.Dialector != nil && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return findByToken(ctx, q, token)
}

func findByToken(ctx context.Context, q *gorm.DB, token string) (*models.Cart, error) {
	var cart models.Cart
	err := q.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("token = ?", token).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return &cart, nil
}

// Create inserts an empty cart row.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	if err := r.db.WithContext(ctx).Omit("Items").Create(cart).Error; err != nil {
		return err
	}
	return nil
}

// Save writes the cart totals and coupon and replaces its items, renumbering
// positions to match slice order.
func (r *Repository) Save(ctx context.Context, cart *models.Cart) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Cart{}).
			Where("id = ?", cart.ID).
			Updates(map[string]any{
				"coupon_id":   cart.CouponID,
				"coupon_code": cart.CouponCode,
				"subtotal":    cart.Subtotal,
				"discount":    cart.Discount,
				"shipping":    cart.Shipping,
				"total":       cart.Total,
			}).Error; err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return nil
		}

		for i := range cart.Items {
			cart.Items[i].ID = uuid.Nil
			cart.Items[i].CartID = cart.ID
			cart.Items[i].Position = i
		}
		return tx.Create(&cart.Items).Error
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

// DeleteAbandonedBefore removes carts untouched since cutoff together with
// their items.
func (r *Repository) DeleteAbandonedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	db = db.WithContext(ctx)
	stale := db.Model(&models.Cart{}).Select("id").Where("updated_at < ?", cutoff)
	if err := db.Where("cart_id IN (?)", stale).Delete(&models.CartItem{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("updated_at < ?", cutoff).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}
