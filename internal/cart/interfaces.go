package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByToken(ctx context.Context, token string) (*models.Cart, error)
	LockByToken(ctx context.Context, token string) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	Save(ctx context.Context, cart *models.Cart) error
}

type productCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariationByID(ctx context.Context, id uuid.UUID) (*models.ProductVariation, error)
}

type stockChecker interface {
	EnsureAvailable(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID, quantity int) error
}

type couponLookup interface {
	FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
}

// Clock returns the current instant; coupon windows are evaluated against it.
type Clock func() time.Time
