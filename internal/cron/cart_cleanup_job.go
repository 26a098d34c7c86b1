package cron

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const cartCleanupJobName = "cart-cleanup"

type CartCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository abandonedCartRepo
	Metrics    *metrics.JobMetrics
	Retention  int
}

type abandonedCartRepo interface {
	DeleteAbandonedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type cartCleanupJob struct{ purgeJob }

// NewCartCleanupJob deletes carts nobody has touched for Retention days.
// There is no default window: carts persist until an operator opts in.
func NewCartCleanupJob(params CartCleanupJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, errors.New("cart repository required")
	}
	if params.Retention <= 0 {
		return nil, errors.New("cart retention days must be positive")
	}
	base, err := newPurgeJob(cartCleanupJobName, params.Logger, params.DB, params.Metrics,
		params.Retention, params.Retention, params.Repository.DeleteAbandonedBefore)
	if err != nil {
		return nil, err
	}
	return &cartCleanupJob{base}, nil
}
