package cron

import (
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

// StorefrontJobs builds the registry both the worker and the CLI run. The
// cart cleanup job is only registered when a cart retention window is set.
func StorefrontJobs(logg *logger.Logger, client *db.Client, cfg config.MaintenanceConfig, jobMetrics *metrics.JobMetrics) (*Registry, error) {
	var jobs []Job
	if cfg.CartRetentionDays > 0 {
		cartJob, err := NewCartCleanupJob(CartCleanupJobParams{
			Logger:     logg,
			DB:         client,
			Repository: cart.NewRepository(client.DB()),
			Metrics:    jobMetrics,
			Retention:  cfg.CartRetentionDays,
		})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, cartJob)
	}

	outboxJob, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logg,
		DB:         client,
		Repository: outbox.NewRepository(client.DB()),
		Metrics:    jobMetrics,
		Retention:  cfg.OutboxRetentionDays,
	})
	if err != nil {
		return nil, err
	}
	return NewRegistry(append(jobs, outboxJob)...)
}
