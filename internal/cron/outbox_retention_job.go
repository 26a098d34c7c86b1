package cron

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	outboxRetentionJobName = "outbox-retention"
	outboxRetentionDays    = 14
)

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	Metrics    *metrics.JobMetrics
	Retention  int
}

type outboxRetentionRepo interface {
	DeleteSettledBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type outboxRetentionJob struct{ purgeJob }

// NewOutboxRetentionJob prunes outbox rows that were published or given up
// on more than Retention days ago.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, errors.New("outbox repository required")
	}
	base, err := newPurgeJob(outboxRetentionJobName, params.Logger, params.DB, params.Metrics,
		params.Retention, outboxRetentionDays, params.Repository.DeleteSettledBefore)
	if err != nil {
		return nil, err
	}
	return &outboxRetentionJob{base}, nil
}
