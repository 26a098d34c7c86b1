package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type purgeFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

// purgeJob deletes rows older than retention days in a single transaction.
// The concrete jobs only differ in name, window and purge query.
type purgeJob struct {
	name      string
	logg      *logger.Logger
	db        txRunner
	purge     purgeFunc
	metrics   *metrics.JobMetrics
	retention int
	now       func() time.Time
}

func newPurgeJob(name string, logg *logger.Logger, db txRunner, jobMetrics *metrics.JobMetrics, retention, fallback int, purge purgeFunc) (purgeJob, error) {
	if logg == nil {
		return purgeJob{}, errors.New("logger required")
	}
	if db == nil {
		return purgeJob{}, errors.New("db runner required")
	}
	if retention <= 0 {
		retention = fallback
	}
	return purgeJob{
		name:      name,
		logg:      logg,
		db:        db,
		purge:     purge,
		metrics:   jobMetrics,
		retention: retention,
		now:       time.Now,
	}, nil
}

func (j *purgeJob) Name() string { return j.name }

func (j *purgeJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.retention)

	var deleted int64
	if err := j.db.WithTx(ctx, func(tx *gorm.DB) (err error) {
		deleted, err = j.purge(ctx, tx, cutoff)
		return err
	}); err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}

	j.metrics.AddDeleted(j.name, deleted)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff.Format(time.RFC3339),
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	}), "maintenance.purged")
	return nil
}
