package cron

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func TestStorefrontJobsRegistersCartCleanupOnlyWhenConfigured(t *testing.T) {
	client := dbtest.Client(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	defaults, err := StorefrontJobs(logg, client, config.MaintenanceConfig{OutboxRetentionDays: 14}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{outboxRetentionJobName}, defaults.Names())

	optedIn, err := StorefrontJobs(logg, client, config.MaintenanceConfig{CartRetentionDays: 30, OutboxRetentionDays: 14}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{cartCleanupJobName, outboxRetentionJobName}, optedIn.Names())
}

func TestStorefrontJobsKeepAbandonedCartsByDefault(t *testing.T) {
	client := dbtest.Client(t)
	conn := client.DB()

	abandoned := &models.Cart{Token: "cart_abandoned"}
	require.NoError(t, conn.Create(abandoned).Error)
	require.NoError(t, conn.Model(abandoned).UpdateColumn("updated_at", time.Now().UTC().AddDate(-2, 0, 0)).Error)

	registry, err := StorefrontJobs(logger.New(logger.Options{Output: io.Discard}), client, config.MaintenanceConfig{OutboxRetentionDays: 14}, nil)
	require.NoError(t, err)

	service := newCycleService(t, &LocalLock{}, registry.Jobs()...)
	report, err := service.RunOnce(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())

	var tokens []string
	require.NoError(t, conn.Model(&models.Cart{}).Pluck("token", &tokens).Error)
	assert.Equal(t, []string{"cart_abandoned"}, tokens)
}
