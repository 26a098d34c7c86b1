package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront-backend/internal/cron"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// NewMaintenanceCommand exposes the cron worker's jobs for one-off runs.
func NewMaintenanceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Housekeeping jobs",
	}

	var only []string
	run := &cobra.Command{
		Use:   "run",
		Short: "Run cart cleanup and outbox retention once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rt, err := openRuntime(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()
			return runMaintenance(ctx, cmd.OutOrStdout(), rt.logg, rt.db, rt.cfg.Maintenance, only...)
		},
	}
	run.Flags().StringSliceVar(&only, "job", nil, "run only the named job (repeatable)")
	cmd.AddCommand(run)

	return cmd
}

func runMaintenance(ctx context.Context, out io.Writer, logg *logger.Logger, client *db.Client, cfg config.MaintenanceConfig, only ...string) error {
	all, err := cron.StorefrontJobs(logg, client, cfg, nil)
	if err != nil {
		return err
	}
	registry, err := all.Only(only...)
	if err != nil {
		return err
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     &cron.LocalLock{},
	})
	if err != nil {
		return err
	}

	report, err := service.RunOnce(ctx)
	if err != nil {
		return err
	}
	for _, name := range report.Ran {
		status := "ok"
		if jobErr, failed := report.Failed[name]; failed {
			status = "failed: " + jobErr.Error()
		}
		fmt.Fprintf(out, "%s: %s\n", name, status)
	}
	return report.Err()
}
