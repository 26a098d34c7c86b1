package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// runtime is the config, logger and database a command works against.
type runtime struct {
	cfg  *config.Config
	logg *logger.Logger
	db   *db.Client
}

func openRuntime(ctx context.Context, logOut io.Writer) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logg := logger.New(logger.Options{
		ServiceName: "storefrontctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
		Output:      logOut,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}
	return &runtime{cfg: cfg, logg: logg, db: client}, nil
}

func (r *runtime) sqlDB() (*sql.DB, error) {
	sqlDB, err := r.db.DB().DB()
	if err != nil {
		return nil, fmt.Errorf("extracting sql.DB: %w", err)
	}
	return sqlDB, nil
}

func (r *runtime) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
