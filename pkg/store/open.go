package store

import (
	"context"
	"fmt"

	"github.com/celikhakan41/loan-service/pkg/config"
)

// Open builds the Storage selected by cfg.StoreDriver. The postgres
// backend is migrated before it is returned.
func Open(ctx context.Context, cfg config.Config) (Storage, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.DriverPostgres:
		if err := MigratePostgres(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
