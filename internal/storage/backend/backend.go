// internal/storage/backend/backend.go
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"tesoreria/internal/config"
	"tesoreria/internal/storage"
	"tesoreria/internal/storage/postgres"
	"tesoreria/internal/storage/sqlite"
)

// Open returns the storage selected by cfg.DBBackend with its schema
// migrated.
func Open(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	switch cfg.DBBackend {
	case config.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.DBConn, cfg.DBConnectRetries)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, cfg.DBConn); err != nil {
			store.Close()
			return nil, err
		}
		slog.Info("storage ready", "backend", cfg.DBBackend)
		return store, nil
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("storage ready", "backend", cfg.DBBackend, "path", cfg.SQLitePath)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown db backend %q", cfg.DBBackend)
	}
}
