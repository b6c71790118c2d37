package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/Simplici0/pricebook/internal/db"
)

//go:embed sqlite/*.sql postgres/*.sql
var embedded embed.FS

// Up runs all pending SQL migrations for the given driver.
func Up(ctx context.Context, database *sql.DB, driver string) error {
	provider, err := newProvider(database, driver)
	if err != nil {
		return err
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	return nil
}

// Version returns the current schema version.
func Version(ctx context.Context, database *sql.DB, driver string) (int64, error) {
	provider, err := newProvider(database, driver)
	if err != nil {
		return 0, err
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read goose version: %w", err)
	}
	return version, nil
}

func newProvider(database *sql.DB, driver string) (*goose.Provider, error) {
	dialect, dir := goose.DialectSQLite3, "sqlite"
	if driver == db.DriverPostgres {
		dialect, dir = goose.DialectPostgres, "postgres"
	}

	fsys, err := fs.Sub(embedded, dir)
	if err != nil {
		return nil, fmt.Errorf("open embedded %s migrations: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, database, fsys)
	if err != nil {
		return nil, fmt.Errorf("create goose provider: %w", err)
	}
	return provider, nil
}
