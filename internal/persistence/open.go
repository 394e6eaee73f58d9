package persistence

import (
	"context"
	"fmt"
	"log/slog"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options select and configure a backend.
type Options struct {
	Driver string // "sqlite" (default) or "postgres"
	Path   string // sqlite database file
	DSN    string // postgres connection string
	Slot   string // postgres save slot
	Logger *slog.Logger
}

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		db, err := OpenSQLite(opts.Path)
		if err != nil {
			return nil, err
		}
		db.Logger = opts.Logger
		return db, nil
	case DriverPostgres:
		pg, err := OpenPostgres(ctx, opts.DSN, opts.Slot)
		if err != nil {
			return nil, err
		}
		pg.Logger = opts.Logger
		return pg, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
}
