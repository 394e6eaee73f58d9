package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/jmoiron/sqlx"

	"github.com/talgya/idle-galaxy/internal/world"
)

const (
	postgresDriver = "pgx"
	defaultDSN     = "postgres://localhost/idlegalaxy?sslmode=disable"
	DefaultSlot    = "default"
)

var (
	sqlOpen = sqlx.Open
	openMu  sync.Mutex
)

// Postgres stores whole-world JSON snapshots keyed by save slot.
type Postgres struct {
	db     *sqlx.DB
	slot   string
	Logger *slog.Logger
}

// OpenPostgres connects to dsn (falling back to a local default) and ensures
// the saves table exists. An empty slot selects DefaultSlot.
func OpenPostgres(ctx context.Context, dsn, slot string) (*Postgres, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	if slot == "" {
		slot = DefaultSlot
	}
	openMu.Lock()
	db, err := sqlOpen(postgresDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS saves (
		slot TEXT PRIMARY KEY,
		version TEXT NOT NULL,
		payload JSONB NOT NULL,
		saved_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure saves table: %w", err)
	}
	return &Postgres{db: db, slot: slot}, nil
}

func (p *Postgres) log() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Close closes the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

// Save upserts the snapshot into the store's slot.
func (p *Postgres) Save(ctx context.Context, st *world.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO saves (slot, version, payload, saved_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (slot) DO UPDATE SET version = EXCLUDED.version, payload = EXCLUDED.payload, saved_at = EXCLUDED.saved_at`,
		p.slot, st.Version, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert slot %s: %w", p.slot, err)
	}
	p.log().Info("world state saved", "slot", p.slot, "bytes", len(payload))
	return nil
}

// Load reads the snapshot in the store's slot.
func (p *Postgres) Load(ctx context.Context) (*world.State, error) {
	var payload []byte
	err := p.db.GetContext(ctx, &payload, `SELECT payload FROM saves WHERE slot = $1`, p.slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("select slot %s: %w", p.slot, err)
	}
	var st world.State
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("decode slot %s: %w", p.slot, err)
	}
	return &st, nil
}

// Slots lists the saved slots, most recently saved first.
func (p *Postgres) Slots(ctx context.Context) ([]string, error) {
	var slots []string
	if err := p.db.SelectContext(ctx, &slots, `SELECT slot FROM saves ORDER BY saved_at DESC`); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// OverrideSQLOpen swaps the connection constructor for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sqlx.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
