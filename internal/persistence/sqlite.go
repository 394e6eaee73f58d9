// Package persistence provides world snapshot storage. SQLite keeps one game
// per database file in normalized tables; Postgres keeps JSON snapshots in slots.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/world"
)

// ErrNoSave is returned by Load when the backend holds no game.
var ErrNoSave = errors.New("no saved game")

// Backend saves and loads whole-world snapshots. Load returns the snapshot as
// stored; migrating it to the current version is the store's job.
type Backend interface {
	Save(ctx context.Context, st *world.State) error
	Load(ctx context.Context) (*world.State, error)
	Close() error
}

// SQLite persists the world to a SQLite database.
type SQLite struct {
	conn   *sqlx.DB
	Logger *slog.Logger
}

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; SQLite serializes anyway.
	conn.SetMaxOpenConns(1)

	db := &SQLite{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *SQLite) Close() error {
	return db.conn.Close()
}

func (db *SQLite) log() *slog.Logger {
	if db.Logger != nil {
		return db.Logger
	}
	return slog.Default()
}

func (db *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS systems (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		rarity TEXT NOT NULL,
		discovered INTEGER NOT NULL,
		surveyed INTEGER NOT NULL,
		state TEXT NOT NULL,
		total_population REAL NOT NULL,
		tech_level INTEGER NOT NULL,
		security_level INTEGER NOT NULL,
		standard_of_living REAL NOT NULL,
		storage_capacity REAL NOT NULL,
		has_trade_station INTEGER NOT NULL,
		trade_station_tier INTEGER NOT NULL,
		colonized INTEGER NOT NULL,
		body_ids_json TEXT NOT NULL,
		resources_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bodies (
		id TEXT PRIMARY KEY,
		system_id TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		parent_id TEXT NOT NULL,
		orbital_slots INTEGER NOT NULL,
		surface_slots INTEGER NOT NULL,
		used_orbital_slots INTEGER NOT NULL,
		used_surface_slots INTEGER NOT NULL,
		surveyed INTEGER NOT NULL,
		population REAL NOT NULL,
		population_ceiling REAL NOT NULL,
		population_floor REAL NOT NULL,
		features_json TEXT NOT NULL,
		facility_ids_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS facilities (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		body_id TEXT NOT NULL,
		level INTEGER NOT NULL,
		condition_pct REAL NOT NULL,
		operational INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ships (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		system_id TEXT NOT NULL,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS notifications (
		seq INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TEXT NOT NULL,
		read INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bodies_system ON bodies(system_id);
	CREATE INDEX IF NOT EXISTS idx_facilities_body ON facilities(body_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type systemRow struct {
	ID               string  `db:"id"`
	Name             string  `db:"name"`
	X                float64 `db:"x"`
	Y                float64 `db:"y"`
	Rarity           string  `db:"rarity"`
	Discovered       bool    `db:"discovered"`
	Surveyed         bool    `db:"surveyed"`
	State            string  `db:"state"`
	TotalPopulation  float64 `db:"total_population"`
	TechLevel        int     `db:"tech_level"`
	SecurityLevel    int     `db:"security_level"`
	StandardOfLiving float64 `db:"standard_of_living"`
	StorageCapacity  float64 `db:"storage_capacity"`
	HasTradeStation  bool    `db:"has_trade_station"`
	TradeStationTier int     `db:"trade_station_tier"`
	Colonized        bool    `db:"colonized"`
	BodyIDsJSON      string  `db:"body_ids_json"`
	ResourcesJSON    string  `db:"resources_json"`
}

type bodyRow struct {
	ID                string  `db:"id"`
	SystemID          string  `db:"system_id"`
	Name              string  `db:"name"`
	Kind              string  `db:"kind"`
	ParentID          string  `db:"parent_id"`
	OrbitalSlots      int     `db:"orbital_slots"`
	SurfaceSlots      int     `db:"surface_slots"`
	UsedOrbitalSlots  int     `db:"used_orbital_slots"`
	UsedSurfaceSlots  int     `db:"used_surface_slots"`
	Surveyed          bool    `db:"surveyed"`
	Population        float64 `db:"population"`
	PopulationCeiling float64 `db:"population_ceiling"`
	PopulationFloor   float64 `db:"population_floor"`
	FeaturesJSON      string  `db:"features_json"`
	FacilityIDsJSON   string  `db:"facility_ids_json"`
}

type facilityRow struct {
	ID          string  `db:"id"`
	Kind        string  `db:"kind"`
	BodyID      string  `db:"body_id"`
	Level       int     `db:"level"`
	Condition   float64 `db:"condition_pct"`
	Operational bool    `db:"operational"`
}

type shipRow struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Kind     string `db:"kind"`
	SystemID string `db:"system_id"`
	Status   string `db:"status"`
}

type notificationRow struct {
	Seq       int    `db:"seq"`
	ID        string `db:"id"`
	Kind      string `db:"kind"`
	Title     string `db:"title"`
	Message   string `db:"message"`
	CreatedAt string `db:"created_at"`
	Read      bool   `db:"read"`
}

// Meta keys.
const (
	metaVersion    = "version"
	metaCredits    = "credits"
	metaLastPlayed = "last_played"
	metaHome       = "home_system_id"
	metaSettings   = "settings_json"
	metaStatistics = "statistics_json"
	metaPrestige   = "prestige_json"
)

// Save writes the whole world in one transaction (full replace).
func (db *SQLite) Save(ctx context.Context, st *world.State) error {
	start := time.Now()
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"systems", "bodies", "facilities", "ships", "notifications"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, s := range st.Systems {
		bodyIDs, _ := json.Marshal(s.BodyIDs)
		resources, _ := json.Marshal(s.Resources)
		_, err := tx.NamedExecContext(ctx, `INSERT INTO systems
			(id, name, x, y, rarity, discovered, surveyed, state, total_population,
			 tech_level, security_level, standard_of_living, storage_capacity,
			 has_trade_station, trade_station_tier, colonized, body_ids_json, resources_json)
			VALUES (:id, :name, :x, :y, :rarity, :discovered, :surveyed, :state, :total_population,
			 :tech_level, :security_level, :standard_of_living, :storage_capacity,
			 :has_trade_station, :trade_station_tier, :colonized, :body_ids_json, :resources_json)`,
			systemRow{
				ID: string(s.ID), Name: s.Name, X: s.Coordinates.X, Y: s.Coordinates.Y,
				Rarity: string(s.Rarity), Discovered: s.Discovered, Surveyed: s.Surveyed,
				State: string(s.State), TotalPopulation: s.TotalPopulation,
				TechLevel: s.TechLevel, SecurityLevel: s.SecurityLevel,
				StandardOfLiving: s.StandardOfLiving, StorageCapacity: s.StorageCapacity,
				HasTradeStation: s.HasTradeStation, TradeStationTier: s.TradeStationTier,
				Colonized: s.Colonized, BodyIDsJSON: string(bodyIDs), ResourcesJSON: string(resources),
			})
		if err != nil {
			return fmt.Errorf("insert system %s: %w", s.ID, err)
		}
	}

	for _, b := range st.Bodies {
		features, _ := json.Marshal(b.Features)
		facilities, _ := json.Marshal(b.FacilityIDs)
		_, err := tx.NamedExecContext(ctx, `INSERT INTO bodies
			(id, system_id, name, kind, parent_id, orbital_slots, surface_slots,
			 used_orbital_slots, used_surface_slots, surveyed, population,
			 population_ceiling, population_floor, features_json, facility_ids_json)
			VALUES (:id, :system_id, :name, :kind, :parent_id, :orbital_slots, :surface_slots,
			 :used_orbital_slots, :used_surface_slots, :surveyed, :population,
			 :population_ceiling, :population_floor, :features_json, :facility_ids_json)`,
			bodyRow{
				ID: string(b.ID), SystemID: string(b.SystemID), Name: b.Name, Kind: string(b.Kind),
				ParentID: string(b.ParentID), OrbitalSlots: b.OrbitalSlots, SurfaceSlots: b.SurfaceSlots,
				UsedOrbitalSlots: b.UsedOrbitalSlots, UsedSurfaceSlots: b.UsedSurfaceSlots,
				Surveyed: b.Surveyed, Population: b.Population,
				PopulationCeiling: b.PopulationCeiling, PopulationFloor: b.PopulationFloor,
				FeaturesJSON: string(features), FacilityIDsJSON: string(facilities),
			})
		if err != nil {
			return fmt.Errorf("insert body %s: %w", b.ID, err)
		}
	}

	for _, f := range st.Facilities {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO facilities
			(id, kind, body_id, level, condition_pct, operational)
			VALUES (:id, :kind, :body_id, :level, :condition_pct, :operational)`,
			facilityRow{
				ID: string(f.ID), Kind: string(f.Kind), BodyID: string(f.BodyID),
				Level: f.Level, Condition: f.Condition, Operational: f.Operational,
			})
		if err != nil {
			return fmt.Errorf("insert facility %s: %w", f.ID, err)
		}
	}

	for _, sh := range st.Ships {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO ships (id, name, kind, system_id, status)
			VALUES (:id, :name, :kind, :system_id, :status)`,
			shipRow{ID: string(sh.ID), Name: sh.Name, Kind: string(sh.Kind), SystemID: string(sh.SystemID), Status: sh.Status})
		if err != nil {
			return fmt.Errorf("insert ship %s: %w", sh.ID, err)
		}
	}

	for i, n := range st.Notifications {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO notifications (seq, id, kind, title, message, created_at, read)
			VALUES (:seq, :id, :kind, :title, :message, :created_at, :read)`,
			notificationRow{Seq: i, ID: n.ID, Kind: n.Kind, Title: n.Title, Message: n.Message,
				CreatedAt: n.At.UTC().Format(time.RFC3339Nano), Read: n.Read})
		if err != nil {
			return fmt.Errorf("insert notification %s: %w", n.ID, err)
		}
	}

	settings, _ := json.Marshal(st.Settings)
	stats, _ := json.Marshal(st.Statistics)
	prestige, _ := json.Marshal(st.Prestige)
	meta := map[string]string{
		metaVersion:    st.Version,
		metaCredits:    strconv.FormatFloat(st.Credits, 'g', -1, 64),
		metaLastPlayed: st.LastPlayed.UTC().Format(time.RFC3339Nano),
		metaHome:       string(st.HomeSystemID),
		metaSettings:   string(settings),
		metaStatistics: string(stats),
		metaPrestige:   string(prestige),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	db.log().Info("world state saved",
		"systems", len(st.Systems),
		"facilities", len(st.Facilities),
		"took", time.Since(start),
	)
	return nil
}

// Load reads the saved world. It returns ErrNoSave for a fresh database.
func (db *SQLite) Load(ctx context.Context) (*world.State, error) {
	var metaRows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := db.conn.SelectContext(ctx, &metaRows, "SELECT key, value FROM world_meta"); err != nil {
		return nil, fmt.Errorf("select meta: %w", err)
	}
	meta := make(map[string]string, len(metaRows))
	for _, r := range metaRows {
		meta[r.Key] = r.Value
	}
	if _, ok := meta[metaVersion]; !ok {
		return nil, ErrNoSave
	}

	st := world.NewState()
	st.Version = meta[metaVersion]
	st.HomeSystemID = world.SystemID(meta[metaHome])
	if v, ok := meta[metaCredits]; ok {
		credits, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse credits: %w", err)
		}
		st.Credits = credits
	}
	if v := meta[metaLastPlayed]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("parse last played: %w", err)
		}
		st.LastPlayed = t
	}
	for key, target := range map[string]any{
		metaSettings:   &st.Settings,
		metaStatistics: &st.Statistics,
		metaPrestige:   &st.Prestige,
	} {
		if v := meta[key]; v != "" {
			if err := json.Unmarshal([]byte(v), target); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
		}
	}

	var systems []systemRow
	if err := db.conn.SelectContext(ctx, &systems, "SELECT * FROM systems"); err != nil {
		return nil, fmt.Errorf("select systems: %w", err)
	}
	for _, r := range systems {
		s := &world.System{
			ID: world.SystemID(r.ID), Name: r.Name, Coordinates: world.Coordinates{X: r.X, Y: r.Y},
			Rarity: world.Rarity(r.Rarity), Discovered: r.Discovered, Surveyed: r.Surveyed,
			State: catalog.StateKind(r.State), TotalPopulation: r.TotalPopulation,
			TechLevel: r.TechLevel, SecurityLevel: r.SecurityLevel,
			StandardOfLiving: r.StandardOfLiving, StorageCapacity: r.StorageCapacity,
			HasTradeStation: r.HasTradeStation, TradeStationTier: r.TradeStationTier, Colonized: r.Colonized,
		}
		if err := decodeJSON(r.BodyIDsJSON, &s.BodyIDs); err != nil {
			return nil, fmt.Errorf("system %s bodies: %w", r.ID, err)
		}
		if err := decodeJSON(r.ResourcesJSON, &s.Resources); err != nil {
			return nil, fmt.Errorf("system %s resources: %w", r.ID, err)
		}
		st.Systems[s.ID] = s
	}

	var bodies []bodyRow
	if err := db.conn.SelectContext(ctx, &bodies, "SELECT * FROM bodies"); err != nil {
		return nil, fmt.Errorf("select bodies: %w", err)
	}
	for _, r := range bodies {
		b := &world.Body{
			ID: world.BodyID(r.ID), SystemID: world.SystemID(r.SystemID), Name: r.Name,
			Kind: catalog.BodyKind(r.Kind), ParentID: world.BodyID(r.ParentID),
			OrbitalSlots: r.OrbitalSlots, SurfaceSlots: r.SurfaceSlots,
			UsedOrbitalSlots: r.UsedOrbitalSlots, UsedSurfaceSlots: r.UsedSurfaceSlots,
			Surveyed: r.Surveyed, Population: r.Population,
			PopulationCeiling: r.PopulationCeiling, PopulationFloor: r.PopulationFloor,
		}
		if err := decodeJSON(r.FeaturesJSON, &b.Features); err != nil {
			return nil, fmt.Errorf("body %s features: %w", r.ID, err)
		}
		if err := decodeJSON(r.FacilityIDsJSON, &b.FacilityIDs); err != nil {
			return nil, fmt.Errorf("body %s facilities: %w", r.ID, err)
		}
		st.Bodies[b.ID] = b
	}

	var facilities []facilityRow
	if err := db.conn.SelectContext(ctx, &facilities, "SELECT * FROM facilities"); err != nil {
		return nil, fmt.Errorf("select facilities: %w", err)
	}
	for _, r := range facilities {
		st.Facilities[world.FacilityID(r.ID)] = &world.Facility{
			ID: world.FacilityID(r.ID), Kind: catalog.FacilityKind(r.Kind), BodyID: world.BodyID(r.BodyID),
			Level: r.Level, Condition: r.Condition, Operational: r.Operational,
		}
	}

	var ships []shipRow
	if err := db.conn.SelectContext(ctx, &ships, "SELECT * FROM ships"); err != nil {
		return nil, fmt.Errorf("select ships: %w", err)
	}
	for _, r := range ships {
		st.Ships[world.ShipID(r.ID)] = &world.Ship{
			ID: world.ShipID(r.ID), Name: r.Name, Kind: world.ShipKind(r.Kind),
			SystemID: world.SystemID(r.SystemID), Status: r.Status,
		}
	}

	var notes []notificationRow
	if err := db.conn.SelectContext(ctx, &notes, "SELECT * FROM notifications ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	for _, r := range notes {
		at, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("notification %s time: %w", r.ID, err)
		}
		st.Notifications = append(st.Notifications, world.Notification{
			ID: r.ID, Kind: r.Kind, Title: r.Title, Message: r.Message, At: at, Read: r.Read,
		})
	}

	db.log().Info("world state loaded", "version", st.Version, "systems", len(st.Systems))
	return st, nil
}

// HasSave reports whether the database holds a game.
func (db *SQLite) HasSave(ctx context.Context) (bool, error) {
	var v string
	err := db.conn.GetContext(ctx, &v, "SELECT value FROM world_meta WHERE key = ?", metaVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func decodeJSON(s string, v any) error {
	if s == "" || s == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
