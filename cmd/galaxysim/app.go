package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/talgya/idle-galaxy/internal/backup"
	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/config"
	"github.com/talgya/idle-galaxy/internal/engine"
	"github.com/talgya/idle-galaxy/internal/metrics"
	"github.com/talgya/idle-galaxy/internal/persistence"
	"github.com/talgya/idle-galaxy/internal/store"
	"github.com/talgya/idle-galaxy/internal/world"
)

// app is one loaded game plus everything needed to persist it.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	backend  persistence.Backend
	backups  *backup.Uploader // nil when backup is disabled
	saver    *persistence.Mirror
	sim      *engine.Simulation
	seeded   bool // true when no save existed and a new game was started
}

func schedulerConfig(c config.Simulation) engine.SchedulerConfig {
	return engine.SchedulerConfig{
		TickInterval:      c.TickInterval,
		SaveInterval:      c.AutoSaveInterval,
		OfflineThreshold:  c.OfflineThreshold,
		OfflineChunkHours: c.OfflineChunkHours,
		MaxOffline:        c.MaxOffline,
	}
}

// setup loads configuration, opens storage and restores or seeds the game.
func setup(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := slog.New(cfg.Log.Handler(os.Stderr))
	slog.SetDefault(logger)

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		if cat, err = catalog.LoadFile(cfg.Catalog.Path); err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		logger.Info("catalog override loaded", "path", cfg.Catalog.Path)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewPrometheus(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	if cfg.Storage.Driver == persistence.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	backend, err := persistence.Open(ctx, persistence.Options{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.DSN,
		Slot:   cfg.Storage.Slot,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: logger, registry: reg, backend: backend}
	a.saver = &persistence.Mirror{Primary: backend, Interval: cfg.Backup.Interval, Logger: logger}
	if cfg.Backup.Enabled {
		up, err := backup.New(ctx, backup.Config{
			Bucket:          cfg.Backup.Bucket,
			Region:          cfg.Backup.Region,
			Endpoint:        cfg.Backup.Endpoint,
			Prefix:          cfg.Backup.Prefix,
			PathStyle:       cfg.Backup.PathStyle,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		})
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("open backup: %w", err)
		}
		up.Logger = logger
		a.backups = up
		a.saver.Secondary = up
	}

	a.sim = engine.NewSimulation(store.New(nil), cat, schedulerConfig(cfg.Simulation), rec, logger)
	a.sim.Scheduler.SetSaver(a.saver)
	if err := a.restore(ctx); err != nil {
		backend.Close()
		return nil, err
	}
	return a, nil
}

// restore loads the primary save, falls back to the latest backup, and seeds
// a new game when neither exists.
func (a *app) restore(ctx context.Context) error {
	snap, err := a.backend.Load(ctx)
	switch {
	case err == nil:
		a.sim.Store.Load(snap)
		return nil
	case !errors.Is(err, persistence.ErrNoSave):
		return fmt.Errorf("load save: %w", err)
	}

	if a.backups != nil {
		snap, err := a.backups.Latest(ctx)
		switch {
		case err == nil:
			a.sim.Store.Load(snap)
			a.log.Info("restored from backup", "bucket", a.cfg.Backup.Bucket)
			return nil
		case !errors.Is(err, backup.ErrNoBackup):
			a.log.Warn("backup unavailable, starting a new game", "error", err)
		}
	}

	if err := a.sim.NewGame(world.Prestige{}, time.Now()); err != nil {
		return err
	}
	a.seeded = true
	return nil
}

// save persists the current state to the primary backend and flushes the backup.
func (a *app) save(ctx context.Context) error {
	snap := a.sim.Store.Snapshot()
	if err := a.backend.Save(ctx, snap); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := a.saver.Flush(ctx, snap); err != nil {
		a.log.Warn("backup flush failed", "error", err)
	}
	return nil
}

func (a *app) Close() error {
	return a.backend.Close()
}
