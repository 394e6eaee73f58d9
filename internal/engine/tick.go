// Package engine provides the tick-driven economy simulation: production,
// population, construction and the scheduler that drives them.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/idle-galaxy/internal/balance"
	"github.com/talgya/idle-galaxy/internal/metrics"
	"github.com/talgya/idle-galaxy/internal/store"
	"github.com/talgya/idle-galaxy/internal/world"
)

// Subsystem is a sibling simulation (trade, exploration, colonization) driven
// by the scheduler. Tick receives the real delta of one firing; ProcessOffline
// receives the whole offline duration in one call.
type Subsystem interface {
	Tick(delta time.Duration)
	ProcessOffline(elapsed time.Duration)
}

// Saver persists a snapshot of the world.
type Saver interface {
	Save(ctx context.Context, st *world.State) error
}

// SchedulerConfig controls offline replay and optional host overrides of the
// timers. The timers otherwise follow the game's saved Settings.
type SchedulerConfig struct {
	TickInterval      time.Duration // 0 = Settings.TickInterval
	SaveInterval      time.Duration // 0 = Settings.AutoSaveInterval
	OfflineThreshold  time.Duration // shorter absences are not replayed
	OfflineChunkHours float64       // largest simulated step during replay
	MaxOffline        time.Duration // 0 = unlimited
}

// DefaultSchedulerConfig follows the saved timers and replays in 0.1 h chunks.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		OfflineThreshold:  balance.OfflineThresholdSeconds * time.Second,
		OfflineChunkHours: balance.OfflineChunkHours,
	}
}

// OfflineReport describes one offline catch-up.
type OfflineReport struct {
	Elapsed        time.Duration `json:"elapsed"`
	HoursProcessed float64       `json:"hours_processed"`
	Chunks         int           `json:"chunks"`
}

// Scheduler drives Production, Population and sibling subsystems from a
// wall-clock timer. Timer ticks, offline replay and ProcessTime are
// serialized and never overlap.
type Scheduler struct {
	store      *store.Store
	production *Production
	population *Population
	siblings   []Subsystem
	saver      Saver
	cfg        SchedulerConfig

	Now     func() time.Time
	Logger  *slog.Logger
	Metrics metrics.Recorder

	mu     sync.Mutex // guards siblings and saver
	tickMu sync.Mutex // held while Production and Population run; ticks never overlap
	life   sync.Mutex // serializes Start, Stop and CatchUp; guards the fields below

	running   bool
	stop      chan struct{}
	done      chan struct{}
	tickEvery time.Duration
	saveEvery time.Duration

	ticks    atomic.Uint64 // survives Stop/Start within a process
	lastTick time.Time     // owned by the loop goroutine while running
}

// NewScheduler returns a stopped scheduler.
func NewScheduler(s *store.Store, prod *Production, pop *Population, cfg SchedulerConfig) *Scheduler {
	def := DefaultSchedulerConfig()
	if cfg.OfflineChunkHours <= 0 {
		cfg.OfflineChunkHours = def.OfflineChunkHours
	}
	return &Scheduler{store: s, production: prod, population: pop, cfg: cfg}
}

// AddSubsystem registers a sibling subsystem. Subsystems run in registration order.
func (s *Scheduler) AddSubsystem(sub Subsystem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.siblings = append(s.siblings, sub)
}

// SetSaver installs the target of the save timer.
func (s *Scheduler) SetSaver(sv Saver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saver = sv
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scheduler) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Running reports whether the tick timer is armed.
func (s *Scheduler) Running() bool {
	s.life.Lock()
	defer s.life.Unlock()
	return s.running
}

// TickCount returns the number of timer ticks processed in this process.
func (s *Scheduler) TickCount() uint64 {
	return s.ticks.Load()
}

// Start replays the time elapsed since the game was last played, then arms
// the tick and save timers. Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start() OfflineReport {
	s.life.Lock()
	defer s.life.Unlock()
	if s.running {
		return OfflineReport{}
	}

	now := s.now()
	st := s.store.Get()
	var rep OfflineReport
	if !st.LastPlayed.IsZero() && st.Settings.OfflineProgress {
		rep = s.catchUp(now.Sub(st.LastPlayed))
	}
	s.store.Touch(now)

	s.tickEvery, s.saveEvery = s.intervals(st.Settings)
	s.lastTick = now
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true
	go s.loop(s.stop, s.done, s.tickEvery, s.saveEvery)

	s.log().Info("scheduler started",
		"tick", s.ticks.Load(),
		"interval", s.tickEvery,
		"autosave", s.saveEvery,
		"offline_hours", fmt.Sprintf("%.2f", rep.HoursProcessed),
	)
	return rep
}

// Stop cancels both timers and waits for a tick in progress to finish.
// It is safe to call on a stopped scheduler.
func (s *Scheduler) Stop() {
	s.life.Lock()
	defer s.life.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	<-s.done
	s.running = false
	s.store.Touch(s.now())
	s.log().Info("scheduler stopped", "tick", s.ticks.Load())
}

// intervals resolves the tick and save periods for a run: a non-zero override
// in the config wins, otherwise the saved settings apply. A save period of 0
// leaves the save timer unarmed.
func (s *Scheduler) intervals(set world.Settings) (tick, save time.Duration) {
	tick = set.TickInterval
	if s.cfg.TickInterval > 0 {
		tick = s.cfg.TickInterval
	}
	if tick <= 0 {
		tick = world.DefaultSettings().TickInterval
	}
	save = max(set.AutoSaveInterval, 0)
	if s.cfg.SaveInterval > 0 {
		save = s.cfg.SaveInterval
	}
	return tick, save
}

// Intervals reports the tick and save periods of the current run, or zeros
// when stopped.
func (s *Scheduler) Intervals() (tick, save time.Duration) {
	s.life.Lock()
	defer s.life.Unlock()
	if !s.running {
		return 0, 0
	}
	return s.tickEvery, s.saveEvery
}

func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}, tickEvery, saveEvery time.Duration) {
	defer close(done)

	ticker := time.NewTicker(tickEvery)
	defer ticker.Stop()

	s.mu.Lock()
	hasSaver := s.saver != nil
	s.mu.Unlock()

	var saves <-chan time.Time
	if saveEvery > 0 && hasSaver {
		t := time.NewTicker(saveEvery)
		defer t.Stop()
		saves = t.C
	}

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := s.now()
			delta := now.Sub(s.lastTick)
			s.lastTick = now
			s.Step(delta)
		case <-saves:
			if err := s.SaveNow(context.Background()); err != nil {
				s.log().Error("autosave failed", "error", err)
			}
		}
	}
}

// Step processes one timer firing: Production, then Population, then each
// sibling subsystem, all for the same real delta.
func (s *Scheduler) Step(delta time.Duration) {
	if delta < 0 {
		delta = 0
	}
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	start := time.Now()
	n := s.ticks.Add(1)
	hours := delta.Hours()

	s.production.Tick(hours)
	s.population.Tick(hours)
	for _, sub := range s.subsystems() {
		sub.Tick(delta)
	}

	now := s.now()
	_ = s.store.Batch(func(tx *store.Tx) error {
		pop := tx.State().TotalPopulation()
		tx.UpdateStatistics(func(st *world.Statistics) {
			st.TicksProcessed++
			st.PeakPopulation = max(st.PeakPopulation, pop)
		})
		tx.Touch(now)
		return nil
	})

	rec := metrics.OrNop(s.Metrics)
	rec.Observe("tick", true, time.Since(start))
	st := s.store.Get()
	rec.ObserveWorld(st.Credits, st.TotalPopulation())
	s.log().Debug("tick", "n", n, "delta", delta)
}

func (s *Scheduler) subsystems() []Subsystem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Subsystem(nil), s.siblings...)
}

// CatchUp replays an offline absence without touching the timers. It is what
// Start runs before arming them.
func (s *Scheduler) CatchUp(elapsed time.Duration) OfflineReport {
	s.life.Lock()
	defer s.life.Unlock()
	return s.catchUp(elapsed)
}

// catchUp runs Production and Population in equal sub-steps no larger than
// the configured chunk, hands siblings the whole duration once, and posts a
// welcome-back notification. Absences under the threshold are ignored.
func (s *Scheduler) catchUp(elapsed time.Duration) OfflineReport {
	if elapsed <= 0 || elapsed < s.cfg.OfflineThreshold {
		return OfflineReport{}
	}
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	start := time.Now()
	replay := elapsed
	if s.cfg.MaxOffline > 0 && replay > s.cfg.MaxOffline {
		s.log().Info("offline time capped", "elapsed", elapsed, "cap", s.cfg.MaxOffline)
		replay = s.cfg.MaxOffline
	}

	hours := replay.Hours()
	chunks := ChunkCount(hours, s.cfg.OfflineChunkHours)
	step := hours / float64(chunks)
	for range chunks {
		s.production.Tick(step)
		s.population.Tick(step)
	}
	for _, sub := range s.subsystems() {
		sub.ProcessOffline(replay)
	}

	rep := OfflineReport{Elapsed: elapsed, HoursProcessed: step * float64(chunks), Chunks: chunks}
	_ = s.store.Batch(func(tx *store.Tx) error {
		tx.UpdateStatistics(func(st *world.Statistics) { st.OfflineHours += rep.HoursProcessed })
		tx.Notify("offline", "Welcome back",
			fmt.Sprintf("You were away for %s. Your galaxy kept working.", FormatAway(elapsed)))
		return nil
	})

	rec := metrics.OrNop(s.Metrics)
	rec.ObserveOffline(rep.HoursProcessed)
	rec.Observe("offline", true, time.Since(start))
	s.log().Info("offline progress applied",
		"away", elapsed,
		"hours", fmt.Sprintf("%.2f", rep.HoursProcessed),
		"chunks", chunks,
	)
	return rep
}

// ChunkCount is the number of equal sub-steps, none longer than chunkHours,
// needed to cover hours.
func ChunkCount(hours, chunkHours float64) int {
	if hours <= 0 {
		return 0
	}
	if chunkHours <= 0 {
		return 1
	}
	return max(int(math.Ceil(hours/chunkHours-1e-9)), 1)
}

// ProcessTime runs Production then Population once for exactly hours of
// simulated time. It bypasses the timers, siblings and offline notification.
func (s *Scheduler) ProcessTime(hours float64) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.production.Tick(hours)
	s.population.Tick(hours)
}

// SaveNow writes a snapshot through the installed saver.
func (s *Scheduler) SaveNow(ctx context.Context) error {
	s.mu.Lock()
	sv := s.saver
	s.mu.Unlock()
	if sv == nil {
		return nil
	}
	start := time.Now()
	err := sv.Save(ctx, s.store.Snapshot())
	metrics.OrNop(s.Metrics).Observe("save", err == nil, time.Since(start))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.log().Debug("snapshot saved", "took", time.Since(start))
	return nil
}

var awayMagnitudes = []humanize.RelTimeMagnitude{
	{D: 2 * time.Second, Format: "1 second", DivBy: 1},
	{D: time.Minute, Format: "%d seconds", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "1 minute", DivBy: 1},
	{D: time.Hour, Format: "%d minutes", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour", DivBy: 1},
	{D: humanize.Day, Format: "%d hours", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "1 day", DivBy: 1},
	{D: math.MaxInt64, Format: "%d days", DivBy: humanize.Day},
}

// FormatAway renders an absence in its dominant unit: "45 seconds", "3 hours", "2 days".
func FormatAway(d time.Duration) string {
	base := time.Unix(0, 0)
	return humanize.CustomRelTime(base, base.Add(d), "", "", awayMagnitudes)
}
