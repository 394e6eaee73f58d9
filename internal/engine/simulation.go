// Simulation ties the store, catalog and simulation systems together.
package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/metrics"
	"github.com/talgya/idle-galaxy/internal/store"
	"github.com/talgya/idle-galaxy/internal/world"
)

// Simulation owns one game: its store and the systems that mutate it.
type Simulation struct {
	Store        *store.Store
	Catalog      *catalog.Catalog
	Production   *Production
	Population   *Population
	Construction *Construction
	Scheduler    *Scheduler

	logger *slog.Logger
}

// NewSimulation wires every system to s. rec and log may be nil.
func NewSimulation(s *store.Store, cat *catalog.Catalog, cfg SchedulerConfig, rec metrics.Recorder, log *slog.Logger) *Simulation {
	if log == nil {
		log = slog.Default()
	}
	rec = metrics.OrNop(rec)
	if s.Logger == nil {
		s.Logger = log
	}

	prod := NewProduction(s, cat)
	prod.Logger = log
	pop := NewPopulation(s, cat)
	pop.Logger = log
	cons := NewConstruction(s, cat)
	cons.Logger = log
	cons.Metrics = rec
	cons.OnChange = pop.Refresh

	sched := NewScheduler(s, prod, pop, cfg)
	sched.Logger = log
	sched.Metrics = rec

	return &Simulation{
		Store:        s,
		Catalog:      cat,
		Production:   prod,
		Population:   pop,
		Construction: cons,
		Scheduler:    sched,
		logger:       log,
	}
}

// NewGame replaces the world with a fresh starting configuration, keeping prestige.
func (sim *Simulation) NewGame(prestige world.Prestige, now time.Time) error {
	st, err := world.NewGame(sim.Catalog, prestige, now)
	if err != nil {
		return fmt.Errorf("seed new game: %w", err)
	}
	sim.Store.Replace(st)
	for _, id := range st.SystemIDs() {
		sim.Population.Refresh(id)
	}
	sim.logger.Info("new game seeded", "home", st.HomeSystemID, "prestige_tokens", prestige.Tokens)
	return nil
}

// ResetForPrestige discards the current game and seeds a new one. The prestige
// record gains tokensEarned and one prestige, and the high score keeps the best
// peak population reached.
func (sim *Simulation) ResetForPrestige(tokensEarned int, now time.Time) (world.Prestige, error) {
	st := sim.Store.Get()
	next := st.Prestige
	next.Tokens += max(tokensEarned, 0)
	next.Count++
	next.HighScore = max(next.HighScore, Score(st))
	if err := sim.NewGame(next, now); err != nil {
		return st.Prestige, err
	}
	sim.Store.Notify("prestige", "A new beginning",
		fmt.Sprintf("Prestige %d: your %d tokens boost all production.", next.Count, next.Tokens))
	sim.logger.Info("prestige reset", "count", next.Count, "tokens", next.Tokens, "high_score", next.HighScore)
	return next, nil
}

// Score is the prestige high-score measure of a game: its peak population.
func Score(st *world.State) float64 {
	return max(st.Statistics.PeakPopulation, st.TotalPopulation())
}

// ProcessTime advances Production and Population by exactly hours.
func (sim *Simulation) ProcessTime(hours float64) {
	sim.Scheduler.ProcessTime(hours)
}

// EconomyLine is one resource of an economy report, per hour.
type EconomyLine struct {
	Resource    catalog.ResourceKind `json:"resource"`
	Gross       float64              `json:"gross"`
	Draw        float64              `json:"draw"`
	Consumption float64              `json:"consumption"`
	Net         float64              `json:"net"`
	Stock       float64              `json:"stock"`
}

// EconomyReport is a system's nominal hourly economy.
type EconomyReport struct {
	SystemID world.SystemID `json:"system_id"`
	Lines    []EconomyLine  `json:"lines"`
}

// Economy reports a system's hourly flows. Net is always gross production
// minus conversion draw minus population consumption.
func (sim *Simulation) Economy(id world.SystemID) (EconomyReport, bool) {
	rates, ok := sim.Production.Report(id)
	if !ok {
		return EconomyReport{}, false
	}
	cons := sim.Population.ConsumptionRates(id)
	sys, _ := sim.Store.Get().System(id)

	kinds := make(map[catalog.ResourceKind]struct{})
	for k := range rates.Gross {
		kinds[k] = struct{}{}
	}
	for k := range rates.Draw {
		kinds[k] = struct{}{}
	}
	for k := range cons {
		kinds[k] = struct{}{}
	}
	for _, r := range sys.Resources {
		kinds[r.Resource] = struct{}{}
	}

	rep := EconomyReport{SystemID: id}
	for k := range kinds {
		line := EconomyLine{
			Resource:    k,
			Gross:       rates.Gross[k],
			Draw:        rates.Draw[k],
			Consumption: cons[k],
			Stock:       sys.Amount(k),
		}
		line.Net = line.Gross - line.Draw - line.Consumption
		rep.Lines = append(rep.Lines, line)
	}
	slices.SortFunc(rep.Lines, func(a, b EconomyLine) int {
		switch {
		case a.Resource < b.Resource:
			return -1
		case a.Resource > b.Resource:
			return 1
		}
		return 0
	})
	return rep, true
}
