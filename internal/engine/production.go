// Tiered production. Every colonized system runs its facilities in tier order
// so extraction output is visible to conversion within the same tick.
package engine

import (
	"log/slog"
	"math"

	"github.com/talgya/idle-galaxy/internal/balance"
	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/store"
	"github.com/talgya/idle-galaxy/internal/world"
)

// MultiplierFunc supplies an external production multiplier for the current state.
type MultiplierFunc func(st *world.State) float64

// PrestigeMultiplier is the default prestige bonus: +2% per token.
func PrestigeMultiplier(st *world.State) float64 {
	return 1 + float64(st.Prestige.Tokens)*balance.PrestigeBonusPerToken
}

// Production applies extraction and conversion recipes.
type Production struct {
	store   *store.Store
	catalog *catalog.Catalog

	Prestige MultiplierFunc // nil uses PrestigeMultiplier
	Logger   *slog.Logger
}

// NewProduction returns a production engine over s.
func NewProduction(s *store.Store, cat *catalog.Catalog) *Production {
	return &Production{store: s, catalog: cat}
}

func (p *Production) log() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Production) prestige(st *world.State) float64 {
	if p.Prestige != nil {
		return p.Prestige(st)
	}
	return PrestigeMultiplier(st)
}

// Tick advances production by deltaHours of simulated time. Each system is
// published as one store batch. Non-positive deltas do nothing.
func (p *Production) Tick(deltaHours float64) {
	if !(deltaHours > 0) || math.IsInf(deltaHours, 0) {
		return
	}
	st := p.store.Get()
	prestige := p.prestige(st)
	for _, id := range st.ColonizedSystemIDs() {
		_ = p.store.Batch(func(tx *store.Tx) error {
			p.tickSystem(tx, id, deltaHours, prestige)
			return nil
		})
	}
}

func (p *Production) tickSystem(tx *store.Tx, id world.SystemID, dt, prestige float64) {
	sys, ok := tx.System(id)
	if !ok {
		return
	}
	for _, f := range store.FacilitiesByTier(tx.State(), p.catalog, id) {
		if !f.Operational {
			continue
		}
		def, ok := p.catalog.Facility(f.Kind)
		if !ok {
			p.log().Debug("facility kind not in catalog", "facility", f.ID, "kind", f.Kind)
			continue
		}
		body, _ := tx.Body(f.BodyID)
		mod := p.Modifier(sys, body, def) * prestige

		r := def.Recipe
		switch r.Kind {
		case catalog.RecipeExtraction:
			tx.AddResource(id, r.Output, r.BaseRate*mod*dt)
		case catalog.RecipeConversion:
			p.convert(tx, id, r, mod, dt)
		}
	}
}

// convert runs one conversion recipe, scaled by the scarcest input.
func (p *Production) convert(tx *store.Tx, id world.SystemID, r catalog.Recipe, mod, dt float64) {
	sys, _ := tx.System(id)
	limiting := LimitingFactor(sys, r, dt)
	if limiting <= 0 {
		return
	}
	for _, in := range r.Inputs {
		sys, _ = tx.System(id)
		debit := min(r.Throughput*limiting*dt*in.Ratio, sys.Amount(in.Resource))
		if !tx.RemoveResource(id, in.Resource, debit) {
			return
		}
	}
	tx.AddResource(id, r.Output, r.Throughput*limiting*dt*r.Efficiency*mod)
}

// LimitingFactor returns the fraction of nominal throughput the system's stock
// can feed for dt hours, in [0, 1].
func LimitingFactor(sys *world.System, r catalog.Recipe, dt float64) float64 {
	factor := 1.0
	for _, in := range r.Inputs {
		needed := r.Throughput * in.Ratio * dt
		if needed <= 0 {
			continue
		}
		factor = min(factor, sys.Amount(in.Resource)/needed)
	}
	return max(factor, 0)
}

// Modifier is the product of the system-state effect, the body-feature bonus
// for the facility's economy and the population multiplier. The prestige
// multiplier is applied separately.
func (p *Production) Modifier(sys *world.System, body *world.Body, def catalog.FacilityDef) float64 {
	mod := 1 + p.catalog.State(sys.State).Production
	if body != nil {
		mod *= p.catalog.FeatureBonus(body.Features, def.Economy)
	}
	return mod * balance.PopulationMultiplier(sys.TotalPopulation)
}

// RateReport is the nominal hourly production of one system at full throughput.
type RateReport struct {
	SystemID world.SystemID                   `json:"system_id"`
	Gross    map[catalog.ResourceKind]float64 `json:"gross"` // output per hour
	Draw     map[catalog.ResourceKind]float64 `json:"draw"`  // conversion input per hour
}

// Report returns the nominal gross rates of a system, ignoring input scarcity.
func (p *Production) Report(id world.SystemID) (RateReport, bool) {
	st := p.store.Get()
	sys, ok := st.System(id)
	if !ok {
		return RateReport{}, false
	}
	rep := RateReport{
		SystemID: id,
		Gross:    make(map[catalog.ResourceKind]float64),
		Draw:     make(map[catalog.ResourceKind]float64),
	}
	if !sys.Colonized {
		return rep, true
	}
	prestige := p.prestige(st)
	for _, f := range st.SystemFacilities(id) {
		def, ok := p.catalog.Facility(f.Kind)
		if !ok || !f.Operational {
			continue
		}
		body, _ := st.Body(f.BodyID)
		mod := p.Modifier(sys, body, def) * prestige
		r := def.Recipe
		switch r.Kind {
		case catalog.RecipeExtraction:
			rep.Gross[r.Output] += r.BaseRate * mod
		case catalog.RecipeConversion:
			rep.Gross[r.Output] += r.Throughput * r.Efficiency * mod
			for _, in := range r.Inputs {
				rep.Draw[in.Resource] += r.Throughput * in.Ratio
			}
		}
	}
	return rep, true
}
