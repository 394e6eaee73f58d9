// Population dynamics: consumption and standard of living drive damped growth
// between the floor and ceiling, plus system-state transitions.
package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/idle-galaxy/internal/balance"
	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/store"
	"github.com/talgya/idle-galaxy/internal/world"
)

// Population runs the per-system population model.
type Population struct {
	store   *store.Store
	catalog *catalog.Catalog

	Logger *slog.Logger
}

// NewPopulation returns a population model over s.
func NewPopulation(s *store.Store, cat *catalog.Catalog) *Population {
	return &Population{store: s, catalog: cat}
}

func (p *Population) log() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// consumption is the outcome of one system's draw on its stock.
type consumption struct {
	penalty   float64 // SoL points lost to required shortfall
	solBonus  float64 // SoL points from optional goods
	pullBonus float64
	foodRatio float64 // food consumed / food needed, 1 when nothing was needed
}

// limits are a system's population bounds and their per-body parts.
type limits struct {
	floor, ceiling float64
	bodyFloor      map[world.BodyID]float64
	bodyCeiling    map[world.BodyID]float64
	solBonus       float64 // sum of facility SoL bonuses, unscaled
	medical        bool
}

// Tick advances every colonized system by deltaHours. Non-positive deltas do nothing.
func (p *Population) Tick(deltaHours float64) {
	if !(deltaHours > 0) || math.IsInf(deltaHours, 0) {
		return
	}
	for _, id := range p.store.Get().ColonizedSystemIDs() {
		_ = p.store.Batch(func(tx *store.Tx) error {
			p.tickSystem(tx, id, deltaHours)
			return nil
		})
	}
}

// Refresh recomputes a system's population limits and clamps its population
// into them without consuming or growing. Used after the facility set changes.
func (p *Population) Refresh(id world.SystemID) {
	_ = p.store.Batch(func(tx *store.Tx) error {
		sys, ok := tx.System(id)
		if !ok {
			return nil
		}
		lim := p.limits(tx.State(), id)
		pop := 0.0
		if lim.ceiling > 0 {
			pop = balance.Clamp(sys.TotalPopulation, lim.floor, lim.ceiling)
		}
		p.apply(tx, id, lim, pop)
		return nil
	})
}

func (p *Population) tickSystem(tx *store.Tx, id world.SystemID, dt float64) {
	sys, ok := tx.System(id)
	if !ok {
		return
	}
	pop := sys.TotalPopulation

	c := p.consume(tx, id, pop, dt)
	lim := p.limits(tx.State(), id)
	state := p.catalog.State(sys.State)

	sol := StandardOfLiving(sys.TechLevel, sys.SecurityLevel, c.penalty, c.solBonus+lim.solBonus*balance.FacilitySoLScale, state.Security)

	pull := PullFactor(PullInputs{
		StandardOfLiving: sol,
		SecurityLevel:    sys.SecurityLevel,
		Medical:          lim.medical,
		OptionalBonus:    c.pullBonus,
		FoodRatio:        c.foodRatio,
		Population:       pop,
		Floor:            lim.floor,
		Ceiling:          lim.ceiling,
		StateGrowth:      state.Growth,
	})

	next := GrowthStep(pop, lim.floor, lim.ceiling, pull, dt)
	p.apply(tx, id, lim, next)

	from := sys.State
	to := NextState(from, c.foodRatio, sol, sys.SecurityLevel)
	_ = tx.UpdateSystem(id, func(s *world.System) {
		s.StandardOfLiving = sol
		s.State = to
	})
	if to != from {
		p.notifyTransition(tx, sys.Name, from, to)
	}
}

// consume draws required and optional resources for dt hours.
func (p *Population) consume(tx *store.Tx, id world.SystemID, pop, dt float64) consumption {
	c := consumption{foodRatio: 1}
	unmet, required := 0.0, 0
	for _, def := range p.catalog.Consumption() {
		need := def.PerThousandPerHour * pop / 1000 * dt
		if need <= 0 {
			continue
		}
		sys, _ := tx.System(id)
		got := min(need, sys.Amount(def.Resource))
		if got > 0 && !tx.RemoveResource(id, def.Resource, got) {
			got = 0
		}
		ratio := got / need
		if def.Required {
			unmet += 1 - ratio
			required++
		} else {
			c.solBonus += def.SoLBonus * ratio
			c.pullBonus += def.PullBonus * ratio
		}
		if def.Resource == catalog.Food {
			c.foodRatio = ratio
		}
	}
	if required > 0 {
		c.penalty = balance.MaxShortfallPenalty * unmet / float64(required)
	}
	return c
}

// limits derives floor and ceiling from the system's facilities. The floor of
// each body is capped at its ceiling so floor <= ceiling always holds.
func (p *Population) limits(st *world.State, id world.SystemID) limits {
	lim := limits{
		bodyFloor:   make(map[world.BodyID]float64),
		bodyCeiling: make(map[world.BodyID]float64),
	}
	for _, b := range st.SystemBodies(id) {
		if len(b.FacilityIDs) == 0 {
			continue
		}
		floor, ceiling := 0.0, 0.0
		for _, fid := range b.FacilityIDs {
			f, ok := st.Facility(fid)
			if !ok {
				continue
			}
			def, ok := p.catalog.Facility(f.Kind)
			if !ok {
				continue
			}
			ceiling += def.PopulationCeiling
			if f.Operational {
				floor += def.PopulationFloor
				lim.solBonus += def.SoLBonus
				if def.IsMedical() {
					lim.medical = true
				}
			}
		}
		mult := 1.0
		if bd, ok := p.catalog.Body(b.Kind); ok {
			mult = bd.PopulationMultiplier
		}
		ceiling *= mult * (1 + p.catalog.Habitability(b.Features))
		floor = min(floor, ceiling)

		lim.bodyFloor[b.ID] = floor
		lim.bodyCeiling[b.ID] = ceiling
		lim.floor += floor
		lim.ceiling += ceiling
	}
	return lim
}

// apply writes the new total and spreads it over bodies by ceiling share.
func (p *Population) apply(tx *store.Tx, id world.SystemID, lim limits, total float64) {
	sys, _ := tx.System(id)
	for _, bid := range sys.BodyIDs {
		share := 0.0
		if lim.ceiling > 0 {
			share = lim.bodyCeiling[bid] / lim.ceiling
		}
		_ = tx.UpdateBody(bid, func(b *world.Body) {
			b.PopulationFloor = lim.bodyFloor[bid]
			b.PopulationCeiling = lim.bodyCeiling[bid]
			b.Population = total * share
		})
	}
	_ = tx.UpdateSystem(id, func(s *world.System) { s.TotalPopulation = total })
}

func (p *Population) notifyTransition(tx *store.Tx, system string, from, to catalog.StateKind) {
	name := p.catalog.State(to).Name
	var msg string
	switch to {
	case catalog.StateFamine:
		msg = fmt.Sprintf("%s cannot feed its people. Production and growth are suffering.", system)
	case catalog.StateRioting:
		msg = fmt.Sprintf("Unrest has broken out in %s.", system)
	case catalog.StateProsperous:
		msg = fmt.Sprintf("%s is thriving.", system)
	default:
		msg = fmt.Sprintf("%s has recovered from %s.", system, p.catalog.State(from).Name)
	}
	tx.Notify("state", fmt.Sprintf("%s: %s", system, name), msg)
	p.log().Info("system state changed", "system", system, "from", from, "to", to)
}

// StandardOfLiving combines the base level with consumption, amenities and
// state effects, clamped to [0, 100]. bonus is in SoL points.
func StandardOfLiving(techLevel, securityLevel int, penalty, bonus, stateSecurity float64) float64 {
	sol := balance.BaseStandardOfLiving - penalty + bonus +
		float64(techLevel)*balance.TechSoLWeight +
		float64(securityLevel)*balance.SecuritySoLWeight +
		stateSecurity*balance.StateSecuritySoLScale
	return balance.Clamp(sol, 0, 100)
}

// PullInputs are the conditions that attract or repel population.
type PullInputs struct {
	StandardOfLiving float64
	SecurityLevel    int
	Medical          bool
	OptionalBonus    float64
	FoodRatio        float64
	Population       float64
	Floor            float64
	Ceiling          float64
	StateGrowth      float64
}

// PullFactor sums the discrete growth contributions. Optional-consumption
// bonuses are not capped.
func PullFactor(in PullInputs) float64 {
	pull := 0.0
	switch sol := in.StandardOfLiving; {
	case sol >= balance.HighSoLBand:
		pull += balance.HighSoLPull
	case sol >= balance.GoodSoLBand:
		pull += balance.GoodSoLPull
	case sol < balance.MiserableSoLBand:
		pull += balance.MiserableSoLPull
	case sol < balance.PoorSoLBand:
		pull += balance.PoorSoLPull
	}
	if in.SecurityLevel >= balance.SecurityPullLevel {
		pull += balance.SecurityPull
	}
	if in.Medical {
		pull += balance.MedicalPull
	}
	pull += in.OptionalBonus
	if in.FoodRatio < balance.FoodShortfallRatio {
		pull += balance.FoodShortfallPull
	}
	if in.Ceiling > 0 && in.Population < in.Ceiling*balance.SparsePopulationRatio {
		pull += balance.SparsePopulationPull
	}
	if in.Population < in.Floor {
		pull += balance.BelowFloorPull
	}
	return pull + in.StateGrowth
}

// GrowthStep returns the population after deltaHours of damped growth:
//
//	change = BaseGrowthRate × pull × (1 − pop/ceiling)² × seconds
//
// clamped to [min(floor, ceiling), ceiling]. A zero ceiling empties the system.
func GrowthStep(pop, floor, ceiling, pull, deltaHours float64) float64 {
	if ceiling <= 0 {
		return 0
	}
	headroom := 1 - pop/ceiling
	change := balance.BaseGrowthRate * pull * headroom * headroom * deltaHours * 3600
	return balance.Clamp(pop+change, min(floor, ceiling), ceiling)
}

// NextState is the level-triggered state machine. Stable is the hub: a system
// leaves Stable for one condition and returns to Stable when it clears.
func NextState(cur catalog.StateKind, foodRatio, sol float64, security int) catalog.StateKind {
	switch cur {
	case catalog.StateFamine:
		if foodRatio >= balance.FamineRecoveryRatio {
			return catalog.StateStable
		}
	case catalog.StateRioting:
		if sol >= balance.RiotRecoverySoL {
			return catalog.StateStable
		}
	case catalog.StateProsperous:
		if sol < balance.ProsperousExitSoL || foodRatio < balance.FamineFoodRatio {
			return catalog.StateStable
		}
	default:
		switch {
		case foodRatio < balance.FamineFoodRatio:
			return catalog.StateFamine
		case sol < balance.RiotSoL && security <= balance.RiotMaxSecurity:
			return catalog.StateRioting
		case sol >= balance.ProsperousSoL:
			return catalog.StateProsperous
		}
		return catalog.StateStable
	}
	return cur
}

// ConsumptionRates returns the hourly population draw of a system at its
// current population.
func (p *Population) ConsumptionRates(id world.SystemID) map[catalog.ResourceKind]float64 {
	out := make(map[catalog.ResourceKind]float64)
	sys, ok := p.store.Get().System(id)
	if !ok || !sys.Colonized {
		return out
	}
	for _, def := range p.catalog.Consumption() {
		if rate := def.PerThousandPerHour * sys.TotalPopulation / 1000; rate > 0 {
			out[def.Resource] += rate
		}
	}
	return out
}
