package engine

import (
	"testing"

	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/world"
)

func bounds(t *testing.T, f *fixture) (floor, ceiling float64) {
	t.Helper()
	for _, b := range f.store.Get().SystemBodies(testSystem) {
		floor += b.PopulationFloor
		ceiling += b.PopulationCeiling
	}
	return floor, ceiling
}

func TestPopulationStaysWithinBounds(t *testing.T) {
	tests := []struct {
		name  string
		pop   float64
		food  float64
		steps []float64
	}{
		{"fed small steps", 500, 1e4, []float64{0.01, 0.1, 0.1, 1}},
		{"fed huge steps", 500, 1e4, []float64{100, 1000, 1e5}},
		{"starving", 1200, 0, []float64{1, 10, 100, 1000}},
		{"above ceiling", 5000, 1e4, []float64{0.1}},
		{"empty", 0, 1e4, []float64{1, 24}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[catalog.ResourceKind]float64{catalog.Food: tt.food}, tt.pop,
				catalog.FacilityHabitat, catalog.FacilityMine)
			p := f.population()
			for _, dt := range tt.steps {
				p.Tick(dt)
				floor, ceiling := bounds(t, f)
				pop := f.system(t).TotalPopulation
				if pop < floor-eps || pop > ceiling+eps {
					t.Fatalf("after tick(%v): population %v outside [%v, %v]", dt, pop, floor, ceiling)
				}
			}
		})
	}
}

func TestLimitsFromFacilities(t *testing.T) {
	f := newFixture(t, nil, 500, catalog.FacilityHabitat, catalog.FacilityMine)
	_ = f.store.UpdateBody(planet, func(b *world.Body) { b.Features = []catalog.Feature{catalog.FeatureHabitable} })
	f.population().Refresh(testSystem)

	floor, ceiling := bounds(t, f)
	if floor != 110 {
		t.Errorf("floor = %v, want 110", floor)
	}
	// (1000 + 100) × terrestrial 1.0 × habitable 1.25
	if !near(ceiling, 1375, eps) {
		t.Errorf("ceiling = %v, want 1375", ceiling)
	}
	b, _ := f.store.Get().Body(star)
	if b.PopulationCeiling != 0 || b.Population != 0 {
		t.Errorf("star without facilities holds population: %+v", b)
	}
}

func TestPopulationRedistributedByCeilingShare(t *testing.T) {
	f := newFixture(t, map[catalog.ResourceKind]float64{catalog.Food: 1e4}, 600, catalog.FacilityHabitat)
	// A mine on the giant contributes 100 × 0.3 to the ceiling.
	_ = f.store.AddFacility(&world.Facility{ID: "g1", Kind: catalog.FacilityMine, BodyID: giant, Operational: true}, catalog.SlotOrbital)
	f.population().Refresh(testSystem)

	pl, _ := f.store.Get().Body(planet)
	gi, _ := f.store.Get().Body(giant)
	total := f.system(t).TotalPopulation
	if !near(pl.Population, total*1000/1030, 1e-6) || !near(gi.Population, total*30/1030, 1e-6) {
		t.Errorf("planet %v giant %v of %v", pl.Population, gi.Population, total)
	}
}

func TestGrowthNearCeilingIsSmallAndPositive(t *testing.T) {
	pull := PullFactor(PullInputs{
		StandardOfLiving: 80,
		FoodRatio:        1,
		Population:       900,
		Floor:            100,
		Ceiling:          1000,
	})
	if pull <= 0 {
		t.Fatalf("pull = %v, want positive", pull)
	}
	oneSecond := 1.0 / 3600
	next := GrowthStep(900, 100, 1000, pull, oneSecond)
	change := next - 900
	if change <= 0 || change > 0.01 {
		t.Errorf("change = %v, want small and positive", change)
	}
	// The same pull far from the ceiling grows much faster.
	far := GrowthStep(100, 100, 1000, pull, oneSecond) - 100
	if far <= change*10 {
		t.Errorf("growth far from ceiling (%v) not dominant over near ceiling (%v)", far, change)
	}
}

func TestGrowthStep(t *testing.T) {
	tests := []struct {
		name                string
		pop, floor, ceiling float64
		pull, dt, want      float64
	}{
		{"zero ceiling", 50, 10, 0, 1, 1, 0},
		{"at ceiling", 1000, 100, 1000, 5, 100, 1000},
		{"decay stops at floor", 150, 100, 1000, -10, 1000, 100},
		{"below floor lifted", 20, 100, 1000, 0, 0.001, 100},
		{"floor above ceiling", 20, 500, 300, 0, 1, 300},
		{"huge step clamps", 0, 0, 1000, 1, 1e6, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GrowthStep(tt.pop, tt.floor, tt.ceiling, tt.pull, tt.dt)
			if !near(got, tt.want, 1e-9) {
				t.Errorf("GrowthStep = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStandardOfLiving(t *testing.T) {
	if got := StandardOfLiving(2, 1, 0, 0, 0); got != 57 {
		t.Errorf("SoL = %v, want 57", got)
	}
	if got := StandardOfLiving(0, 0, 20, 0, -1.0); got != 20 {
		t.Errorf("SoL = %v, want 20", got)
	}
	if got := StandardOfLiving(50, 50, 0, 0, 0); got != 100 {
		t.Errorf("SoL not clamped: %v", got)
	}
	if got := StandardOfLiving(0, 0, 100, 0, 0); got != 0 {
		t.Errorf("SoL not clamped: %v", got)
	}
}

func TestPullFactorContributions(t *testing.T) {
	base := PullInputs{StandardOfLiving: 50, FoodRatio: 1, Population: 800, Floor: 100, Ceiling: 1000}
	tests := []struct {
		name string
		edit func(*PullInputs)
		want float64
	}{
		{"neutral", func(*PullInputs) {}, 0},
		{"high SoL", func(in *PullInputs) { in.StandardOfLiving = 80 }, 0.2},
		{"good SoL", func(in *PullInputs) { in.StandardOfLiving = 65 }, 0.1},
		{"poor SoL", func(in *PullInputs) { in.StandardOfLiving = 30 }, -0.1},
		{"miserable SoL", func(in *PullInputs) { in.StandardOfLiving = 10 }, -0.2},
		{"security", func(in *PullInputs) { in.SecurityLevel = 2 }, 0.1},
		{"medical", func(in *PullInputs) { in.Medical = true }, 0.1},
		{"luxury unbounded", func(in *PullInputs) { in.OptionalBonus = 3 }, 3},
		{"food shortfall", func(in *PullInputs) { in.FoodRatio = 0.5 }, -0.3},
		{"sparse", func(in *PullInputs) { in.Population = 400 }, 0.1},
		{"below floor", func(in *PullInputs) { in.Population = 50 }, 0.3},
		{"state", func(in *PullInputs) { in.StateGrowth = -0.3 }, -0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.edit(&in)
			if got := PullFactor(in); !near(got, tt.want, 1e-12) {
				t.Errorf("PullFactor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsumptionAndShortfall(t *testing.T) {
	// 2000 people eat 2 food per hour; only 1 is stocked.
	f := newFixture(t, map[catalog.ResourceKind]float64{catalog.Food: 1}, 2000, catalog.FacilityHabitat, catalog.FacilityHabitat)
	f.population().Tick(1)

	if food := f.amount(t, catalog.Food); food != 0 {
		t.Errorf("food = %v, want 0", food)
	}
	// Half the only required resource unmet: 10 points off the base of 50.
	if sol := f.system(t).StandardOfLiving; !near(sol, 40, eps) {
		t.Errorf("SoL = %v, want 40", sol)
	}
	if state := f.system(t).State; state != catalog.StateStable {
		t.Errorf("state = %s, want stable at food ratio 0.5", state)
	}
}

func TestLuxuryConsumptionBonus(t *testing.T) {
	f := newFixture(t, map[catalog.ResourceKind]float64{catalog.Food: 100, catalog.LuxuryGoods: 100}, 1000,
		catalog.FacilityHabitat, catalog.FacilityHabitat)
	f.population().Tick(1)
	if sol := f.system(t).StandardOfLiving; !near(sol, 55, eps) {
		t.Errorf("SoL = %v, want 55 with luxuries", sol)
	}
	if lux := f.amount(t, catalog.LuxuryGoods); !near(lux, 99.9, eps) {
		t.Errorf("luxury = %v, want 99.9", lux)
	}
}

func TestMedicalFacilityRaisesSoL(t *testing.T) {
	f := newFixture(t, map[catalog.ResourceKind]float64{catalog.Food: 100}, 500,
		catalog.FacilityHabitat, catalog.FacilityMedicalCenter)
	f.population().Tick(0.1)
	if sol := f.system(t).StandardOfLiving; !near(sol, 55, eps) {
		t.Errorf("SoL = %v, want 55", sol)
	}
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     catalog.StateKind
		food     float64
		sol      float64
		security int
		want     catalog.StateKind
	}{
		{"stable stays", catalog.StateStable, 1, 50, 1, catalog.StateStable},
		{"famine", catalog.StateStable, 0.4, 50, 1, catalog.StateFamine},
		{"riot", catalog.StateStable, 1, 20, 1, catalog.StateRioting},
		{"secure systems do not riot", catalog.StateStable, 1, 20, 3, catalog.StateStable},
		{"prosperous", catalog.StateStable, 1, 85, 1, catalog.StateProsperous},
		{"famine persists", catalog.StateFamine, 0.7, 50, 1, catalog.StateFamine},
		{"famine recovers", catalog.StateFamine, 0.95, 50, 1, catalog.StateStable},
		{"riot persists", catalog.StateRioting, 1, 35, 1, catalog.StateRioting},
		{"riot recovers", catalog.StateRioting, 1, 45, 1, catalog.StateStable},
		{"prosperity holds", catalog.StateProsperous, 1, 75, 1, catalog.StateProsperous},
		{"prosperity fades", catalog.StateProsperous, 1, 65, 1, catalog.StateStable},
		{"unknown state resets", "blockaded", 1, 50, 1, catalog.StateStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextState(tt.from, tt.food, tt.sol, tt.security); got != tt.want {
				t.Errorf("NextState = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFamineNotifies(t *testing.T) {
	f := newFixture(t, nil, 1000, catalog.FacilityHabitat, catalog.FacilityHabitat)
	f.population().Tick(1)
	if state := f.system(t).State; state != catalog.StateFamine {
		t.Fatalf("state = %s, want famine", state)
	}
	log := f.store.Get().Notifications
	if len(log) != 1 || log[0].Kind != "state" {
		t.Errorf("notifications = %+v", log)
	}
}

func TestConsumptionRates(t *testing.T) {
	f := newFixture(t, nil, 3000, catalog.FacilityHabitat)
	rates := f.population().ConsumptionRates(testSystem)
	if rates[catalog.Food] != 3 || !near(rates[catalog.LuxuryGoods], 0.3, eps) {
		t.Errorf("rates = %v", rates)
	}
	if got := f.population().ConsumptionRates("nowhere"); len(got) != 0 {
		t.Errorf("rates for unknown system = %v", got)
	}
}
