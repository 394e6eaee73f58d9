package engine

import (
	"testing"

	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/world"
)

func TestMineAndSmelterSingleTick(t *testing.T) {
	f := newFixture(t, map[catalog.ResourceKind]float64{catalog.IronOre: 1000}, 0,
		catalog.FacilityMine, catalog.FacilitySmelter)

	f.production().Tick(1.0)

	metals := f.amount(t, catalog.Metals)
	if metals <= 0 || metals > 200*0.5+eps {
		t.Errorf("metals = %v, want in (0, 100]", metals)
	}
	// +100 mined, -200 smelted.
	if ore := f.amount(t, catalog.IronOre); !near(ore, 900, eps) {
		t.Errorf("ore = %v, want 900", ore)
	}
}

func TestConversionSeesSameTickExtraction(t *testing.T) {
	// Smelter is listed first on the body; tier order must still run the mine first.
	f := newFixture(t, nil, 0, catalog.FacilitySmelter, catalog.FacilityMine)

	f.production().Tick(1.0)

	if metals := f.amount(t, catalog.Metals); !near(metals, 50, eps) {
		t.Errorf("metals = %v, want 50 (half throughput from 100 fresh ore)", metals)
	}
	if ore := f.amount(t, catalog.IronOre); ore < 0 || ore > eps {
		t.Errorf("ore = %v, want 0", ore)
	}
}

func TestConversionWithoutInputProducesNothing(t *testing.T) {
	f := newFixture(t, nil, 0, catalog.FacilitySmelter)
	f.production().Tick(1.0)
	if metals := f.amount(t, catalog.Metals); metals != 0 {
		t.Errorf("metals = %v, want 0", metals)
	}
}

func TestConversionNeverExceedsNominalOutput(t *testing.T) {
	for _, dt := range []float64{0.001, 0.1, 1, 24, 1000} {
		f := newFixture(t, map[catalog.ResourceKind]float64{catalog.IronOre: 7}, 0, catalog.FacilitySmelter)
		f.production().Tick(dt)
		metals := f.amount(t, catalog.Metals)
		if metals > 200*0.5*dt+eps {
			t.Errorf("dt=%v: metals = %v exceeds throughput × efficiency × dt", dt, metals)
		}
		if ore := f.amount(t, catalog.IronOre); ore < 0 {
			t.Errorf("dt=%v: ore went negative (%v)", dt, ore)
		}
		if metals > 7*0.5+eps {
			t.Errorf("dt=%v: metals = %v exceeds what 7 ore can yield", dt, metals)
		}
	}
}

func TestExtractionClampedToCapacity(t *testing.T) {
	f := newFixture(t, map[catalog.ResourceKind]float64{catalog.IronOre: 9990}, 0, catalog.FacilityMine)
	f.production().Tick(1.0)
	if ore := f.amount(t, catalog.IronOre); ore != 10000 {
		t.Errorf("ore = %v, want capacity 10000", ore)
	}
}

func TestProductionModifiers(t *testing.T) {
	tests := []struct {
		name   string
		state  catalog.StateKind
		pop    float64
		tokens int
		want   float64
	}{
		{"baseline", catalog.StateStable, 0, 0, 100},
		{"famine", catalog.StateFamine, 0, 0, 70},
		{"prosperous", catalog.StateProsperous, 0, 0, 125},
		{"population 10k", catalog.StateStable, 10000, 0, 200},
		{"prestige", catalog.StateStable, 0, 5, 110},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, tt.pop, catalog.FacilityMine)
			_ = f.store.UpdateSystem(testSystem, func(s *world.System) { s.State = tt.state })
			f.store.UpdatePrestige(func(p *world.Prestige) { p.Tokens = tt.tokens })

			f.production().Tick(1.0)

			if ore := f.amount(t, catalog.IronOre); !near(ore, tt.want, 1e-6) {
				t.Errorf("ore = %v, want %v", ore, tt.want)
			}
		})
	}
}

func TestFeatureBonusAppliesByEconomy(t *testing.T) {
	f := newFixture(t, nil, 0, catalog.FacilityMine)
	_ = f.store.UpdateBody(planet, func(b *world.Body) {
		b.Features = []catalog.Feature{catalog.FeatureHighMetalContent}
	})
	f.production().Tick(1.0)
	if ore := f.amount(t, catalog.IronOre); !near(ore, 125, 1e-9) {
		t.Errorf("ore = %v, want 125", ore)
	}
}

func TestExternalPrestigeMultiplier(t *testing.T) {
	f := newFixture(t, nil, 0, catalog.FacilityMine)
	p := f.production()
	p.Prestige = func(*world.State) float64 { return 3 }
	p.Tick(1.0)
	if ore := f.amount(t, catalog.IronOre); !near(ore, 300, 1e-9) {
		t.Errorf("ore = %v, want 300", ore)
	}
}

func TestIdleFacilitiesAndSystems(t *testing.T) {
	f := newFixture(t, nil, 0, catalog.FacilityMine)
	_ = f.store.UpdateFacility("f1", func(fac *world.Facility) { fac.Operational = false })
	f.production().Tick(1.0)
	if ore := f.amount(t, catalog.IronOre); ore != 0 {
		t.Errorf("non-operational mine produced %v", ore)
	}

	g := newFixture(t, nil, 0, catalog.FacilityMine)
	_ = g.store.UpdateSystem(testSystem, func(s *world.System) { s.Colonized = false })
	g.production().Tick(1.0)
	if ore := g.amount(t, catalog.IronOre); ore != 0 {
		t.Errorf("uncolonized system produced %v", ore)
	}
}

func TestNonPositiveDeltaIsNoop(t *testing.T) {
	f := newFixture(t, nil, 0, catalog.FacilityMine)
	before := f.store.Get()
	f.production().Tick(0)
	f.production().Tick(-1)
	if f.store.Get() != before {
		t.Error("zero or negative delta published a new state")
	}
}

func TestReportIsGross(t *testing.T) {
	f := newFixture(t, nil, 0, catalog.FacilityMine, catalog.FacilitySmelter)
	rep, ok := f.production().Report(testSystem)
	if !ok {
		t.Fatal("report missing")
	}
	if rep.Gross[catalog.IronOre] != 100 || rep.Gross[catalog.Metals] != 100 {
		t.Errorf("gross = %v", rep.Gross)
	}
	if rep.Draw[catalog.IronOre] != 200 {
		t.Errorf("draw = %v", rep.Draw)
	}
	if _, ok := f.production().Report("nowhere"); ok {
		t.Error("report for unknown system")
	}
}
