package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/world"
)

func TestBuildDebitsAndAttaches(t *testing.T) {
	f := newFixture(t, nil, 0)
	c := f.construction()
	var changed []world.SystemID
	c.OnChange = func(id world.SystemID) { changed = append(changed, id) }

	res := c.Build(catalog.FacilityMine, planet)
	if !res.OK || res.FacilityID != "built-1" {
		t.Fatalf("Build = %+v", res)
	}
	st := f.store.Get()
	if st.Credits != 950 {
		t.Errorf("credits = %v, want 950", st.Credits)
	}
	b, _ := st.Body(planet)
	if b.UsedSurfaceSlots != 1 || len(b.FacilityIDs) != 1 || b.FacilityIDs[0] != "built-1" {
		t.Errorf("body = %+v", b)
	}
	fac, ok := st.Facility("built-1")
	if !ok || !fac.Operational || fac.Level != 1 || fac.Condition != 100 {
		t.Errorf("facility = %+v", fac)
	}
	if st.Statistics.FacilitiesBuilt != 1 {
		t.Errorf("facilities built = %d", st.Statistics.FacilitiesBuilt)
	}
	if len(st.Notifications) != 1 || st.Notifications[0].Title != "Construction complete" {
		t.Errorf("notifications = %+v", st.Notifications)
	}
	if len(changed) != 1 || changed[0] != testSystem {
		t.Errorf("OnChange calls = %v", changed)
	}
}

func TestBuildShortOneUnitChangesNothing(t *testing.T) {
	f := newFixture(t, map[catalog.ResourceKind]float64{catalog.Metals: 9, catalog.IronOre: 10}, 0)
	before := f.store.Get()

	res := f.construction().Build(catalog.FacilitySmelter, planet)
	if res.OK {
		t.Fatal("build succeeded one metal short")
	}
	if !strings.Contains(res.Reason, string(catalog.Metals)) {
		t.Errorf("reason = %q", res.Reason)
	}
	st := f.store.Get()
	if st.Credits != before.Credits || f.amount(t, catalog.Metals) != 9 || f.amount(t, catalog.IronOre) != 10 {
		t.Errorf("state changed: credits %v metals %v ore %v",
			st.Credits, f.amount(t, catalog.Metals), f.amount(t, catalog.IronOre))
	}
	if len(st.Facilities) != 0 {
		t.Errorf("facilities = %v", st.Facilities)
	}
	if st.Statistics.FailedBuilds != 1 {
		t.Errorf("failed builds = %d", st.Statistics.FailedBuilds)
	}
}

func TestBuildRollsBackWhenStockDrainsMidPurchase(t *testing.T) {
	f := newFixture(t, map[catalog.ResourceKind]float64{catalog.Metals: 10, catalog.IronOre: 5}, 0)
	c := f.construction()
	c.beforeResourceDebit = func() {
		if !f.store.RemoveResource(testSystem, catalog.IronOre, 5) {
			t.Error("hook could not drain ore")
		}
	}

	res := c.Build(catalog.FacilitySmelter, planet)
	if res.OK {
		t.Fatal("build succeeded after ore was drained")
	}
	st := f.store.Get()
	if st.Credits != 1000 {
		t.Errorf("credits = %v, want refunded 1000", st.Credits)
	}
	if metals := f.amount(t, catalog.Metals); metals != 10 {
		t.Errorf("metals = %v, want refunded 10", metals)
	}
	if ore := f.amount(t, catalog.IronOre); ore != 0 {
		t.Errorf("ore = %v, want 0 (taken by the hook)", ore)
	}
	if len(st.Facilities) != 0 {
		t.Errorf("facility created: %v", st.Facilities)
	}
	if len(st.Notifications) != 1 || st.Notifications[0].Title != "Construction failed" {
		t.Errorf("notifications = %+v", st.Notifications)
	}
}

func TestBuildRejectsInvalidPlacement(t *testing.T) {
	f := newFixture(t, nil, 0)
	res := f.construction().Build(catalog.FacilityMine, star)
	if res.OK || res.Reason == "" {
		t.Errorf("Build on star = %+v", res)
	}
	if f.store.Get().Credits != 1000 {
		t.Error("credits debited for a rejected build")
	}
}

func TestCanBuild(t *testing.T) {
	tests := []struct {
		name  string
		kind  catalog.FacilityKind
		body  world.BodyID
		setup func(*fixture)
		ok    bool
	}{
		{"mine on planet", catalog.FacilityMine, planet, nil, true},
		{"unknown kind", "warp_gate", planet, nil, false},
		{"unknown body", catalog.FacilityMine, "nowhere", nil, false},
		{"surface on star", catalog.FacilityMine, star, nil, false},
		{"surface on gas giant", catalog.FacilityMine, giant, nil, false},
		{"gas harvester on giant", catalog.FacilityGasHarvester, giant, nil, true},
		{"gas harvester on planet", catalog.FacilityGasHarvester, planet, nil, false},
		{"skimmer on star", catalog.FacilityStellarSkimmer, star, nil, true},
		{"skimmer on planet", catalog.FacilityStellarSkimmer, planet, nil, false},
		{"orbital on star", catalog.FacilityTradePost, star, nil, false},
		{"excavator without feature", catalog.FacilityOreExcavator, planet, nil, false},
		{"excavator with feature", catalog.FacilityOreExcavator, planet, func(f *fixture) {
			_ = f.store.UpdateBody(planet, func(b *world.Body) {
				b.Features = []catalog.Feature{catalog.FeatureHighMetalContent}
			})
		}, true},
		{"unsurveyed", catalog.FacilityMine, planet, func(f *fixture) {
			_ = f.store.UpdateBody(planet, func(b *world.Body) { b.Surveyed = false })
		}, false},
		{"surface full", catalog.FacilityMine, planet, func(f *fixture) {
			_ = f.store.UpdateBody(planet, func(b *world.Body) { b.UsedSurfaceSlots = b.SurfaceSlots })
		}, false},
		{"orbit full", catalog.FacilityTradePost, planet, func(f *fixture) {
			_ = f.store.UpdateBody(planet, func(b *world.Body) { b.UsedOrbitalSlots = b.OrbitalSlots })
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, 0)
			if tt.setup != nil {
				tt.setup(f)
			}
			chk := f.construction().CanBuild(tt.kind, tt.body)
			if chk.OK != tt.ok {
				t.Errorf("CanBuild = %+v, want ok=%v", chk, tt.ok)
			}
			if !chk.OK && chk.Reason == "" {
				t.Error("failed check without a reason")
			}
		})
	}
}

func TestCostMultiplier(t *testing.T) {
	if got := CostMultiplier(0, 0); got != 1 {
		t.Errorf("CostMultiplier(0, 0) = %v", got)
	}
	if got, want := CostMultiplier(10, 3), math.Pow(1.03, 10)*math.Pow(1.06, 3); !near(got, want, 1e-12) {
		t.Errorf("CostMultiplier(10, 3) = %v, want %v", got, want)
	}
}

func TestCostRoundsUpWithFacilityCount(t *testing.T) {
	f := newFixture(t, nil, 0, catalog.FacilityMine, catalog.FacilityMine)
	q, ok := f.construction().Cost(catalog.FacilitySmelter, planet)
	if !ok {
		t.Fatal("no quote")
	}
	// 1.06² = 1.1236
	if q.Credits != 113 {
		t.Errorf("credits = %v, want 113", q.Credits)
	}
	want := map[catalog.ResourceKind]float64{catalog.Metals: 12, catalog.IronOre: 6}
	for _, rq := range q.Resources {
		if rq.Amount != want[rq.Resource] {
			t.Errorf("%s = %v, want %v", rq.Resource, rq.Amount, want[rq.Resource])
		}
	}
	if q.Affordable || !q.CreditsAffordable {
		t.Errorf("affordability = %+v", q)
	}
	if _, ok := f.construction().Cost(catalog.FacilitySmelter, "nowhere"); ok {
		t.Error("quote for unknown body")
	}
}

func TestCostGrowsWithDistance(t *testing.T) {
	f := newFixture(t, nil, 0)
	_ = f.store.UpdateSystem(testSystem, func(s *world.System) { s.Coordinates = world.Coordinates{X: 30, Y: 40} })
	q, _ := f.construction().Cost(catalog.FacilityMine, planet)
	if want := math.Ceil(50 * math.Pow(1.03, 50)); q.Credits != want {
		t.Errorf("credits = %v, want %v", q.Credits, want)
	}
}

func TestTradeTierRaisesAndRecomputes(t *testing.T) {
	f := newFixture(t, map[catalog.ResourceKind]float64{catalog.IronOre: 100}, 0)
	c := f.construction()

	hub := c.Build(catalog.FacilityTradeHub, planet)
	if !hub.OK {
		t.Fatalf("build hub: %s", hub.Reason)
	}
	sys := f.system(t)
	if sys.TradeStationTier != 2 || !sys.HasTradeStation || sys.StorageCapacity != 25000 {
		t.Fatalf("after hub: tier %d station %v capacity %v", sys.TradeStationTier, sys.HasTradeStation, sys.StorageCapacity)
	}
	if stock, _ := sys.Stock(catalog.IronOre); stock.Capacity != 25000 {
		t.Errorf("ore capacity = %v", stock.Capacity)
	}

	post := c.Build(catalog.FacilityTradePost, planet)
	if !post.OK {
		t.Fatalf("build post: %s", post.Reason)
	}
	if tier := f.system(t).TradeStationTier; tier != 2 {
		t.Errorf("lower tier build changed tier to %d", tier)
	}

	f.store.AddResource(testSystem, catalog.IronOre, 20000)
	if chk := c.Demolish(hub.FacilityID); !chk.OK {
		t.Fatalf("demolish hub: %s", chk.Reason)
	}
	sys = f.system(t)
	if sys.TradeStationTier != 1 || sys.StorageCapacity != 15000 {
		t.Errorf("after demolish: tier %d capacity %v", sys.TradeStationTier, sys.StorageCapacity)
	}
	if ore := sys.Amount(catalog.IronOre); ore != 15000 {
		t.Errorf("ore = %v, want clamped to 15000", ore)
	}

	if chk := c.Demolish(post.FacilityID); !chk.OK {
		t.Fatalf("demolish post: %s", chk.Reason)
	}
	sys = f.system(t)
	if sys.TradeStationTier != 0 || sys.HasTradeStation || sys.StorageCapacity != 10000 {
		t.Errorf("after last station: tier %d station %v capacity %v", sys.TradeStationTier, sys.HasTradeStation, sys.StorageCapacity)
	}
	b, _ := f.store.Get().Body(planet)
	if b.UsedOrbitalSlots != 0 || len(b.FacilityIDs) != 0 {
		t.Errorf("slots not freed: %+v", b)
	}
	if n := f.store.Get().Statistics.FacilitiesDemolished; n != 2 {
		t.Errorf("demolished = %d", n)
	}
}

func TestDemolishUnknown(t *testing.T) {
	f := newFixture(t, nil, 0)
	if chk := f.construction().Demolish("ghost"); chk.OK || chk.Reason == "" {
		t.Errorf("Demolish = %+v", chk)
	}
}

func TestDemolishShrinksPopulationCeiling(t *testing.T) {
	f := newFixture(t, map[catalog.ResourceKind]float64{catalog.Food: 1e4}, 1500, catalog.FacilityHabitat, catalog.FacilityHabitat)
	pop := f.population()
	c := f.construction()
	c.OnChange = pop.Refresh
	pop.Refresh(testSystem)

	if chk := c.Demolish("f2"); !chk.OK {
		t.Fatalf("demolish: %s", chk.Reason)
	}
	if got := f.system(t).TotalPopulation; got != 1000 {
		t.Errorf("population = %v, want clamped to the remaining ceiling 1000", got)
	}
}
