package engine

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/store"
	"github.com/talgya/idle-galaxy/internal/world"
)

const eps = 1e-9

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

// testCatalog is a small deterministic catalog with round numbers.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	data := catalog.Data{
		Resources: []catalog.ResourceDef{
			{Kind: catalog.IronOre, Category: catalog.CategoryRaw},
			{Kind: catalog.Metals, Category: catalog.CategoryRefined},
			{Kind: catalog.Food, Category: catalog.CategoryRaw},
			{Kind: catalog.Hydrogen, Category: catalog.CategoryRaw},
			{Kind: catalog.LuxuryGoods, Category: catalog.CategoryAdvanced},
		},
		Facilities: []catalog.FacilityDef{
			{Kind: catalog.FacilityMine, Name: "Mine", Tier: catalog.TierExtraction, Slot: catalog.SlotSurface,
				Economy: catalog.EconomyMining,
				Recipe:  catalog.Recipe{Kind: catalog.RecipeExtraction, Output: catalog.IronOre, BaseRate: 100},
				Cost:    catalog.Cost{Credits: 50}, PopulationFloor: 10, PopulationCeiling: 100},
			{Kind: catalog.FacilitySmelter, Name: "Smelter", Tier: catalog.TierRefining, Slot: catalog.SlotSurface,
				Economy: catalog.EconomyRefining,
				Recipe: catalog.Recipe{Kind: catalog.RecipeConversion, Output: catalog.Metals, Throughput: 200, Efficiency: 0.5,
					Inputs: []catalog.Input{{Resource: catalog.IronOre, Ratio: 1}}},
				Cost: catalog.Cost{Credits: 100, Resources: []catalog.Amount{
					{Resource: catalog.Metals, Quantity: 10}, {Resource: catalog.IronOre, Quantity: 5}}},
				PopulationFloor: 10, PopulationCeiling: 100},
			{Kind: catalog.FacilityHabitat, Name: "Habitat", Tier: catalog.TierExtraction, Slot: catalog.SlotSurface,
				Economy: catalog.EconomyHabitation, PopulationFloor: 100, PopulationCeiling: 1000},
			{Kind: catalog.FacilityMedicalCenter, Name: "Medical Center", Tier: catalog.TierProcessing, Slot: catalog.SlotSurface,
				Economy: catalog.EconomyMedical, SoLBonus: 0.05},
			{Kind: catalog.FacilityGasHarvester, Name: "Gas Harvester", Tier: catalog.TierExtraction, Slot: catalog.SlotOrbital,
				Economy: catalog.EconomyMining, RequiresBody: []catalog.BodyKind{catalog.BodyGasGiant},
				Recipe: catalog.Recipe{Kind: catalog.RecipeExtraction, Output: catalog.Hydrogen, BaseRate: 10}},
			{Kind: catalog.FacilityOreExcavator, Name: "Ore Excavator", Tier: catalog.TierExtraction, Slot: catalog.SlotSurface,
				Economy: catalog.EconomyMining, RequiresFeature: catalog.FeatureHighMetalContent,
				Recipe: catalog.Recipe{Kind: catalog.RecipeExtraction, Output: catalog.IronOre, BaseRate: 300}},
			{Kind: catalog.FacilityStellarSkimmer, Name: "Stellar Skimmer", Tier: catalog.TierExtraction, Slot: catalog.SlotStellar,
				Economy: catalog.EconomyMining,
				Recipe:  catalog.Recipe{Kind: catalog.RecipeExtraction, Output: catalog.Hydrogen, BaseRate: 50}},
			{Kind: catalog.FacilityTradePost, Name: "Trade Post", Tier: catalog.TierRefining, Slot: catalog.SlotOrbital,
				Economy: catalog.EconomyCommerce, TradeTier: 1},
			{Kind: catalog.FacilityTradeHub, Name: "Trade Hub", Tier: catalog.TierProcessing, Slot: catalog.SlotOrbital,
				Economy: catalog.EconomyCommerce, TradeTier: 2},
		},
		Bodies: []catalog.BodyDef{
			{Kind: catalog.BodyStar, HasSurface: false, PopulationMultiplier: 0.1},
			{Kind: catalog.BodyTerrestrial, HasSurface: true, PopulationMultiplier: 1},
			{Kind: catalog.BodyGasGiant, HasSurface: false, PopulationMultiplier: 0.3},
		},
		Features: []catalog.FeatureDef{
			{Kind: catalog.FeatureHighMetalContent, Name: "High Metal Content",
				Bonuses: map[catalog.EconomyKind]float64{catalog.EconomyMining: 0.25}},
			{Kind: catalog.FeatureHabitable, Name: "Habitable", Habitability: 0.25},
		},
		States: catalog.DefaultData().States,
		Consumption: []catalog.ConsumptionDef{
			{Resource: catalog.Food, PerThousandPerHour: 1, Required: true},
			{Resource: catalog.LuxuryGoods, PerThousandPerHour: 0.1, SoLBonus: 5, PullBonus: 0.05},
		},
	}
	cat, err := catalog.New(data)
	if err != nil {
		t.Fatalf("test catalog: %v", err)
	}
	return cat
}

const (
	testSystem world.SystemID = "sys"
	planet     world.BodyID   = "planet"
	star       world.BodyID   = "star"
	giant      world.BodyID   = "giant"
)

type fixture struct {
	store *store.Store
	cat   *catalog.Catalog
	now   time.Time
}

// newFixture builds one colonized system at the origin with a planet, a star
// and a gas giant. The listed facilities are placed on the planet in order.
func newFixture(t *testing.T, stock map[catalog.ResourceKind]float64, population float64, kinds ...catalog.FacilityKind) *fixture {
	t.Helper()
	cat := testCatalog(t)
	st := world.NewState()
	st.Credits = 1000
	sys := &world.System{
		ID:              testSystem,
		Name:            "Testbed",
		State:           catalog.StateStable,
		TotalPopulation: population,
		StorageCapacity: 10000,
		Colonized:       true,
		BodyIDs:         []world.BodyID{planet, star, giant},
	}
	for kind, amount := range stock {
		sys.Resources = append(sys.Resources, world.ResourceStock{Resource: kind, Amount: amount, Capacity: 10000})
	}
	st.Systems[sys.ID] = sys
	st.Bodies[planet] = &world.Body{ID: planet, SystemID: testSystem, Name: "Planet", Kind: catalog.BodyTerrestrial,
		SurfaceSlots: 6, OrbitalSlots: 2, Surveyed: true, Population: population}
	st.Bodies[star] = &world.Body{ID: star, SystemID: testSystem, Name: "Star", Kind: catalog.BodyStar,
		OrbitalSlots: 2, Surveyed: true}
	st.Bodies[giant] = &world.Body{ID: giant, SystemID: testSystem, Name: "Giant", Kind: catalog.BodyGasGiant,
		OrbitalSlots: 2, Surveyed: true}

	for i, kind := range kinds {
		def, ok := cat.Facility(kind)
		if !ok {
			t.Fatalf("fixture facility %s not in catalog", kind)
		}
		f := &world.Facility{ID: world.FacilityID(fmt.Sprintf("f%d", i+1)), Kind: kind, BodyID: planet,
			Level: 1, Condition: 100, Operational: true}
		st.Facilities[f.ID] = f
		b := st.Bodies[planet]
		b.FacilityIDs = append(b.FacilityIDs, f.ID)
		if def.Slot == catalog.SlotSurface {
			b.UsedSurfaceSlots++
		} else {
			b.UsedOrbitalSlots++
		}
	}

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := store.New(st)
	s.Now = func() time.Time { return now }
	return &fixture{store: s, cat: cat, now: now}
}

func (f *fixture) system(t *testing.T) *world.System {
	t.Helper()
	sys, ok := f.store.Get().System(testSystem)
	if !ok {
		t.Fatal("test system missing")
	}
	return sys
}

func (f *fixture) amount(t *testing.T, kind catalog.ResourceKind) float64 {
	t.Helper()
	return f.system(t).Amount(kind)
}

func (f *fixture) production() *Production { return NewProduction(f.store, f.cat) }
func (f *fixture) population() *Population { return NewPopulation(f.store, f.cat) }
func (f *fixture) construction() *Construction {
	c := NewConstruction(f.store, f.cat)
	n := 0
	c.NewID = func() world.FacilityID {
		n++
		return world.FacilityID(fmt.Sprintf("built-%d", n))
	}
	return c
}
