package world

import (
	"fmt"
	"time"

	"github.com/talgya/idle-galaxy/internal/balance"
	"github.com/talgya/idle-galaxy/internal/catalog"
)

// HomeSystemID is the id of the starting system of every new game.
const HomeSystemID SystemID = "sys-home"

// Starting configuration.
const (
	StartingCredits    = 1000.0
	StartingPopulation = 1000.0
)

var startingStock = []catalog.Amount{
	{Resource: catalog.Food, Quantity: 500},
	{Resource: catalog.Water, Quantity: 300},
	{Resource: catalog.ConsumerGoods, Quantity: 200},
	{Resource: catalog.IronOre, Quantity: 200},
	{Resource: catalog.Ice, Quantity: 200},
	{Resource: catalog.Metals, Quantity: 150},
}

type seedFacility struct {
	kind catalog.FacilityKind
	body BodyID
}

var startingFacilities = []seedFacility{
	{catalog.FacilityHabitat, "body-terra"},
	{catalog.FacilityFarm, "body-terra"},
	{catalog.FacilityWaterPurifier, "body-terra"},
	{catalog.FacilityMine, "body-luna"},
	{catalog.FacilityIceHarvester, "body-luna"},
}

// NewGame builds the deterministic starting galaxy: the home system at the
// origin with its bodies, starting facilities, stock and ships. The prestige
// record is carried into the new game. Body population limits are left for
// the population model to derive.
func NewGame(cat *catalog.Catalog, prestige Prestige, now time.Time) (*State, error) {
	st := NewState()
	st.Credits = StartingCredits
	st.Prestige = prestige
	st.LastPlayed = now
	st.HomeSystemID = HomeSystemID

	home := &System{
		ID:               HomeSystemID,
		Name:             "Sol",
		Rarity:           RarityCommon,
		Discovered:       true,
		Surveyed:         true,
		State:            catalog.StateStable,
		TotalPopulation:  StartingPopulation,
		TechLevel:        1,
		SecurityLevel:    1,
		StandardOfLiving: balance.BaseStandardOfLiving,
		StorageCapacity:  balance.StorageCapacityForTier(0),
		Colonized:        true,
	}
	for _, a := range startingStock {
		home.Resources = append(home.Resources, ResourceStock{
			Resource: a.Resource,
			Amount:   a.Quantity,
			Capacity: home.StorageCapacity,
		})
	}

	bodies := []*Body{
		{ID: "body-sol", Name: "Sol", Kind: catalog.BodyStar, OrbitalSlots: 2},
		{ID: "body-terra", Name: "Terra", Kind: catalog.BodyTerrestrial, SurfaceSlots: 6, OrbitalSlots: 2,
			Features: []catalog.Feature{catalog.FeatureHabitable, catalog.FeatureFertileSoil},
			Population: StartingPopulation},
		{ID: "body-luna", Name: "Luna", Kind: catalog.BodyMoon, ParentID: "body-terra", SurfaceSlots: 3, OrbitalSlots: 1,
			Features: []catalog.Feature{catalog.FeatureHighMetalContent, catalog.FeatureRichIce}},
		{ID: "body-jovian", Name: "Jovian", Kind: catalog.BodyGasGiant, OrbitalSlots: 3},
	}
	for _, b := range bodies {
		b.SystemID = home.ID
		b.Surveyed = true
		st.Bodies[b.ID] = b
		home.BodyIDs = append(home.BodyIDs, b.ID)
	}
	st.Systems[home.ID] = home

	for i, sf := range startingFacilities {
		def, ok := cat.Facility(sf.kind)
		if !ok {
			return nil, fmt.Errorf("starting facility %q missing from catalog", sf.kind)
		}
		b := st.Bodies[sf.body]
		if def.Slot == catalog.SlotSurface {
			b.UsedSurfaceSlots++
		} else {
			b.UsedOrbitalSlots++
		}
		if b.UsedSurfaceSlots > b.SurfaceSlots || b.UsedOrbitalSlots > b.OrbitalSlots {
			return nil, fmt.Errorf("starting facility %q does not fit on %s", sf.kind, b.ID)
		}
		f := &Facility{
			ID:          FacilityID(fmt.Sprintf("fac-home-%d", i+1)),
			Kind:        sf.kind,
			BodyID:      b.ID,
			Level:       1,
			Condition:   100,
			Operational: true,
		}
		st.Facilities[f.ID] = f
		b.FacilityIDs = append(b.FacilityIDs, f.ID)
	}

	for _, sh := range []*Ship{
		{ID: "ship-scout-1", Name: "Pathfinder", Kind: ShipScout},
		{ID: "ship-freighter-1", Name: "Mule", Kind: ShipFreighter},
	} {
		sh.SystemID = home.ID
		sh.Status = "idle"
		st.Ships[sh.ID] = sh
	}

	st.Statistics.PeakPopulation = StartingPopulation
	return st, nil
}
