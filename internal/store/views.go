package store

import (
	"slices"

	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/world"
)

// Derived read views. They are recomputed from a snapshot on every call.

// StockView is one resource line of a system summary.
type StockView struct {
	Resource catalog.ResourceKind `json:"resource"`
	Amount   float64              `json:"amount"`
	Capacity float64              `json:"capacity"`
	Fill     float64              `json:"fill"` // 0-1
}

// SystemSummary is the per-system projection shown by the presentation layer.
type SystemSummary struct {
	ID               world.SystemID    `json:"id"`
	Name             string            `json:"name"`
	State            catalog.StateKind `json:"state"`
	Colonized        bool              `json:"colonized"`
	Population       float64           `json:"population"`
	PopulationFloor  float64           `json:"population_floor"`
	PopulationCeil   float64           `json:"population_ceiling"`
	StandardOfLiving float64           `json:"standard_of_living"`
	Bodies           int               `json:"bodies"`
	Facilities       int               `json:"facilities"`
	TradeTier        int               `json:"trade_tier"`
	Distance         float64           `json:"distance"`
	Stocks           []StockView       `json:"stocks"`
}

// Summarize projects one system of st.
func Summarize(st *world.State, id world.SystemID) (SystemSummary, bool) {
	sys, ok := st.System(id)
	if !ok {
		return SystemSummary{}, false
	}
	sum := SystemSummary{
		ID:               sys.ID,
		Name:             sys.Name,
		State:            sys.State,
		Colonized:        sys.Colonized,
		Population:       sys.TotalPopulation,
		StandardOfLiving: sys.StandardOfLiving,
		TradeTier:        sys.TradeStationTier,
		Distance:         sys.Coordinates.DistanceFromOrigin(),
	}
	for _, b := range st.SystemBodies(id) {
		sum.Bodies++
		sum.Facilities += len(b.FacilityIDs)
		sum.PopulationFloor += b.PopulationFloor
		sum.PopulationCeil += b.PopulationCeiling
	}
	for _, r := range sys.Resources {
		v := StockView{Resource: r.Resource, Amount: r.Amount, Capacity: r.Capacity}
		if r.Capacity > 0 {
			v.Fill = r.Amount / r.Capacity
		}
		sum.Stocks = append(sum.Stocks, v)
	}
	slices.SortFunc(sum.Stocks, func(a, b StockView) int {
		switch {
		case a.Resource < b.Resource:
			return -1
		case a.Resource > b.Resource:
			return 1
		}
		return 0
	})
	return sum, true
}

// Summaries projects every system of st, sorted by id.
func Summaries(st *world.State) []SystemSummary {
	ids := st.SystemIDs()
	out := make([]SystemSummary, 0, len(ids))
	for _, id := range ids {
		sum, _ := Summarize(st, id)
		out = append(out, sum)
	}
	return out
}

// GalaxyTotals are the headline numbers of the whole game.
type GalaxyTotals struct {
	Credits    float64 `json:"credits"`
	Population float64 `json:"population"`
	Systems    int     `json:"systems"`
	Colonized  int     `json:"colonized"`
	Facilities int     `json:"facilities"`
	Ships      int     `json:"ships"`
	Unread     int     `json:"unread"`
}

// Totals computes galaxy-wide totals of st.
func Totals(st *world.State) GalaxyTotals {
	return GalaxyTotals{
		Credits:    st.Credits,
		Population: st.TotalPopulation(),
		Systems:    len(st.Systems),
		Colonized:  len(st.ColonizedSystemIDs()),
		Facilities: len(st.Facilities),
		Ships:      len(st.Ships),
		Unread:     len(st.UnreadNotifications()),
	}
}

// FacilitiesByTier returns a system's facilities sorted ascending by catalog
// tier. Facilities of equal tier keep body order then build order. Facilities
// whose kind is missing from the catalog sort last.
func FacilitiesByTier(st *world.State, cat *catalog.Catalog, id world.SystemID) []*world.Facility {
	fs := st.SystemFacilities(id)
	tier := func(f *world.Facility) catalog.Tier {
		if def, ok := cat.Facility(f.Kind); ok {
			return def.Tier
		}
		return catalog.TierHighTech + 1
	}
	slices.SortStableFunc(fs, func(a, b *world.Facility) int {
		return int(tier(a)) - int(tier(b))
	})
	return fs
}
