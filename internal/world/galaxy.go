// Package world provides the galaxy data model: star systems, celestial bodies,
// facilities and ships, plus the aggregate State that the store versions.
package world

import (
	"math"
	"slices"

	"github.com/talgya/idle-galaxy/internal/catalog"
)

// Entity identifiers.
type (
	SystemID   string
	BodyID     string
	FacilityID string
	ShipID     string
)

// Coordinates locate a system on the galactic plane, in light years from the home system.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceFromOrigin returns the straight-line distance to the home system.
func (c Coordinates) DistanceFromOrigin() float64 {
	return math.Hypot(c.X, c.Y)
}

// Distance returns the straight-line distance between two coordinates.
func Distance(a, b Coordinates) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Rarity grades how unusual a system is.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

// ResourceStock is a system's holding of one resource. 0 <= Amount <= Capacity.
type ResourceStock struct {
	Resource catalog.ResourceKind `json:"resource"`
	Amount   float64              `json:"amount"`
	Capacity float64              `json:"capacity"`
}

// Facility is a built production, habitation or trade structure.
type Facility struct {
	ID          FacilityID           `json:"id"`
	Kind        catalog.FacilityKind `json:"kind"`
	BodyID      BodyID               `json:"body_id"` // must agree with the owning body's FacilityIDs
	Level       int                  `json:"level"`
	Condition   float64              `json:"condition"` // 0-100
	Operational bool                 `json:"operational"`
}

// Clone returns a copy of f.
func (f *Facility) Clone() *Facility {
	cp := *f
	return &cp
}

// Body is a star, planet, moon or belt inside a system.
type Body struct {
	ID       BodyID           `json:"id"`
	SystemID SystemID         `json:"system_id"`
	Name     string           `json:"name"`
	Kind     catalog.BodyKind `json:"kind"`
	ParentID BodyID           `json:"parent_id,omitempty"`

	OrbitalSlots     int `json:"orbital_slots"`
	SurfaceSlots     int `json:"surface_slots"`
	UsedOrbitalSlots int `json:"used_orbital_slots"`
	UsedSurfaceSlots int `json:"used_surface_slots"`

	Features []catalog.Feature `json:"features"`
	Surveyed bool              `json:"surveyed"`

	// FacilityIDs is the authoritative body → facility link, in build order.
	FacilityIDs []FacilityID `json:"facility_ids"`

	Population        float64 `json:"population"`
	PopulationCeiling float64 `json:"population_ceiling"`
	PopulationFloor   float64 `json:"population_floor"`
}

// HasFeature reports whether the body carries the feature.
func (b *Body) HasFeature(f catalog.Feature) bool {
	return slices.Contains(b.Features, f)
}

// Clone returns a deep copy of b.
func (b *Body) Clone() *Body {
	cp := *b
	cp.Features = slices.Clone(b.Features)
	cp.FacilityIDs = slices.Clone(b.FacilityIDs)
	return &cp
}

// System is a star system: the unit that owns resource stocks and population.
type System struct {
	ID          SystemID    `json:"id"`
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	Rarity      Rarity      `json:"rarity"`
	Discovered  bool        `json:"discovered"`
	Surveyed    bool        `json:"surveyed"`
	BodyIDs     []BodyID    `json:"body_ids"`

	State            catalog.StateKind `json:"state"`
	TotalPopulation  float64           `json:"total_population"`
	TechLevel        int               `json:"tech_level"`
	SecurityLevel    int               `json:"security_level"`
	StandardOfLiving float64           `json:"standard_of_living"` // 0-100

	Resources       []ResourceStock `json:"resources"`
	StorageCapacity float64         `json:"storage_capacity"`

	HasTradeStation  bool `json:"has_trade_station"`
	TradeStationTier int  `json:"trade_station_tier"` // 0-3
	Colonized        bool `json:"colonized"`
}

// Stock returns the stock entry for a resource and its index, or -1.
func (s *System) Stock(kind catalog.ResourceKind) (ResourceStock, int) {
	for i, r := range s.Resources {
		if r.Resource == kind {
			return r, i
		}
	}
	return ResourceStock{Resource: kind, Capacity: s.StorageCapacity}, -1
}

// Amount returns the stocked quantity of a resource.
func (s *System) Amount(kind catalog.ResourceKind) float64 {
	r, _ := s.Stock(kind)
	return r.Amount
}

// Clone returns a deep copy of s.
func (s *System) Clone() *System {
	cp := *s
	cp.BodyIDs = slices.Clone(s.BodyIDs)
	cp.Resources = slices.Clone(s.Resources)
	return &cp
}

// ShipKind is the hull class of a ship.
type ShipKind string

const (
	ShipScout     ShipKind = "scout"
	ShipFreighter ShipKind = "freighter"
	ShipColony    ShipKind = "colony"
)

// Ship is a player vessel. Movement and missions belong to sibling subsystems.
type Ship struct {
	ID       ShipID   `json:"id"`
	Name     string   `json:"name"`
	Kind     ShipKind `json:"kind"`
	SystemID SystemID `json:"system_id"`
	Status   string   `json:"status"` // "idle", "in_transit", ...
}

// Clone returns a copy of s.
func (s *Ship) Clone() *Ship {
	cp := *s
	return &cp
}
