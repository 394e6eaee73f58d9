package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Data is the raw, mutable form of a catalog, used to build one and to decode overrides.
type Data struct {
	Resources   []ResourceDef    `yaml:"resources"`
	Facilities  []FacilityDef    `yaml:"facilities"`
	Bodies      []BodyDef        `yaml:"bodies"`
	Features    []FeatureDef     `yaml:"features"`
	States      []StateDef       `yaml:"states"`
	Consumption []ConsumptionDef `yaml:"consumption"`
}

// Catalog is an immutable lookup table over the game's static data.
// Accessors return copies so callers can never alter the table.
type Catalog struct {
	resources   map[ResourceKind]ResourceDef
	facilities  map[FacilityKind]FacilityDef
	bodies      map[BodyKind]BodyDef
	features    map[Feature]FeatureDef
	states      map[StateKind]StateDef
	consumption []ConsumptionDef
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := New(DefaultData())
	if err != nil {
		panic(fmt.Sprintf("default catalog invalid: %v", err))
	}
	return c
})

// Default returns the built-in catalog. It is constructed once per process.
func Default() *Catalog {
	return defaultCatalog()
}

// New validates d and builds a Catalog from it.
func New(d Data) (*Catalog, error) {
	c := &Catalog{
		resources:  make(map[ResourceKind]ResourceDef, len(d.Resources)),
		facilities: make(map[FacilityKind]FacilityDef, len(d.Facilities)),
		bodies:     make(map[BodyKind]BodyDef, len(d.Bodies)),
		features:   make(map[Feature]FeatureDef, len(d.Features)),
		states:     make(map[StateKind]StateDef, len(d.States)),
	}
	for _, r := range d.Resources {
		if r.Kind == "" {
			return nil, errors.New("resource with empty kind")
		}
		c.resources[r.Kind] = r
	}
	for _, b := range d.Bodies {
		c.bodies[b.Kind] = b
	}
	for _, f := range d.Features {
		c.features[f.Kind] = cloneFeature(f)
	}
	for _, s := range d.States {
		c.states[s.Kind] = s
	}
	for _, f := range d.Facilities {
		if err := c.validateFacility(f); err != nil {
			return nil, fmt.Errorf("facility %q: %w", f.Kind, err)
		}
		c.facilities[f.Kind] = cloneFacility(f)
	}
	for _, cd := range d.Consumption {
		if _, ok := c.resources[cd.Resource]; !ok {
			return nil, fmt.Errorf("consumption of unknown resource %q", cd.Resource)
		}
		if cd.PerThousandPerHour < 0 {
			return nil, fmt.Errorf("consumption of %q: negative rate", cd.Resource)
		}
		c.consumption = append(c.consumption, cd)
	}
	return c, nil
}

func (c *Catalog) validateFacility(f FacilityDef) error {
	if f.Kind == "" {
		return errors.New("empty kind")
	}
	if f.Tier < TierExtraction || f.Tier > TierHighTech {
		return fmt.Errorf("tier %d out of range", f.Tier)
	}
	switch f.Slot {
	case SlotSurface, SlotOrbital, SlotStellar:
	default:
		return fmt.Errorf("unknown slot type %q", f.Slot)
	}
	if f.TradeTier < 0 || f.TradeTier > 3 {
		return fmt.Errorf("trade tier %d out of range", f.TradeTier)
	}
	r := f.Recipe
	switch r.Kind {
	case RecipeNone:
	case RecipeExtraction:
		if r.BaseRate <= 0 {
			return errors.New("extraction needs a positive base rate")
		}
		if _, ok := c.resources[r.Output]; !ok {
			return fmt.Errorf("unknown output %q", r.Output)
		}
	case RecipeConversion:
		if r.Throughput <= 0 || r.Efficiency <= 0 {
			return errors.New("conversion needs positive throughput and efficiency")
		}
		if len(r.Inputs) == 0 {
			return errors.New("conversion without inputs")
		}
		if _, ok := c.resources[r.Output]; !ok {
			return fmt.Errorf("unknown output %q", r.Output)
		}
		for _, in := range r.Inputs {
			if in.Ratio <= 0 {
				return fmt.Errorf("input %q: ratio must be positive", in.Resource)
			}
			if _, ok := c.resources[in.Resource]; !ok {
				return fmt.Errorf("unknown input %q", in.Resource)
			}
		}
	default:
		return fmt.Errorf("unknown recipe kind %q", r.Kind)
	}
	for _, a := range f.Cost.Resources {
		if _, ok := c.resources[a.Resource]; !ok {
			return fmt.Errorf("cost in unknown resource %q", a.Resource)
		}
	}
	return nil
}

// Resource returns the definition of a resource.
func (c *Catalog) Resource(kind ResourceKind) (ResourceDef, bool) {
	r, ok := c.resources[kind]
	return r, ok
}

// Resources returns every resource, ordered by category then kind.
func (c *Catalog) Resources() []ResourceDef {
	out := make([]ResourceDef, 0, len(c.resources))
	for _, r := range c.resources {
		out = append(out, r)
	}
	order := map[Category]int{
		CategoryRaw: 0, CategoryRefined: 1, CategoryProcessed: 2, CategoryAdvanced: 3, CategoryHighTech: 4,
	}
	sort.Slice(out, func(i, j int) bool {
		if order[out[i].Category] != order[out[j].Category] {
			return order[out[i].Category] < order[out[j].Category]
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Facility returns the definition of a facility kind.
func (c *Catalog) Facility(kind FacilityKind) (FacilityDef, bool) {
	f, ok := c.facilities[kind]
	if !ok {
		return FacilityDef{}, false
	}
	return cloneFacility(f), true
}

// Facilities returns every facility definition ordered by tier then kind.
func (c *Catalog) Facilities() []FacilityDef {
	out := make([]FacilityDef, 0, len(c.facilities))
	for _, f := range c.facilities {
		out = append(out, cloneFacility(f))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Body returns the definition of a body kind.
func (c *Catalog) Body(kind BodyKind) (BodyDef, bool) {
	b, ok := c.bodies[kind]
	return b, ok
}

// Feature returns the definition of a body feature.
func (c *Catalog) Feature(kind Feature) (FeatureDef, bool) {
	f, ok := c.features[kind]
	if !ok {
		return FeatureDef{}, false
	}
	return cloneFeature(f), true
}

// State returns the effects of a system state. Unknown states have no effect.
func (c *Catalog) State(kind StateKind) StateDef {
	if s, ok := c.states[kind]; ok {
		return s
	}
	return StateDef{Kind: kind, Name: string(kind)}
}

// Consumption returns the population consumption table.
func (c *Catalog) Consumption() []ConsumptionDef {
	return append([]ConsumptionDef(nil), c.consumption...)
}

// FeatureBonus returns the combined production multiplier the given features grant
// to an economy kind. Bonuses from several features multiply.
func (c *Catalog) FeatureBonus(features []Feature, economy EconomyKind) float64 {
	mult := 1.0
	for _, f := range features {
		def, ok := c.features[f]
		if !ok {
			continue
		}
		if b, ok := def.Bonuses[economy]; ok {
			mult *= 1 + b
		}
	}
	return mult
}

// Habitability returns the largest habitability bonus among the given features.
func (c *Catalog) Habitability(features []Feature) float64 {
	best := 0.0
	for _, f := range features {
		if def, ok := c.features[f]; ok && def.Habitability > best {
			best = def.Habitability
		}
	}
	return best
}

func cloneFacility(f FacilityDef) FacilityDef {
	cp := f
	cp.Recipe.Inputs = append([]Input(nil), f.Recipe.Inputs...)
	cp.Cost.Resources = append([]Amount(nil), f.Cost.Resources...)
	cp.RequiresBody = append([]BodyKind(nil), f.RequiresBody...)
	return cp
}

func cloneFeature(f FeatureDef) FeatureDef {
	cp := f
	if f.Bonuses != nil {
		cp.Bonuses = make(map[EconomyKind]float64, len(f.Bonuses))
		for k, v := range f.Bonuses {
			cp.Bonuses[k] = v
		}
	}
	return cp
}
