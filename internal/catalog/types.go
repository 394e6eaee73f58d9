// Package catalog provides the static game data: resources, facility definitions,
// body kinds, features and system states. A Catalog is built once and never mutated.
package catalog

// ResourceKind identifies a tradeable or consumable resource.
type ResourceKind string

const (
	IronOre       ResourceKind = "iron_ore"
	Silicates     ResourceKind = "silicates"
	Ice           ResourceKind = "ice"
	Hydrogen      ResourceKind = "hydrogen"
	RareEarths    ResourceKind = "rare_earths"
	Food          ResourceKind = "food"
	Metals        ResourceKind = "metals"
	Silicon       ResourceKind = "silicon"
	Water         ResourceKind = "water"
	Fuel          ResourceKind = "fuel"
	Components    ResourceKind = "components"
	ConsumerGoods ResourceKind = "consumer_goods"
	Electronics   ResourceKind = "electronics"
	LuxuryGoods   ResourceKind = "luxury_goods"
	QuantumCores  ResourceKind = "quantum_cores"
)

// Category groups resources for display.
type Category string

const (
	CategoryRaw       Category = "raw"
	CategoryRefined   Category = "refined"
	CategoryProcessed Category = "processed"
	CategoryAdvanced  Category = "advanced"
	CategoryHighTech  Category = "high_tech"
)

// ResourceDef is the display metadata for a resource.
type ResourceDef struct {
	Kind      ResourceKind `yaml:"kind" json:"kind"`
	Name      string       `yaml:"name" json:"name"`
	Category  Category     `yaml:"category" json:"category"`
	BaseValue float64      `yaml:"base_value" json:"base_value"` // Credits per unit
}

// Tier is a facility's position in the production dependency chain.
// Lower tiers run first within a tick so their output feeds higher tiers.
type Tier int

const (
	TierExtraction Tier = iota + 1
	TierRefining
	TierProcessing
	TierAdvanced
	TierHighTech
)

// SlotType is the kind of body slot a facility occupies.
type SlotType string

const (
	SlotSurface SlotType = "surface"
	SlotOrbital SlotType = "orbital"
	SlotStellar SlotType = "stellar" // orbital slot around a star
)

// EconomyKind classifies what a facility does; body features grant bonuses per kind.
type EconomyKind string

const (
	EconomyMining      EconomyKind = "mining"
	EconomyAgriculture EconomyKind = "agriculture"
	EconomyRefining    EconomyKind = "refining"
	EconomyIndustry    EconomyKind = "industry"
	EconomyHighTech    EconomyKind = "high_tech"
	EconomyHabitation  EconomyKind = "habitation"
	EconomyMedical     EconomyKind = "medical"
	EconomyCommerce    EconomyKind = "commerce"
	EconomyLeisure     EconomyKind = "leisure"
)

// BodyKind is the physical class of a celestial body.
type BodyKind string

const (
	BodyStar         BodyKind = "star"
	BodyTerrestrial  BodyKind = "terrestrial"
	BodyGasGiant     BodyKind = "gas_giant"
	BodyIceWorld     BodyKind = "ice_world"
	BodyMoon         BodyKind = "moon"
	BodyAsteroidBelt BodyKind = "asteroid_belt"
	BodyBarren       BodyKind = "barren"
)

// BodyDef describes how a body kind hosts facilities and population.
type BodyDef struct {
	Kind                 BodyKind `yaml:"kind" json:"kind"`
	Name                 string   `yaml:"name" json:"name"`
	HasSurface           bool     `yaml:"has_surface" json:"has_surface"`
	PopulationMultiplier float64  `yaml:"population_multiplier" json:"population_multiplier"`
}

// Feature is a notable property of a body (deposits, habitability).
type Feature string

const (
	FeatureHighMetalContent Feature = "high_metal_content"
	FeatureRichIce          Feature = "rich_ice"
	FeatureRareDeposits     Feature = "rare_deposits"
	FeatureSilicateBeds     Feature = "silicate_beds"
	FeatureFertileSoil      Feature = "fertile_soil"
	FeatureHabitable        Feature = "habitable"
)

// FeatureDef lists the economy bonuses a feature grants and its habitability bonus.
type FeatureDef struct {
	Kind         Feature                 `yaml:"kind" json:"kind"`
	Name         string                  `yaml:"name" json:"name"`
	Bonuses      map[EconomyKind]float64 `yaml:"bonuses" json:"bonuses"`           // 0.25 = +25%
	Habitability float64                 `yaml:"habitability" json:"habitability"` // ceiling bonus, 0.25 = +25%
}

// StateKind is the macro condition of a star system.
type StateKind string

const (
	StateStable     StateKind = "stable"
	StateFamine     StateKind = "famine"
	StateRioting    StateKind = "rioting"
	StateProsperous StateKind = "prosperous"
)

// StateDef holds the effects a system state applies while active.
type StateDef struct {
	Kind       StateKind `yaml:"kind" json:"kind"`
	Name       string    `yaml:"name" json:"name"`
	Production float64   `yaml:"production" json:"production"` // -0.3 = -30% output
	Growth     float64   `yaml:"growth" json:"growth"`         // added to the pull factor
	Security   float64   `yaml:"security" json:"security"`     // x10 standard-of-living points
}

// RecipeKind distinguishes extraction (no inputs) from conversion recipes.
type RecipeKind string

const (
	RecipeNone       RecipeKind = ""
	RecipeExtraction RecipeKind = "extraction"
	RecipeConversion RecipeKind = "conversion"
)

// Input is one consumed resource of a conversion recipe.
type Input struct {
	Resource ResourceKind `yaml:"resource" json:"resource"`
	Ratio    float64      `yaml:"ratio" json:"ratio"` // units consumed per unit of throughput
}

// Recipe is what a facility produces each simulated hour.
type Recipe struct {
	Kind       RecipeKind   `yaml:"kind" json:"kind"`
	Output     ResourceKind `yaml:"output" json:"output"`
	BaseRate   float64      `yaml:"base_rate" json:"base_rate"`   // extraction units/hour
	Throughput float64      `yaml:"throughput" json:"throughput"` // conversion units/hour
	Inputs     []Input      `yaml:"inputs" json:"inputs"`
	Efficiency float64      `yaml:"efficiency" json:"efficiency"` // output per unit of throughput
}

// Amount is a quantity of one resource.
type Amount struct {
	Resource ResourceKind `yaml:"resource" json:"resource"`
	Quantity float64      `yaml:"quantity" json:"quantity"`
}

// Cost is the base construction price before distance and count multipliers.
type Cost struct {
	Credits   float64  `yaml:"credits" json:"credits"`
	Resources []Amount `yaml:"resources" json:"resources"`
}

// FacilityKind identifies a facility definition.
type FacilityKind string

const (
	FacilityMine             FacilityKind = "mine"
	FacilityOreExcavator     FacilityKind = "ore_excavator"
	FacilitySilicateQuarry   FacilityKind = "silicate_quarry"
	FacilityIceHarvester     FacilityKind = "ice_harvester"
	FacilityGasHarvester     FacilityKind = "gas_harvester"
	FacilityRareEarthDrill   FacilityKind = "rare_earth_drill"
	FacilityFarm             FacilityKind = "farm"
	FacilityStellarSkimmer   FacilityKind = "stellar_skimmer"
	FacilitySmelter          FacilityKind = "smelter"
	FacilitySiliconRefinery  FacilityKind = "silicon_refinery"
	FacilityWaterPurifier    FacilityKind = "water_purifier"
	FacilityFuelRefinery     FacilityKind = "fuel_refinery"
	FacilityComponentFactory FacilityKind = "component_factory"
	FacilityGoodsFactory     FacilityKind = "goods_factory"
	FacilityElectronicsPlant FacilityKind = "electronics_plant"
	FacilityLuxuryWorkshop   FacilityKind = "luxury_workshop"
	FacilityQuantumLab       FacilityKind = "quantum_lab"
	FacilityHabitat          FacilityKind = "habitat"
	FacilityOrbitalHabitat   FacilityKind = "orbital_habitat"
	FacilityMedicalCenter    FacilityKind = "medical_center"
	FacilityLeisureDome      FacilityKind = "leisure_dome"
	FacilityTradePost        FacilityKind = "trade_post"
	FacilityTradeHub         FacilityKind = "trade_hub"
	FacilityTradeNexus       FacilityKind = "trade_nexus"
)

// FacilityDef is the immutable definition of a facility kind.
type FacilityDef struct {
	Kind    FacilityKind `yaml:"kind" json:"kind"`
	Name    string       `yaml:"name" json:"name"`
	Tier    Tier         `yaml:"tier" json:"tier"`
	Slot    SlotType     `yaml:"slot" json:"slot"`
	Economy EconomyKind  `yaml:"economy" json:"economy"`
	Recipe  Recipe       `yaml:"recipe" json:"recipe"`
	Cost    Cost         `yaml:"cost" json:"cost"`

	PopulationFloor   float64 `yaml:"population_floor" json:"population_floor"`
	PopulationCeiling float64 `yaml:"population_ceiling" json:"population_ceiling"`
	SoLBonus          float64 `yaml:"sol_bonus" json:"sol_bonus"` // x100 standard-of-living points

	TradeTier int `yaml:"trade_tier" json:"trade_tier"` // 0 = not a trade facility

	// Siting rules.
	RequiresBody    []BodyKind `yaml:"requires_body" json:"requires_body"`
	RequiresFeature Feature    `yaml:"requires_feature" json:"requires_feature"`
}

// IsMedical reports whether the facility counts as medical-class for population pull.
func (d FacilityDef) IsMedical() bool {
	return d.Economy == EconomyMedical
}

// ConsumptionDef is one resource drawn by population every hour.
type ConsumptionDef struct {
	Resource           ResourceKind `yaml:"resource" json:"resource"`
	PerThousandPerHour float64      `yaml:"per_thousand_per_hour" json:"per_thousand_per_hour"`
	Required           bool         `yaml:"required" json:"required"`

	// Luxury bonuses, applied in proportion to the fraction of need satisfied.
	SoLBonus  float64 `yaml:"sol_bonus" json:"sol_bonus"`
	PullBonus float64 `yaml:"pull_bonus" json:"pull_bonus"`
}
