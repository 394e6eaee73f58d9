package catalog

// DefaultData returns a fresh copy of the built-in game data.
func DefaultData() Data {
	return Data{
		Resources:   defaultResources(),
		Facilities:  defaultFacilities(),
		Bodies:      defaultBodies(),
		Features:    defaultFeatures(),
		States:      defaultStates(),
		Consumption: defaultConsumption(),
	}
}

func defaultResources() []ResourceDef {
	return []ResourceDef{
		{Kind: IronOre, Name: "Iron Ore", Category: CategoryRaw, BaseValue: 2},
		{Kind: Silicates, Name: "Silicates", Category: CategoryRaw, BaseValue: 2},
		{Kind: Ice, Name: "Ice", Category: CategoryRaw, BaseValue: 1},
		{Kind: Hydrogen, Name: "Hydrogen", Category: CategoryRaw, BaseValue: 2},
		{Kind: RareEarths, Name: "Rare Earths", Category: CategoryRaw, BaseValue: 15},
		{Kind: Food, Name: "Food", Category: CategoryRaw, BaseValue: 3},
		{Kind: Metals, Name: "Refined Metals", Category: CategoryRefined, BaseValue: 6},
		{Kind: Silicon, Name: "Silicon", Category: CategoryRefined, BaseValue: 6},
		{Kind: Water, Name: "Water", Category: CategoryRefined, BaseValue: 3},
		{Kind: Fuel, Name: "Fuel", Category: CategoryRefined, BaseValue: 5},
		{Kind: Components, Name: "Components", Category: CategoryProcessed, BaseValue: 20},
		{Kind: ConsumerGoods, Name: "Consumer Goods", Category: CategoryProcessed, BaseValue: 12},
		{Kind: Electronics, Name: "Electronics", Category: CategoryAdvanced, BaseValue: 60},
		{Kind: LuxuryGoods, Name: "Luxury Goods", Category: CategoryAdvanced, BaseValue: 80},
		{Kind: QuantumCores, Name: "Quantum Cores", Category: CategoryHighTech, BaseValue: 400},
	}
}

func defaultFacilities() []FacilityDef {
	return []FacilityDef{
		// Tier 1: extraction.
		{
			Kind: FacilityMine, Name: "Mine", Tier: TierExtraction, Slot: SlotSurface, Economy: EconomyMining,
			Recipe:          Recipe{Kind: RecipeExtraction, Output: IronOre, BaseRate: 20},
			Cost:            Cost{Credits: 400},
			PopulationFloor: 20, PopulationCeiling: 200,
		},
		{
			Kind: FacilityOreExcavator, Name: "Deep Ore Excavator", Tier: TierExtraction, Slot: SlotSurface, Economy: EconomyMining,
			Recipe:          Recipe{Kind: RecipeExtraction, Output: IronOre, BaseRate: 60},
			Cost:            Cost{Credits: 1500, Resources: []Amount{{Resource: Metals, Quantity: 60}}},
			PopulationFloor: 40, PopulationCeiling: 300,
			RequiresFeature: FeatureHighMetalContent,
		},
		{
			Kind: FacilitySilicateQuarry, Name: "Silicate Quarry", Tier: TierExtraction, Slot: SlotSurface, Economy: EconomyMining,
			Recipe:          Recipe{Kind: RecipeExtraction, Output: Silicates, BaseRate: 20},
			Cost:            Cost{Credits: 400},
			PopulationFloor: 20, PopulationCeiling: 200,
		},
		{
			Kind: FacilityIceHarvester, Name: "Ice Harvester", Tier: TierExtraction, Slot: SlotSurface, Economy: EconomyMining,
			Recipe:          Recipe{Kind: RecipeExtraction, Output: Ice, BaseRate: 25},
			Cost:            Cost{Credits: 500},
			PopulationFloor: 15, PopulationCeiling: 150,
			RequiresFeature: FeatureRichIce,
		},
		{
			Kind: FacilityGasHarvester, Name: "Gas Harvester", Tier: TierExtraction, Slot: SlotOrbital, Economy: EconomyMining,
			Recipe:          Recipe{Kind: RecipeExtraction, Output: Hydrogen, BaseRate: 30},
			Cost:            Cost{Credits: 900, Resources: []Amount{{Resource: Metals, Quantity: 40}}},
			PopulationFloor: 10, PopulationCeiling: 100,
			RequiresBody: []BodyKind{BodyGasGiant},
		},
		{
			Kind: FacilityRareEarthDrill, Name: "Rare Earth Drill", Tier: TierExtraction, Slot: SlotSurface, Economy: EconomyMining,
			Recipe:          Recipe{Kind: RecipeExtraction, Output: RareEarths, BaseRate: 5},
			Cost:            Cost{Credits: 2500, Resources: []Amount{{Resource: Metals, Quantity: 100}}},
			PopulationFloor: 30, PopulationCeiling: 200,
			RequiresFeature: FeatureRareDeposits,
		},
		{
			Kind: FacilityFarm, Name: "Hydroponic Farm", Tier: TierExtraction, Slot: SlotSurface, Economy: EconomyAgriculture,
			Recipe:          Recipe{Kind: RecipeExtraction, Output: Food, BaseRate: 30},
			Cost:            Cost{Credits: 300},
			PopulationFloor: 20, PopulationCeiling: 300,
		},
		{
			Kind: FacilityStellarSkimmer, Name: "Stellar Skimmer", Tier: TierExtraction, Slot: SlotStellar, Economy: EconomyMining,
			Recipe:          Recipe{Kind: RecipeExtraction, Output: Hydrogen, BaseRate: 80},
			Cost:            Cost{Credits: 6000, Resources: []Amount{{Resource: Metals, Quantity: 300}, {Resource: Components, Quantity: 50}}},
			PopulationFloor: 10, PopulationCeiling: 50,
			RequiresBody: []BodyKind{BodyStar},
		},

		// Tier 2: refining.
		{
			Kind: FacilitySmelter, Name: "Smelter", Tier: TierRefining, Slot: SlotSurface, Economy: EconomyRefining,
			Recipe: Recipe{
				Kind: RecipeConversion, Output: Metals, Throughput: 30, Efficiency: 0.6,
				Inputs: []Input{{Resource: IronOre, Ratio: 1}},
			},
			Cost:            Cost{Credits: 800, Resources: []Amount{{Resource: IronOre, Quantity: 100}}},
			PopulationFloor: 30, PopulationCeiling: 250,
		},
		{
			Kind: FacilitySiliconRefinery, Name: "Silicon Refinery", Tier: TierRefining, Slot: SlotSurface, Economy: EconomyRefining,
			Recipe: Recipe{
				Kind: RecipeConversion, Output: Silicon, Throughput: 25, Efficiency: 0.5,
				Inputs: []Input{{Resource: Silicates, Ratio: 1}},
			},
			Cost:            Cost{Credits: 900, Resources: []Amount{{Resource: Metals, Quantity: 30}}},
			PopulationFloor: 30, PopulationCeiling: 250,
		},
		{
			Kind: FacilityWaterPurifier, Name: "Water Purifier", Tier: TierRefining, Slot: SlotSurface, Economy: EconomyRefining,
			Recipe: Recipe{
				Kind: RecipeConversion, Output: Water, Throughput: 30, Efficiency: 0.9,
				Inputs: []Input{{Resource: Ice, Ratio: 1}},
			},
			Cost:            Cost{Credits: 500},
			PopulationFloor: 10, PopulationCeiling: 100,
		},
		{
			Kind: FacilityFuelRefinery, Name: "Fuel Refinery", Tier: TierRefining, Slot: SlotOrbital, Economy: EconomyRefining,
			Recipe: Recipe{
				Kind: RecipeConversion, Output: Fuel, Throughput: 30, Efficiency: 0.7,
				Inputs: []Input{{Resource: Hydrogen, Ratio: 1}},
			},
			Cost:            Cost{Credits: 1200, Resources: []Amount{{Resource: Metals, Quantity: 80}}},
			PopulationFloor: 20, PopulationCeiling: 150,
		},

		// Tier 3: processing.
		{
			Kind: FacilityComponentFactory, Name: "Component Factory", Tier: TierProcessing, Slot: SlotSurface, Economy: EconomyIndustry,
			Recipe: Recipe{
				Kind: RecipeConversion, Output: Components, Throughput: 15, Efficiency: 0.5,
				Inputs: []Input{{Resource: Metals, Ratio: 1}, {Resource: Silicon, Ratio: 0.5}},
			},
			Cost:            Cost{Credits: 2500, Resources: []Amount{{Resource: Metals, Quantity: 150}}},
			PopulationFloor: 50, PopulationCeiling: 400,
		},
		{
			Kind: FacilityGoodsFactory, Name: "Consumer Goods Factory", Tier: TierProcessing, Slot: SlotSurface, Economy: EconomyIndustry,
			Recipe: Recipe{
				Kind: RecipeConversion, Output: ConsumerGoods, Throughput: 15, Efficiency: 0.6,
				Inputs: []Input{{Resource: Metals, Ratio: 0.5}, {Resource: Water, Ratio: 0.5}},
			},
			Cost:            Cost{Credits: 2000, Resources: []Amount{{Resource: Metals, Quantity: 120}}},
			PopulationFloor: 50, PopulationCeiling: 400,
		},

		// Tier 4: advanced.
		{
			Kind: FacilityElectronicsPlant, Name: "Electronics Plant", Tier: TierAdvanced, Slot: SlotSurface, Economy: EconomyHighTech,
			Recipe: Recipe{
				Kind: RecipeConversion, Output: Electronics, Throughput: 8, Efficiency: 0.5,
				Inputs: []Input{{Resource: Components, Ratio: 1}, {Resource: RareEarths, Ratio: 0.25}},
			},
			Cost:            Cost{Credits: 8000, Resources: []Amount{{Resource: Components, Quantity: 80}}},
			PopulationFloor: 60, PopulationCeiling: 400,
		},
		{
			Kind: FacilityLuxuryWorkshop, Name: "Luxury Workshop", Tier: TierAdvanced, Slot: SlotSurface, Economy: EconomyIndustry,
			Recipe: Recipe{
				Kind: RecipeConversion, Output: LuxuryGoods, Throughput: 6, Efficiency: 0.5,
				Inputs: []Input{{Resource: ConsumerGoods, Ratio: 1}, {Resource: RareEarths, Ratio: 0.5}},
			},
			Cost:            Cost{Credits: 7000, Resources: []Amount{{Resource: ConsumerGoods, Quantity: 100}}},
			PopulationFloor: 40, PopulationCeiling: 300,
		},

		// Tier 5: high tech.
		{
			Kind: FacilityQuantumLab, Name: "Quantum Lab", Tier: TierHighTech, Slot: SlotOrbital, Economy: EconomyHighTech,
			Recipe: Recipe{
				Kind: RecipeConversion, Output: QuantumCores, Throughput: 2, Efficiency: 0.25,
				Inputs: []Input{{Resource: Electronics, Ratio: 1}, {Resource: Fuel, Ratio: 2}},
			},
			Cost:            Cost{Credits: 30000, Resources: []Amount{{Resource: Electronics, Quantity: 100}, {Resource: Components, Quantity: 200}}},
			PopulationFloor: 30, PopulationCeiling: 150,
		},

		// Habitation and services. Tier only orders them; they have no recipe.
		{
			Kind: FacilityHabitat, Name: "Habitat", Tier: TierExtraction, Slot: SlotSurface, Economy: EconomyHabitation,
			Cost:            Cost{Credits: 600, Resources: []Amount{{Resource: Metals, Quantity: 20}}},
			PopulationFloor: 50, PopulationCeiling: 5000,
		},
		{
			Kind: FacilityOrbitalHabitat, Name: "Orbital Habitat", Tier: TierProcessing, Slot: SlotOrbital, Economy: EconomyHabitation,
			Cost:            Cost{Credits: 3000, Resources: []Amount{{Resource: Metals, Quantity: 200}, {Resource: Components, Quantity: 40}}},
			PopulationFloor: 50, PopulationCeiling: 4000,
		},
		{
			Kind: FacilityMedicalCenter, Name: "Medical Center", Tier: TierProcessing, Slot: SlotSurface, Economy: EconomyMedical,
			Cost:            Cost{Credits: 2500, Resources: []Amount{{Resource: Components, Quantity: 30}}},
			PopulationFloor: 20, PopulationCeiling: 500, SoLBonus: 0.05,
		},
		{
			Kind: FacilityLeisureDome, Name: "Leisure Dome", Tier: TierAdvanced, Slot: SlotSurface, Economy: EconomyLeisure,
			Cost:            Cost{Credits: 5000, Resources: []Amount{{Resource: Components, Quantity: 60}, {Resource: ConsumerGoods, Quantity: 100}}},
			PopulationFloor: 10, PopulationCeiling: 300, SoLBonus: 0.08,
		},
		{
			Kind: FacilityTradePost, Name: "Trade Post", Tier: TierRefining, Slot: SlotOrbital, Economy: EconomyCommerce,
			Cost:            Cost{Credits: 1500, Resources: []Amount{{Resource: Metals, Quantity: 80}}},
			PopulationFloor: 10, PopulationCeiling: 200, TradeTier: 1,
		},
		{
			Kind: FacilityTradeHub, Name: "Trade Hub", Tier: TierProcessing, Slot: SlotOrbital, Economy: EconomyCommerce,
			Cost:            Cost{Credits: 6000, Resources: []Amount{{Resource: Metals, Quantity: 200}, {Resource: Components, Quantity: 60}}},
			PopulationFloor: 30, PopulationCeiling: 500, TradeTier: 2,
		},
		{
			Kind: FacilityTradeNexus, Name: "Trade Nexus", Tier: TierAdvanced, Slot: SlotOrbital, Economy: EconomyCommerce,
			Cost:            Cost{Credits: 20000, Resources: []Amount{{Resource: Components, Quantity: 200}, {Resource: Electronics, Quantity: 50}}},
			PopulationFloor: 60, PopulationCeiling: 1000, TradeTier: 3,
		},
	}
}

func defaultBodies() []BodyDef {
	return []BodyDef{
		{Kind: BodyStar, Name: "Star", HasSurface: false, PopulationMultiplier: 0.1},
		{Kind: BodyTerrestrial, Name: "Terrestrial Planet", HasSurface: true, PopulationMultiplier: 1.0},
		{Kind: BodyGasGiant, Name: "Gas Giant", HasSurface: false, PopulationMultiplier: 0.3},
		{Kind: BodyIceWorld, Name: "Ice World", HasSurface: true, PopulationMultiplier: 0.4},
		{Kind: BodyMoon, Name: "Moon", HasSurface: true, PopulationMultiplier: 0.5},
		{Kind: BodyAsteroidBelt, Name: "Asteroid Belt", HasSurface: true, PopulationMultiplier: 0.2},
		{Kind: BodyBarren, Name: "Barren World", HasSurface: true, PopulationMultiplier: 0.3},
	}
}

func defaultFeatures() []FeatureDef {
	return []FeatureDef{
		{Kind: FeatureHighMetalContent, Name: "High Metal Content", Bonuses: map[EconomyKind]float64{EconomyMining: 0.25}},
		{Kind: FeatureRichIce, Name: "Rich Ice Deposits", Bonuses: map[EconomyKind]float64{EconomyMining: 0.1}},
		{Kind: FeatureRareDeposits, Name: "Rare Deposits", Bonuses: map[EconomyKind]float64{EconomyMining: 0.15}},
		{Kind: FeatureSilicateBeds, Name: "Silicate Beds", Bonuses: map[EconomyKind]float64{EconomyRefining: 0.1}},
		{Kind: FeatureFertileSoil, Name: "Fertile Soil", Bonuses: map[EconomyKind]float64{EconomyAgriculture: 0.3}},
		{Kind: FeatureHabitable, Name: "Habitable Biosphere", Habitability: 0.25},
	}
}

func defaultStates() []StateDef {
	return []StateDef{
		{Kind: StateStable, Name: "Stable"},
		{Kind: StateFamine, Name: "Famine", Production: -0.3, Growth: -0.3, Security: -0.5},
		{Kind: StateRioting, Name: "Rioting", Production: -0.2, Growth: -0.2, Security: -1.0},
		{Kind: StateProsperous, Name: "Prosperous", Production: 0.25, Growth: 0.1, Security: 0.5},
	}
}

func defaultConsumption() []ConsumptionDef {
	return []ConsumptionDef{
		{Resource: Food, PerThousandPerHour: 1.0, Required: true},
		{Resource: Water, PerThousandPerHour: 0.8, Required: true},
		{Resource: ConsumerGoods, PerThousandPerHour: 0.3, Required: true},
		{Resource: LuxuryGoods, PerThousandPerHour: 0.1, SoLBonus: 5, PullBonus: 0.05},
		{Resource: Electronics, PerThousandPerHour: 0.05, SoLBonus: 3, PullBonus: 0.03},
	}
}
