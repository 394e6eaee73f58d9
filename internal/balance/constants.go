// Package balance provides the tuning constants shared by the simulation systems.
// Values here change game balance, never the shape of an algorithm.
package balance

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Production.
const (
	// PopulationScale is the population at which the production multiplier starts
	// rising above 1.0 (1 + log10(pop/PopulationScale)).
	PopulationScale = 1000.0

	// PrestigeBonusPerToken is the production bonus granted by each prestige token.
	PrestigeBonusPerToken = 0.02
)

// Population growth.
const (
	BaseGrowthRate = 0.1 // people per second at pull factor 1.0 and an empty system

	BaseStandardOfLiving  = 50.0
	MaxShortfallPenalty   = 20.0 // SoL points lost when every required resource is unmet
	TechSoLWeight         = 2.0
	SecuritySoLWeight     = 3.0
	FacilitySoLScale      = 100.0
	StateSecuritySoLScale = 10.0
)

// Pull factor contributions.
const (
	HighSoLBand      = 75.0
	HighSoLPull      = 0.2
	GoodSoLBand      = 60.0
	GoodSoLPull      = 0.1
	PoorSoLBand      = 40.0
	PoorSoLPull      = -0.1
	MiserableSoLBand = 25.0
	MiserableSoLPull = -0.2

	SecurityPullLevel = 2
	SecurityPull      = 0.1
	MedicalPull       = 0.1

	FoodShortfallRatio = 0.8
	FoodShortfallPull  = -0.3

	SparsePopulationRatio = 0.5
	SparsePopulationPull  = 0.1
	BelowFloorPull        = 0.2
)

// System state thresholds. Stable is the hub every transition passes through.
const (
	FamineFoodRatio     = 0.5 // food consumed / food needed below this starts a famine
	FamineRecoveryRatio = 0.9

	RiotSoL         = 25.0
	RiotMaxSecurity = 1 // riots only break out at or below this security level
	RiotRecoverySoL = 40.0

	ProsperousSoL     = 80.0
	ProsperousExitSoL = 70.0
)

// Construction costs.
const (
	DistanceCostBase = 1.03
	CountCostBase    = 1.06
)

// Storage.
const (
	BaseStorageCapacity = 10000.0
)

// TradeTierStorageBonus is the extra per-resource capacity granted by a trade station tier.
var TradeTierStorageBonus = [4]float64{0, 5000, 15000, 40000}

// MaxTradeTier is the highest trade station tier a system can reach.
const MaxTradeTier = 3

// StorageCapacityForTier returns the per-resource capacity of a system whose trade
// station is at the given tier.
func StorageCapacityForTier(tier int) float64 {
	tier = Clamp(tier, 0, MaxTradeTier)
	return BaseStorageCapacity + TradeTierStorageBonus[tier]
}

// Notifications.
const MaxNotifications = 100

// Scheduler.
const (
	OfflineThresholdSeconds = 60
	OfflineChunkHours       = 0.1
)

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PopulationMultiplier returns 1 + log10(pop/PopulationScale), never below 1.
func PopulationMultiplier(population float64) float64 {
	if population <= PopulationScale {
		return 1.0
	}
	return 1.0 + math.Log10(population/PopulationScale)
}
