// Facility construction: placement checks, pricing and an all-or-nothing
// purchase that compensates every partial debit when a later one fails.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/idle-galaxy/internal/balance"
	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/metrics"
	"github.com/talgya/idle-galaxy/internal/store"
	"github.com/talgya/idle-galaxy/internal/world"
)

// Check is the outcome of a validation. Reason is set when OK is false.
type Check struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func fail(format string, args ...any) Check {
	return Check{Reason: fmt.Sprintf(format, args...)}
}

var passed = Check{OK: true}

// ResourceQuote is one resource line of a construction price.
type ResourceQuote struct {
	Resource   catalog.ResourceKind `json:"resource"`
	Amount     float64              `json:"amount"`
	Available  float64              `json:"available"`
	Affordable bool                 `json:"affordable"`
}

// Quote is the price of a facility on a specific body.
type Quote struct {
	Credits           float64         `json:"credits"`
	CreditsAffordable bool            `json:"credits_affordable"`
	Resources         []ResourceQuote `json:"resources"`
	Multiplier        float64         `json:"multiplier"`
	Affordable        bool            `json:"affordable"`
}

// BuildResult reports a construction attempt.
type BuildResult struct {
	OK         bool             `json:"ok"`
	Reason     string           `json:"reason,omitempty"`
	FacilityID world.FacilityID `json:"facility_id,omitempty"`
}

// Construction validates, prices and executes facility purchases.
type Construction struct {
	store   *store.Store
	catalog *catalog.Catalog

	Logger  *slog.Logger
	Metrics metrics.Recorder

	// NewID mints facility ids. Defaults to random UUIDs.
	NewID func() world.FacilityID

	// OnChange is called with the system whose facility set changed.
	OnChange func(world.SystemID)

	// beforeResourceDebit runs after credits are debited; tests use it to
	// race the resource debits.
	beforeResourceDebit func()
}

// NewConstruction returns a construction service over s.
func NewConstruction(s *store.Store, cat *catalog.Catalog) *Construction {
	return &Construction{store: s, catalog: cat}
}

func (c *Construction) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Construction) newID() world.FacilityID {
	if c.NewID != nil {
		return c.NewID()
	}
	return world.FacilityID("fac-" + uuid.NewString())
}

// CanBuild checks whether a facility kind may be placed on a body.
func (c *Construction) CanBuild(kind catalog.FacilityKind, bodyID world.BodyID) Check {
	return c.canBuild(c.store.Get(), kind, bodyID)
}

func (c *Construction) canBuild(st *world.State, kind catalog.FacilityKind, bodyID world.BodyID) Check {
	def, found := c.catalog.Facility(kind)
	if !found {
		return fail("unknown facility %q", kind)
	}
	body, found := st.Body(bodyID)
	if !found {
		return fail("unknown body %q", bodyID)
	}
	if _, found := st.System(body.SystemID); !found {
		return fail("body %s belongs to an unknown system", bodyID)
	}

	switch def.Slot {
	case catalog.SlotSurface:
		bd, _ := c.catalog.Body(body.Kind)
		if !bd.HasSurface || body.SurfaceSlots == 0 {
			return fail("%s has no surface to build on", body.Name)
		}
		if body.UsedSurfaceSlots >= body.SurfaceSlots {
			return fail("no free surface slot on %s", body.Name)
		}
	case catalog.SlotOrbital, catalog.SlotStellar:
		if def.Slot == catalog.SlotStellar && body.Kind != catalog.BodyStar {
			return fail("%s must orbit a star", def.Name)
		}
		if def.Slot == catalog.SlotOrbital && body.Kind == catalog.BodyStar {
			return fail("stars only take stellar facilities")
		}
		if body.UsedOrbitalSlots >= body.OrbitalSlots {
			return fail("no free orbital slot on %s", body.Name)
		}
	}

	if !body.Surveyed {
		return fail("%s has not been surveyed", body.Name)
	}
	if len(def.RequiresBody) > 0 && !slices.Contains(def.RequiresBody, body.Kind) {
		return fail("%s requires a %s", def.Name, def.RequiresBody[0])
	}
	if def.RequiresFeature != "" && !body.HasFeature(def.RequiresFeature) {
		name := string(def.RequiresFeature)
		if fd, found := c.catalog.Feature(def.RequiresFeature); found {
			name = fd.Name
		}
		return fail("%s requires %s", def.Name, name)
	}
	return passed
}

// CostMultiplier is 1.03^distance × 1.06^facilities already in the system.
func CostMultiplier(distance float64, facilities int) float64 {
	return math.Pow(balance.DistanceCostBase, distance) * math.Pow(balance.CountCostBase, float64(facilities))
}

// Cost prices a facility on a body against the current balance and stock.
// Every component is rounded up to whole units.
func (c *Construction) Cost(kind catalog.FacilityKind, bodyID world.BodyID) (Quote, bool) {
	return c.cost(c.store.Get(), kind, bodyID)
}

func (c *Construction) cost(st *world.State, kind catalog.FacilityKind, bodyID world.BodyID) (Quote, bool) {
	def, found := c.catalog.Facility(kind)
	if !found {
		return Quote{}, false
	}
	body, found := st.Body(bodyID)
	if !found {
		return Quote{}, false
	}
	sys, found := st.System(body.SystemID)
	if !found {
		return Quote{}, false
	}
	mult := CostMultiplier(sys.Coordinates.DistanceFromOrigin(), len(st.SystemFacilities(sys.ID)))
	q := Quote{
		Credits:    math.Ceil(def.Cost.Credits * mult),
		Multiplier: mult,
	}
	q.CreditsAffordable = st.Credits >= q.Credits
	q.Affordable = q.CreditsAffordable
	for _, a := range def.Cost.Resources {
		rq := ResourceQuote{
			Resource:  a.Resource,
			Amount:    math.Ceil(a.Quantity * mult),
			Available: sys.Amount(a.Resource),
		}
		rq.Affordable = rq.Available >= rq.Amount
		q.Affordable = q.Affordable && rq.Affordable
		q.Resources = append(q.Resources, rq)
	}
	return q, true
}

// Build purchases a facility. Credits are debited first, then each resource;
// if any debit fails every earlier debit is compensated in reverse order and
// the store is left exactly as it was.
func (c *Construction) Build(kind catalog.FacilityKind, bodyID world.BodyID) BuildResult {
	start := time.Now()
	res := c.build(kind, bodyID)
	metrics.OrNop(c.Metrics).Observe("build", res.OK, time.Since(start))
	if !res.OK {
		c.store.UpdateStatistics(func(s *world.Statistics) { s.FailedBuilds++ })
	}
	return res
}

func (c *Construction) build(kind catalog.FacilityKind, bodyID world.BodyID) BuildResult {
	st := c.store.Get()
	if chk := c.canBuild(st, kind, bodyID); !chk.OK {
		return BuildResult{Reason: chk.Reason}
	}
	q, _ := c.cost(st, kind, bodyID)
	if !q.Affordable {
		return BuildResult{Reason: shortfall(q)}
	}
	def, _ := c.catalog.Facility(kind)
	body, _ := st.Body(bodyID)
	sysID := body.SystemID

	if !c.store.RemoveCredits(q.Credits) {
		return BuildResult{Reason: "insufficient credits"}
	}
	undo := []func(){func() { c.store.AddCredits(q.Credits) }}

	if c.beforeResourceDebit != nil {
		c.beforeResourceDebit()
	}

	for _, rq := range q.Resources {
		if !c.store.RemoveResource(sysID, rq.Resource, rq.Amount) {
			c.rollback(undo)
			reason := fmt.Sprintf("insufficient %s", rq.Resource)
			c.notifyFailure(def, body, reason)
			return BuildResult{Reason: reason}
		}
		undo = append(undo, func() { c.store.AddResource(sysID, rq.Resource, rq.Amount) })
	}

	f := &world.Facility{
		ID:          c.newID(),
		Kind:        kind,
		BodyID:      bodyID,
		Level:       1,
		Condition:   100,
		Operational: true,
	}
	err := c.store.Batch(func(tx *store.Tx) error {
		if err := tx.AddFacility(f, def.Slot); err != nil {
			return err
		}
		if def.TradeTier > 0 {
			if err := tx.UpdateSystem(sysID, func(s *world.System) { raiseTradeTier(s, def.TradeTier) }); err != nil {
				return err
			}
		}
		tx.UpdateStatistics(func(s *world.Statistics) { s.FacilitiesBuilt++ })
		tx.Notify("construction", "Construction complete", fmt.Sprintf("%s is operational on %s.", def.Name, body.Name))
		return nil
	})
	if err != nil {
		c.rollback(undo)
		c.notifyFailure(def, body, err.Error())
		return BuildResult{Reason: err.Error()}
	}

	c.log().Info("facility built", "facility", f.ID, "kind", kind, "body", bodyID, "credits", q.Credits)
	if c.OnChange != nil {
		c.OnChange(sysID)
	}
	return BuildResult{OK: true, FacilityID: f.ID}
}

func (c *Construction) rollback(undo []func()) {
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}

func (c *Construction) notifyFailure(def catalog.FacilityDef, body *world.Body, reason string) {
	c.log().Warn("construction rolled back", "kind", def.Kind, "body", body.ID, "reason", reason)
	c.store.Notify("construction", "Construction failed",
		fmt.Sprintf("%s on %s was cancelled (%s). All costs were refunded.", def.Name, body.Name, reason))
}

func shortfall(q Quote) string {
	if !q.CreditsAffordable {
		return "insufficient credits"
	}
	for _, rq := range q.Resources {
		if !rq.Affordable {
			return fmt.Sprintf("insufficient %s", rq.Resource)
		}
	}
	return "insufficient resources"
}

// raiseTradeTier lifts the system's trade tier and storage capacity. It never lowers them.
func raiseTradeTier(s *world.System, tier int) {
	s.HasTradeStation = true
	if tier <= s.TradeStationTier {
		return
	}
	s.TradeStationTier = tier
	s.StorageCapacity = max(s.StorageCapacity, balance.StorageCapacityForTier(tier))
	for i := range s.Resources {
		s.Resources[i].Capacity = max(s.Resources[i].Capacity, s.StorageCapacity)
	}
}

// Demolish removes a facility and frees its slot. Demolishing a trade facility
// recomputes the system's trade tier as the highest remaining trade tier;
// stock above the reduced capacity is lost.
func (c *Construction) Demolish(id world.FacilityID) Check {
	start := time.Now()
	chk := c.demolish(id)
	metrics.OrNop(c.Metrics).Observe("demolish", chk.OK, time.Since(start))
	return chk
}

func (c *Construction) demolish(id world.FacilityID) Check {
	st := c.store.Get()
	f, found := st.Facility(id)
	if !found {
		return fail("unknown facility %q", id)
	}
	def, found := c.catalog.Facility(f.Kind)
	if !found {
		return fail("facility %s has unknown kind %q", id, f.Kind)
	}
	sys, found := st.FacilitySystem(id)
	if !found {
		return fail("facility %s is not attached to a system", id)
	}
	sysID := sys.ID

	err := c.store.Batch(func(tx *store.Tx) error {
		if err := tx.RemoveFacility(id, def.Slot); err != nil {
			return err
		}
		if def.TradeTier > 0 {
			tier := c.maxTradeTier(tx.State(), sysID)
			if err := tx.UpdateSystem(sysID, func(s *world.System) { setTradeTier(s, tier) }); err != nil {
				return err
			}
		}
		tx.UpdateStatistics(func(s *world.Statistics) { s.FacilitiesDemolished++ })
		return nil
	})
	if err != nil {
		return fail("%v", err)
	}
	c.log().Info("facility demolished", "facility", id, "kind", f.Kind, "system", sysID)
	if c.OnChange != nil {
		c.OnChange(sysID)
	}
	return passed
}

func (c *Construction) maxTradeTier(st *world.State, id world.SystemID) int {
	tier := 0
	for _, f := range st.SystemFacilities(id) {
		if def, found := c.catalog.Facility(f.Kind); found {
			tier = max(tier, def.TradeTier)
		}
	}
	return tier
}

func setTradeTier(s *world.System, tier int) {
	s.TradeStationTier = tier
	s.HasTradeStation = tier > 0
	s.StorageCapacity = balance.StorageCapacityForTier(tier)
	for i := range s.Resources {
		r := &s.Resources[i]
		r.Capacity = s.StorageCapacity
		r.Amount = min(r.Amount, r.Capacity)
	}
}
