package store

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/idle-galaxy/internal/balance"
	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/world"
)

// table is a copy-on-write view of one entity map of the base state.
// The map itself is copied on the first write; each entity is cloned the
// first time it is written, so untouched entities stay shared with the base.
type table[K comparable, V any] struct {
	m      map[K]*V
	copied bool
	owned  map[K]bool
	clone  func(*V) *V
}

func newTable[K comparable, V any](m map[K]*V, clone func(*V) *V) *table[K, V] {
	return &table[K, V]{m: m, owned: make(map[K]bool), clone: clone}
}

func (t *table[K, V]) get(k K) (*V, bool) {
	v, ok := t.m[k]
	return v, ok
}

func (t *table[K, V]) ensureCopied() {
	if !t.copied {
		t.m = maps.Clone(t.m)
		if t.m == nil {
			t.m = make(map[K]*V)
		}
		t.copied = true
	}
}

func (t *table[K, V]) mut(k K) (*V, bool) {
	v, ok := t.m[k]
	if !ok {
		return nil, false
	}
	if t.owned[k] {
		return v, true
	}
	t.ensureCopied()
	cp := t.clone(v)
	t.m[k] = cp
	t.owned[k] = true
	return cp, true
}

func (t *table[K, V]) put(k K, v *V) {
	t.ensureCopied()
	t.m[k] = v
	t.owned[k] = true
}

func (t *table[K, V]) del(k K) {
	t.ensureCopied()
	delete(t.m, k)
	delete(t.owned, k)
}

// Tx is a draft of the next state, handed to the function passed to Batch.
// Reads through a Tx observe the Tx's own writes. A Tx must not be used after
// its Batch returns.
type Tx struct {
	base  *world.State
	draft world.State
	dirty bool
	now   func() time.Time

	systems    *table[world.SystemID, world.System]
	bodies     *table[world.BodyID, world.Body]
	facilities *table[world.FacilityID, world.Facility]
	ships      *table[world.ShipID, world.Ship]
}

func newTx(base *world.State, now func() time.Time) *Tx {
	return &Tx{
		base:       base,
		draft:      *base,
		now:        now,
		systems:    newTable(base.Systems, (*world.System).Clone),
		bodies:     newTable(base.Bodies, (*world.Body).Clone),
		facilities: newTable(base.Facilities, (*world.Facility).Clone),
		ships:      newTable(base.Ships, (*world.Ship).Clone),
	}
}

// commit returns the new state, or the base state when nothing was written.
func (tx *Tx) commit() *world.State {
	if !tx.dirty {
		return tx.base
	}
	next := tx.draft
	next.Systems = tx.systems.m
	next.Bodies = tx.bodies.m
	next.Facilities = tx.facilities.m
	next.Ships = tx.ships.m
	return &next
}

// State returns a read view of the draft, including writes made so far.
// The result must not be modified.
func (tx *Tx) State() *world.State {
	return tx.commit()
}

// System returns a system as of this Tx.
func (tx *Tx) System(id world.SystemID) (*world.System, bool) { return tx.systems.get(id) }

// Body returns a body as of this Tx.
func (tx *Tx) Body(id world.BodyID) (*world.Body, bool) { return tx.bodies.get(id) }

// Facility returns a facility as of this Tx.
func (tx *Tx) Facility(id world.FacilityID) (*world.Facility, bool) { return tx.facilities.get(id) }

// Ship returns a ship as of this Tx.
func (tx *Tx) Ship(id world.ShipID) (*world.Ship, bool) { return tx.ships.get(id) }

// Credits returns the credit balance as of this Tx.
func (tx *Tx) Credits() float64 { return tx.draft.Credits }

// UpdateSystem applies fn to a private copy of the system.
func (tx *Tx) UpdateSystem(id world.SystemID, fn func(*world.System)) error {
	s, ok := tx.systems.mut(id)
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrSystemNotFound)
	}
	fn(s)
	tx.dirty = true
	return nil
}

// UpdateBody applies fn to a private copy of the body.
func (tx *Tx) UpdateBody(id world.BodyID, fn func(*world.Body)) error {
	b, ok := tx.bodies.mut(id)
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrBodyNotFound)
	}
	fn(b)
	tx.dirty = true
	return nil
}

// UpdateFacility applies fn to a private copy of the facility.
func (tx *Tx) UpdateFacility(id world.FacilityID, fn func(*world.Facility)) error {
	f, ok := tx.facilities.mut(id)
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrFacilityNotFound)
	}
	fn(f)
	tx.dirty = true
	return nil
}

// UpdateShip applies fn to a private copy of the ship.
func (tx *Tx) UpdateShip(id world.ShipID, fn func(*world.Ship)) error {
	sh, ok := tx.ships.mut(id)
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrShipNotFound)
	}
	fn(sh)
	tx.dirty = true
	return nil
}

// AddSystem inserts or replaces a system.
func (tx *Tx) AddSystem(s *world.System) {
	tx.systems.put(s.ID, s.Clone())
	tx.dirty = true
}

// AddBody inserts a body and appends it to its system's body list.
func (tx *Tx) AddBody(b *world.Body) error {
	if _, ok := tx.systems.get(b.SystemID); !ok {
		return fmt.Errorf("add body %s: %w", b.ID, ErrSystemNotFound)
	}
	tx.bodies.put(b.ID, b.Clone())
	_ = tx.UpdateSystem(b.SystemID, func(s *world.System) {
		if !slices.Contains(s.BodyIDs, b.ID) {
			s.BodyIDs = append(s.BodyIDs, b.ID)
		}
	})
	return nil
}

// AddShip inserts or replaces a ship.
func (tx *Tx) AddShip(sh *world.Ship) {
	tx.ships.put(sh.ID, sh.Clone())
	tx.dirty = true
}

// RemoveShip deletes a ship.
func (tx *Tx) RemoveShip(id world.ShipID) error {
	if _, ok := tx.ships.get(id); !ok {
		return fmt.Errorf("remove %s: %w", id, ErrShipNotFound)
	}
	tx.ships.del(id)
	tx.dirty = true
	return nil
}

func usesOrbital(slot catalog.SlotType) bool {
	return slot == catalog.SlotOrbital || slot == catalog.SlotStellar
}

// AddFacility attaches a new facility to its body, taking one slot of the given type.
func (tx *Tx) AddFacility(f *world.Facility, slot catalog.SlotType) error {
	if _, exists := tx.facilities.get(f.ID); exists {
		return fmt.Errorf("add facility %s: %w", f.ID, ErrDuplicateID)
	}
	b, ok := tx.bodies.get(f.BodyID)
	if !ok {
		return fmt.Errorf("add facility %s: %w", f.ID, ErrBodyNotFound)
	}
	if usesOrbital(slot) && b.UsedOrbitalSlots >= b.OrbitalSlots ||
		!usesOrbital(slot) && b.UsedSurfaceSlots >= b.SurfaceSlots {
		return fmt.Errorf("add facility %s on %s: %w", f.ID, b.ID, ErrNoSlot)
	}
	tx.facilities.put(f.ID, f.Clone())
	return tx.UpdateBody(f.BodyID, func(b *world.Body) {
		if usesOrbital(slot) {
			b.UsedOrbitalSlots++
		} else {
			b.UsedSurfaceSlots++
		}
		b.FacilityIDs = append(b.FacilityIDs, f.ID)
	})
}

// RemoveFacility detaches a facility from its body, freeing one slot of the given type.
func (tx *Tx) RemoveFacility(id world.FacilityID, slot catalog.SlotType) error {
	f, ok := tx.facilities.get(id)
	if !ok {
		return fmt.Errorf("remove %s: %w", id, ErrFacilityNotFound)
	}
	tx.facilities.del(id)
	tx.dirty = true
	if _, ok := tx.bodies.get(f.BodyID); !ok {
		return nil
	}
	return tx.UpdateBody(f.BodyID, func(b *world.Body) {
		if usesOrbital(slot) {
			b.UsedOrbitalSlots = max(b.UsedOrbitalSlots-1, 0)
		} else {
			b.UsedSurfaceSlots = max(b.UsedSurfaceSlots-1, 0)
		}
		b.FacilityIDs = slices.DeleteFunc(b.FacilityIDs, func(x world.FacilityID) bool { return x == id })
	})
}

// AddResource credits a system's stock, clamping to capacity. Overflow is
// discarded. It returns the amount actually credited.
func (tx *Tx) AddResource(id world.SystemID, kind catalog.ResourceKind, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if _, ok := tx.systems.get(id); !ok {
		return 0
	}
	credited := 0.0
	_ = tx.UpdateSystem(id, func(s *world.System) {
		stock, i := s.Stock(kind)
		if i < 0 {
			s.Resources = append(s.Resources, stock)
			i = len(s.Resources) - 1
		}
		r := &s.Resources[i]
		next := balance.Clamp(r.Amount+amount, 0, r.Capacity)
		credited = max(next-r.Amount, 0)
		r.Amount = next
	})
	return credited
}

// RemoveResource debits a system's stock. It fails without effect when the
// stock holds less than amount; this is the only guard against negative stock.
func (tx *Tx) RemoveResource(id world.SystemID, kind catalog.ResourceKind, amount float64) bool {
	if amount < 0 {
		return false
	}
	s, ok := tx.systems.get(id)
	if !ok {
		return false
	}
	if amount == 0 {
		return true
	}
	if _, i := s.Stock(kind); i < 0 || s.Resources[i].Amount < amount {
		return false
	}
	_ = tx.UpdateSystem(id, func(s *world.System) {
		_, i := s.Stock(kind)
		s.Resources[i].Amount = max(s.Resources[i].Amount-amount, 0)
	})
	return true
}

// AddCredits credits the player's balance.
func (tx *Tx) AddCredits(amount float64) {
	if amount <= 0 {
		return
	}
	tx.draft.Credits += amount
	tx.dirty = true
}

// RemoveCredits debits the player's balance, failing without effect when it is short.
func (tx *Tx) RemoveCredits(amount float64) bool {
	if amount < 0 || tx.draft.Credits < amount {
		return false
	}
	tx.draft.Credits -= amount
	tx.dirty = true
	return true
}

// Notify appends to the notification log, evicting the oldest entries past the cap.
func (tx *Tx) Notify(kind, title, message string) world.Notification {
	n := world.Notification{
		ID:      uuid.NewString(),
		Kind:    kind,
		Title:   title,
		Message: message,
		At:      tx.now(),
	}
	log := append(slices.Clone(tx.draft.Notifications), n)
	if len(log) > balance.MaxNotifications {
		log = log[len(log)-balance.MaxNotifications:]
	}
	tx.draft.Notifications = log
	tx.dirty = true
	return n
}

// MarkRead flags notifications as read. With no ids, every notification is marked.
func (tx *Tx) MarkRead(ids ...string) {
	log := slices.Clone(tx.draft.Notifications)
	for i := range log {
		if len(ids) == 0 || slices.Contains(ids, log[i].ID) {
			log[i].Read = true
		}
	}
	tx.draft.Notifications = log
	tx.dirty = true
}

// UpdateStatistics applies fn to the statistics record.
func (tx *Tx) UpdateStatistics(fn func(*world.Statistics)) {
	fn(&tx.draft.Statistics)
	tx.dirty = true
}

// UpdateSettings applies fn to the settings record.
func (tx *Tx) UpdateSettings(fn func(*world.Settings)) {
	fn(&tx.draft.Settings)
	tx.dirty = true
}

// UpdatePrestige applies fn to the prestige record.
func (tx *Tx) UpdatePrestige(fn func(*world.Prestige)) {
	fn(&tx.draft.Prestige)
	tx.dirty = true
}

// Touch records t as the last time the game was played.
func (tx *Tx) Touch(t time.Time) {
	tx.draft.LastPlayed = t
	tx.dirty = true
}
