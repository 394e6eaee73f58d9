// Package store holds the authoritative world state. Every mutation builds a
// new world.State and publishes it atomically, so a reader holding an earlier
// snapshot never observes a half-applied change.
package store

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/world"
)

var (
	ErrSystemNotFound   = errors.New("system not found")
	ErrBodyNotFound     = errors.New("body not found")
	ErrFacilityNotFound = errors.New("facility not found")
	ErrShipNotFound     = errors.New("ship not found")
	ErrDuplicateID      = errors.New("duplicate id")
	ErrNoSlot           = errors.New("no free slot")
)

// Store is the single writer of the world aggregate.
type Store struct {
	mu    sync.Mutex // serializes writers
	state atomic.Pointer[world.State]

	Now    func() time.Time
	Logger *slog.Logger
}

// New returns a store publishing st. A nil st starts from an empty aggregate.
func New(st *world.State) *Store {
	if st == nil {
		st = world.NewState()
	}
	s := &Store{Now: time.Now}
	s.state.Store(st)
	return s
}

func (s *Store) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get returns the current snapshot. The result is shared and must not be modified.
func (s *Store) Get() *world.State {
	st := s.state.Load()
	if st == nil {
		panic("store: no world state")
	}
	return st
}

// Replace publishes st wholesale.
func (s *Store) Replace(st *world.State) {
	if st == nil {
		panic("store: replace with nil world state")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Store(st)
}

// Load migrates a persisted snapshot to the current version and replaces the
// aggregate with it. The caller keeps ownership of snap.
func (s *Store) Load(snap *world.State) {
	from := snap.Version
	st := world.Migrate(snap, s.log())
	s.Replace(st)
	s.log().Info("world state loaded",
		"version", from,
		"systems", len(st.Systems),
		"facilities", len(st.Facilities),
	)
}

// Snapshot returns a deep copy of the current aggregate, safe to serialize
// or modify.
func (s *Store) Snapshot() *world.State {
	return s.Get().Clone()
}

// Batch runs fn against a draft of the next state and publishes the draft if
// fn returns nil. On error nothing is published. Batches are serialized;
// fn must not call back into the store.
func (s *Store) Batch(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := newTx(s.Get(), s.now)
	if err := fn(tx); err != nil {
		return err
	}
	s.state.Store(tx.commit())
	return nil
}

// UpdateSystem applies fn to a copy of the system and publishes it.
func (s *Store) UpdateSystem(id world.SystemID, fn func(*world.System)) error {
	return s.Batch(func(tx *Tx) error { return tx.UpdateSystem(id, fn) })
}

// UpdateBody applies fn to a copy of the body and publishes it.
func (s *Store) UpdateBody(id world.BodyID, fn func(*world.Body)) error {
	return s.Batch(func(tx *Tx) error { return tx.UpdateBody(id, fn) })
}

// UpdateFacility applies fn to a copy of the facility and publishes it.
func (s *Store) UpdateFacility(id world.FacilityID, fn func(*world.Facility)) error {
	return s.Batch(func(tx *Tx) error { return tx.UpdateFacility(id, fn) })
}

// UpdateShip applies fn to a copy of the ship and publishes it.
func (s *Store) UpdateShip(id world.ShipID, fn func(*world.Ship)) error {
	return s.Batch(func(tx *Tx) error { return tx.UpdateShip(id, fn) })
}

// AddSystem inserts or replaces a system.
func (s *Store) AddSystem(sys *world.System) {
	_ = s.Batch(func(tx *Tx) error { tx.AddSystem(sys); return nil })
}

// AddBody inserts a body into an existing system.
func (s *Store) AddBody(b *world.Body) error {
	return s.Batch(func(tx *Tx) error { return tx.AddBody(b) })
}

// AddShip inserts or replaces a ship.
func (s *Store) AddShip(sh *world.Ship) {
	_ = s.Batch(func(tx *Tx) error { tx.AddShip(sh); return nil })
}

// RemoveShip deletes a ship.
func (s *Store) RemoveShip(id world.ShipID) error {
	return s.Batch(func(tx *Tx) error { return tx.RemoveShip(id) })
}

// AddFacility attaches a facility to its body.
func (s *Store) AddFacility(f *world.Facility, slot catalog.SlotType) error {
	return s.Batch(func(tx *Tx) error { return tx.AddFacility(f, slot) })
}

// RemoveFacility detaches a facility from its body.
func (s *Store) RemoveFacility(id world.FacilityID, slot catalog.SlotType) error {
	return s.Batch(func(tx *Tx) error { return tx.RemoveFacility(id, slot) })
}

// AddResource credits a system's stock, clamped to capacity.
func (s *Store) AddResource(id world.SystemID, kind catalog.ResourceKind, amount float64) float64 {
	var credited float64
	_ = s.Batch(func(tx *Tx) error {
		credited = tx.AddResource(id, kind, amount)
		return nil
	})
	return credited
}

// RemoveResource debits a system's stock; false means insufficient stock and no change.
func (s *Store) RemoveResource(id world.SystemID, kind catalog.ResourceKind, amount float64) bool {
	var ok bool
	_ = s.Batch(func(tx *Tx) error {
		ok = tx.RemoveResource(id, kind, amount)
		return nil
	})
	return ok
}

// AddCredits credits the player's balance.
func (s *Store) AddCredits(amount float64) {
	_ = s.Batch(func(tx *Tx) error { tx.AddCredits(amount); return nil })
}

// RemoveCredits debits the player's balance; false means insufficient credits and no change.
func (s *Store) RemoveCredits(amount float64) bool {
	var ok bool
	_ = s.Batch(func(tx *Tx) error {
		ok = tx.RemoveCredits(amount)
		return nil
	})
	return ok
}

// Notify appends a notification.
func (s *Store) Notify(kind, title, message string) world.Notification {
	var n world.Notification
	_ = s.Batch(func(tx *Tx) error {
		n = tx.Notify(kind, title, message)
		return nil
	})
	return n
}

// MarkRead flags the given notifications, or all of them, as read.
func (s *Store) MarkRead(ids ...string) {
	_ = s.Batch(func(tx *Tx) error { tx.MarkRead(ids...); return nil })
}

// UpdateStatistics applies fn to the statistics record.
func (s *Store) UpdateStatistics(fn func(*world.Statistics)) {
	_ = s.Batch(func(tx *Tx) error { tx.UpdateStatistics(fn); return nil })
}

// UpdateSettings applies fn to the settings record.
func (s *Store) UpdateSettings(fn func(*world.Settings)) {
	_ = s.Batch(func(tx *Tx) error { tx.UpdateSettings(fn); return nil })
}

// UpdatePrestige applies fn to the prestige record.
func (s *Store) UpdatePrestige(fn func(*world.Prestige)) {
	_ = s.Batch(func(tx *Tx) error { tx.UpdatePrestige(fn); return nil })
}

// Touch records t as the last played time.
func (s *Store) Touch(t time.Time) {
	_ = s.Batch(func(tx *Tx) error { tx.Touch(t); return nil })
}
