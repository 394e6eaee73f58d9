package world

import (
	"maps"
	"slices"
	"sort"
	"time"
)

// Notification is a player-facing message in the capped notification log.
type Notification struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"` // "offline", "construction", "state", ...
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
	Read    bool      `json:"read"`
}

// Settings are player preferences persisted with the game.
type Settings struct {
	TickInterval     time.Duration `json:"tick_interval"`
	AutoSaveInterval time.Duration `json:"auto_save_interval"` // 0 disables autosave
	OfflineProgress  bool          `json:"offline_progress"`
}

// DefaultSettings returns the settings a new game starts with.
func DefaultSettings() Settings {
	return Settings{
		TickInterval:     time.Second,
		AutoSaveInterval: 30 * time.Second,
		OfflineProgress:  true,
	}
}

// Statistics are lifetime counters. The production tick never writes them.
type Statistics struct {
	TicksProcessed       uint64  `json:"ticks_processed"`
	FacilitiesBuilt      int     `json:"facilities_built"`
	FacilitiesDemolished int     `json:"facilities_demolished"`
	FailedBuilds         int     `json:"failed_builds"`
	OfflineHours         float64 `json:"offline_hours"`
	PeakPopulation       float64 `json:"peak_population"`
}

// Prestige survives a prestige reset.
type Prestige struct {
	Tokens    int     `json:"tokens"`
	Count     int     `json:"count"`
	HighScore float64 `json:"high_score"`
}

// State is the complete game aggregate. A published State is never modified;
// the store builds a new one for every change and shares untouched entities.
type State struct {
	Version string `json:"version"`

	Systems    map[SystemID]*System     `json:"systems"`
	Bodies     map[BodyID]*Body         `json:"bodies"`
	Facilities map[FacilityID]*Facility `json:"facilities"`
	Ships      map[ShipID]*Ship         `json:"ships"`

	Credits       float64        `json:"credits"`
	Settings      Settings       `json:"settings"`
	Statistics    Statistics     `json:"statistics"`
	Prestige      Prestige       `json:"prestige"`
	Notifications []Notification `json:"notifications"` // oldest first
	LastPlayed    time.Time      `json:"last_played"`
	HomeSystemID  SystemID       `json:"home_system_id"`
}

// NewState returns an empty aggregate at the current version.
func NewState() *State {
	return &State{
		Version:    CurrentVersion,
		Systems:    make(map[SystemID]*System),
		Bodies:     make(map[BodyID]*Body),
		Facilities: make(map[FacilityID]*Facility),
		Ships:      make(map[ShipID]*Ship),
		Settings:   DefaultSettings(),
	}
}

// Clone returns a deep copy sharing nothing with s.
func (s *State) Clone() *State {
	cp := *s
	cp.Systems = cloneMap(s.Systems, (*System).Clone)
	cp.Bodies = cloneMap(s.Bodies, (*Body).Clone)
	cp.Facilities = cloneMap(s.Facilities, (*Facility).Clone)
	cp.Ships = cloneMap(s.Ships, (*Ship).Clone)
	cp.Notifications = slices.Clone(s.Notifications)
	return &cp
}

func cloneMap[K comparable, V any](m map[K]*V, clone func(*V) *V) map[K]*V {
	out := make(map[K]*V, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

// System returns a system by id. The result must not be modified.
func (s *State) System(id SystemID) (*System, bool) {
	v, ok := s.Systems[id]
	return v, ok
}

// Body returns a body by id. The result must not be modified.
func (s *State) Body(id BodyID) (*Body, bool) {
	v, ok := s.Bodies[id]
	return v, ok
}

// Facility returns a facility by id. The result must not be modified.
func (s *State) Facility(id FacilityID) (*Facility, bool) {
	v, ok := s.Facilities[id]
	return v, ok
}

// Ship returns a ship by id. The result must not be modified.
func (s *State) Ship(id ShipID) (*Ship, bool) {
	v, ok := s.Ships[id]
	return v, ok
}

// SystemIDs returns every system id in sorted order.
func (s *State) SystemIDs() []SystemID {
	ids := slices.Collect(maps.Keys(s.Systems))
	slices.Sort(ids)
	return ids
}

// ColonizedSystemIDs returns the ids of colonized systems in sorted order.
func (s *State) ColonizedSystemIDs() []SystemID {
	var ids []SystemID
	for id, sys := range s.Systems {
		if sys.Colonized {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// SystemBodies returns a system's bodies in the system's body order.
// Dangling ids are skipped.
func (s *State) SystemBodies(id SystemID) []*Body {
	sys, ok := s.Systems[id]
	if !ok {
		return nil
	}
	out := make([]*Body, 0, len(sys.BodyIDs))
	for _, bid := range sys.BodyIDs {
		if b, ok := s.Bodies[bid]; ok {
			out = append(out, b)
		}
	}
	return out
}

// SystemFacilities collects a system's facilities through its bodies,
// in body order then build order.
func (s *State) SystemFacilities(id SystemID) []*Facility {
	var out []*Facility
	for _, b := range s.SystemBodies(id) {
		for _, fid := range b.FacilityIDs {
			if f, ok := s.Facilities[fid]; ok {
				out = append(out, f)
			}
		}
	}
	return out
}

// FacilitySystem returns the system that owns a facility.
func (s *State) FacilitySystem(id FacilityID) (*System, bool) {
	f, ok := s.Facilities[id]
	if !ok {
		return nil, false
	}
	b, ok := s.Bodies[f.BodyID]
	if !ok {
		return nil, false
	}
	return s.System(b.SystemID)
}

// TotalPopulation sums population over every system.
func (s *State) TotalPopulation() float64 {
	total := 0.0
	for _, sys := range s.Systems {
		total += sys.TotalPopulation
	}
	return total
}

// UnreadNotifications returns unread notifications, newest first.
func (s *State) UnreadNotifications() []Notification {
	var out []Notification
	for i := len(s.Notifications) - 1; i >= 0; i-- {
		if !s.Notifications[i].Read {
			out = append(out, s.Notifications[i])
		}
	}
	return out
}

// ShipsIn returns the ships docked in a system, sorted by id.
func (s *State) ShipsIn(id SystemID) []*Ship {
	var out []*Ship
	for _, sh := range s.Ships {
		if sh.SystemID == id {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
