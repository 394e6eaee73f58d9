package world

import (
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/talgya/idle-galaxy/internal/balance"
)

// CurrentVersion is the snapshot format written by this build.
//
//	1: entity maps and scalars only
//	2: settings, per-stock capacity
//	3: prestige record, notification ids
const CurrentVersion = "3"

var migrations = map[int]func(*State){
	1: migrateV1toV2,
	2: migrateV2toV3,
}

// Migrate brings a loaded snapshot forward to CurrentVersion, filling fields
// introduced since it was written with defaults. It never fails: unparseable
// versions are treated as version 1 and future versions load unchanged.
// The input is not modified.
func Migrate(snap *State, log *slog.Logger) *State {
	if log == nil {
		log = slog.Default()
	}
	st := snap.Clone()
	ensureMaps(st)

	cur, _ := strconv.Atoi(CurrentVersion)
	v, err := strconv.Atoi(st.Version)
	if err != nil || v < 1 {
		log.Warn("snapshot version unreadable, assuming 1", "version", st.Version)
		v = 1
	}
	if v > cur {
		log.Warn("snapshot written by a newer build, loading as-is", "version", st.Version, "current", CurrentVersion)
		return st
	}
	for ; v < cur; v++ {
		migrations[v](st)
		log.Info("migrated snapshot", "from", v, "to", v+1)
	}
	st.Version = CurrentVersion
	return st
}

func ensureMaps(st *State) {
	if st.Systems == nil {
		st.Systems = make(map[SystemID]*System)
	}
	if st.Bodies == nil {
		st.Bodies = make(map[BodyID]*Body)
	}
	if st.Facilities == nil {
		st.Facilities = make(map[FacilityID]*Facility)
	}
	if st.Ships == nil {
		st.Ships = make(map[ShipID]*Ship)
	}
}

func migrateV1toV2(st *State) {
	def := DefaultSettings()
	if st.Settings.TickInterval <= 0 {
		st.Settings.TickInterval = def.TickInterval
	}
	if st.Settings.AutoSaveInterval == 0 {
		st.Settings.AutoSaveInterval = def.AutoSaveInterval
	}
	if !st.Settings.OfflineProgress {
		st.Settings.OfflineProgress = def.OfflineProgress
	}
	for _, sys := range st.Systems {
		if sys.StorageCapacity <= 0 {
			sys.StorageCapacity = balance.StorageCapacityForTier(sys.TradeStationTier)
		}
		for i := range sys.Resources {
			r := &sys.Resources[i]
			if r.Capacity <= 0 {
				r.Capacity = sys.StorageCapacity
			}
			r.Amount = balance.Clamp(r.Amount, 0, r.Capacity)
		}
	}
}

func migrateV2toV3(st *State) {
	st.Prestige.Tokens = max(st.Prestige.Tokens, 0)
	st.Prestige.Count = max(st.Prestige.Count, 0)
	for i := range st.Notifications {
		if st.Notifications[i].ID == "" {
			st.Notifications[i].ID = uuid.NewString()
		}
	}
	if n := len(st.Notifications); n > balance.MaxNotifications {
		st.Notifications = st.Notifications[n-balance.MaxNotifications:]
	}
	st.Statistics.PeakPopulation = max(st.Statistics.PeakPopulation, st.TotalPopulation())
}
