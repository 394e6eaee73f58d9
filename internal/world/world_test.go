package world

import (
	"testing"
	"time"

	"github.com/talgya/idle-galaxy/internal/balance"
	"github.com/talgya/idle-galaxy/internal/catalog"
)

func newGame(t *testing.T) *State {
	t.Helper()
	st, err := NewGame(catalog.Default(), Prestige{Tokens: 3, Count: 1, HighScore: 42}, time.Unix(1000, 0))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return st
}

func TestNewGameIsDeterministic(t *testing.T) {
	a, b := newGame(t), newGame(t)
	if len(a.Facilities) != len(b.Facilities) || len(a.Bodies) != len(b.Bodies) {
		t.Fatal("two new games differ in shape")
	}
	for id := range a.Facilities {
		if _, ok := b.Facilities[id]; !ok {
			t.Errorf("facility %s missing from second game", id)
		}
	}
}

func TestNewGameLinksAgree(t *testing.T) {
	st := newGame(t)
	if st.Prestige.Tokens != 3 || st.Prestige.HighScore != 42 {
		t.Errorf("prestige not carried: %+v", st.Prestige)
	}
	for _, b := range st.Bodies {
		if b.UsedSurfaceSlots > b.SurfaceSlots || b.UsedOrbitalSlots > b.OrbitalSlots {
			t.Errorf("%s: slot usage exceeds slots", b.ID)
		}
		for _, fid := range b.FacilityIDs {
			f, ok := st.Facility(fid)
			if !ok {
				t.Fatalf("%s lists unknown facility %s", b.ID, fid)
			}
			if f.BodyID != b.ID {
				t.Errorf("facility %s owner %s, listed on %s", fid, f.BodyID, b.ID)
			}
		}
	}
	if got := len(st.SystemFacilities(HomeSystemID)); got != len(startingFacilities) {
		t.Errorf("SystemFacilities = %d, want %d", got, len(startingFacilities))
	}
	if len(st.ShipsIn(HomeSystemID)) != 2 {
		t.Error("expected two starting ships")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	st := newGame(t)
	cp := st.Clone()
	cp.Systems[HomeSystemID].Resources[0].Amount = -1
	cp.Bodies["body-terra"].FacilityIDs[0] = "x"
	cp.Notifications = append(cp.Notifications, Notification{ID: "n"})
	if st.Systems[HomeSystemID].Resources[0].Amount == -1 {
		t.Error("clone shares resource stocks")
	}
	if st.Bodies["body-terra"].FacilityIDs[0] == "x" {
		t.Error("clone shares facility lists")
	}
	if len(st.Notifications) != 0 {
		t.Error("clone shares notifications")
	}
}

func TestMigrateFromV1(t *testing.T) {
	old := &State{
		Version: "1",
		Systems: map[SystemID]*System{
			"s": {ID: "s", TotalPopulation: 500, Resources: []ResourceStock{{Resource: catalog.Food, Amount: 1e9}}},
		},
		Notifications: []Notification{{Title: "hello"}},
	}
	st := Migrate(old, nil)

	if st.Version != CurrentVersion {
		t.Errorf("version = %s, want %s", st.Version, CurrentVersion)
	}
	if st.Settings.TickInterval != DefaultSettings().TickInterval {
		t.Errorf("tick interval not defaulted: %v", st.Settings.TickInterval)
	}
	sys := st.Systems["s"]
	if sys.StorageCapacity != balance.BaseStorageCapacity {
		t.Errorf("storage capacity = %v", sys.StorageCapacity)
	}
	if r := sys.Resources[0]; r.Capacity != balance.BaseStorageCapacity || r.Amount != r.Capacity {
		t.Errorf("stock not capped: %+v", r)
	}
	if st.Notifications[0].ID == "" {
		t.Error("notification id not assigned")
	}
	if st.Statistics.PeakPopulation != 500 {
		t.Errorf("peak population = %v, want 500", st.Statistics.PeakPopulation)
	}
	if st.Bodies == nil || st.Ships == nil {
		t.Error("missing maps not initialized")
	}
	if old.Version != "1" || old.Notifications[0].ID != "" {
		t.Error("Migrate modified its input")
	}
}

func TestMigrateNeverFails(t *testing.T) {
	for _, v := range []string{"", "garbage", "0", "99"} {
		t.Run(v, func(t *testing.T) {
			st := Migrate(&State{Version: v}, nil)
			if st == nil || st.Systems == nil {
				t.Fatal("Migrate returned an unusable state")
			}
		})
	}
	if st := Migrate(&State{Version: "99"}, nil); st.Version != "99" {
		t.Errorf("future version rewritten to %s", st.Version)
	}
}

func TestDistanceFromOrigin(t *testing.T) {
	if d := (Coordinates{X: 3, Y: 4}).DistanceFromOrigin(); d != 5 {
		t.Errorf("distance = %v, want 5", d)
	}
}
