package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/talgya/idle-galaxy/internal/catalog"
	"github.com/talgya/idle-galaxy/internal/engine"
	"github.com/talgya/idle-galaxy/internal/metrics"
	"github.com/talgya/idle-galaxy/internal/store"
	"github.com/talgya/idle-galaxy/internal/world"
)

var testStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestServer(t *testing.T) (*Server, *engine.Simulation) {
	t.Helper()
	logger := newTestLogger()
	sim := engine.NewSimulation(store.New(nil), catalog.Default(), engine.DefaultSchedulerConfig(), nil, logger)
	if err := sim.NewGame(world.Prestige{}, testStart); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return &Server{Sim: sim, Logger: logger}, sim
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := get(t, srv.Handler(), "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Running    bool               `json:"running"`
		HomeSystem world.SystemID     `json:"home_system"`
		Totals     store.GalaxyTotals `json:"totals"`
	}
	decodeBody(t, rec, &body)
	if body.Running || body.HomeSystem != world.HomeSystemID || body.Totals.Systems != 1 {
		t.Errorf("status = %+v", body)
	}
}

func TestSystems(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	var list []store.SystemSummary
	decodeBody(t, get(t, h, "/api/v1/systems?colonized=true"), &list)
	if len(list) != 1 || list[0].ID != world.HomeSystemID || !list[0].Colonized {
		t.Errorf("systems = %+v", list)
	}

	rec := get(t, h, "/api/v1/systems/"+string(world.HomeSystemID))
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d", rec.Code)
	}
	var detail struct {
		Summary    store.SystemSummary `json:"summary"`
		Facilities []struct {
			ID world.FacilityID `json:"id"`
		} `json:"facilities"`
		Ships []struct {
			ID world.ShipID `json:"id"`
		} `json:"ships"`
	}
	decodeBody(t, rec, &detail)
	if detail.Summary.Facilities != len(detail.Facilities) || len(detail.Facilities) == 0 {
		t.Errorf("facilities: summary %d, listed %d", detail.Summary.Facilities, len(detail.Facilities))
	}
	if len(detail.Ships) != 2 {
		t.Errorf("ships = %v", detail.Ships)
	}

	if rec := get(t, h, "/api/v1/systems/sys-nowhere"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown system status = %d", rec.Code)
	}
}

func TestEconomy(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	var rep engine.EconomyReport
	decodeBody(t, get(t, h, "/api/v1/economy/"+string(world.HomeSystemID)), &rep)
	if rep.SystemID != world.HomeSystemID || len(rep.Lines) == 0 {
		t.Errorf("economy = %+v", rep)
	}
	for _, l := range rep.Lines {
		if want := l.Gross - l.Draw - l.Consumption; l.Net != want {
			t.Errorf("%s net = %v, want %v", l.Resource, l.Net, want)
		}
	}
	if rec := get(t, h, "/api/v1/economy/sys-nowhere"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown system status = %d", rec.Code)
	}
}

func TestNotifications(t *testing.T) {
	srv, sim := newTestServer(t)
	h := srv.Handler()
	first := sim.Store.Notify("test", "first", "one")
	sim.Store.Notify("test", "second", "two")
	sim.Store.Notify("test", "third", "three")
	sim.Store.MarkRead(first.ID)

	var all []world.Notification
	decodeBody(t, get(t, h, "/api/v1/notifications"), &all)
	if len(all) < 3 || all[0].Title != "third" {
		t.Fatalf("notifications = %+v", all)
	}

	var unread []world.Notification
	decodeBody(t, get(t, h, "/api/v1/notifications?unread=true&limit=5"), &unread)
	for _, n := range unread {
		if n.Read {
			t.Errorf("read notification %q listed as unread", n.Title)
		}
	}

	var limited []world.Notification
	decodeBody(t, get(t, h, "/api/v1/notifications?limit=1"), &limited)
	if len(limited) != 1 || limited[0].Title != "third" {
		t.Errorf("limit=1 = %+v", limited)
	}

	if rec := get(t, h, "/api/v1/notifications?limit=-2"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", rec.Code)
	}
}

func TestReadEndpointsRejectPost(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.AdminKey = "k"
	for _, path := range []string{"/api/v1/status", "/api/v1/systems", "/api/v1/bodies/body-terra/quote?kind=mine"} {
		rec := post(t, srv.Handler(), path, "k", "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s status = %d", path, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	if rec := get(t, srv.Handler(), "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("/metrics without gatherer = %d", rec.Code)
	}

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewPrometheus(reg)
	if err != nil {
		t.Fatal(err)
	}
	rec.ObserveWorld(1500, 1000)
	srv.Gatherer = reg

	out := get(t, srv.Handler(), "/metrics")
	if out.Code != http.StatusOK || !strings.Contains(out.Body.String(), "idlegalaxy_credits 1500") {
		t.Errorf("/metrics = %d %q", out.Code, out.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	clock := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	srv.Limiter = NewRateLimiter(2, time.Minute)
	srv.Limiter.Now = func() time.Time { return clock }
	h := srv.Handler()

	for i := range 2 {
		if rec := get(t, h, "/api/v1/status"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := get(t, h, "/api/v1/status")
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "61" {
		t.Errorf("third request = %d retry %q", rec.Code, rec.Header().Get("Retry-After"))
	}

	clock = clock.Add(time.Minute)
	if rec := get(t, h, "/api/v1/status"); rec.Code != http.StatusOK {
		t.Errorf("after window status = %d", rec.Code)
	}
}

func TestClientAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	if got := clientAddr(r); got != "10.0.0.7" {
		t.Errorf("clientAddr = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientAddr(r); got != "203.0.113.9" {
		t.Errorf("clientAddr with XFF = %q", got)
	}
}
