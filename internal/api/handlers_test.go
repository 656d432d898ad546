package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"fleetsim/internal/cache"
	"fleetsim/internal/model"
	"fleetsim/internal/sim"
	"fleetsim/internal/store"
)

// newTestServer wires a seeded in-memory store with an unreachable cache, the
// common local-dev shape: everything works, every lookup is a miss.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	m := store.NewMemory()
	m.SeedDrivers([]model.Driver{
		{ID: "d1", Name: "asha", ShiftHours: 8, PastWeekHours: []float64{6, 7}},
		{ID: "d2", Name: "ravi", ShiftHours: 8, PastWeekHours: []float64{8, 9}},
	})
	m.SeedRoutes([]model.Route{{RouteID: 1, DistanceKm: 10, TrafficLevel: model.TrafficLow, BaseTimeMin: 30}})
	m.SeedOrders([]model.Order{
		{OrderID: 1, ValueRs: 1500, RouteID: 1},
		{OrderID: 2, ValueRs: 500, RouteID: 1},
	})
	cs := cache.NewService(cache.New("127.0.0.1:1"))
	return &Server{Store: m, Cache: cs, Runner: sim.NewRunner(m, cs), Broker: NewBroker()}
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestRunSimulation(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"numDrivers":2,"startTime":"09:00","maxHoursPerDriver":8}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/simulations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.SimulationsHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("run: got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp model.SimulationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.FromCache {
		t.Fatal("fresh run flagged as cached")
	}
	if resp.TotalProfit != 2000 || resp.EfficiencyScore != 50 {
		t.Fatalf("aggregates: %+v", resp.SimulationRun)
	}
}

func TestRunSimulationValidation(t *testing.T) {
	s := newTestServer(t)
	cases := []string{
		`{"numDrivers":0,"startTime":"09:00","maxHoursPerDriver":8}`,
		`{"numDrivers":2,"maxHoursPerDriver":8}`,
		`{"numDrivers":2,"startTime":"09:00","maxHoursPerDriver":-1}`,
		`{"numDrivers":99,"startTime":"09:00","maxHoursPerDriver":8}`,
		`not json`,
	}
	for _, body := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/simulations", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		s.SimulationsHandler(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %s: got %d, want 400", body, rr.Code)
		}
	}
}

func TestListSimulations(t *testing.T) {
	s := newTestServer(t)
	// seed two runs
	for _, hours := range []string{"8", "9"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/simulations",
			strings.NewReader(`{"numDrivers":2,"startTime":"09:00","maxHoursPerDriver":`+hours+`}`))
		req.Header.Set("Content-Type", "application/json")
		s.SimulationsHandler(rr, req)
		if rr.Code != http.StatusCreated {
			t.Fatalf("seed run: %d", rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	s.SimulationsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/simulations?page=1&limit=1&sortBy=createdAt&sortOrder=desc", nil))
	if rr.Code != 200 {
		t.Fatalf("list: got %d", rr.Code)
	}
	var list model.SimulationList
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Simulations) != 1 || list.Pagination.Total != 2 || list.Pagination.TotalPages != 2 {
		t.Fatalf("envelope: %+v", list.Pagination)
	}
}

func TestLatestSimulation(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	s.SimulationLatestHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/simulations/latest", nil))
	if rr.Code != 200 {
		t.Fatalf("latest: got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "null" {
		t.Fatalf("empty history should serve null, got %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/simulations",
		strings.NewReader(`{"numDrivers":1,"startTime":"09:00","maxHoursPerDriver":8}`))
	req.Header.Set("Content-Type", "application/json")
	s.SimulationsHandler(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("run: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.SimulationLatestHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/simulations/latest", nil))
	var run model.SimulationRun
	if err := json.Unmarshal(rr.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.NumDrivers != 1 {
		t.Fatalf("latest run: %+v", run)
	}
}

func TestCacheStatsDisconnected(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.CacheStatsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/simulations/cache/stats", nil))
	if rr.Code != 200 {
		t.Fatalf("stats: got %d", rr.Code)
	}
	var stats model.CacheStats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Connected {
		t.Fatal("stats report connected without redis")
	}
	if stats.SimulationTTL != 1800 || stats.ListTTL != 600 {
		t.Fatalf("ttls: %+v", stats)
	}
}

func TestCacheClear(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/simulations/cache/clear", strings.NewReader(`{"type":"bogus"}`))
	s.CacheClearHandler(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bogus type: got %d, want 400", rr.Code)
	}

	for _, typ := range []string{"simulations", "lists", "all"} {
		rr = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodPost, "/v1/simulations/cache/clear", strings.NewReader(`{"type":"`+typ+`"}`))
		s.CacheClearHandler(rr, req)
		if rr.Code != 200 {
			t.Fatalf("clear %s: got %d", typ, rr.Code)
		}
	}
}

func TestStreamDeliversRunEvents(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(http.HandlerFunc(s.StreamHandler))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/simulations/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	// Give the handler time to subscribe before publishing.
	time.Sleep(50 * time.Millisecond)
	s.Broker.Publish(Event{Type: "simulation.completed", Data: map[string]any{"id": "run-1"}})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "simulation.completed" || msg.Data["id"] != "run-1" {
		t.Fatalf("event: %+v", msg)
	}
}
