package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetsim/internal/model"
)

func runAt(id string, profit float64, score int, ts time.Time) model.SimulationRun {
	return model.SimulationRun{ID: id, TotalProfit: profit, EfficiencyScore: score, CreatedAt: ts}
}

func seededRuns(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	for i, r := range []model.SimulationRun{
		runAt("r1", 100, 90, base),
		runAt("r2", 300, 70, base.Add(time.Hour)),
		runAt("r3", 200, 80, base.Add(2*time.Hour)),
	} {
		if _, err := m.CreateSimulation(ctx, r); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	return m
}

func TestMemoryDriverOrderStable(t *testing.T) {
	m := NewMemory()
	m.SeedDrivers([]model.Driver{
		{ID: "a", Name: "first"},
		{ID: "b", Name: "second"},
		{ID: "c", Name: "third"},
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ds, err := m.ListDrivers(ctx, 2)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(ds) != 2 || ds[0].ID != "a" || ds[1].ID != "b" {
			t.Fatalf("iteration %d: unstable prefix %+v", i, ds)
		}
	}
}

func TestMemoryListDriversReturnsCopies(t *testing.T) {
	m := NewMemory()
	m.SeedDrivers([]model.Driver{{ID: "a", PastWeekHours: []float64{1, 2}}})
	ctx := context.Background()

	ds, _ := m.ListDrivers(ctx, 0)
	ds[0].PastWeekHours[0] = 99

	again, _ := m.ListDrivers(ctx, 0)
	if again[0].PastWeekHours[0] != 1 {
		t.Fatalf("caller mutation leaked into store: %v", again[0].PastWeekHours)
	}
}

func TestMemorySaveDriverUnknown(t *testing.T) {
	m := NewMemory()
	_, err := m.SaveDriver(context.Background(), model.Driver{ID: "ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestMemoryListSimulationsSort(t *testing.T) {
	m := seededRuns(t)
	ctx := context.Background()

	runs, err := m.ListSimulations(ctx, 0, 0, "createdAt", "desc")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if runs[0].ID != "r3" || runs[2].ID != "r1" {
		t.Fatalf("createdAt desc: %v %v %v", runs[0].ID, runs[1].ID, runs[2].ID)
	}

	runs, _ = m.ListSimulations(ctx, 0, 0, "totalProfit", "asc")
	if runs[0].ID != "r1" || runs[2].ID != "r2" {
		t.Fatalf("totalProfit asc: %v %v %v", runs[0].ID, runs[1].ID, runs[2].ID)
	}

	runs, _ = m.ListSimulations(ctx, 0, 0, "efficiencyScore", "desc")
	if runs[0].ID != "r1" {
		t.Fatalf("efficiencyScore desc: %v", runs[0].ID)
	}
}

func TestMemoryListSimulationsPaging(t *testing.T) {
	m := seededRuns(t)
	ctx := context.Background()

	runs, _ := m.ListSimulations(ctx, 1, 1, "createdAt", "asc")
	if len(runs) != 1 || runs[0].ID != "r2" {
		t.Fatalf("offset 1 limit 1: %+v", runs)
	}

	runs, _ = m.ListSimulations(ctx, 10, 5, "createdAt", "asc")
	if len(runs) != 0 {
		t.Fatalf("offset past end: %+v", runs)
	}
}

func TestMemoryLatestSimulation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.LatestSimulation(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty store: got %v, want ErrNotFound", err)
	}

	m = seededRuns(t)
	latest, err := m.LatestSimulation(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != "r3" {
		t.Fatalf("latest: got %s, want r3", latest.ID)
	}
}
