package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleetsim/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
// Drivers keep insertion order so a prefix slice of the pool is stable
// across calls, which the assignment engine's determinism relies on.
type Memory struct {
	mu        sync.Mutex
	drivers   map[string]model.Driver
	driverIDs []string
	routes    []model.Route
	orders    []model.Order
	runs      []model.SimulationRun
}

func NewMemory() *Memory {
	return &Memory{drivers: map[string]model.Driver{}}
}

// SeedDrivers, SeedRoutes and SeedOrders load fixture data. They are not part
// of the Store interface; tests and the dev bootstrap use them directly.
func (m *Memory) SeedDrivers(ds []model.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range ds {
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		if _, ok := m.drivers[d.ID]; !ok {
			m.driverIDs = append(m.driverIDs, d.ID)
		}
		m.drivers[d.ID] = d
	}
}

func (m *Memory) SeedRoutes(rs []model.Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rs {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		m.routes = append(m.routes, r)
	}
}

func (m *Memory) SeedOrders(os []model.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range os {
		if o.ID == "" {
			o.ID = uuid.New().String()
		}
		m.orders = append(m.orders, o)
	}
}

func (m *Memory) ListDrivers(ctx context.Context, limit int) ([]model.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.driverIDs
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]model.Driver, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneDriver(m.drivers[id]))
	}
	return out, nil
}

func (m *Memory) SaveDriver(ctx context.Context, d model.Driver) (model.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[d.ID]; !ok {
		return model.Driver{}, ErrNotFound
	}
	m.drivers[d.ID] = cloneDriver(d)
	return d, nil
}

func (m *Memory) CountDrivers(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.driverIDs), nil
}

func (m *Memory) ListRoutes(ctx context.Context) ([]model.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Route(nil), m.routes...), nil
}

func (m *Memory) CountRoutes(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.routes), nil
}

func (m *Memory) ListOrders(ctx context.Context) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Order(nil), m.orders...), nil
}

func (m *Memory) CountOrders(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders), nil
}

func (m *Memory) CreateSimulation(ctx context.Context, run model.SimulationRun) (model.SimulationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	m.runs = append(m.runs, run)
	return run, nil
}

func (m *Memory) LatestSimulation(ctx context.Context) (model.SimulationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return model.SimulationRun{}, ErrNotFound
	}
	latest := m.runs[0]
	for _, r := range m.runs[1:] {
		if r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest, nil
}

func (m *Memory) ListSimulations(ctx context.Context, offset, limit int, sortField, sortDir string) ([]model.SimulationRun, error) {
	m.mu.Lock()
	runs := append([]model.SimulationRun(nil), m.runs...)
	m.mu.Unlock()

	asc := sortDir == "asc"
	sort.SliceStable(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]
		if !asc {
			a, b = b, a
		}
		switch sortField {
		case "totalProfit":
			return a.TotalProfit < b.TotalProfit
		case "efficiencyScore":
			return a.EfficiencyScore < b.EfficiencyScore
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})

	if offset >= len(runs) {
		return []model.SimulationRun{}, nil
	}
	runs = runs[offset:]
	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *Memory) CountSimulations(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs), nil
}

func cloneDriver(d model.Driver) model.Driver {
	d.PastWeekHours = append([]float64(nil), d.PastWeekHours...)
	return d
}
