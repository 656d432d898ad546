package sim

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"fleetsim/internal/cache"
	"fleetsim/internal/metrics"
	"fleetsim/internal/model"
	"fleetsim/internal/store"
)

// ValidationError marks malformed or insufficient request parameters. It is
// surfaced to the caller before any side effects.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// simParams is the normalized cache-key parameter set for one run.
type simParams struct {
	NumDrivers        int     `json:"numDrivers"`
	StartTime         string  `json:"startTime"`
	MaxHoursPerDriver float64 `json:"maxHoursPerDriver"`
}

// Runner orchestrates one simulation request: validate, consult the cache,
// and on a miss run the engine, persist the run, roll the driver histories
// forward, and populate the cache.
type Runner struct {
	Store store.Store
	Cache *cache.Service

	// runMu serializes the load->assign->persist->update pipeline. Two
	// concurrent runs over overlapping drivers would otherwise race on the
	// read-modify-write of each driver's rolling history and drop one run's
	// update (last writer wins on the stored driver).
	runMu sync.Mutex
}

func NewRunner(st store.Store, cs *cache.Service) *Runner {
	return &Runner{Store: st, Cache: cs}
}

// Run executes the full request state machine and returns the response with
// cache provenance. Cache failures degrade silently; persistence failures are
// fatal to the request and already-committed writes are not rolled back.
func (r *Runner) Run(ctx context.Context, req model.SimulationRequest) (model.SimulationResponse, error) {
	start := time.Now()

	params, err := normalizeParams(req)
	if err != nil {
		return model.SimulationResponse{}, err
	}

	var cached model.SimulationRun
	state, key := r.Cache.GetSimulation(ctx, params, &cached)
	if state == cache.Hit {
		metrics.SimulationRuns.WithLabelValues("cached").Inc()
		return model.SimulationResponse{SimulationRun: cached, FromCache: true, CacheKey: key}, nil
	}

	r.runMu.Lock()
	defer r.runMu.Unlock()

	drivers, err := r.Store.ListDrivers(ctx, params.NumDrivers)
	if err != nil {
		metrics.SimulationRuns.WithLabelValues("error").Inc()
		return model.SimulationResponse{}, fmt.Errorf("load drivers: %w", err)
	}
	if len(drivers) < params.NumDrivers {
		return model.SimulationResponse{}, invalid("not enough drivers available: have %d, requested %d", len(drivers), params.NumDrivers)
	}
	routes, err := r.Store.ListRoutes(ctx)
	if err != nil {
		metrics.SimulationRuns.WithLabelValues("error").Inc()
		return model.SimulationResponse{}, fmt.Errorf("load routes: %w", err)
	}
	orders, err := r.Store.ListOrders(ctx)
	if err != nil {
		metrics.SimulationRuns.WithLabelValues("error").Inc()
		return model.SimulationResponse{}, fmt.Errorf("load orders: %w", err)
	}

	res := Assign(drivers, routes, orders, params.MaxHoursPerDriver)

	run, err := r.Store.CreateSimulation(ctx, model.SimulationRun{
		NumDrivers:        params.NumDrivers,
		StartTime:         params.StartTime,
		MaxHoursPerDriver: params.MaxHoursPerDriver,
		TotalProfit:       res.TotalProfit,
		EfficiencyScore:   res.EfficiencyScore,
		OnTimeDeliveries:  res.OnTimeDeliveries,
		LateDeliveries:    res.LateDeliveries,
		FuelCost:          res.FuelCost,
	})
	if err != nil {
		metrics.SimulationRuns.WithLabelValues("error").Inc()
		return model.SimulationResponse{}, fmt.Errorf("persist simulation: %w", err)
	}

	for i := range drivers {
		drivers[i].PastWeekHours = pushHours(drivers[i].PastWeekHours, res.DriverMinutes[i]/60)
		if _, err := r.Store.SaveDriver(ctx, drivers[i]); err != nil {
			// Earlier driver saves stay committed; at-least-once, non-transactional.
			metrics.SimulationRuns.WithLabelValues("error").Inc()
			return model.SimulationResponse{}, fmt.Errorf("save driver %s: %w", drivers[i].ID, err)
		}
	}

	if ok, _ := r.Cache.SetSimulation(ctx, params, run); !ok {
		log.Printf("sim: cache write skipped for run %s", run.ID)
	}
	// A new run makes every cached list view stale.
	r.Cache.InvalidateList(ctx, "simulations")

	metrics.SimulationRuns.WithLabelValues("computed").Inc()
	metrics.SimulationDuration.Observe(time.Since(start).Seconds())
	return model.SimulationResponse{SimulationRun: run, FromCache: false}, nil
}

// List serves the paginated run history with check-then-populate caching at
// the short list TTL.
func (r *Runner) List(ctx context.Context, q model.ListQuery) (model.SimulationList, error) {
	q = normalizeListQuery(q)

	var cached model.SimulationList
	if state, _ := r.Cache.GetList(ctx, "simulations", q, &cached); state == cache.Hit {
		cached.FromCache = true
		return cached, nil
	}

	total, err := r.Store.CountSimulations(ctx)
	if err != nil {
		return model.SimulationList{}, fmt.Errorf("count simulations: %w", err)
	}
	runs, err := r.Store.ListSimulations(ctx, (q.Page-1)*q.Limit, q.Limit, q.SortBy, q.SortOrder)
	if err != nil {
		return model.SimulationList{}, fmt.Errorf("list simulations: %w", err)
	}

	out := model.SimulationList{
		Simulations: runs,
		Pagination: model.Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: (total + q.Limit - 1) / q.Limit,
		},
	}
	r.Cache.SetList(ctx, "simulations", q, out)
	return out, nil
}

// Latest returns the most recent run, or found=false when none exist.
func (r *Runner) Latest(ctx context.Context) (model.SimulationRun, bool, error) {
	run, err := r.Store.LatestSimulation(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return model.SimulationRun{}, false, nil
	}
	if err != nil {
		return model.SimulationRun{}, false, err
	}
	return run, true, nil
}

func normalizeParams(req model.SimulationRequest) (simParams, error) {
	if req.NumDrivers <= 0 {
		return simParams{}, invalid("numDrivers must be a positive integer")
	}
	if req.MaxHoursPerDriver <= 0 {
		return simParams{}, invalid("maxHoursPerDriver must be a positive number")
	}
	st, err := normalizeStartTime(req.StartTime)
	if err != nil {
		return simParams{}, err
	}
	return simParams{NumDrivers: req.NumDrivers, StartTime: st, MaxHoursPerDriver: req.MaxHoursPerDriver}, nil
}

// normalizeStartTime accepts RFC3339 timestamps or bare "HH:MM" shift starts
// and maps semantically equal inputs to one canonical string, so they build
// identical cache keys.
func normalizeStartTime(s string) (string, error) {
	if s == "" {
		return "", invalid("startTime is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(time.RFC3339), nil
	}
	if t, err := time.Parse("15:04", s); err == nil {
		return t.Format("15:04"), nil
	}
	return "", invalid("startTime must be RFC3339 or HH:MM, got %q", s)
}

func normalizeListQuery(q model.ListQuery) model.ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	switch q.SortBy {
	case "createdAt", "totalProfit", "efficiencyScore":
	default:
		q.SortBy = "createdAt"
	}
	if q.SortOrder != "asc" {
		q.SortOrder = "desc"
	}
	return q
}

// pushHours appends a day's total to the rolling window, evicting the oldest
// entry to hold the length at 7.
func pushHours(window []float64, hours float64) []float64 {
	if len(window) >= 7 {
		window = window[len(window)-6:]
	}
	return append(append([]float64(nil), window...), hours)
}
