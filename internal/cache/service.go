package cache

import (
	"context"
	"log"
	"time"

	"fleetsim/internal/metrics"
	"fleetsim/internal/model"
)

// TTLs per cache class. Simulation results are deterministic projections of
// stored state, so they keep longer; list views grow with every run and
// tolerate less staleness.
const (
	SimulationTTL = 1800 * time.Second
	ListTTL       = 600 * time.Second
)

// State is the outcome of a cache lookup. Miss and Unavailable both mean
// "proceed without cache" at the call site but stay distinguishable for
// observability.
type State int

const (
	Miss State = iota
	Hit
	Unavailable
)

// Service provides the typed cache wrappers over Client. All operations are
// best-effort: they log failures and report them as booleans, never errors.
type Service struct {
	client *Client
}

func NewService(c *Client) *Service { return &Service{client: c} }

// GetSimulation looks a result up under the simulation namespace and decodes
// it into dest on a hit. The resolved key is always returned.
func (s *Service) GetSimulation(ctx context.Context, params any, dest any) (State, string) {
	key := BuildKey("simulation", params)
	if !s.client.Ready() {
		return Unavailable, key
	}
	if s.client.Get(ctx, key, dest) {
		metrics.CacheLookups.WithLabelValues("simulation", "hit").Inc()
		return Hit, key
	}
	metrics.CacheLookups.WithLabelValues("simulation", "miss").Inc()
	return Miss, key
}

func (s *Service) SetSimulation(ctx context.Context, params any, value any) (bool, string) {
	key := BuildKey("simulation", params)
	ok := s.client.Set(ctx, key, value, SimulationTTL)
	if !ok && s.client.Ready() {
		log.Printf("cache: failed to store simulation result under %s", key)
	}
	return ok, key
}

// GetList looks a paginated/sorted view up under list:{listType}.
func (s *Service) GetList(ctx context.Context, listType string, query any, dest any) (State, string) {
	key := BuildKey("list:"+listType, query)
	if !s.client.Ready() {
		return Unavailable, key
	}
	if s.client.Get(ctx, key, dest) {
		metrics.CacheLookups.WithLabelValues("list", "hit").Inc()
		return Hit, key
	}
	metrics.CacheLookups.WithLabelValues("list", "miss").Inc()
	return Miss, key
}

func (s *Service) SetList(ctx context.Context, listType string, query any, value any) (bool, string) {
	key := BuildKey("list:"+listType, query)
	return s.client.Set(ctx, key, value, ListTTL), key
}

// InvalidateSimulations deletes every key in the simulation namespace.
func (s *Service) InvalidateSimulations(ctx context.Context) bool {
	return s.invalidate(ctx, "simulation:*")
}

// InvalidateList deletes every cached view of one list type.
func (s *Service) InvalidateList(ctx context.Context, listType string) bool {
	return s.invalidate(ctx, "list:"+listType+":*")
}

func (s *Service) invalidate(ctx context.Context, pattern string) bool {
	if !s.client.Ready() {
		return false
	}
	keys := s.client.Keys(ctx, pattern)
	if len(keys) == 0 {
		return true
	}
	ok := s.client.Del(ctx, keys...)
	if ok {
		log.Printf("cache: invalidated %d entries for %s", len(keys), pattern)
	}
	return ok
}

// ClearAll flushes the entire store. Blunt: it also wipes entries of any
// other consumer sharing the database.
func (s *Service) ClearAll(ctx context.Context) bool {
	return s.client.FlushAll(ctx)
}

// Stats reports connectivity and entry counts per namespace. A disconnected
// store yields Connected=false with zero counts rather than an error.
func (s *Service) Stats(ctx context.Context) model.CacheStats {
	stats := model.CacheStats{
		SimulationTTL: int(SimulationTTL / time.Second),
		ListTTL:       int(ListTTL / time.Second),
	}
	if !s.client.Ready() {
		return stats
	}
	sim := len(s.client.Keys(ctx, "simulation:*"))
	lists := len(s.client.Keys(ctx, "list:*"))
	stats.Connected = true
	stats.SimulationCacheEntries = sim
	stats.ListCacheEntries = lists
	stats.TotalCacheEntries = sim + lists
	return stats
}
