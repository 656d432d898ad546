package store

import (
	"context"
	"errors"

	"fleetsim/internal/model"
)

// Store is the persistence interface consumed by the simulation runner and API.
type Store interface {
	// Drivers. ListDrivers with limit>0 returns a prefix slice of the pool in
	// stable order; SaveDriver persists an updated rolling history.
	ListDrivers(ctx context.Context, limit int) ([]model.Driver, error)
	SaveDriver(ctx context.Context, d model.Driver) (model.Driver, error)
	CountDrivers(ctx context.Context) (int, error)

	// Routes & orders, immutable inputs to a run.
	ListRoutes(ctx context.Context) ([]model.Route, error)
	CountRoutes(ctx context.Context) (int, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	CountOrders(ctx context.Context) (int, error)

	// Simulation runs, append-only.
	CreateSimulation(ctx context.Context, run model.SimulationRun) (model.SimulationRun, error)
	LatestSimulation(ctx context.Context) (model.SimulationRun, error)
	ListSimulations(ctx context.Context, offset, limit int, sortField, sortDir string) ([]model.SimulationRun, error)
	CountSimulations(ctx context.Context) (int, error)
}

var ErrNotFound = errors.New("not found")
