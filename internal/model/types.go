package model

import "time"

// Traffic levels carried by routes.
const (
	TrafficLow    = "Low"
	TrafficMedium = "Medium"
	TrafficHigh   = "High"
)

// Driver is a fleet driver with a rolling window of the last <=7 worked days,
// ordered oldest to newest. Only the orchestrator mutates PastWeekHours.
type Driver struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ShiftHours    float64   `json:"shift_hours"`
	PastWeekHours []float64 `json:"past_week_hours"`
}

// Route is immutable during a simulation run. RouteID is the business key
// orders reference, distinct from the storage id.
type Route struct {
	ID           string  `json:"id"`
	RouteID      int     `json:"route_id"`
	DistanceKm   float64 `json:"distance_km"`
	TrafficLevel string  `json:"traffic_level"`
	BaseTimeMin  float64 `json:"base_time_min"`
}

// Order references a route by its business key. Orders with an unresolvable
// route_id are skipped by the engine, never fatal.
type Order struct {
	ID           string  `json:"id"`
	OrderID      int     `json:"order_id"`
	ValueRs      float64 `json:"value_rs"`
	RouteID      int     `json:"route_id"`
	DeliveryTime string  `json:"delivery_time"`
}

// SimulationRun is the append-only output record of one completed simulation.
type SimulationRun struct {
	ID                string    `json:"id"`
	NumDrivers        int       `json:"numDrivers"`
	StartTime         string    `json:"startTime"`
	MaxHoursPerDriver float64   `json:"maxHoursPerDriver"`
	TotalProfit       float64   `json:"totalProfit"`
	EfficiencyScore   int       `json:"efficiencyScore"`
	OnTimeDeliveries  int       `json:"onTimeDeliveries"`
	LateDeliveries    int       `json:"lateDeliveries"`
	FuelCost          float64   `json:"fuelCost"`
	CreatedAt         time.Time `json:"createdAt"`
}

// SimulationRequest is the caller-facing input for one run.
type SimulationRequest struct {
	NumDrivers        int     `json:"numDrivers"`
	StartTime         string  `json:"startTime"`
	MaxHoursPerDriver float64 `json:"maxHoursPerDriver"`
}

// SimulationResponse is a run plus cache provenance.
type SimulationResponse struct {
	SimulationRun
	FromCache bool   `json:"fromCache"`
	CacheKey  string `json:"cacheKey,omitempty"`
}

// ListQuery selects a page of run history.
type ListQuery struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// SimulationList is the paginated run-history envelope.
type SimulationList struct {
	Simulations []SimulationRun `json:"simulations"`
	Pagination  Pagination      `json:"pagination"`
	FromCache   bool            `json:"fromCache"`
}

// CacheStats reports cache connectivity and per-namespace entry counts.
// Connected=false carries zero counts rather than an error.
type CacheStats struct {
	Connected              bool `json:"connected"`
	SimulationCacheEntries int  `json:"simulationCacheEntries"`
	ListCacheEntries       int  `json:"listCacheEntries"`
	TotalCacheEntries      int  `json:"totalCacheEntries"`
	SimulationTTL          int  `json:"simulationTTL"`
	ListTTL                int  `json:"listTTL"`
}
