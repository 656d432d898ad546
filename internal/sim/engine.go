// Package sim contains the delivery-simulation core: the deterministic
// assignment engine and the orchestrator that wires it to the stores and the
// result cache.
package sim

import (
	"log"
	"math"

	"fleetsim/internal/model"
)

// Financial and timing constants of the simulation.
const (
	bonusRate        = 0.1
	baseFuelRate     = 5.0
	trafficFuelExtra = 2.0
	latePenalty      = 50.0
	extraDelayMin    = 10.0

	fatigueThresholdHours = 8.0
	fatigueMultiplier     = 1.3
)

// Result holds the aggregates of one engine pass plus the per-driver worked
// minutes, indexed like the input driver slice. The engine never mutates the
// drivers themselves; the orchestrator owns the history update.
type Result struct {
	TotalProfit      float64
	EfficiencyScore  int
	OnTimeDeliveries int
	LateDeliveries   int
	FuelCost         float64
	DriverMinutes    []float64
}

type assignment struct {
	order  model.Order
	driver int
}

// Assign runs the single-pass deterministic heuristic: orders are walked in
// input order and dealt to drivers in strict round-robin. The cursor advances
// once per input order, including orders skipped for an unknown route, so the
// driver rotation is a pure function of order position. Orders a driver can
// take within maxHoursPerDriver are primary; the rest are overflow, still
// completed and still counted against the driver's hours.
func Assign(drivers []model.Driver, routes []model.Route, orders []model.Order, maxHoursPerDriver float64) Result {
	if len(drivers) == 0 {
		return Result{DriverMinutes: []float64{}}
	}
	routeMap := make(map[int]model.Route, len(routes))
	for _, r := range routes {
		routeMap[r.RouteID] = r
	}

	fatigue := make([]float64, len(drivers))
	for i, d := range drivers {
		fatigue[i] = fatigueFactor(d)
	}

	workMinutes := make([]float64, len(drivers))
	var primary, overflow []assignment

	cursor := 0
	for _, o := range orders {
		idx := cursor
		cursor = (cursor + 1) % len(drivers)

		route, ok := routeMap[o.RouteID]
		if !ok {
			log.Printf("sim: order %d references unknown route %d, skipping", o.OrderID, o.RouteID)
			continue
		}

		estMinutes := route.BaseTimeMin*fatigue[idx] + extraDelayMin
		projectedHours := (workMinutes[idx] + estMinutes) / 60
		if projectedHours <= maxHoursPerDriver {
			primary = append(primary, assignment{order: o, driver: idx})
		} else {
			overflow = append(overflow, assignment{order: o, driver: idx})
		}
		workMinutes[idx] += estMinutes
	}

	res := Result{DriverMinutes: workMinutes}
	for _, a := range append(primary, overflow...) {
		route := routeMap[a.order.RouteID]
		f := fatigue[a.driver]

		actualDeliveryTime := route.BaseTimeMin*f + extraDelayMin
		// Lateness collapses to the fatigued-driver case: the only way the
		// actual time exceeds base+delay is a factor above 1.
		isLate := actualDeliveryTime > route.BaseTimeMin+extraDelayMin
		if isLate {
			res.LateDeliveries++
		} else {
			res.OnTimeDeliveries++
		}

		bonus := 0.0
		if a.order.ValueRs > 1000 && !isLate {
			bonus = a.order.ValueRs * bonusRate
		}

		fuelCost := route.DistanceKm * baseFuelRate
		if route.TrafficLevel == model.TrafficHigh {
			fuelCost += route.DistanceKm * trafficFuelExtra
		}
		res.FuelCost += fuelCost

		penalty := 0.0
		if isLate {
			penalty = latePenalty
		}
		res.TotalProfit += a.order.ValueRs + bonus - penalty - fuelCost
	}

	if total := res.OnTimeDeliveries + res.LateDeliveries; total > 0 {
		res.EfficiencyScore = int(math.Round(float64(res.OnTimeDeliveries) / float64(total) * 100))
	}
	return res
}

// fatigueFactor reads only the most recent history entry: a driver whose last
// recorded day exceeded 8 hours is slowed by 1.3x for the whole run.
func fatigueFactor(d model.Driver) float64 {
	if n := len(d.PastWeekHours); n > 0 && d.PastWeekHours[n-1] > fatigueThresholdHours {
		return fatigueMultiplier
	}
	return 1.0
}
