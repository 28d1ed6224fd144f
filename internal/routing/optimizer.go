package routing

import (
	"context"

	"github.com/sirupsen/logrus"

	"fieldtrack/internal/geo"
)

// Stop pairs a delivery stop id with its location for optimization.
type Stop struct {
	ID       uint
	Location geo.Point
}

// OptimizedRoute is the optimizer's output: the visiting order of the
// input stop ids plus aggregate metrics and the decoded path.
type OptimizedRoute struct {
	StopOrder       []uint
	DistanceMiles   float64
	DurationMinutes float64
	Polyline        string
	Path            []geo.Point
	Bounds          geo.BoundingBox
}

// Optimizer reorders a route's stops via the external directions
// provider. It never fails a caller: any provider problem yields a nil
// result and the caller keeps the previous stop order.
type Optimizer struct {
	provider DirectionsProvider
}

func NewOptimizer(provider DirectionsProvider) *Optimizer {
	return &Optimizer{provider: provider}
}

// Optimize requests a round-trip reordering of the stops from the start
// location. Fewer than two stops, or any provider failure, returns nil.
func (o *Optimizer) Optimize(ctx context.Context, start geo.Point, stops []Stop) *OptimizedRoute {
	if len(stops) < 2 {
		return nil
	}

	waypoints := make([]geo.Point, 0, len(stops)+1)
	waypoints = append(waypoints, start)
	for _, s := range stops {
		waypoints = append(waypoints, s.Location)
	}

	result, err := o.provider.OptimizeTrip(ctx, TripRequest{
		Waypoints:   waypoints,
		Profile:     "driving",
		RoundTrip:   true,
		Source:      "first",
		Destination: "last",
	})
	if err != nil {
		logrus.WithError(err).Warn("Route optimization unavailable; keeping current stop order.")
		return nil
	}
	if len(result.WaypointOrder) != len(waypoints) {
		logrus.WithFields(logrus.Fields{
			"inputs":  len(waypoints),
			"returns": len(result.WaypointOrder),
		}).Warn("Provider waypoint mapping incomplete; keeping current stop order.")
		return nil
	}

	// WaypointOrder[0] covers the fixed start; stops sort by their trip
	// position to give the visiting order.
	type placed struct {
		id  uint
		pos int
	}
	ordered := make([]placed, 0, len(stops))
	for i, s := range stops {
		ordered = append(ordered, placed{id: s.ID, pos: result.WaypointOrder[i+1]})
	}
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].pos < ordered[j-1].pos; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	stopOrder := make([]uint, 0, len(ordered))
	for _, p := range ordered {
		stopOrder = append(stopOrder, p.id)
	}

	return &OptimizedRoute{
		StopOrder:       stopOrder,
		DistanceMiles:   geo.MetersToMiles(result.DistanceMeters),
		DurationMinutes: result.DurationSeconds / geo.SecondsPerMinute,
		Polyline:        result.Geometry,
		Path:            geo.DecodePolyline(result.Geometry),
		Bounds:          geo.BoundsOf(waypoints),
	}
}
