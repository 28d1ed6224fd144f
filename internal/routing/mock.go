package routing

import (
	"context"
	"sync"
)

// MockProvider is a configurable in-memory DirectionsProvider for tests
// and offline development.
type MockProvider struct {
	mu sync.Mutex

	// Order overrides the optimized waypoint order; when nil, input
	// order is kept.
	Order           []int
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        string
	Err             error

	Calls []TripRequest
}

func (m *MockProvider) OptimizeTrip(_ context.Context, req TripRequest) (*TripResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)

	if m.Err != nil {
		return nil, m.Err
	}

	order := m.Order
	if order == nil {
		order = make([]int, len(req.Waypoints))
		for i := range order {
			order[i] = i
		}
	}
	return &TripResult{
		WaypointOrder:   order,
		DistanceMeters:  m.DistanceMeters,
		DurationSeconds: m.DurationSeconds,
		Geometry:        m.Geometry,
	}, nil
}
