package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldtrack/internal/geo"
)

var optStart = geo.Point{Lat: -1.2800, Lng: 36.8100}

var optStops = []Stop{
	{ID: 11, Location: geo.Point{Lat: -1.2900, Lng: 36.8200}},
	{ID: 22, Location: geo.Point{Lat: -1.3000, Lng: 36.8300}},
	{ID: 33, Location: geo.Point{Lat: -1.3100, Lng: 36.8400}},
}

func TestOptimizeRequiresTwoStops(t *testing.T) {
	opt := NewOptimizer(&MockProvider{})
	assert.Nil(t, opt.Optimize(context.Background(), optStart, nil))
	assert.Nil(t, opt.Optimize(context.Background(), optStart, optStops[:1]))
}

func TestOptimizeReturnsPermutation(t *testing.T) {
	provider := &MockProvider{
		// Trip visits start, then stop 3, stop 1, stop 2.
		Order:           []int{0, 2, 3, 1},
		DistanceMeters:  16093.44, // 10 miles
		DurationSeconds: 1800,     // 30 minutes
		Geometry:        geo.EncodePolyline([]geo.Point{optStart, optStops[2].Location}),
	}
	opt := NewOptimizer(provider)

	result := opt.Optimize(context.Background(), optStart, optStops)
	require.NotNil(t, result)

	// Each stop id appears exactly once.
	seen := map[uint]int{}
	for _, id := range result.StopOrder {
		seen[id]++
	}
	assert.Equal(t, map[uint]int{11: 1, 22: 1, 33: 1}, seen)
	assert.Equal(t, []uint{33, 11, 22}, result.StopOrder)

	assert.InDelta(t, 10.0, result.DistanceMiles, 1e-6)
	assert.InDelta(t, 30.0, result.DurationMinutes, 1e-6)
	assert.GreaterOrEqual(t, result.DistanceMiles, 0.0)
	assert.GreaterOrEqual(t, result.DurationMinutes, 0.0)
	assert.Len(t, result.Path, 2)

	// Bounding box covers start and all stops.
	assert.Equal(t, -1.31, result.Bounds.MinLat)
	assert.Equal(t, -1.28, result.Bounds.MaxLat)
	assert.Equal(t, 36.81, result.Bounds.MinLng)
	assert.Equal(t, 36.84, result.Bounds.MaxLng)

	// Request shape: round-trip driving, start fixed first.
	require.Len(t, provider.Calls, 1)
	req := provider.Calls[0]
	assert.True(t, req.RoundTrip)
	assert.Equal(t, "driving", req.Profile)
	assert.Equal(t, "first", req.Source)
	assert.Equal(t, optStart, req.Waypoints[0])
	assert.Len(t, req.Waypoints, 4)
}

func TestOptimizeProviderFailureReturnsNil(t *testing.T) {
	opt := NewOptimizer(&MockProvider{Err: errors.New("boom")})
	assert.Nil(t, opt.Optimize(context.Background(), optStart, optStops))
}

func TestOptimizeBadMappingReturnsNil(t *testing.T) {
	opt := NewOptimizer(&MockProvider{Order: []int{0, 1}})
	assert.Nil(t, opt.Optimize(context.Background(), optStart, optStops))
}
