package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldtrack/internal/geo"
)

const tripsResponse = `{
	"code": "Ok",
	"trips": [{"distance": 12000.5, "duration": 900, "geometry": "_p~iF~ps|U_ulLnnqC"}],
	"waypoints": [
		{"waypoint_index": 0, "location": [36.81, -1.28]},
		{"waypoint_index": 2, "location": [36.82, -1.29]},
		{"waypoint_index": 1, "location": [36.83, -1.30]}
	]
}`

func testProvider(t *testing.T, handler http.HandlerFunc) *MapboxProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewMapboxProvider("test-token")
	require.NoError(t, err)
	p.baseURL = srv.URL
	return p
}

func TestMapboxOptimizeTrip(t *testing.T) {
	var gotPath, gotQuery string
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tripsResponse))
	})

	result, err := p.OptimizeTrip(context.Background(), TripRequest{
		Waypoints: []geo.Point{
			{Lat: -1.28, Lng: 36.81},
			{Lat: -1.29, Lng: 36.82},
			{Lat: -1.30, Lng: 36.83},
		},
		Profile:     "driving",
		RoundTrip:   true,
		Source:      "first",
		Destination: "last",
	})
	require.NoError(t, err)

	assert.Contains(t, gotPath, "/optimized-trips/v1/mapbox/driving/")
	assert.Contains(t, gotQuery, "roundtrip=true")
	assert.Contains(t, gotQuery, "source=first")

	assert.Equal(t, []int{0, 2, 1}, result.WaypointOrder)
	assert.Equal(t, 12000.5, result.DistanceMeters)
	assert.Equal(t, 900.0, result.DurationSeconds)
	assert.NotEmpty(t, result.Geometry)
}

func TestMapboxRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		w.Write([]byte(tripsResponse))
	})

	result, err := p.OptimizeTrip(context.Background(), TripRequest{
		Waypoints: []geo.Point{
			{Lat: -1.28, Lng: 36.81},
			{Lat: -1.29, Lng: 36.82},
			{Lat: -1.30, Lng: 36.83},
		},
		RoundTrip: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.NotNil(t, result)
}

func TestMapboxEmptyTripsIsUnavailable(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "NoTrips", "trips": [], "waypoints": []}`))
	})

	_, err := p.OptimizeTrip(context.Background(), TripRequest{
		Waypoints: []geo.Point{{Lat: -1.28, Lng: 36.81}, {Lat: -1.29, Lng: 36.82}},
	})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestMapboxClientErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	})

	_, err := p.OptimizeTrip(context.Background(), TripRequest{
		Waypoints: []geo.Point{{Lat: -1.28, Lng: 36.81}, {Lat: -1.29, Lng: 36.82}},
	})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewMapboxProviderRequiresToken(t *testing.T) {
	_, err := NewMapboxProvider("  ")
	assert.Error(t, err)
}
