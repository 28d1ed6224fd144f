package tracking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldtrack/internal/models"
	"fieldtrack/internal/position"
)

type recordingEvaluator struct {
	mu        sync.Mutex
	calls     []models.LocationSample
	forgotten []uint
}

func (r *recordingEvaluator) EvaluateUser(_ context.Context, _ uint, sample models.LocationSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sample)
	return nil
}

func (r *recordingEvaluator) Forget(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forgotten = append(r.forgotten, userID)
}

func (r *recordingEvaluator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestServiceTracksAndStops(t *testing.T) {
	store := &fakeSampleStore{}
	buf := NewLocationBuffer(store, nil)
	src := &position.SimulatedSource{
		Samples: []position.Sample{
			{Lat: -1.2800, Lng: 36.8100, Speed: 10},
			{Lat: -1.2810, Lng: 36.8110, Speed: 10},
			{Lat: -1.2820, Lng: 36.8120, Speed: 10},
		},
		Interval: 5 * time.Millisecond,
	}
	svc := NewService(src, buf, store, nil, nil)

	require.NoError(t, svc.StartTracking(7, models.RoleDriver, Options{
		FlushInterval: 10 * time.Millisecond,
		PollInterval:  10 * time.Millisecond,
	}))
	assert.True(t, svc.IsTracking(7))

	// Duplicate start is rejected.
	assert.Error(t, svc.StartTracking(7, models.RoleDriver, Options{}))

	assert.Eventually(t, func() bool { return store.count() >= 3 }, time.Second, 5*time.Millisecond)

	last, ok := svc.LastKnown(7)
	require.True(t, ok)
	assert.Equal(t, models.ActivityDriving, last.Activity)
	assert.Equal(t, models.RoleDriver, last.Role)

	require.NoError(t, svc.StopTracking(7))
	assert.False(t, svc.IsTracking(7))
	assert.Equal(t, 0, buf.Pending(), "stop performs a final flush")

	// No further samples persist after stop returns.
	count := store.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, count, store.count())

	assert.Error(t, svc.StopTracking(7), "stop on an untracked user errors")
}

func TestServiceFeedsZoneEvaluator(t *testing.T) {
	store := &fakeSampleStore{}
	buf := NewLocationBuffer(store, nil)
	eval := &recordingEvaluator{}
	src := &position.SimulatedSource{
		Samples:  []position.Sample{{Lat: -1.28, Lng: 36.81, Speed: 1}},
		Interval: 2 * time.Millisecond,
	}
	svc := NewService(src, buf, store, eval, nil)

	require.NoError(t, svc.StartTracking(9, models.RoleSalesRep, Options{
		FlushInterval: 50 * time.Millisecond,
		PollInterval:  5 * time.Millisecond,
	}))

	assert.Eventually(t, func() bool { return eval.count() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, svc.StopTracking(9))
	eval.mu.Lock()
	defer eval.mu.Unlock()
	assert.Contains(t, eval.forgotten, uint(9), "stop releases per-user zone membership state")
}

func TestIngestHeadingFallback(t *testing.T) {
	store := &fakeSampleStore{}
	buf := NewLocationBuffer(store, nil)
	src := &position.SimulatedSource{
		Samples: []position.Sample{
			{Lat: -1.2800, Lng: 36.8100, Heading: 45},
			{Lat: -1.2800, Lng: 36.8200, Heading: 0},
			{Lat: -1.2800, Lng: 36.8300, Heading: -1},
		},
		Interval: 5 * time.Millisecond,
	}
	svc := NewService(src, buf, store, nil, nil)

	require.NoError(t, svc.StartTracking(7, models.RoleDriver, Options{
		FlushInterval: 10 * time.Millisecond,
		PollInterval:  time.Second,
	}))
	assert.Eventually(t, func() bool { return store.count() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, svc.StopTracking(7))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 45.0, store.rows[0].Heading)
	assert.Equal(t, 0.0, store.rows[1].Heading, "zero is a valid due-north heading")
	assert.InDelta(t, 90.0, store.rows[2].Heading, 1.0, "omitted heading falls back to the travel bearing")
}

func TestGetCurrentLocationFallsBackToStore(t *testing.T) {
	store := &fakeSampleStore{}
	ts := time.Now().Add(-time.Hour)
	store.rows = append(store.rows, sampleAt(3, -1.5, 36.5, ts))

	buf := NewLocationBuffer(store, nil)
	svc := NewService(&position.SimulatedSource{}, buf, store, nil, nil)

	got, err := svc.GetCurrentLocation(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, -1.5, got.Latitude)

	// Unknown user: empty result, no error.
	missing, err := svc.GetCurrentLocation(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetLocationHistoryOrdering(t *testing.T) {
	store := &fakeSampleStore{}
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		store.rows = append(store.rows, sampleAt(5, -1.28, 36.81, base.Add(time.Duration(i)*time.Minute)))
	}

	svc := NewService(&position.SimulatedSource{}, NewLocationBuffer(store, nil), store, nil, nil)
	got, err := svc.GetLocationHistory(context.Background(), 5, base, base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
