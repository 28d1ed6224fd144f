package geofence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldtrack/internal/geo"
	"fieldtrack/internal/models"
)

type fakeZoneStore struct {
	mu     sync.Mutex
	rows   []models.GeofenceZone
	nextID uint
	fail   bool
}

func (f *fakeZoneStore) ListActive(_ context.Context) ([]models.GeofenceZone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("zone store down")
	}
	var out []models.GeofenceZone
	for _, r := range f.rows {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeZoneStore) Find(_ context.Context, id uint) (*models.GeofenceZone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			row := r
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakeZoneStore) Create(_ context.Context, zone *models.GeofenceZone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	zone.ID = f.nextID
	f.rows = append(f.rows, *zone)
	return nil
}

func (f *fakeZoneStore) Update(_ context.Context, zone *models.GeofenceZone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rows {
		if r.ID == zone.ID {
			f.rows[i] = *zone
			return nil
		}
	}
	return nil
}

func (f *fakeZoneStore) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rows {
		if r.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeEventStore struct {
	mu     sync.Mutex
	events []models.GeofenceEvent
}

func (f *fakeEventStore) Save(_ context.Context, e *models.GeofenceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeEventStore) ofType(eventType string) []models.GeofenceEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GeofenceEvent
	for _, e := range f.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeViolationStore struct {
	mu   sync.Mutex
	rows []models.ComplianceViolation
}

func (f *fakeViolationStore) Save(_ context.Context, v *models.ComplianceViolation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = uint(len(f.rows) + 1)
	f.rows = append(f.rows, *v)
	return nil
}

func (f *fakeViolationStore) ListUnresolved(_ context.Context) ([]models.ComplianceViolation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ComplianceViolation
	for _, v := range f.rows {
		if !v.Resolved {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeViolationStore) List(_ context.Context, filters ViolationFilters) ([]models.ComplianceViolation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ComplianceViolation
	for _, v := range f.rows {
		if filters.UserID != 0 && v.UserID != filters.UserID {
			continue
		}
		if filters.Severity != "" && v.Severity != filters.Severity {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeViolationStore) Acknowledge(_ context.Context, id uint, who, notes string) (*models.ComplianceViolation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			now := time.Now()
			f.rows[i].Resolved = true
			f.rows[i].ResolvedBy = who
			f.rows[i].Notes = notes
			f.rows[i].ResolvedAt = &now
			v := f.rows[i]
			return &v, nil
		}
	}
	return nil, nil
}

func loadedRegistry(t *testing.T, rows ...models.GeofenceZone) (*ZoneRegistry, *fakeZoneStore) {
	t.Helper()
	store := &fakeZoneStore{}
	for i := range rows {
		require.NoError(t, store.Create(context.Background(), &rows[i]))
	}
	reg := NewZoneRegistry(store)
	require.NoError(t, reg.Load(context.Background()))
	return reg, store
}

func sampleIn(userID uint, p geo.Point, speedMPS float64, ts time.Time) models.LocationSample {
	return models.LocationSample{
		UserID:    userID,
		Latitude:  p.Lat,
		Longitude: p.Lng,
		Speed:     speedMPS,
		Timestamp: ts,
	}
}

func TestRegistryLoadKeepsCacheOnFailure(t *testing.T) {
	reg, store := loadedRegistry(t, circleZoneRow("depot", -1.28, 36.81, 200))
	require.Len(t, reg.ActiveZones(), 1)

	store.mu.Lock()
	store.fail = true
	store.mu.Unlock()

	assert.Error(t, reg.Load(context.Background()))
	assert.Len(t, reg.ActiveZones(), 1, "failed reload keeps the previous cache")
}

func TestRegistryWriteThroughReloads(t *testing.T) {
	reg, _ := loadedRegistry(t)
	require.Empty(t, reg.ActiveZones())

	zone := circleZoneRow("school", -1.30, 36.80, 300)
	zone.ZoneType = models.ZoneTypeSchool
	require.NoError(t, reg.Create(context.Background(), &zone))
	assert.Len(t, reg.ActiveZones(), 1)

	require.NoError(t, reg.Delete(context.Background(), zone.ID))
	assert.Empty(t, reg.ActiveZones())
}

func TestRegistryRejectsMisconfiguredZone(t *testing.T) {
	reg, _ := loadedRegistry(t)
	bad := models.GeofenceZone{Name: "shapeless", Active: true}
	assert.Error(t, reg.Create(context.Background(), &bad))
}

func TestEnterExitFiresExactlyOnce(t *testing.T) {
	center := geo.Point{Lat: -1.28, Lng: 36.81}
	reg, _ := loadedRegistry(t, circleZoneRow("depot", center.Lat, center.Lng, 200))
	events := &fakeEventStore{}
	tracker := NewMembershipTracker(reg, events, nil, nil)

	outside := geo.Point{Lat: -1.30, Lng: 36.81}
	inside := center
	now := time.Now()

	// Path: outside -> inside -> inside -> inside -> outside.
	path := []geo.Point{outside, inside, inside, inside, outside}
	for i, p := range path {
		err := tracker.EvaluateUser(context.Background(), 7, sampleIn(7, p, 1, now.Add(time.Duration(i)*10*time.Second)))
		require.NoError(t, err)
	}

	enters := events.ofType(models.EventEnter)
	exits := events.ofType(models.EventExit)
	require.Len(t, enters, 1, "one enter for one crossing")
	require.Len(t, exits, 1, "one exit for one crossing")
	assert.Empty(t, events.ofType(models.EventDwell))
	assert.Empty(t, tracker.Membership(7))
}

func TestStationaryInsideEmitsNothingNew(t *testing.T) {
	center := geo.Point{Lat: -1.28, Lng: 36.81}
	reg, _ := loadedRegistry(t, circleZoneRow("depot", center.Lat, center.Lng, 200))
	events := &fakeEventStore{}
	tracker := NewMembershipTracker(reg, events, nil, nil)

	now := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, tracker.EvaluateUser(context.Background(), 7, sampleIn(7, center, 0, now.Add(time.Duration(i)*10*time.Second))))
	}

	assert.Len(t, events.ofType(models.EventEnter), 1)
	assert.Empty(t, events.ofType(models.EventExit))
	assert.Len(t, tracker.Membership(7), 1)
}

func TestDwellFiresOncePastThreshold(t *testing.T) {
	center := geo.Point{Lat: -1.28, Lng: 36.81}
	reg, _ := loadedRegistry(t, circleZoneRow("depot", center.Lat, center.Lng, 200))
	events := &fakeEventStore{}
	tracker := NewMembershipTracker(reg, events, nil, nil)
	tracker.dwellAfter = time.Minute

	now := time.Now()
	for i := 0; i < 12; i++ {
		require.NoError(t, tracker.EvaluateUser(context.Background(), 7, sampleIn(7, center, 0, now.Add(time.Duration(i)*10*time.Second))))
	}

	assert.Len(t, events.ofType(models.EventDwell), 1, "dwell fires once, not per poll")
}

func TestForgetClearsMembership(t *testing.T) {
	center := geo.Point{Lat: -1.28, Lng: 36.81}
	reg, _ := loadedRegistry(t, circleZoneRow("depot", center.Lat, center.Lng, 200))
	events := &fakeEventStore{}
	tracker := NewMembershipTracker(reg, events, nil, nil)

	require.NoError(t, tracker.EvaluateUser(context.Background(), 7, sampleIn(7, center, 0, time.Now())))
	require.Len(t, tracker.Membership(7), 1)

	tracker.Forget(7)
	assert.Empty(t, tracker.Membership(7))
}
