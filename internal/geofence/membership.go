package geofence

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"fieldtrack/internal/geo"
	"fieldtrack/internal/models"
)

// DefaultDwellThreshold is how long continuous occupancy lasts before a
// dwell event fires for a user/zone pair.
const DefaultDwellThreshold = 10 * time.Minute

// MembershipTracker keeps the per-user set of currently occupied zones
// and diffs it against the registry on each poll. Enter and exit events
// come from the set diff, never re-fired while a user sits inside a
// zone. Dwell is derived from the recorded entry time.
type MembershipTracker struct {
	registry *ZoneRegistry
	events   EventStore
	detector *ViolationDetector
	alerts   AlertPublisher

	mu         sync.Mutex
	members    map[uint]map[uint]time.Time // user -> zone -> entered at
	dwellFired map[uint]map[uint]bool
	dwellAfter time.Duration
}

// NewMembershipTracker wires a tracker. detector and alerts may be nil.
func NewMembershipTracker(registry *ZoneRegistry, events EventStore, detector *ViolationDetector, alerts AlertPublisher) *MembershipTracker {
	return &MembershipTracker{
		registry:   registry,
		events:     events,
		detector:   detector,
		alerts:     alerts,
		members:    make(map[uint]map[uint]time.Time),
		dwellFired: make(map[uint]map[uint]bool),
		dwellAfter: DefaultDwellThreshold,
	}
}

// EvaluateUser recomputes the user's containment set from the registry
// and emits enter/exit/dwell events for the differences. Persistence
// failures are logged and never abort the poll cycle.
func (t *MembershipTracker) EvaluateUser(ctx context.Context, userID uint, sample models.LocationSample) error {
	point := geo.Point{Lat: sample.Latitude, Lng: sample.Longitude}
	current := t.registry.ContainingZones(point)

	currentByID := make(map[uint]Zone, len(current))
	for _, z := range current {
		currentByID[z.ID] = z
	}

	now := sample.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	t.mu.Lock()
	prev := t.members[userID]
	if prev == nil {
		prev = make(map[uint]time.Time)
	}

	var entered []Zone
	var dwelled []Zone
	next := make(map[uint]time.Time, len(currentByID))
	for id, z := range currentByID {
		if enteredAt, ok := prev[id]; ok {
			next[id] = enteredAt
			if now.Sub(enteredAt) >= t.dwellAfter && !t.dwellFired[userID][id] {
				if t.dwellFired[userID] == nil {
					t.dwellFired[userID] = make(map[uint]bool)
				}
				t.dwellFired[userID][id] = true
				dwelled = append(dwelled, z)
			}
		} else {
			next[id] = now
			entered = append(entered, z)
		}
	}

	var exitedIDs []uint
	var exitedNames []string
	for id := range prev {
		if _, still := currentByID[id]; !still {
			exitedIDs = append(exitedIDs, id)
			exitedNames = append(exitedNames, "")
			delete(t.dwellFired[userID], id)
		}
	}
	t.members[userID] = next
	t.mu.Unlock()

	for _, z := range entered {
		t.emit(ctx, userID, z.ID, z.Name, models.EventEnter, sample, z.AlertEnabled)
	}
	for i, id := range exitedIDs {
		t.emit(ctx, userID, id, exitedNames[i], models.EventExit, sample, false)
	}
	for _, z := range dwelled {
		t.emit(ctx, userID, z.ID, z.Name, models.EventDwell, sample, z.AlertEnabled)
	}

	if t.detector != nil {
		enteredIDs := make(map[uint]bool, len(entered))
		for _, z := range entered {
			enteredIDs[z.ID] = true
		}
		for _, z := range current {
			t.detector.Check(ctx, userID, z, sample, enteredIDs[z.ID])
		}
	}
	return nil
}

// Forget drops all in-memory membership state for a user, typically
// when tracking stops.
func (t *MembershipTracker) Forget(userID uint) {
	t.mu.Lock()
	delete(t.members, userID)
	delete(t.dwellFired, userID)
	t.mu.Unlock()
}

// Membership returns the ids of zones the user currently occupies.
func (t *MembershipTracker) Membership(userID uint) []uint {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]uint, 0, len(t.members[userID]))
	for id := range t.members[userID] {
		ids = append(ids, id)
	}
	return ids
}

func (t *MembershipTracker) emit(ctx context.Context, userID, zoneID uint, zoneName, eventType string, sample models.LocationSample, alert bool) {
	event := &models.GeofenceEvent{
		UserID:    userID,
		ZoneID:    zoneID,
		EventType: eventType,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Timestamp: sample.Timestamp,
	}
	if err := t.events.Save(ctx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"zone_id":    zoneID,
			"event_type": eventType,
		}).Error("Failed to append geofence event.")
	}
	if alert && t.alerts != nil {
		t.alerts.PublishGeofenceAlert(userID, zoneID, zoneName, eventType)
	}
}
