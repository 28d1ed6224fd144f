package geofence

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"fieldtrack/internal/geo"
	"fieldtrack/internal/models"
)

// ZoneRegistry caches decoded active zones in memory. Load replaces the
// cache atomically; a failed load keeps the previous cache so pollers
// never see a partial reload. Writes go through to the store and then
// trigger a full reload.
type ZoneRegistry struct {
	store ZoneStore

	mu    sync.RWMutex
	zones []Zone
}

func NewZoneRegistry(store ZoneStore) *ZoneRegistry {
	return &ZoneRegistry{store: store}
}

// Load fetches all active zones and swaps the cache. Any misconfigured
// zone fails the whole load; the previous cache stays in effect.
func (r *ZoneRegistry) Load(ctx context.Context) error {
	rows, err := r.store.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("load active zones: %w", err)
	}

	zones := make([]Zone, 0, len(rows))
	for _, row := range rows {
		z, err := decodeZone(row)
		if err != nil {
			return fmt.Errorf("load active zones: %w", err)
		}
		zones = append(zones, z)
	}

	r.mu.Lock()
	r.zones = zones
	r.mu.Unlock()

	logrus.WithField("zones", len(zones)).Info("Geofence zone cache reloaded.")
	return nil
}

// ActiveZones returns a snapshot of the cached zones.
func (r *ZoneRegistry) ActiveZones() []Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Zone, len(r.zones))
	copy(out, r.zones)
	return out
}

// ContainingZones returns every cached zone containing the point.
func (r *ZoneRegistry) ContainingZones(p geo.Point) []Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Zone
	for _, z := range r.zones {
		if Contains(p, z) {
			out = append(out, z)
		}
	}
	return out
}

// Get returns a zone row by id, (nil, nil) when absent.
func (r *ZoneRegistry) Get(ctx context.Context, id uint) (*models.GeofenceZone, error) {
	return r.store.Find(ctx, id)
}

// Create validates the zone's shape, writes through, and reloads.
func (r *ZoneRegistry) Create(ctx context.Context, zone *models.GeofenceZone) error {
	if _, err := decodeZone(*zone); err != nil {
		return err
	}
	if err := r.store.Create(ctx, zone); err != nil {
		return fmt.Errorf("create zone %q: %w", zone.Name, err)
	}
	return r.Load(ctx)
}

// Update validates, writes through, and reloads.
func (r *ZoneRegistry) Update(ctx context.Context, zone *models.GeofenceZone) error {
	if _, err := decodeZone(*zone); err != nil {
		return err
	}
	if err := r.store.Update(ctx, zone); err != nil {
		return fmt.Errorf("update zone %d: %w", zone.ID, err)
	}
	return r.Load(ctx)
}

// Delete removes the zone and reloads.
func (r *ZoneRegistry) Delete(ctx context.Context, id uint) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete zone %d: %w", id, err)
	}
	return r.Load(ctx)
}
