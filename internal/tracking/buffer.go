package tracking

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"fieldtrack/internal/geo"
	"fieldtrack/internal/models"
)

// DefaultFlushDistanceMeters bounds staleness during fast movement: a
// sample this far from the previously flushed point for the same user
// forces an immediate out-of-cycle flush.
const DefaultFlushDistanceMeters = 100

// LocationBuffer accumulates samples in memory and flushes them to the
// sample store in batches. Delivery is at-least-once: a failed batch is
// re-inserted at the head of the queue and retried on the next cycle.
// Safe for concurrent use.
type LocationBuffer struct {
	store    SampleStore
	archiver *BreadcrumbArchiver

	mu          sync.Mutex
	queue       []models.LocationSample
	lastKnown   map[uint]models.LocationSample
	lastFlushed map[uint]geo.Point

	flushDistanceMeters float64
	flushNow            chan struct{}
}

func NewLocationBuffer(store SampleStore, archiver *BreadcrumbArchiver) *LocationBuffer {
	return &LocationBuffer{
		store:               store,
		archiver:            archiver,
		lastKnown:           make(map[uint]models.LocationSample),
		lastFlushed:         make(map[uint]geo.Point),
		flushDistanceMeters: DefaultFlushDistanceMeters,
		flushNow:            make(chan struct{}, 1),
	}
}

// Push appends a sample to the queue and updates the owner's last known
// location. A movement jump past the flush distance signals an
// immediate flush.
func (b *LocationBuffer) Push(sample models.LocationSample) {
	b.mu.Lock()
	b.queue = append(b.queue, sample)
	b.lastKnown[sample.UserID] = sample

	trigger := false
	if prev, ok := b.lastFlushed[sample.UserID]; ok {
		moved := geo.Haversine(prev, geo.Point{Lat: sample.Latitude, Lng: sample.Longitude})
		trigger = moved > b.flushDistanceMeters
	}
	b.mu.Unlock()

	if trigger {
		select {
		case b.flushNow <- struct{}{}:
		default:
		}
	}
}

// FlushSignal fires when a push warrants an immediate flush.
func (b *LocationBuffer) FlushSignal() <-chan struct{} { return b.flushNow }

// Flush drains the queue and writes all items to the store in one
// batch. On failure the batch goes back to the head of the queue.
func (b *LocationBuffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	batch := b.queue
	b.queue = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := b.store.SaveBatch(ctx, batch); err != nil {
		b.mu.Lock()
		b.queue = append(batch, b.queue...)
		b.mu.Unlock()
		return fmt.Errorf("flush location batch of %d: %w", len(batch), err)
	}

	b.mu.Lock()
	for _, s := range batch {
		b.lastFlushed[s.UserID] = geo.Point{Lat: s.Latitude, Lng: s.Longitude}
	}
	b.mu.Unlock()

	logrus.WithField("count", len(batch)).Debug("Location batch flushed.")

	if b.archiver != nil && len(batch) > 1 {
		b.archiver.Archive(ctx, batch)
	}
	return nil
}

// LastKnown returns the freshest pushed sample for a user.
func (b *LocationBuffer) LastKnown(userID uint) (models.LocationSample, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.lastKnown[userID]
	return s, ok
}

// Pending reports the number of queued, unflushed samples.
func (b *LocationBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
