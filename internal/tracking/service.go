package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fieldtrack/internal/geo"
	"fieldtrack/internal/models"
	"fieldtrack/internal/position"
	"fieldtrack/internal/tasks"
)

// Default cadences for the per-session periodic activities.
const (
	DefaultFlushInterval = 30 * time.Second
	DefaultPollInterval  = 10 * time.Second

	// recentSampleWindow bounds how stale a sample may be and still
	// drive the zone-membership poll.
	recentSampleWindow = 5 * time.Minute
)

// Options tune a tracking session.
type Options struct {
	FlushInterval time.Duration
	PollInterval  time.Duration
	LiveStream    bool
}

// Service owns tracking sessions: the position subscription, the buffer
// flush loop, and the zone-membership poll for each tracked user.
// Construct with NewService; one instance serves all users.
type Service struct {
	source  position.Source
	buffer  *LocationBuffer
	samples SampleStore
	zones   ZoneEvaluator
	live    LivePublisher

	mu       sync.Mutex
	sessions map[uint]*session
}

type session struct {
	id         uuid.UUID
	userID     uint
	role       string
	liveStream bool
	cancel     context.CancelFunc
	sub        position.Subscription
	wg         sync.WaitGroup
	startedAt  time.Time
}

// NewService wires a tracking service. zones and live may be nil when
// geofencing or live streaming is disabled.
func NewService(source position.Source, buffer *LocationBuffer, samples SampleStore, zones ZoneEvaluator, live LivePublisher) *Service {
	return &Service{
		source:   source,
		buffer:   buffer,
		samples:  samples,
		zones:    zones,
		live:     live,
		sessions: make(map[uint]*session),
	}
}

// StartTracking begins a tracking session for a user. A second start
// for the same user is rejected until StopTracking.
func (s *Service) StartTracking(userID uint, role string, opts Options) error {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	s.mu.Lock()
	if _, exists := s.sessions[userID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("user %d is already being tracked", userID)
	}
	// Reserve the slot before subscribing so a concurrent start fails fast.
	sess := &session{
		id:         uuid.New(),
		userID:     userID,
		role:       role,
		liveStream: opts.LiveStream,
		startedAt:  time.Now(),
	}
	s.sessions[userID] = sess
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel

	sub, err := s.source.Subscribe(ctx,
		func(p position.Sample) { s.ingest(sess, p) },
		func(err error) { s.reportSourceError(sess, err) },
	)
	if err != nil {
		cancel()
		s.mu.Lock()
		delete(s.sessions, userID)
		s.mu.Unlock()
		return fmt.Errorf("subscribe position source for user %d: %w", userID, err)
	}
	sess.sub = sub

	sess.wg.Add(2)
	go func() {
		defer sess.wg.Done()
		tasks.RunTriggered(ctx, "location-flush", opts.FlushInterval, s.buffer.FlushSignal(), s.buffer.Flush)
	}()
	go func() {
		defer sess.wg.Done()
		tasks.Run(ctx, "zone-membership-poll", opts.PollInterval, func(ctx context.Context) error {
			return s.pollZones(ctx, userID)
		})
	}()

	logrus.WithFields(logrus.Fields{
		"session_id": sess.id,
		"user_id":    userID,
		"role":       role,
	}).Info("Tracking started.")
	return nil
}

// StopTracking tears a session down: cancels the periodic activities,
// unsubscribes from the position source, and performs one final
// best-effort flush before returning.
func (s *Service) StopTracking(userID uint) error {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("user %d is not being tracked", userID)
	}
	delete(s.sessions, userID)
	s.mu.Unlock()

	sess.sub.Unsubscribe()
	sess.cancel()
	sess.wg.Wait()

	if err := s.buffer.Flush(context.Background()); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Final flush on stop failed; samples remain queued.")
	}
	if s.zones != nil {
		s.zones.Forget(userID)
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sess.id,
		"user_id":    userID,
	}).Info("Tracking stopped.")
	return nil
}

// IsTracking reports whether the user has an active session.
func (s *Service) IsTracking(userID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	return ok
}

// LastKnown returns the freshest in-memory sample for a user.
func (s *Service) LastKnown(userID uint) (models.LocationSample, bool) {
	return s.buffer.LastKnown(userID)
}

// GetCurrentLocation returns the freshest location for a user, falling
// back to the store when no in-memory sample exists. Returns (nil, nil)
// when the user has no samples at all.
func (s *Service) GetCurrentLocation(ctx context.Context, userID uint) (*models.LocationSample, error) {
	if sample, ok := s.buffer.LastKnown(userID); ok {
		return &sample, nil
	}
	return s.samples.LatestByUser(ctx, userID)
}

// GetLocationHistory returns a user's samples within [start, end],
// ascending by time.
func (s *Service) GetLocationHistory(ctx context.Context, userID uint, start, end time.Time) ([]models.LocationSample, error) {
	return s.samples.ByUserBetween(ctx, userID, start, end)
}

// ingest converts a raw fix into a typed sample, derives activity and
// heading, and buffers it. Runs on the position source callback.
func (s *Service) ingest(sess *session, p position.Sample) {
	// A negative heading means the device reported none; zero is a
	// valid due-north heading and passes through untouched.
	heading := p.Heading
	if heading < 0 {
		heading = 0
		if prev, ok := s.buffer.LastKnown(sess.userID); ok {
			heading = geo.Bearing(
				geo.Point{Lat: prev.Latitude, Lng: prev.Longitude},
				geo.Point{Lat: p.Lat, Lng: p.Lng},
			)
		}
	}

	sample := models.LocationSample{
		UserID:       sess.userID,
		Role:         sess.role,
		Latitude:     p.Lat,
		Longitude:    p.Lng,
		Accuracy:     p.Accuracy,
		Altitude:     p.Altitude,
		Heading:      heading,
		Speed:        p.Speed,
		Activity:     position.ClassifyActivity(p.Speed),
		BatteryLevel: p.BatteryLevel,
		Timestamp:    p.Timestamp,
	}
	s.buffer.Push(sample)

	if s.live != nil && sess.liveStream {
		s.live.PublishLocation(sess.userID, sample)
	}
}

func (s *Service) reportSourceError(sess *session, err error) {
	logrus.WithError(err).WithField("user_id", sess.userID).Warn("Position source error; tracking continues degraded.")
	if s.live != nil && sess.liveStream {
		s.live.PublishTrackingError(sess.userID, err.Error())
	}
}

// pollZones feeds the geofence evaluator with the user's freshest
// sample, skipping users without a recent one.
func (s *Service) pollZones(ctx context.Context, userID uint) error {
	if s.zones == nil {
		return nil
	}
	sample, ok := s.buffer.LastKnown(userID)
	if !ok || time.Since(sample.Timestamp) > recentSampleWindow {
		return nil
	}
	return s.zones.EvaluateUser(ctx, userID, sample)
}
