package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"fieldtrack/internal/geo"
	"fieldtrack/internal/models"
	"fieldtrack/internal/routing"
	"fieldtrack/internal/tasks"
	"fieldtrack/internal/tracking"
)

// Proximity auto-transition parameters.
const (
	ProximityRadiusMeters    = 500
	DefaultProximityInterval = 30 * time.Second
)

// Proof holds the proof-of-delivery artifacts captured when a stop
// finalizes.
type Proof struct {
	SignatureRef string `json:"signature_ref"`
	PhotoRefs    string `json:"photo_refs"`
	Notes        string `json:"notes"`
}

// Service owns the delivery route and stop lifecycle: explicit state
// transitions, the proximity checker that advances stops to "arrived",
// and progress aggregation. Construct with NewService.
type Service struct {
	routes    RouteStore
	stops     StopStore
	optimizer *routing.Optimizer
	tracker   Tracker
	notifier  Notifier

	mu                sync.Mutex
	sessions          map[uint]*routeSession
	proximityInterval time.Duration
}

type routeSession struct {
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	driverID uint
}

func NewService(routes RouteStore, stops StopStore, optimizer *routing.Optimizer, tracker Tracker, notifier Notifier) *Service {
	return &Service{
		routes:            routes,
		stops:             stops,
		optimizer:         optimizer,
		tracker:           tracker,
		notifier:          notifier,
		sessions:          make(map[uint]*routeSession),
		proximityInterval: DefaultProximityInterval,
	}
}

// CreateRoute registers a planned route and its stops. Stops are
// numbered sequentially in the order given.
func (s *Service) CreateRoute(ctx context.Context, route *models.DeliveryRoute, stops []models.DeliveryStop) (*models.DeliveryRoute, error) {
	route.Status = models.RoutePlanned
	route.TotalStops = len(stops)
	if err := s.routes.Save(ctx, route); err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	for i := range stops {
		stops[i].RouteID = route.ID
		stops[i].StopNumber = i + 1
		stops[i].Status = models.StopPending
		if err := s.stops.Save(ctx, &stops[i]); err != nil {
			return nil, fmt.Errorf("create stop %d for route %d: %w", i+1, route.ID, err)
		}
	}
	return route, nil
}

// GetRoute returns a route by id, (nil, nil) when absent.
func (s *Service) GetRoute(ctx context.Context, routeID uint) (*models.DeliveryRoute, error) {
	return s.routes.Find(ctx, routeID)
}

// GetStops returns a route's stops in stop-number order.
func (s *Service) GetStops(ctx context.Context, routeID uint) ([]models.DeliveryStop, error) {
	return s.stops.ByRoute(ctx, routeID)
}

// ActiveRoutes returns a driver's planned and in-progress routes for a
// date.
func (s *Service) ActiveRoutes(ctx context.Context, driverID uint, date time.Time) ([]models.DeliveryRoute, error) {
	return s.routes.ActiveByDriver(ctx, driverID, date)
}

// StartRoute moves a planned route to in_progress, starts driver
// tracking, and begins the proximity checker.
func (s *Service) StartRoute(ctx context.Context, routeID uint) (*models.DeliveryRoute, error) {
	route, err := s.routes.Find(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, fmt.Errorf("route %d not found", routeID)
	}
	if route.Status != models.RoutePlanned {
		return nil, fmt.Errorf("route %d cannot start from status %q", routeID, route.Status)
	}

	now := time.Now()
	route.Status = models.RouteInProgress
	route.StartedAt = &now
	if err := s.routes.Save(ctx, route); err != nil {
		return nil, fmt.Errorf("start route %d: %w", routeID, err)
	}

	if !s.tracker.IsTracking(route.DriverID) {
		if err := s.tracker.StartTracking(route.DriverID, models.RoleDriver, tracking.Options{}); err != nil {
			logrus.WithError(err).WithField("driver_id", route.DriverID).Warn("Driver tracking failed to start; proximity checks degrade to stored locations.")
		}
	}

	sctx, cancel := context.WithCancel(context.Background())
	sess := &routeSession{cancel: cancel, driverID: route.DriverID}
	sess.wg.Add(1)
	go func() {
		defer sess.wg.Done()
		tasks.Run(sctx, "route-proximity", s.proximityInterval, func(ctx context.Context) error {
			return s.checkProximity(ctx, routeID, route.DriverID)
		})
	}()

	s.mu.Lock()
	s.sessions[routeID] = sess
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"route_id":  routeID,
		"driver_id": route.DriverID,
	}).Info("Delivery route started.")
	return route, nil
}

// checkProximity advances the next open stop to "arrived" when the
// driver's last known location is within the proximity radius. The
// transition only fires while the stop is still pending.
func (s *Service) checkProximity(ctx context.Context, routeID, driverID uint) error {
	stops, err := s.stops.ByRoute(ctx, routeID)
	if err != nil {
		return fmt.Errorf("proximity check route %d: %w", routeID, err)
	}

	var next *models.DeliveryStop
	for i := range stops {
		if stops[i].Status == models.StopPending || stops[i].Status == models.StopArrived {
			next = &stops[i]
			break
		}
	}
	if next == nil {
		return nil
	}

	loc, ok := s.tracker.LastKnown(driverID)
	if !ok {
		return nil
	}

	distance := geo.Haversine(
		geo.Point{Lat: loc.Latitude, Lng: loc.Longitude},
		geo.Point{Lat: next.Latitude, Lng: next.Longitude},
	)
	if distance > ProximityRadiusMeters || next.Status != models.StopPending {
		return nil
	}

	now := time.Now()
	next.Status = models.StopArrived
	next.ArrivedAt = &now
	if err := s.stops.Save(ctx, next); err != nil {
		return fmt.Errorf("mark stop %d arrived: %w", next.ID, err)
	}

	s.notifier.Notify(ctx, NotificationRequest{
		UserID:  driverID,
		Kind:    NotifyStopApproaching,
		Title:   "Approaching stop",
		Body:    fmt.Sprintf("Arriving at %s (stop %d)", next.BusinessName, next.StopNumber),
		RouteID: routeID,
		StopID:  next.ID,
	})
	logrus.WithFields(logrus.Fields{
		"route_id":   routeID,
		"stop_id":    next.ID,
		"distance_m": fmt.Sprintf("%.0f", distance),
	}).Info("Stop auto-transitioned to arrived by proximity.")
	return nil
}

// CompleteStop finalizes a stop as completed with proof of delivery and
// recomputes the route's progress counts.
func (s *Service) CompleteStop(ctx context.Context, stopID uint, proof Proof) (*models.DeliveryStop, error) {
	return s.finalizeStop(ctx, stopID, models.StopCompleted, proof, "")
}

// FailStop finalizes a stop as failed with a reason.
func (s *Service) FailStop(ctx context.Context, stopID uint, reason string) (*models.DeliveryStop, error) {
	return s.finalizeStop(ctx, stopID, models.StopFailed, Proof{}, reason)
}

// SkipStop finalizes a pending stop as skipped without visiting it.
func (s *Service) SkipStop(ctx context.Context, stopID uint, reason string) (*models.DeliveryStop, error) {
	stop, err := s.stops.Find(ctx, stopID)
	if err != nil {
		return nil, err
	}
	if stop == nil {
		return nil, fmt.Errorf("stop %d not found", stopID)
	}
	if stop.Status != models.StopPending {
		return nil, fmt.Errorf("stop %d cannot be skipped from status %q", stopID, stop.Status)
	}

	stop.Status = models.StopSkipped
	stop.FailureReason = reason
	if err := s.stops.Save(ctx, stop); err != nil {
		return nil, fmt.Errorf("skip stop %d: %w", stopID, err)
	}
	if err := s.recomputeCounts(ctx, stop.RouteID); err != nil {
		logrus.WithError(err).WithField("route_id", stop.RouteID).Error("Failed to recompute route counts.")
	}
	return stop, nil
}

func (s *Service) finalizeStop(ctx context.Context, stopID uint, status string, proof Proof, reason string) (*models.DeliveryStop, error) {
	stop, err := s.stops.Find(ctx, stopID)
	if err != nil {
		return nil, err
	}
	if stop == nil {
		return nil, fmt.Errorf("stop %d not found", stopID)
	}
	if stop.Status != models.StopPending && stop.Status != models.StopArrived {
		return nil, fmt.Errorf("stop %d already finalized as %q", stopID, stop.Status)
	}

	now := time.Now()
	stop.Status = status
	stop.DepartedAt = &now
	stop.SignatureRef = proof.SignatureRef
	stop.PhotoRefs = proof.PhotoRefs
	stop.Notes = proof.Notes
	stop.FailureReason = reason
	if err := s.stops.Save(ctx, stop); err != nil {
		return nil, fmt.Errorf("finalize stop %d: %w", stopID, err)
	}

	if err := s.recomputeCounts(ctx, stop.RouteID); err != nil {
		logrus.WithError(err).WithField("route_id", stop.RouteID).Error("Failed to recompute route counts.")
	}

	kind := NotifyStopCompleted
	title := "Stop completed"
	if status == models.StopFailed {
		kind = NotifyStopFailed
		title = "Stop failed"
	}
	route, err := s.routes.Find(ctx, stop.RouteID)
	if err == nil && route != nil {
		s.notifier.Notify(ctx, NotificationRequest{
			UserID:  route.DriverID,
			Kind:    kind,
			Title:   title,
			Body:    fmt.Sprintf("%s (stop %d)", stop.BusinessName, stop.StopNumber),
			RouteID: stop.RouteID,
			StopID:  stop.ID,
		})
	}
	return stop, nil
}

// recomputeCounts rebuilds completed/total from the stop table rather
// than incrementing in place.
func (s *Service) recomputeCounts(ctx context.Context, routeID uint) error {
	route, err := s.routes.Find(ctx, routeID)
	if err != nil || route == nil {
		return err
	}
	stops, err := s.stops.ByRoute(ctx, routeID)
	if err != nil {
		return err
	}

	completed := 0
	for _, st := range stops {
		if st.Status == models.StopCompleted {
			completed++
		}
	}
	route.TotalStops = len(stops)
	route.CompletedStops = completed
	return s.routes.Save(ctx, route)
}

// CompleteRoute finalizes an in-progress route: sums the session's
// location history into actual distance, stops tracking, and cancels
// the proximity checker. Remaining open stops do not block completion.
func (s *Service) CompleteRoute(ctx context.Context, routeID uint) (*models.DeliveryRoute, error) {
	route, err := s.routes.Find(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, fmt.Errorf("route %d not found", routeID)
	}
	if route.Status != models.RouteInProgress {
		return nil, fmt.Errorf("route %d cannot complete from status %q", routeID, route.Status)
	}

	now := time.Now()
	if route.StartedAt != nil {
		history, err := s.tracker.GetLocationHistory(ctx, route.DriverID, *route.StartedAt, now)
		if err != nil {
			logrus.WithError(err).WithField("route_id", routeID).Warn("Location history unavailable; actual distance stays zero.")
		} else {
			points := make([]geo.Point, 0, len(history))
			for _, h := range history {
				points = append(points, geo.Point{Lat: h.Latitude, Lng: h.Longitude})
			}
			route.ActualDistanceMiles = geo.MetersToMiles(geo.PathDistance(points))
		}
	}

	route.Status = models.RouteCompleted
	route.CompletedAt = &now
	if err := s.routes.Save(ctx, route); err != nil {
		return nil, fmt.Errorf("complete route %d: %w", routeID, err)
	}

	s.teardown(routeID, route.DriverID)
	logrus.WithFields(logrus.Fields{
		"route_id":       routeID,
		"distance_miles": fmt.Sprintf("%.2f", route.ActualDistanceMiles),
	}).Info("Delivery route completed.")
	return route, nil
}

// CancelRoute is the explicit escape hatch out of planned/in_progress.
func (s *Service) CancelRoute(ctx context.Context, routeID uint) (*models.DeliveryRoute, error) {
	route, err := s.routes.Find(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, fmt.Errorf("route %d not found", routeID)
	}
	if route.Status == models.RouteCompleted || route.Status == models.RouteCancelled {
		return nil, fmt.Errorf("route %d is already terminal (%s)", routeID, route.Status)
	}

	route.Status = models.RouteCancelled
	if err := s.routes.Save(ctx, route); err != nil {
		return nil, fmt.Errorf("cancel route %d: %w", routeID, err)
	}
	s.teardown(routeID, route.DriverID)
	return route, nil
}

func (s *Service) teardown(routeID, driverID uint) {
	s.mu.Lock()
	sess, ok := s.sessions[routeID]
	if ok {
		delete(s.sessions, routeID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.cancel()
	sess.wg.Wait()
	if s.tracker.IsTracking(driverID) {
		if err := s.tracker.StopTracking(driverID); err != nil {
			logrus.WithError(err).WithField("driver_id", driverID).Warn("Failed to stop driver tracking.")
		}
	}
}

// OptimizeRoute reorders a route's open stops via the directions
// provider. When the provider is unavailable the existing order is
// kept and changed reports false.
func (s *Service) OptimizeRoute(ctx context.Context, routeID uint) (route *models.DeliveryRoute, changed bool, err error) {
	route, err = s.routes.Find(ctx, routeID)
	if err != nil {
		return nil, false, err
	}
	if route == nil {
		return nil, false, fmt.Errorf("route %d not found", routeID)
	}

	stops, err := s.stops.ByRoute(ctx, routeID)
	if err != nil {
		return nil, false, err
	}

	open := make([]routing.Stop, 0, len(stops))
	byID := make(map[uint]*models.DeliveryStop, len(stops))
	for i := range stops {
		if stops[i].Status != models.StopPending {
			continue
		}
		open = append(open, routing.Stop{
			ID:       stops[i].ID,
			Location: geo.Point{Lat: stops[i].Latitude, Lng: stops[i].Longitude},
		})
		byID[stops[i].ID] = &stops[i]
	}
	if len(open) < 2 {
		return route, false, nil
	}

	start := geo.Point{Lat: open[0].Location.Lat, Lng: open[0].Location.Lng}
	if loc, ok := s.tracker.LastKnown(route.DriverID); ok {
		start = geo.Point{Lat: loc.Latitude, Lng: loc.Longitude}
	}

	result := s.optimizer.Optimize(ctx, start, open)
	if result == nil {
		return route, false, nil
	}

	// Renumber open stops after the already-finalized ones so stop
	// numbers stay unique and sequential.
	next := 1
	for _, st := range stops {
		if st.Status != models.StopPending && st.StopNumber >= next {
			next = st.StopNumber + 1
		}
	}
	for _, id := range result.StopOrder {
		stop := byID[id]
		stop.StopNumber = next
		next++
		if err := s.stops.Save(ctx, stop); err != nil {
			return nil, false, fmt.Errorf("renumber stop %d: %w", id, err)
		}
	}

	route.PlannedDistanceMiles = result.DistanceMiles
	route.PlannedDurationMinutes = result.DurationMinutes
	route.Polyline = result.Polyline
	if err := s.routes.Save(ctx, route); err != nil {
		return nil, false, fmt.Errorf("save optimized route %d: %w", routeID, err)
	}
	return route, true, nil
}
