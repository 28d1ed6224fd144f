package geofence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"fieldtrack/internal/geo"
	"fieldtrack/internal/models"
)

// speedGraceMPH separates medium from high severity speed violations.
const speedGraceMPH = 15.0

// ViolationDetector evaluates restriction rules for each zone a user
// currently occupies. Violations are recorded, never enforced: the
// detector does not block or alter tracking.
type ViolationDetector struct {
	violations ViolationStore
	events     EventStore
	now        func() time.Time
}

func NewViolationDetector(violations ViolationStore, events EventStore) *ViolationDetector {
	return &ViolationDetector{
		violations: violations,
		events:     events,
		now:        time.Now,
	}
}

// Check runs all rules for one user/zone pair against the latest
// sample. justEntered marks the enter transition for enter-only rules.
func (d *ViolationDetector) Check(ctx context.Context, userID uint, zone Zone, sample models.LocationSample, justEntered bool) {
	d.checkSpeedLimit(ctx, userID, zone, sample)
	d.checkTimeWindows(ctx, userID, zone, sample)

	if justEntered && zone.Type == models.ZoneTypeSchool {
		d.record(ctx, userID, zone.ID, models.ViolationSchoolZone, models.SeverityHigh, sample, map[string]any{
			"zone_name": zone.Name,
		})
	}
}

func (d *ViolationDetector) checkSpeedLimit(ctx context.Context, userID uint, zone Zone, sample models.LocationSample) {
	if zone.SpeedLimitMPH == nil {
		return
	}
	speedMPH := sample.Speed * geo.MPSToMPH
	limit := *zone.SpeedLimitMPH
	if speedMPH <= limit {
		return
	}

	severity := models.SeverityMedium
	if speedMPH-limit > speedGraceMPH {
		severity = models.SeverityHigh
	}
	d.record(ctx, userID, zone.ID, models.ViolationSpeedLimit, severity, sample, map[string]any{
		"speed_mph": speedMPH,
		"limit_mph": limit,
	})

	event := &models.GeofenceEvent{
		UserID:    userID,
		ZoneID:    zone.ID,
		EventType: models.EventSpeedViolation,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Timestamp: sample.Timestamp,
	}
	if err := d.events.Save(ctx, event); err != nil {
		logrus.WithError(err).WithField("zone_id", zone.ID).Error("Failed to append speed violation event.")
	}
}

func (d *ViolationDetector) checkTimeWindows(ctx context.Context, userID uint, zone Zone, sample models.LocationSample) {
	now := d.now()
	for _, w := range zone.TimeWindows {
		if inWindow(w, now) {
			d.record(ctx, userID, zone.ID, models.ViolationTimeWindow, models.SeverityMedium, sample, map[string]any{
				"window_start": w.Start,
				"window_end":   w.End,
			})
			return
		}
	}
}

// inWindow reports whether the local time falls inside a restricted
// window on one of its weekdays.
func inWindow(w models.TimeWindow, now time.Time) bool {
	dayMatch := len(w.Days) == 0
	for _, d := range w.Days {
		if time.Weekday(d) == now.Weekday() {
			dayMatch = true
			break
		}
	}
	if !dayMatch {
		return false
	}

	start, err := time.Parse("15:04", w.Start)
	if err != nil {
		return false
	}
	end, err := time.Parse("15:04", w.End)
	if err != nil {
		return false
	}

	minutes := now.Hour()*60 + now.Minute()
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()
	if startMin > endMin {
		// Window wraps past midnight (e.g. 22:00-06:00); the day list
		// is checked against the current weekday on both sides.
		return minutes >= startMin || minutes <= endMin
	}
	return minutes >= startMin && minutes <= endMin
}

func (d *ViolationDetector) record(ctx context.Context, userID, zoneID uint, violationType, severity string, sample models.LocationSample, details map[string]any) {
	payload, err := json.Marshal(details)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"marshal_error":%q}`, err.Error()))
	}

	v := &models.ComplianceViolation{
		UserID:        userID,
		ZoneID:        zoneID,
		ViolationType: violationType,
		Severity:      severity,
		Details:       payload,
		Timestamp:     sample.Timestamp,
	}
	if err := d.violations.Save(ctx, v); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":        userID,
			"zone_id":        zoneID,
			"violation_type": violationType,
		}).Error("Failed to record compliance violation.")
		return
	}
	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"zone_id":        zoneID,
		"violation_type": violationType,
		"severity":       severity,
	}).Warn("Compliance violation recorded.")
}
