package tracking

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"fieldtrack/internal/models"
)

// BreadcrumbArchiver compresses flushed batches into breadcrumb rows,
// one per user with at least two samples in the batch. Breadcrumbs are
// a derived artifact; write failures are logged, not retried.
type BreadcrumbArchiver struct {
	store BreadcrumbStore
}

func NewBreadcrumbArchiver(store BreadcrumbStore) *BreadcrumbArchiver {
	return &BreadcrumbArchiver{store: store}
}

// Archive groups the batch by user and writes one breadcrumb per group
// of two or more samples, preserving batch order.
func (a *BreadcrumbArchiver) Archive(ctx context.Context, batch []models.LocationSample) {
	byUser := make(map[uint][]models.LocationSample)
	for _, s := range batch {
		byUser[s.UserID] = append(byUser[s.UserID], s)
	}

	for userID, samples := range byUser {
		if len(samples) < 2 {
			continue
		}

		points := make([]models.BreadcrumbPoint, 0, len(samples))
		for _, s := range samples {
			points = append(points, models.BreadcrumbPoint{
				Lat:     s.Latitude,
				Lng:     s.Longitude,
				Time:    s.Timestamp,
				Speed:   s.Speed,
				Heading: s.Heading,
			})
		}

		encoded, err := json.Marshal(points)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("Failed to encode breadcrumb points.")
			continue
		}

		crumb := &models.Breadcrumb{
			UserID:     userID,
			StartTime:  samples[0].Timestamp,
			EndTime:    samples[len(samples)-1].Timestamp,
			PointCount: len(samples),
			Points:     encoded,
		}
		if err := a.store.Save(ctx, crumb); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id": userID,
				"points":  len(samples),
			}).Error("Failed to save breadcrumb.")
		}
	}
}
