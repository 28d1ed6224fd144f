package store

import (
	"context"

	"gorm.io/gorm"

	"fieldtrack/internal/models"
)

// EventStore appends geofence transition events.
type EventStore struct {
	db *gorm.DB
}

func NewEventStore(db *gorm.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Save(ctx context.Context, event *models.GeofenceEvent) error {
	return s.db.WithContext(ctx).Create(event).Error
}
