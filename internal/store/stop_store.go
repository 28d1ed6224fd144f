package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"fieldtrack/internal/models"
)

// StopStore persists delivery stops.
type StopStore struct {
	db *gorm.DB
}

func NewStopStore(db *gorm.DB) *StopStore {
	return &StopStore{db: db}
}

func (s *StopStore) Find(ctx context.Context, id uint) (*models.DeliveryStop, error) {
	var stop models.DeliveryStop
	err := s.db.WithContext(ctx).First(&stop, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stop, nil
}

func (s *StopStore) Save(ctx context.Context, stop *models.DeliveryStop) error {
	return s.db.WithContext(ctx).Save(stop).Error
}

func (s *StopStore) ByRoute(ctx context.Context, routeID uint) ([]models.DeliveryStop, error) {
	var stops []models.DeliveryStop
	err := s.db.WithContext(ctx).
		Where("route_id = ?", routeID).
		Order("stop_number asc").
		Find(&stops).Error
	if err != nil {
		return nil, err
	}
	return stops, nil
}
