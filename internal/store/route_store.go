package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"fieldtrack/internal/models"
)

// RouteStore persists delivery routes.
type RouteStore struct {
	db *gorm.DB
}

func NewRouteStore(db *gorm.DB) *RouteStore {
	return &RouteStore{db: db}
}

func (s *RouteStore) Find(ctx context.Context, id uint) (*models.DeliveryRoute, error) {
	var route models.DeliveryRoute
	err := s.db.WithContext(ctx).First(&route, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}

func (s *RouteStore) Save(ctx context.Context, route *models.DeliveryRoute) error {
	return s.db.WithContext(ctx).Save(route).Error
}

func (s *RouteStore) ActiveByDriver(ctx context.Context, driverID uint, date time.Time) ([]models.DeliveryRoute, error) {
	var routes []models.DeliveryRoute
	q := s.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Where("status IN ?", []string{models.RoutePlanned, models.RouteInProgress})
	if !date.IsZero() {
		day := date.Truncate(24 * time.Hour)
		q = q.Where("date >= ? AND date < ?", day, day.Add(24*time.Hour))
	}
	if err := q.Order("date asc").Find(&routes).Error; err != nil {
		return nil, err
	}
	return routes, nil
}
