package store

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"fieldtrack/internal/models"
)

// ErrZoneNameTaken maps the postgres unique-violation on zone names.
var ErrZoneNameTaken = errors.New("zone name already in use")

// ZoneStore persists geofence zone definitions.
type ZoneStore struct {
	db *gorm.DB
}

func NewZoneStore(db *gorm.DB) *ZoneStore {
	return &ZoneStore{db: db}
}

func (s *ZoneStore) ListActive(ctx context.Context) ([]models.GeofenceZone, error) {
	var zones []models.GeofenceZone
	err := s.db.WithContext(ctx).Where("active = ?", true).Find(&zones).Error
	if err != nil {
		return nil, err
	}
	return zones, nil
}

func (s *ZoneStore) Find(ctx context.Context, id uint) (*models.GeofenceZone, error) {
	var zone models.GeofenceZone
	err := s.db.WithContext(ctx).First(&zone, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

func (s *ZoneStore) Create(ctx context.Context, zone *models.GeofenceZone) error {
	err := s.db.WithContext(ctx).Create(zone).Error
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrZoneNameTaken
	}
	return err
}

func (s *ZoneStore) Update(ctx context.Context, zone *models.GeofenceZone) error {
	err := s.db.WithContext(ctx).Save(zone).Error
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrZoneNameTaken
	}
	return err
}

func (s *ZoneStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.GeofenceZone{}, id).Error
}
