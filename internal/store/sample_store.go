package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"fieldtrack/internal/models"
)

// SampleStore persists location samples in postgres.
type SampleStore struct {
	db *gorm.DB
}

func NewSampleStore(db *gorm.DB) *SampleStore {
	return &SampleStore{db: db}
}

func (s *SampleStore) SaveBatch(ctx context.Context, samples []models.LocationSample) error {
	if len(samples) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&samples).Error
}

func (s *SampleStore) LatestByUser(ctx context.Context, userID uint) (*models.LocationSample, error) {
	var sample models.LocationSample
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp desc").
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

func (s *SampleStore) ByUserBetween(ctx context.Context, userID uint, start, end time.Time) ([]models.LocationSample, error) {
	var samples []models.LocationSample
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND timestamp BETWEEN ? AND ?", userID, start, end).
		Order("timestamp asc").
		Find(&samples).Error
	if err != nil {
		return nil, err
	}
	return samples, nil
}
