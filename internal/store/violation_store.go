package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"fieldtrack/internal/geofence"
	"fieldtrack/internal/models"
)

// ViolationStore persists and queries compliance violations.
type ViolationStore struct {
	db *gorm.DB
}

func NewViolationStore(db *gorm.DB) *ViolationStore {
	return &ViolationStore{db: db}
}

func (s *ViolationStore) Save(ctx context.Context, v *models.ComplianceViolation) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *ViolationStore) ListUnresolved(ctx context.Context) ([]models.ComplianceViolation, error) {
	var violations []models.ComplianceViolation
	err := s.db.WithContext(ctx).
		Where("resolved = ?", false).
		Order("timestamp desc").
		Find(&violations).Error
	if err != nil {
		return nil, err
	}
	return violations, nil
}

func (s *ViolationStore) List(ctx context.Context, filters geofence.ViolationFilters) ([]models.ComplianceViolation, error) {
	q := s.db.WithContext(ctx).Model(&models.ComplianceViolation{})
	if filters.UserID != 0 {
		q = q.Where("user_id = ?", filters.UserID)
	}
	if filters.ZoneID != 0 {
		q = q.Where("zone_id = ?", filters.ZoneID)
	}
	if filters.Severity != "" {
		q = q.Where("severity = ?", filters.Severity)
	}
	if filters.Resolved != nil {
		q = q.Where("resolved = ?", *filters.Resolved)
	}
	if !filters.Start.IsZero() {
		q = q.Where("timestamp >= ?", filters.Start)
	}
	if !filters.End.IsZero() {
		q = q.Where("timestamp <= ?", filters.End)
	}

	var violations []models.ComplianceViolation
	if err := q.Order("timestamp desc").Find(&violations).Error; err != nil {
		return nil, err
	}
	return violations, nil
}

func (s *ViolationStore) Acknowledge(ctx context.Context, id uint, who, notes string) (*models.ComplianceViolation, error) {
	var v models.ComplianceViolation
	err := s.db.WithContext(ctx).First(&v, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("violation %d not found", id)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	v.Resolved = true
	v.ResolvedBy = who
	v.ResolvedAt = &now
	v.Notes = notes
	if err := s.db.WithContext(ctx).Save(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}
