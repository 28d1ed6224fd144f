package store

import (
	"context"

	"gorm.io/gorm"

	"fieldtrack/internal/models"
)

// BreadcrumbStore persists compressed sample batches.
type BreadcrumbStore struct {
	db *gorm.DB
}

func NewBreadcrumbStore(db *gorm.DB) *BreadcrumbStore {
	return &BreadcrumbStore{db: db}
}

func (s *BreadcrumbStore) Save(ctx context.Context, crumb *models.Breadcrumb) error {
	return s.db.WithContext(ctx).Create(crumb).Error
}
