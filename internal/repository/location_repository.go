package repository

import (
	"context"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"gorm.io/gorm"
)

type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Create(ctx context.Context, location *domain.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r *LocationRepository) List(ctx context.Context) ([]domain.Location, error) {
	var locations []domain.Location
	err := r.db.WithContext(ctx).Order(insertionOrder).Find(&locations).Error
	return locations, err
}

// ExistsByName reports whether a company already has a location with this name
func (r *LocationRepository) ExistsByName(ctx context.Context, companySlug, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Location{}).
		Where("company_slug = ? AND LOWER(name) = LOWER(?)", companySlug, name).
		Count(&count).Error
	return count > 0, err
}
