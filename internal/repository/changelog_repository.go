package repository

import (
	"context"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"gorm.io/gorm"
)

// ChangeLogRepository stores audit entries. Entries are append-only.
type ChangeLogRepository struct {
	db *gorm.DB
}

func NewChangeLogRepository(db *gorm.DB) *ChangeLogRepository {
	return &ChangeLogRepository{db: db}
}

func (r *ChangeLogRepository) Create(ctx context.Context, entry *domain.ChangeLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns the most recent entries first. A limit of zero returns all.
func (r *ChangeLogRepository) List(ctx context.Context, limit int) ([]domain.ChangeLogEntry, error) {
	var entries []domain.ChangeLogEntry
	query := r.db.WithContext(ctx).Order("created_at DESC, seq DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&entries).Error
	return entries, err
}
