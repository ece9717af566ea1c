package repository

import (
	"context"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).Order(insertionOrder).Find(&projects).Error
	return projects, err
}

// UpsertByExternalRef inserts imported projects or refreshes the ones already
// imported. Projects without an external reference are always inserted.
func (r *ProjectRepository) UpsertByExternalRef(ctx context.Context, projects []domain.Project) error {
	if len(projects) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_ref"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"company_name", "location_name", "performed_by", "trade", "job_description",
				"performed_on", "start_date", "end_date", "valuation", "updated_at",
			}),
		}).
		CreateInBatches(projects, 200).Error
}
