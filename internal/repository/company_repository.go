package repository

import (
	"context"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"gorm.io/gorm"
)

// insertionOrder keeps listings stable in the order records were written
const insertionOrder = "seq ASC"

// CompanyRepository handles database operations for companies
type CompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

// GetBySlug retrieves a company by its slug
func (r *CompanyRepository) GetBySlug(ctx context.Context, slug string) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).First(&company, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// List returns every company
func (r *CompanyRepository) List(ctx context.Context) ([]domain.Company, error) {
	var companies []domain.Company
	err := r.db.WithContext(ctx).
		Order(insertionOrder).
		Find(&companies).Error
	return companies, err
}

func (r *CompanyRepository) Update(ctx context.Context, company *domain.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

// UpdateContractors replaces the static contractor assignments of a company
func (r *CompanyRepository) UpdateContractors(ctx context.Context, slug string, contractors domain.ContractorAssignments) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Company{}).
		Where("slug = ?", slug).
		Update("contractors", contractors)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
