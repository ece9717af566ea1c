package repository

import (
	"context"
	"strings"
	"time"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"gorm.io/gorm"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create stores a contact. Emails are stored lower-cased.
func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	contact.Email = strings.ToLower(strings.TrimSpace(contact.Email))
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *ContactRepository) List(ctx context.Context) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := r.db.WithContext(ctx).Order(insertionOrder).Find(&contacts).Error
	return contacts, err
}

// GetByEmail finds a contact by email address
func (r *ContactRepository) GetByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// Touch records an outreach to the contact
func (r *ContactRepository) Touch(ctx context.Context, email string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Update("last_contacted", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
