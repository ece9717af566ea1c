package repository

import (
	"context"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"gorm.io/gorm"
)

// OpportunityRepository handles prospective work records
type OpportunityRepository struct {
	db *gorm.DB
}

func NewOpportunityRepository(db *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

func (r *OpportunityRepository) Create(ctx context.Context, opportunity *domain.Opportunity) error {
	return r.db.WithContext(ctx).Create(opportunity).Error
}

func (r *OpportunityRepository) List(ctx context.Context) ([]domain.Opportunity, error) {
	var opportunities []domain.Opportunity
	err := r.db.WithContext(ctx).Order(insertionOrder).Find(&opportunities).Error
	return opportunities, err
}

// GiftRepository handles gifts sent to contacts
type GiftRepository struct {
	db *gorm.DB
}

func NewGiftRepository(db *gorm.DB) *GiftRepository {
	return &GiftRepository{db: db}
}

func (r *GiftRepository) Create(ctx context.Context, gift *domain.Gift) error {
	return r.db.WithContext(ctx).Create(gift).Error
}

func (r *GiftRepository) List(ctx context.Context) ([]domain.Gift, error) {
	var gifts []domain.Gift
	err := r.db.WithContext(ctx).Order(insertionOrder).Find(&gifts).Error
	return gifts, err
}

// ReferralRepository handles referrals made through contacts
type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) Create(ctx context.Context, referral *domain.Referral) error {
	return r.db.WithContext(ctx).Create(referral).Error
}

func (r *ReferralRepository) List(ctx context.Context) ([]domain.Referral, error) {
	var referrals []domain.Referral
	err := r.db.WithContext(ctx).Order(insertionOrder).Find(&referrals).Error
	return referrals, err
}
