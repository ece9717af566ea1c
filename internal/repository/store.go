package repository

import (
	"context"
	"fmt"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"gorm.io/gorm"
)

// Store groups the repositories and loads complete snapshots
type Store struct {
	db            *gorm.DB
	Companies     *CompanyRepository
	Locations     *LocationRepository
	Contacts      *ContactRepository
	Projects      *ProjectRepository
	Opportunities *OpportunityRepository
	Gifts         *GiftRepository
	Referrals     *ReferralRepository
	ChangeLog     *ChangeLogRepository
}

// NewStore creates every repository over one connection
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Companies:     NewCompanyRepository(db),
		Locations:     NewLocationRepository(db),
		Contacts:      NewContactRepository(db),
		Projects:      NewProjectRepository(db),
		Opportunities: NewOpportunityRepository(db),
		Gifts:         NewGiftRepository(db),
		Referrals:     NewReferralRepository(db),
		ChangeLog:     NewChangeLogRepository(db),
	}
}

// LoadSnapshot reads all seven collections inside one read transaction
func (s *Store) LoadSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := NewStore(tx)
		var err error
		if snap.Companies, err = st.Companies.List(ctx); err != nil {
			return fmt.Errorf("companies: %w", err)
		}
		if snap.Locations, err = st.Locations.List(ctx); err != nil {
			return fmt.Errorf("locations: %w", err)
		}
		if snap.Contacts, err = st.Contacts.List(ctx); err != nil {
			return fmt.Errorf("contacts: %w", err)
		}
		if snap.Projects, err = st.Projects.List(ctx); err != nil {
			return fmt.Errorf("projects: %w", err)
		}
		if snap.Opportunities, err = st.Opportunities.List(ctx); err != nil {
			return fmt.Errorf("opportunities: %w", err)
		}
		if snap.Gifts, err = st.Gifts.List(ctx); err != nil {
			return fmt.Errorf("gifts: %w", err)
		}
		if snap.Referrals, err = st.Referrals.List(ctx); err != nil {
			return fmt.Errorf("referrals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return &snap, nil
}

// ImportSnapshot writes every record of a snapshot in one transaction
func (s *Store) ImportSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batches := []struct {
			name  string
			value interface{}
			size  int
		}{
			{"companies", &snap.Companies, len(snap.Companies)},
			{"locations", &snap.Locations, len(snap.Locations)},
			{"contacts", &snap.Contacts, len(snap.Contacts)},
			{"projects", &snap.Projects, len(snap.Projects)},
			{"opportunities", &snap.Opportunities, len(snap.Opportunities)},
			{"gifts", &snap.Gifts, len(snap.Gifts)},
			{"referrals", &snap.Referrals, len(snap.Referrals)},
		}
		for _, b := range batches {
			if b.size == 0 {
				continue
			}
			if err := tx.CreateInBatches(b.value, 200).Error; err != nil {
				return fmt.Errorf("failed to import %s: %w", b.name, err)
			}
		}
		return nil
	})
}
