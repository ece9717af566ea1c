package service

import (
	"context"
	"fmt"
	"time"

	"github.com/triumph-atlantic/matrix-api/internal/access"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/tradeswap"
	"go.uber.org/zap"
)

// SnapshotSource provides read access to every CRM collection
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (*domain.Snapshot, error)
}

// ChangeLogSource provides read access to the change log
type ChangeLogSource interface {
	List(ctx context.Context, limit int) ([]domain.ChangeLogEntry, error)
}

// VisibilityService returns the records an organization may see. Every call
// evaluates a fresh snapshot for the organization passed in; nothing is kept
// between calls.
type VisibilityService struct {
	source    SnapshotSource
	changeLog ChangeLogSource
	policy    *access.Policy
	logger    *zap.Logger
}

// NewVisibilityService creates a new visibility service
func NewVisibilityService(source SnapshotSource, changeLog ChangeLogSource, policy *access.Policy, logger *zap.Logger) *VisibilityService {
	return &VisibilityService{
		source:    source,
		changeLog: changeLog,
		policy:    policy,
		logger:    logger,
	}
}

// Policy returns the access policy in use
func (s *VisibilityService) Policy() *access.Policy {
	return s.policy
}

// indexedSnapshot is a snapshot with its lookup and project-derived
// contractor assignments applied
type indexedSnapshot struct {
	*domain.Snapshot
	lookup *access.Lookup
}

func (s *VisibilityService) load(ctx context.Context) (*indexedSnapshot, error) {
	snap, err := s.source.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	lookup := access.NewLookup(snap.Companies, snap.Contacts, snap.Locations)
	if unresolved := access.DeriveWorkedBy(lookup, snap.Projects); unresolved > 0 {
		s.logger.Warn("Projects reference unknown companies and are hidden from contractors",
			zap.Int("count", unresolved),
		)
	}
	return &indexedSnapshot{Snapshot: snap, lookup: lookup}, nil
}

func (s *VisibilityService) companies(snap *indexedSnapshot, org string) []domain.Company {
	return s.policy.FilterCompanies(snap.Companies, org)
}

func (s *VisibilityService) locations(snap *indexedSnapshot, org string) []domain.Location {
	return access.FilterDependents(s.policy, snap.Locations, org, func(l domain.Location) *domain.Company {
		return snap.lookup.Company(l.CompanySlug)
	})
}

func (s *VisibilityService) contacts(snap *indexedSnapshot, org string) []domain.Contact {
	return access.FilterDependents(s.policy, snap.Contacts, org, func(c domain.Contact) *domain.Company {
		return snap.lookup.Company(c.CompanySlug)
	})
}

func (s *VisibilityService) projects(snap *indexedSnapshot, org string) []domain.Project {
	return access.FilterDependents(s.policy, snap.Projects, org, func(p domain.Project) *domain.Company {
		return snap.lookup.Company(p.CompanyName)
	})
}

func (s *VisibilityService) opportunities(snap *indexedSnapshot, org string) []domain.Opportunity {
	return access.FilterDependents(s.policy, snap.Opportunities, org, func(o domain.Opportunity) *domain.Company {
		return snap.lookup.Company(o.CompanyName)
	})
}

// GetVisibleCompanies returns the companies visible to org
func (s *VisibilityService) GetVisibleCompanies(ctx context.Context, org string) ([]domain.Company, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.companies(snap, org), nil
}

// GetVisibleLocations returns the locations of companies visible to org
func (s *VisibilityService) GetVisibleLocations(ctx context.Context, org string) ([]domain.Location, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.locations(snap, org), nil
}

// GetVisibleContacts returns the contacts of companies visible to org
func (s *VisibilityService) GetVisibleContacts(ctx context.Context, org string) ([]domain.Contact, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.contacts(snap, org), nil
}

// GetVisibleProjects returns the projects at companies visible to org
func (s *VisibilityService) GetVisibleProjects(ctx context.Context, org string) ([]domain.Project, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.projects(snap, org), nil
}

// GetVisibleOpportunities returns the opportunities at companies visible to org
func (s *VisibilityService) GetVisibleOpportunities(ctx context.Context, org string) ([]domain.Opportunity, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.opportunities(snap, org), nil
}

// GetVisibleGifts returns gifts whose contact belongs to a company visible to org
func (s *VisibilityService) GetVisibleGifts(ctx context.Context, org string) ([]domain.Gift, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return access.FilterTransitive(s.policy, snap.Gifts, org,
		func(g domain.Gift) *domain.Contact { return snap.lookup.Contact(g.ContactEmail) },
		snap.lookup.ContactCompany,
	), nil
}

// GetVisibleReferrals returns referrals whose contact belongs to a company visible to org
func (s *VisibilityService) GetVisibleReferrals(ctx context.Context, org string) ([]domain.Referral, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return access.FilterTransitive(s.policy, snap.Referrals, org,
		func(r domain.Referral) *domain.Contact { return snap.lookup.Contact(r.ContactEmail) },
		snap.lookup.ContactCompany,
	), nil
}

// GetVisibleChangeLog returns the newest change log entries owned by org.
// limit counts visible entries; zero or less returns all of them.
func (s *VisibilityService) GetVisibleChangeLog(ctx context.Context, org string, limit int) ([]domain.ChangeLogEntry, error) {
	entries, err := s.changeLog.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load change log: %w", err)
	}
	visible := s.policy.FilterChangeLog(entries, org)
	if limit > 0 && len(visible) > limit {
		visible = visible[:limit]
	}
	return visible, nil
}

// VisibleInput returns the org-filtered companies, locations and projects
// for trade-swap analysis
func (s *VisibilityService) VisibleInput(ctx context.Context, org string) (tradeswap.Input, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return tradeswap.Input{}, err
	}
	return tradeswap.Input{
		Companies: s.companies(snap, org),
		Locations: s.locations(snap, org),
		Projects:  s.projects(snap, org),
	}, nil
}

// ListOverdueContacts returns visible contacts past their outreach cadence
func (s *VisibilityService) ListOverdueContacts(ctx context.Context, org string, now time.Time) ([]domain.Contact, error) {
	contacts, err := s.GetVisibleContacts(ctx, org)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Contact, 0)
	for i := range contacts {
		if contacts[i].IsOverdue(now) {
			out = append(out, contacts[i])
		}
	}
	return out, nil
}

// VisibleCompany resolves a company by slug or name, returning ErrNotFound
// when it does not exist or org may not see it
func (s *VisibilityService) VisibleCompany(ctx context.Context, org, ref string) (*domain.Company, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	company := snap.lookup.Company(ref)
	if company == nil || !s.policy.CompanyVisibleTo(company, org) {
		return nil, ErrNotFound
	}
	return company, nil
}

// VisibleContact resolves a contact by email, returning ErrNotFound when it
// does not exist or its company is not visible to org
func (s *VisibilityService) VisibleContact(ctx context.Context, org, email string) (*domain.Contact, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	contact := snap.lookup.Contact(email)
	if contact == nil || !s.policy.CompanyVisibleTo(snap.lookup.ContactCompany(contact), org) {
		return nil, ErrNotFound
	}
	return contact, nil
}
