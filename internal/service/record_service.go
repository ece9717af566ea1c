package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Invalidator drops derived results after records change
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// RecordService creates and updates CRM records on behalf of an organization.
// Companies are managed by the oversight organization; every other record may
// be written by any organization that can see the company it belongs to.
type RecordService struct {
	store       *repository.Store
	visibility  *VisibilityService
	invalidator Invalidator
	logger      *zap.Logger
	now         func() time.Time
}

// NewRecordService creates a new record service
func NewRecordService(store *repository.Store, visibility *VisibilityService, invalidator Invalidator, logger *zap.Logger) *RecordService {
	return &RecordService{
		store:       store,
		visibility:  visibility,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *RecordService) changed(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}

func (s *RecordService) requireOversight(org string) error {
	if !s.visibility.Policy().CanModify(org) {
		return ErrPermissionDenied
	}
	return nil
}

// CreateCompany adds a client company. Oversight only.
func (s *RecordService) CreateCompany(ctx context.Context, org string, req *domain.CreateCompanyRequest) (*domain.Company, error) {
	if err := s.requireOversight(org); err != nil {
		return nil, err
	}

	slug := domain.Slugify(req.Slug)
	if slug == "" {
		slug = domain.Slugify(req.Name)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: company name must contain letters or digits", ErrInvalidInput)
	}

	contractors, err := parseContractors(req.Contractors)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Companies.GetBySlug(ctx, slug); err == nil {
		return nil, fmt.Errorf("%w: company %q already exists", ErrConflict, slug)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check company: %w", err)
	}

	company := &domain.Company{
		Slug:        slug,
		Name:        strings.TrimSpace(req.Name),
		Tier:        req.Tier,
		Status:      req.Status,
		HQState:     req.HQState,
		Contractors: contractors,
	}
	if company.Tier == "" {
		company.Tier = domain.CompanyTierSmall
	}
	if company.Status == "" {
		company.Status = domain.CompanyStatusProspect
	}

	if err := s.store.Companies.Create(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	s.changed(ctx)

	s.logger.Info("Company created", zap.String("slug", company.Slug), zap.String("org", org))
	return company, nil
}

// UpdateCompany changes the descriptive fields of a company. Oversight only.
func (s *RecordService) UpdateCompany(ctx context.Context, org, slug string, req *domain.UpdateCompanyRequest) (*domain.Company, error) {
	if err := s.requireOversight(org); err != nil {
		return nil, err
	}

	company, err := s.store.Companies.GetBySlug(ctx, domain.Slugify(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	if req.Name != nil {
		company.Name = strings.TrimSpace(*req.Name)
	}
	if req.Tier != nil {
		company.Tier = *req.Tier
	}
	if req.Status != nil {
		company.Status = *req.Status
	}
	if req.HQState != nil {
		company.HQState = *req.HQState
	}

	if err := s.store.Companies.Update(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	s.changed(ctx)
	return company, nil
}

// AssignContractors replaces the static trade-to-contractor slots of a
// company. Oversight only. An empty contractor name clears the slot.
func (s *RecordService) AssignContractors(ctx context.Context, org, slug string, req *domain.AssignContractorsRequest) (*domain.Company, error) {
	if err := s.requireOversight(org); err != nil {
		return nil, err
	}

	contractors, err := parseContractors(req.Contractors)
	if err != nil {
		return nil, err
	}

	slug = domain.Slugify(slug)
	if err := s.store.Companies.UpdateContractors(ctx, slug, contractors); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to assign contractors: %w", err)
	}
	s.changed(ctx)

	company, err := s.store.Companies.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to reload company: %w", err)
	}
	return company, nil
}

// CreateLocation adds a site to a company visible to org
func (s *RecordService) CreateLocation(ctx context.Context, org string, req *domain.CreateLocationRequest) (*domain.Location, error) {
	company, err := s.visibility.VisibleCompany(ctx, org, req.CompanyID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	exists, err := s.store.Locations.ExistsByName(ctx, company.Slug, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check location: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: location %q already exists at %s", ErrConflict, name, company.Name)
	}

	location := &domain.Location{
		CompanySlug: company.Slug,
		Name:        name,
		City:        req.City,
		State:       req.State,
		Zip:         req.Zip,
	}
	if err := s.store.Locations.Create(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	s.changed(ctx)
	return location, nil
}

// CreateContact adds a person at a company visible to org
func (s *RecordService) CreateContact(ctx context.Context, org string, req *domain.CreateContactRequest) (*domain.Contact, error) {
	company, err := s.visibility.VisibleCompany(ctx, org, req.CompanyID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Contacts.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: contact %s already exists", ErrConflict, strings.ToLower(req.Email))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check contact: %w", err)
	}

	contact := &domain.Contact{
		Email:            req.Email,
		CompanySlug:      company.Slug,
		Name:             req.Name,
		Title:            req.Title,
		Phone:            req.Phone,
		PreferredChannel: req.PreferredChannel,
		CadenceDays:      req.CadenceDays,
		LastContacted:    req.LastContacted,
	}
	if req.LocationID != nil {
		id, err := uuid.Parse(*req.LocationID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid location id", ErrInvalidInput)
		}
		contact.LocationID = &id
	}

	if err := s.store.Contacts.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	s.changed(ctx)
	return contact, nil
}

// TouchContact records an outreach to a visible contact. A nil time means now.
func (s *RecordService) TouchContact(ctx context.Context, org, email string, at *time.Time) (*domain.Contact, error) {
	if _, err := s.visibility.VisibleContact(ctx, org, email); err != nil {
		return nil, err
	}

	when := s.now().UTC()
	if at != nil {
		when = at.UTC()
	}
	if err := s.store.Contacts.Touch(ctx, email, when); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to touch contact: %w", err)
	}

	contact, err := s.store.Contacts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to reload contact: %w", err)
	}
	return contact, nil
}

// CreateProject records performed work at a company visible to org.
// A contractor recording its own work may leave PerformedBy empty.
func (s *RecordService) CreateProject(ctx context.Context, org string, req *domain.CreateProjectRequest) (*domain.Project, error) {
	company, err := s.visibility.VisibleCompany(ctx, org, req.Company)
	if err != nil {
		return nil, err
	}

	project := &domain.Project{
		CompanyName:    company.Name,
		LocationName:   strings.TrimSpace(req.Location),
		PerformedBy:    strings.TrimSpace(req.PerformedBy),
		Trade:          strings.TrimSpace(req.Trade),
		JobDescription: req.Job,
		PerformedOn:    req.PerformedOn,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Valuation:      req.Valuation,
	}
	if project.PerformedBy == "" && !s.visibility.Policy().IsOversight(org) {
		project.PerformedBy = org
	}

	if err := s.store.Projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	s.changed(ctx)
	return project, nil
}

// CreateOpportunity records prospective work at a company visible to org
func (s *RecordService) CreateOpportunity(ctx context.Context, org string, req *domain.CreateOpportunityRequest) (*domain.Opportunity, error) {
	company, err := s.visibility.VisibleCompany(ctx, org, req.Company)
	if err != nil {
		return nil, err
	}

	opportunity := &domain.Opportunity{
		CompanyName:    company.Name,
		LocationName:   strings.TrimSpace(req.Location),
		Trade:          strings.TrimSpace(req.Trade),
		Description:    req.Description,
		Contractor:     strings.TrimSpace(req.Contractor),
		Stage:          req.Stage,
		EstimatedValue: req.EstimatedValue,
		ExpectedClose:  req.ExpectedClose,
	}
	if opportunity.Contractor == "" && !s.visibility.Policy().IsOversight(org) {
		opportunity.Contractor = org
	}
	if opportunity.Stage == "" {
		opportunity.Stage = "lead"
	}

	if err := s.store.Opportunities.Create(ctx, opportunity); err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}
	return opportunity, nil
}

// CreateGift records a gift sent by org to a visible contact
func (s *RecordService) CreateGift(ctx context.Context, org string, req *domain.CreateGiftRequest) (*domain.Gift, error) {
	contact, err := s.visibility.VisibleContact(ctx, org, req.ContactEmail)
	if err != nil {
		return nil, err
	}

	gift := &domain.Gift{
		ContactEmail: contact.Email,
		Description:  req.Description,
		Value:        req.Value,
		SentBy:       org,
		SentOn:       req.SentOn,
	}
	if gift.SentOn == nil {
		today := s.now().UTC().Truncate(24 * time.Hour)
		gift.SentOn = &today
	}

	if err := s.store.Gifts.Create(ctx, gift); err != nil {
		return nil, fmt.Errorf("failed to create gift: %w", err)
	}
	return gift, nil
}

// CreateReferral records a referral of a visible contact
func (s *RecordService) CreateReferral(ctx context.Context, org string, req *domain.CreateReferralRequest) (*domain.Referral, error) {
	contact, err := s.visibility.VisibleContact(ctx, org, req.ContactEmail)
	if err != nil {
		return nil, err
	}

	referral := &domain.Referral{
		ContactEmail: contact.Email,
		ReferredTo:   strings.TrimSpace(req.ReferredTo),
		Notes:        req.Notes,
		Status:       req.Status,
		ReferredOn:   req.ReferredOn,
	}
	if referral.Status == "" {
		referral.Status = "new"
	}

	if err := s.store.Referrals.Create(ctx, referral); err != nil {
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}
	return referral, nil
}

// parseContractors validates trade keys and drops empty assignments
func parseContractors(in map[string]string) (domain.ContractorAssignments, error) {
	out := domain.ContractorAssignments{}
	for trade, contractor := range in {
		key := strings.ToLower(strings.TrimSpace(trade))
		if !domain.IsValidTrade(key) {
			return nil, fmt.Errorf("%w: unknown trade %q", ErrInvalidInput, trade)
		}
		if name := strings.TrimSpace(contractor); name != "" {
			out[domain.TradeKey(key)] = name
		}
	}
	return out, nil
}
