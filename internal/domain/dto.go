package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListResponse wraps a visible collection
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}

// ContactDTO is a contact with derived outreach state
type ContactDTO struct {
	Contact
	Overdue bool `json:"overdue"`
}

// WorkedLocation is a location where a contractor performed a trade
type WorkedLocation struct {
	Location string `json:"location"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
}

// Introduction is a suggested cross-referral of a contractor to a location
type Introduction struct {
	Company   string   `json:"company"`
	Location  string   `json:"location"`
	City      string   `json:"city,omitempty"`
	State     string   `json:"state,omitempty"`
	Specialty TradeKey `json:"specialty"`
}

// TradeSwapPair describes one client company where two contractors could be introduced
type TradeSwapPair struct {
	Company    string           `json:"company"`
	Tier       CompanyTier      `json:"tier"`
	ASpecialty TradeKey         `json:"aSpecialty"`
	BSpecialty TradeKey         `json:"bSpecialty"`
	AWorked    []WorkedLocation `json:"aWorked"`
	BWorked    []WorkedLocation `json:"bWorked"`
	IntrosAtoB []Introduction   `json:"introsAtoB"`
	IntrosBtoA []Introduction   `json:"introsBtoA"`
}

// TradeSwapCandidate aggregates introduction opportunities for a contractor pair
type TradeSwapCandidate struct {
	ContractorA    string          `json:"contractorA"`
	ContractorB    string          `json:"contractorB"`
	Pairs          []TradeSwapPair `json:"pairs"`
	PotentialValue int             `json:"potentialValue"`
}

// ContractorWorkSummary is the "worked by" rollup for one contractor at a company
type ContractorWorkSummary struct {
	Contractor string          `json:"contractor"`
	Trades     []TradeKey      `json:"trades"`
	Count      int             `json:"count"`
	LastDate   *time.Time      `json:"lastDate,omitempty"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

// Request DTOs

type CreateCompanyRequest struct {
	Slug        string            `json:"id,omitempty" validate:"omitempty,max=120"`
	Name        string            `json:"name" validate:"required,max=200"`
	Tier        CompanyTier       `json:"tier,omitempty" validate:"omitempty,oneof=Enterprise Large Mid Small"`
	Status      CompanyStatus     `json:"status,omitempty" validate:"omitempty,oneof=Active Prospect Inactive"`
	HQState     string            `json:"hqState,omitempty" validate:"max=40"`
	Contractors map[string]string `json:"contractors,omitempty"`
}

type UpdateCompanyRequest struct {
	Name    *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Tier    *CompanyTier   `json:"tier,omitempty" validate:"omitempty,oneof=Enterprise Large Mid Small"`
	Status  *CompanyStatus `json:"status,omitempty" validate:"omitempty,oneof=Active Prospect Inactive"`
	HQState *string        `json:"hqState,omitempty" validate:"omitempty,max=40"`
}

type AssignContractorsRequest struct {
	Contractors map[string]string `json:"contractors" validate:"required"`
}

type CreateLocationRequest struct {
	CompanyID string `json:"companyId" validate:"required,max=120"`
	Name      string `json:"name" validate:"required,max=200"`
	City      string `json:"city,omitempty" validate:"max=100"`
	State     string `json:"state,omitempty" validate:"max=40"`
	Zip       string `json:"zip,omitempty" validate:"max=20"`
}

type CreateContactRequest struct {
	Email            string     `json:"email" validate:"required,email,max=255"`
	CompanyID        string     `json:"companyId" validate:"required,max=120"`
	LocationID       *string    `json:"locationId,omitempty" validate:"omitempty,uuid"`
	Name             string     `json:"name" validate:"required,max=200"`
	Title            string     `json:"title,omitempty" validate:"max=200"`
	Phone            string     `json:"phone,omitempty" validate:"max=50"`
	PreferredChannel string     `json:"preferredChannel,omitempty" validate:"omitempty,oneof=email phone text in_person linkedin"`
	CadenceDays      int        `json:"cadenceDays,omitempty" validate:"gte=0,lte=3650"`
	LastContacted    *time.Time `json:"lastContacted,omitempty"`
}

type TouchContactRequest struct {
	ContactedAt *time.Time `json:"contactedAt,omitempty"`
}

type CreateProjectRequest struct {
	Company     string     `json:"company" validate:"required,max=200"`
	Location    string     `json:"location,omitempty" validate:"max=200"`
	PerformedBy string     `json:"performedBy,omitempty" validate:"max=200"`
	Trade       string     `json:"trade,omitempty" validate:"max=40"`
	Job         string     `json:"job,omitempty"`
	PerformedOn *time.Time `json:"performedOn,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Valuation   string     `json:"valuation,omitempty" validate:"max=50"`
}

type CreateOpportunityRequest struct {
	Company        string     `json:"company" validate:"required,max=200"`
	Location       string     `json:"location,omitempty" validate:"max=200"`
	Trade          string     `json:"trade,omitempty" validate:"max=40"`
	Description    string     `json:"description,omitempty"`
	Contractor     string     `json:"contractor,omitempty" validate:"max=200"`
	Stage          string     `json:"stage,omitempty" validate:"max=40"`
	EstimatedValue string     `json:"estimatedValue,omitempty" validate:"max=50"`
	ExpectedClose  *time.Time `json:"expectedClose,omitempty"`
}

type CreateGiftRequest struct {
	ContactEmail string     `json:"contactEmail" validate:"required,email"`
	Description  string     `json:"description" validate:"required"`
	Value        string     `json:"value,omitempty" validate:"max=50"`
	SentOn       *time.Time `json:"sentOn,omitempty"`
}

type CreateReferralRequest struct {
	ContactEmail string     `json:"contactEmail" validate:"required,email"`
	ReferredTo   string     `json:"referredTo" validate:"required,max=200"`
	Notes        string     `json:"notes,omitempty"`
	Status       string     `json:"status,omitempty" validate:"omitempty,oneof=new contacted converted declined"`
	ReferredOn   *time.Time `json:"referredOn,omitempty"`
}

// Snapshot is the full set of CRM records, in insertion order
type Snapshot struct {
	Companies     []Company     `json:"companies"`
	Locations     []Location    `json:"locations"`
	Contacts      []Contact     `json:"contacts"`
	Projects      []Project     `json:"projects"`
	Opportunities []Opportunity `json:"opportunities"`
	Gifts         []Gift        `json:"gifts"`
	Referrals     []Referral    `json:"referrals"`
}
