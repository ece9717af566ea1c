package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// Seq orders rows by write. Rows created in one batch share CreatedAt.
	Seq       int64     `gorm:"not null;index" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// BeforeCreate assigns an ID and a write sequence when the caller did not set them
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Seq == 0 {
		b.Seq = NextSeq()
	}
	return nil
}

// Organization is a tenant. Exactly one organization is the oversight organization.
type Organization struct {
	Name      string `json:"name"`
	Oversight bool   `json:"oversight"`
}

// CompanyTier represents the size classification of a client company
type CompanyTier string

const (
	CompanyTierEnterprise CompanyTier = "Enterprise"
	CompanyTierLarge      CompanyTier = "Large"
	CompanyTierMid        CompanyTier = "Mid"
	CompanyTierSmall      CompanyTier = "Small"
)

// Weight returns the importance multiplier used when scoring introductions.
// Unknown or missing tiers weigh the same as Small.
func (t CompanyTier) Weight() int {
	switch t {
	case CompanyTierEnterprise:
		return 100
	case CompanyTierLarge:
		return 75
	case CompanyTierMid:
		return 50
	default:
		return 25
	}
}

// CompanyStatus represents the relationship status of a client company
type CompanyStatus string

const (
	CompanyStatusActive   CompanyStatus = "Active"
	CompanyStatusProspect CompanyStatus = "Prospect"
	CompanyStatusInactive CompanyStatus = "Inactive"
)

// ContractorAssignments maps a trade to the contractor organization assigned to it.
// Stored as a JSON column.
type ContractorAssignments map[TradeKey]string

// Value implements driver.Valuer
func (c ContractorAssignments) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (c *ContractorAssignments) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*c = ContractorAssignments{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for ContractorAssignments: %T", value)
	}
	out := ContractorAssignments{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	*c = out
	return nil
}

// Company is a client company tracked in the matrix
type Company struct {
	Slug        string                `gorm:"type:varchar(120);primaryKey" json:"id"`
	Name        string                `gorm:"type:varchar(200);not null" json:"name"`
	Tier        CompanyTier           `gorm:"type:varchar(20)" json:"tier"`
	Status      CompanyStatus         `gorm:"type:varchar(20)" json:"status"`
	HQState     string                `gorm:"column:hq_state;type:varchar(40)" json:"hqState"`
	Contractors ContractorAssignments `gorm:"type:jsonb" json:"contractors"`
	Seq         int64                 `gorm:"not null;index" json:"-"`
	CreatedAt   time.Time             `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time             `gorm:"not null" json:"updatedAt"`

	// WorkedBy holds the contractors recorded on projects per trade.
	// It is derived when a snapshot is built and never persisted.
	WorkedBy map[TradeKey][]string `gorm:"-" json:"-"`
}

// BeforeCreate assigns the write sequence
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.Seq == 0 {
		c.Seq = NextSeq()
	}
	return nil
}

// EffectiveContractors returns the contractor organizations that count for visibility:
// per trade, the static slot plus every contractor recorded on projects.
// Logged work never removes a statically assigned contractor.
func (c *Company) EffectiveContractors() []string {
	var out []string
	seen := make(map[TradeKey]bool)
	for _, trade := range AllTrades {
		seen[trade] = true
		out = appendTradeContractors(out, c, trade)
	}
	// Trades outside the standard set, in either source
	for trade := range c.WorkedBy {
		if !seen[trade] {
			seen[trade] = true
			out = appendTradeContractors(out, c, trade)
		}
	}
	for trade := range c.Contractors {
		if !seen[trade] {
			seen[trade] = true
			out = appendTradeContractors(out, c, trade)
		}
	}
	return out
}

func appendTradeContractors(out []string, c *Company, trade TradeKey) []string {
	static := strings.TrimSpace(c.Contractors[trade])
	if static != "" {
		out = append(out, static)
	}
	for _, name := range c.WorkedBy[trade] {
		if static != "" && SameOrganization(name, static) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Location is a site belonging to exactly one company
type Location struct {
	BaseModel
	CompanySlug string `gorm:"type:varchar(120);not null;index" json:"companyId"`
	Name        string `gorm:"type:varchar(200);not null" json:"name"`
	City        string `gorm:"type:varchar(100)" json:"city"`
	State       string `gorm:"type:varchar(40)" json:"state"`
	Zip         string `gorm:"type:varchar(20)" json:"zip"`
}

// Contact is a person at a client company
type Contact struct {
	BaseModel
	Email            string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	CompanySlug      string     `gorm:"type:varchar(120);not null;index" json:"companyId"`
	LocationID       *uuid.UUID `gorm:"type:uuid" json:"locationId,omitempty"`
	Name             string     `gorm:"type:varchar(200)" json:"name"`
	Title            string     `gorm:"type:varchar(200)" json:"title"`
	Phone            string     `gorm:"type:varchar(50)" json:"phone"`
	PreferredChannel string     `gorm:"type:varchar(20)" json:"preferredChannel"`
	CadenceDays      int        `json:"cadenceDays"`
	LastContacted    *time.Time `json:"lastContacted,omitempty"`
}

// IsOverdue reports whether outreach is past the contact's cadence.
// A contact with a cadence who was never contacted is overdue.
func (c *Contact) IsOverdue(now time.Time) bool {
	if c.CadenceDays <= 0 {
		return false
	}
	if c.LastContacted == nil {
		return true
	}
	days := int(now.Sub(*c.LastContacted).Hours() / 24)
	return days > c.CadenceDays
}

// Project is a unit of performed work. Company and location are referenced by name.
type Project struct {
	BaseModel
	CompanyName    string     `gorm:"type:varchar(200);not null;index" json:"company"`
	LocationName   string     `gorm:"type:varchar(200)" json:"location"`
	PerformedBy    string     `gorm:"type:varchar(200)" json:"performedBy"`
	Trade          string     `gorm:"type:varchar(40)" json:"trade"`
	JobDescription string     `gorm:"type:text" json:"job"`
	PerformedOn    *time.Time `json:"performedOn,omitempty"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	Valuation      string     `gorm:"type:varchar(50)" json:"valuation"`
	ExternalRef    *string    `gorm:"type:varchar(100);uniqueIndex" json:"externalRef,omitempty"`
}

// Contractor returns the contractor recorded on the project, if any
func (p *Project) Contractor() (string, bool) {
	name := strings.TrimSpace(p.PerformedBy)
	return name, name != ""
}

// WorkDate returns the most specific date known for the work
func (p *Project) WorkDate() *time.Time {
	switch {
	case p.PerformedOn != nil:
		return p.PerformedOn
	case p.EndDate != nil:
		return p.EndDate
	default:
		return p.StartDate
	}
}

// Opportunity is prospective work at a client company
type Opportunity struct {
	BaseModel
	CompanyName    string     `gorm:"type:varchar(200);not null;index" json:"company"`
	LocationName   string     `gorm:"type:varchar(200)" json:"location"`
	Trade          string     `gorm:"type:varchar(40)" json:"trade"`
	Description    string     `gorm:"type:text" json:"description"`
	Contractor     string     `gorm:"type:varchar(200)" json:"contractor"`
	Stage          string     `gorm:"type:varchar(40)" json:"stage"`
	EstimatedValue string     `gorm:"type:varchar(50)" json:"estimatedValue"`
	ExpectedClose  *time.Time `json:"expectedClose,omitempty"`
}

// Gift is an activity record sent to a contact
type Gift struct {
	BaseModel
	ContactEmail string     `gorm:"type:varchar(255);not null;index" json:"contactEmail"`
	Description  string     `gorm:"type:text" json:"description"`
	Value        string     `gorm:"type:varchar(50)" json:"value"`
	SentBy       string     `gorm:"type:varchar(200)" json:"sentBy"`
	SentOn       *time.Time `json:"sentOn,omitempty"`
}

// Referral is an activity record where a contact was referred onward
type Referral struct {
	BaseModel
	ContactEmail string     `gorm:"type:varchar(255);not null;index" json:"contactEmail"`
	ReferredTo   string     `gorm:"type:varchar(200)" json:"referredTo"`
	Notes        string     `gorm:"type:text" json:"notes"`
	Status       string     `gorm:"type:varchar(40)" json:"status"`
	ReferredOn   *time.Time `json:"referredOn,omitempty"`
}

// ChangeAction is the kind of modification recorded in the change log
type ChangeAction string

const (
	ChangeActionCreate ChangeAction = "create"
	ChangeActionUpdate ChangeAction = "update"
	ChangeActionDelete ChangeAction = "delete"
)

// ChangeLogEntry is a timestamped audit record owned by an organization
type ChangeLogEntry struct {
	BaseModel
	Org        string       `gorm:"type:varchar(200);not null;index" json:"org"`
	ActorID    string       `gorm:"type:varchar(100)" json:"actorId"`
	ActorName  string       `gorm:"type:varchar(200)" json:"actorName"`
	Action     ChangeAction `gorm:"type:varchar(20);not null" json:"action"`
	EntityType string       `gorm:"type:varchar(50);not null" json:"entityType"`
	EntityID   string       `gorm:"type:varchar(255)" json:"entityId"`
	Summary    string       `gorm:"type:varchar(500)" json:"summary"`
	Details    string       `gorm:"type:text" json:"details,omitempty"`
}

// TableName keeps the audit table name short
func (ChangeLogEntry) TableName() string {
	return "change_log"
}
