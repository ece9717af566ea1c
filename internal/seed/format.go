// Package seed converts between the JSON snapshot document used to seed and
// back up the matrix and the persisted records.
package seed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
)

const dateLayout = "2006-01-02"

// Document is the on-disk snapshot. Field names follow the dashboard export.
type Document struct {
	Companies     []CompanyRecord     `json:"companies"`
	Locations     []LocationRecord    `json:"locations"`
	Contacts      []ContactRecord     `json:"contacts"`
	Projects      []ProjectRecord     `json:"projects"`
	Opportunities []OpportunityRecord `json:"opportunities"`
	Gifts         []GiftRecord        `json:"gifts"`
	Referrals     []ReferralRecord    `json:"referrals"`
}

type CompanyRecord struct {
	ID          string            `json:"id,omitempty"`
	Slug        string            `json:"slug,omitempty"`
	Name        string            `json:"name"`
	Tier        string            `json:"tier,omitempty"`
	Status      string            `json:"status,omitempty"`
	HQState     string            `json:"hq_state,omitempty"`
	Contractors map[string]string `json:"contractors,omitempty"`
}

type LocationRecord struct {
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       Text   `json:"zip,omitempty"`
}

type ContactRecord struct {
	Email            string `json:"email"`
	CompanyID        string `json:"company_id"`
	Location         string `json:"location,omitempty"`
	Name             string `json:"name,omitempty"`
	Title            string `json:"title,omitempty"`
	Phone            Text   `json:"phone,omitempty"`
	PreferredContact string `json:"preferred_contact,omitempty"`
	CadenceDays      int    `json:"cadence_days,omitempty"`
	LastContacted    string `json:"last_contacted,omitempty"`
}

// ProjectRecord accepts the contractor under any of the column names used by
// the different source spreadsheets
type ProjectRecord struct {
	Company       string `json:"company"`
	Location      string `json:"location,omitempty"`
	Trade         string `json:"trade,omitempty"`
	Job           string `json:"job,omitempty"`
	PerformedBy   string `json:"performed_by,omitempty"`
	Contractor    string `json:"contractor,omitempty"`
	Vendor        string `json:"vendor,omitempty"`
	Subcontractor string `json:"subcontractor,omitempty"`
	PerformedOn   string `json:"performed_on,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	Valuation     Text   `json:"valuation,omitempty"`
	ExternalRef   string `json:"external_ref,omitempty"`
}

type OpportunityRecord struct {
	Company        string `json:"company"`
	Location       string `json:"location,omitempty"`
	Trade          string `json:"trade,omitempty"`
	Description    string `json:"description,omitempty"`
	Contractor     string `json:"contractor,omitempty"`
	Stage          string `json:"stage,omitempty"`
	EstimatedValue Text   `json:"estimated_value,omitempty"`
	ExpectedClose  string `json:"expected_close,omitempty"`
}

type GiftRecord struct {
	ContactEmail string `json:"contact_email"`
	Description  string `json:"description,omitempty"`
	Value        Text   `json:"value,omitempty"`
	SentBy       string `json:"sent_by,omitempty"`
	SentOn       string `json:"sent_on,omitempty"`
}

type ReferralRecord struct {
	ContactEmail string `json:"contact_email"`
	ReferredTo   string `json:"referred_to,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Status       string `json:"status,omitempty"`
	ReferredOn   string `json:"referred_on,omitempty"`
}

// Text is a string that also accepts a bare JSON number, as spreadsheets
// export valuations, zip codes and phone numbers either way
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*t = Text(n.String())
	return nil
}

// Decode reads a snapshot document. Company ids fall back to the slug of the
// name, contractor trade keys are normalized and unparseable dates are dropped.
func Decode(r io.Reader) (*domain.Snapshot, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return doc.Snapshot()
}

// Snapshot converts the document into records ready to persist
func (d *Document) Snapshot() (*domain.Snapshot, error) {
	snap := &domain.Snapshot{
		Companies:     make([]domain.Company, 0, len(d.Companies)),
		Locations:     make([]domain.Location, 0, len(d.Locations)),
		Contacts:      make([]domain.Contact, 0, len(d.Contacts)),
		Projects:      make([]domain.Project, 0, len(d.Projects)),
		Opportunities: make([]domain.Opportunity, 0, len(d.Opportunities)),
		Gifts:         make([]domain.Gift, 0, len(d.Gifts)),
		Referrals:     make([]domain.Referral, 0, len(d.Referrals)),
	}

	seen := make(map[string]bool, len(d.Companies))
	for i, c := range d.Companies {
		slug := firstNonEmpty(c.ID, c.Slug)
		if slug == "" {
			slug = domain.Slugify(c.Name)
		}
		if slug == "" {
			return nil, fmt.Errorf("company %d has neither id nor name", i)
		}
		if seen[slug] {
			return nil, fmt.Errorf("company %q appears more than once", slug)
		}
		seen[slug] = true

		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = slug
		}
		snap.Companies = append(snap.Companies, domain.Company{
			Slug:        slug,
			Name:        name,
			Tier:        domain.CompanyTier(strings.TrimSpace(c.Tier)),
			Status:      domain.CompanyStatus(strings.TrimSpace(c.Status)),
			HQState:     strings.TrimSpace(c.HQState),
			Contractors: normalizeContractors(c.Contractors),
		})
	}

	// Contacts reference their location by name within the company
	locationIDs := make(map[string]uuid.UUID, len(d.Locations))
	for _, l := range d.Locations {
		loc := domain.Location{
			BaseModel:   domain.BaseModel{ID: uuid.New()},
			CompanySlug: strings.TrimSpace(l.CompanyID),
			Name:        strings.TrimSpace(l.Name),
			City:        strings.TrimSpace(l.City),
			State:       strings.TrimSpace(l.State),
			Zip:         strings.TrimSpace(string(l.Zip)),
		}
		key := locationKey(loc.CompanySlug, loc.Name)
		if _, dup := locationIDs[key]; !dup {
			locationIDs[key] = loc.ID
		}
		snap.Locations = append(snap.Locations, loc)
	}

	for _, c := range d.Contacts {
		contact := domain.Contact{
			Email:            strings.ToLower(strings.TrimSpace(c.Email)),
			CompanySlug:      strings.TrimSpace(c.CompanyID),
			Name:             strings.TrimSpace(c.Name),
			Title:            strings.TrimSpace(c.Title),
			Phone:            strings.TrimSpace(string(c.Phone)),
			PreferredChannel: strings.TrimSpace(c.PreferredContact),
			CadenceDays:      c.CadenceDays,
			LastContacted:    parseDate(c.LastContacted),
		}
		if id, ok := locationIDs[locationKey(contact.CompanySlug, c.Location)]; ok {
			id := id
			contact.LocationID = &id
		}
		snap.Contacts = append(snap.Contacts, contact)
	}

	for _, p := range d.Projects {
		project := domain.Project{
			CompanyName:    strings.TrimSpace(p.Company),
			LocationName:   strings.TrimSpace(p.Location),
			PerformedBy:    firstNonEmpty(p.PerformedBy, p.Contractor, p.Vendor, p.Subcontractor),
			Trade:          strings.ToLower(strings.TrimSpace(p.Trade)),
			JobDescription: strings.TrimSpace(p.Job),
			PerformedOn:    parseDate(p.PerformedOn),
			StartDate:      parseDate(p.StartDate),
			EndDate:        parseDate(p.EndDate),
			Valuation:      strings.TrimSpace(string(p.Valuation)),
		}
		if ref := strings.TrimSpace(p.ExternalRef); ref != "" {
			project.ExternalRef = &ref
		}
		snap.Projects = append(snap.Projects, project)
	}

	for _, o := range d.Opportunities {
		snap.Opportunities = append(snap.Opportunities, domain.Opportunity{
			CompanyName:    strings.TrimSpace(o.Company),
			LocationName:   strings.TrimSpace(o.Location),
			Trade:          strings.ToLower(strings.TrimSpace(o.Trade)),
			Description:    strings.TrimSpace(o.Description),
			Contractor:     strings.TrimSpace(o.Contractor),
			Stage:          strings.TrimSpace(o.Stage),
			EstimatedValue: strings.TrimSpace(string(o.EstimatedValue)),
			ExpectedClose:  parseDate(o.ExpectedClose),
		})
	}

	for _, g := range d.Gifts {
		snap.Gifts = append(snap.Gifts, domain.Gift{
			ContactEmail: strings.ToLower(strings.TrimSpace(g.ContactEmail)),
			Description:  strings.TrimSpace(g.Description),
			Value:        strings.TrimSpace(string(g.Value)),
			SentBy:       strings.TrimSpace(g.SentBy),
			SentOn:       parseDate(g.SentOn),
		})
	}

	for _, r := range d.Referrals {
		snap.Referrals = append(snap.Referrals, domain.Referral{
			ContactEmail: strings.ToLower(strings.TrimSpace(r.ContactEmail)),
			ReferredTo:   strings.TrimSpace(r.ReferredTo),
			Notes:        strings.TrimSpace(r.Notes),
			Status:       strings.TrimSpace(r.Status),
			ReferredOn:   parseDate(r.ReferredOn),
		})
	}

	return snap, nil
}

// Encode writes a snapshot as an indented document
func Encode(w io.Writer, snap *domain.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(snap)); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// NewDocument converts persisted records into the snapshot document
func NewDocument(snap *domain.Snapshot) *Document {
	doc := &Document{
		Companies:     make([]CompanyRecord, 0, len(snap.Companies)),
		Locations:     make([]LocationRecord, 0, len(snap.Locations)),
		Contacts:      make([]ContactRecord, 0, len(snap.Contacts)),
		Projects:      make([]ProjectRecord, 0, len(snap.Projects)),
		Opportunities: make([]OpportunityRecord, 0, len(snap.Opportunities)),
		Gifts:         make([]GiftRecord, 0, len(snap.Gifts)),
		Referrals:     make([]ReferralRecord, 0, len(snap.Referrals)),
	}

	for _, c := range snap.Companies {
		var contractors map[string]string
		if len(c.Contractors) > 0 {
			contractors = make(map[string]string, len(c.Contractors))
			for trade, name := range c.Contractors {
				contractors[string(trade)] = name
			}
		}
		doc.Companies = append(doc.Companies, CompanyRecord{
			ID:          c.Slug,
			Name:        c.Name,
			Tier:        string(c.Tier),
			Status:      string(c.Status),
			HQState:     c.HQState,
			Contractors: contractors,
		})
	}

	locationNames := make(map[uuid.UUID]string, len(snap.Locations))
	for _, l := range snap.Locations {
		locationNames[l.ID] = l.Name
		doc.Locations = append(doc.Locations, LocationRecord{
			CompanyID: l.CompanySlug,
			Name:      l.Name,
			City:      l.City,
			State:     l.State,
			Zip:       Text(l.Zip),
		})
	}

	for _, c := range snap.Contacts {
		rec := ContactRecord{
			Email:            c.Email,
			CompanyID:        c.CompanySlug,
			Name:             c.Name,
			Title:            c.Title,
			Phone:            Text(c.Phone),
			PreferredContact: c.PreferredChannel,
			CadenceDays:      c.CadenceDays,
			LastContacted:    formatDate(c.LastContacted),
		}
		if c.LocationID != nil {
			rec.Location = locationNames[*c.LocationID]
		}
		doc.Contacts = append(doc.Contacts, rec)
	}

	for _, p := range snap.Projects {
		rec := ProjectRecord{
			Company:     p.CompanyName,
			Location:    p.LocationName,
			Trade:       p.Trade,
			Job:         p.JobDescription,
			PerformedBy: p.PerformedBy,
			PerformedOn: formatDate(p.PerformedOn),
			StartDate:   formatDate(p.StartDate),
			EndDate:     formatDate(p.EndDate),
			Valuation:   Text(p.Valuation),
		}
		if p.ExternalRef != nil {
			rec.ExternalRef = *p.ExternalRef
		}
		doc.Projects = append(doc.Projects, rec)
	}

	for _, o := range snap.Opportunities {
		doc.Opportunities = append(doc.Opportunities, OpportunityRecord{
			Company:        o.CompanyName,
			Location:       o.LocationName,
			Trade:          o.Trade,
			Description:    o.Description,
			Contractor:     o.Contractor,
			Stage:          o.Stage,
			EstimatedValue: Text(o.EstimatedValue),
			ExpectedClose:  formatDate(o.ExpectedClose),
		})
	}

	for _, g := range snap.Gifts {
		doc.Gifts = append(doc.Gifts, GiftRecord{
			ContactEmail: g.ContactEmail,
			Description:  g.Description,
			Value:        Text(g.Value),
			SentBy:       g.SentBy,
			SentOn:       formatDate(g.SentOn),
		})
	}

	for _, r := range snap.Referrals {
		doc.Referrals = append(doc.Referrals, ReferralRecord{
			ContactEmail: r.ContactEmail,
			ReferredTo:   r.ReferredTo,
			Notes:        r.Notes,
			Status:       r.Status,
			ReferredOn:   formatDate(r.ReferredOn),
		})
	}

	return doc
}

// normalizeContractors maps spreadsheet headings such as "Interior GC" or
// "interior-gc" onto trade keys and drops empty slots
func normalizeContractors(in map[string]string) domain.ContractorAssignments {
	out := domain.ContractorAssignments{}
	for key, name := range in {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		trade := strings.Join(strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
			return r == ' ' || r == '-' || r == '_'
		}), "_")
		if trade == "interiorgc" {
			trade = string(domain.TradeInteriorGC)
		}
		if trade == "" {
			continue
		}
		out[domain.TradeKey(trade)] = name
	}
	return out
}

func locationKey(companySlug, name string) string {
	return strings.ToLower(strings.TrimSpace(companySlug)) + "|" + strings.ToLower(strings.TrimSpace(name))
}

// parseDate accepts YYYY-MM-DD or RFC3339. Anything else is treated as absent.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(dateLayout)
	}
	return u.Format(time.RFC3339)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Counts reports how many records of each kind a snapshot holds
type Counts struct {
	Companies     int `json:"companies"`
	Locations     int `json:"locations"`
	Contacts      int `json:"contacts"`
	Projects      int `json:"projects"`
	Opportunities int `json:"opportunities"`
	Gifts         int `json:"gifts"`
	Referrals     int `json:"referrals"`
}

// CountsOf counts the records of a snapshot
func CountsOf(snap *domain.Snapshot) Counts {
	return Counts{
		Companies:     len(snap.Companies),
		Locations:     len(snap.Locations),
		Contacts:      len(snap.Contacts),
		Projects:      len(snap.Projects),
		Opportunities: len(snap.Opportunities),
		Gifts:         len(snap.Gifts),
		Referrals:     len(snap.Referrals),
	}
}

// String renders counts for log lines and CLI output
func (c Counts) String() string {
	return "companies=" + strconv.Itoa(c.Companies) +
		" locations=" + strconv.Itoa(c.Locations) +
		" contacts=" + strconv.Itoa(c.Contacts) +
		" projects=" + strconv.Itoa(c.Projects) +
		" opportunities=" + strconv.Itoa(c.Opportunities) +
		" gifts=" + strconv.Itoa(c.Gifts) +
		" referrals=" + strconv.Itoa(c.Referrals)
}
