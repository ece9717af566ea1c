package access

import (
	"strings"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
)

// Lookup indexes companies, contacts and locations for one filtering pass.
// References between records are by name, so every key is normalized.
type Lookup struct {
	companies map[string]*domain.Company
	contacts  map[string]*domain.Contact
	locations map[string]*domain.Location
}

// NewLookup builds the index. The slices must outlive the lookup.
func NewLookup(companies []domain.Company, contacts []domain.Contact, locations []domain.Location) *Lookup {
	l := &Lookup{
		companies: make(map[string]*domain.Company, len(companies)*2),
		contacts:  make(map[string]*domain.Contact, len(contacts)),
		locations: make(map[string]*domain.Location, len(locations)),
	}
	for i := range companies {
		c := &companies[i]
		// Slugs win over names when the two collide
		if key := domain.Slugify(c.Name); key != "" {
			if _, taken := l.companies[key]; !taken {
				l.companies[key] = c
			}
		}
		if c.Slug != "" {
			l.companies[domain.Slugify(c.Slug)] = c
		}
	}
	for i := range contacts {
		l.contacts[normalizeEmail(contacts[i].Email)] = &contacts[i]
	}
	for i := range locations {
		loc := &locations[i]
		l.locations[locationKey(loc.CompanySlug, loc.Name)] = loc
	}
	return l
}

// Company resolves a company by slug or display name. Returns nil when unknown.
func (l *Lookup) Company(ref string) *domain.Company {
	key := domain.Slugify(ref)
	if key == "" {
		return nil
	}
	return l.companies[key]
}

// Contact resolves a contact by email. Returns nil when unknown.
func (l *Lookup) Contact(email string) *domain.Contact {
	return l.contacts[normalizeEmail(email)]
}

// ContactCompany resolves the company a contact belongs to
func (l *Lookup) ContactCompany(c *domain.Contact) *domain.Company {
	if c == nil {
		return nil
	}
	return l.Company(c.CompanySlug)
}

// Location resolves a location by company reference and location name
func (l *Lookup) Location(companyRef, name string) *domain.Location {
	company := l.Company(companyRef)
	if company == nil {
		return nil
	}
	return l.locations[locationKey(company.Slug, name)]
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func locationKey(companySlug, name string) string {
	return domain.Slugify(companySlug) + "/" + domain.Slugify(name)
}
