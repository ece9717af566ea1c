// Package mapper converts domain records into API response shapes.
package mapper

import (
	"time"

	"github.com/triumph-atlantic/matrix-api/internal/domain"
)

// ToContactDTO attaches the outreach state of a contact as of now
func ToContactDTO(contact *domain.Contact, now time.Time) domain.ContactDTO {
	return domain.ContactDTO{
		Contact: *contact,
		Overdue: contact.IsOverdue(now),
	}
}

// ToContactDTOs converts contacts, keeping only overdue ones when onlyOverdue is set
func ToContactDTOs(contacts []domain.Contact, now time.Time, onlyOverdue bool) []domain.ContactDTO {
	out := make([]domain.ContactDTO, 0, len(contacts))
	for i := range contacts {
		dto := ToContactDTO(&contacts[i], now)
		if onlyOverdue && !dto.Overdue {
			continue
		}
		out = append(out, dto)
	}
	return out
}

// ToOrganizations lists the configured organizations in configuration order,
// flagging the oversight organization
func ToOrganizations(names []string, oversight string) []domain.Organization {
	out := make([]domain.Organization, 0, len(names))
	for _, name := range names {
		out = append(out, domain.Organization{Name: name, Oversight: name == oversight})
	}
	return out
}
