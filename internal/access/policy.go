// Package access enforces row-level visibility of CRM data per organization.
//
// The oversight organization sees everything. Every other organization sees a
// company only when it appears in the company's effective contractor mapping,
// and sees dependent records only through a company it can see. Anything that
// cannot be resolved to a company is hidden.
package access

import (
	"github.com/triumph-atlantic/matrix-api/internal/domain"
)

// Policy applies visibility rules for a configured oversight organization
type Policy struct {
	oversight string
}

// NewPolicy creates a policy for the given oversight organization name
func NewPolicy(oversight string) *Policy {
	return &Policy{oversight: oversight}
}

// Oversight returns the configured oversight organization name
func (p *Policy) Oversight() string {
	return p.oversight
}

// IsOversight reports whether org is the oversight organization (exact match)
func (p *Policy) IsOversight(org string) bool {
	return p.oversight != "" && org == p.oversight
}

// CanModify reports whether org may change shared reference data
func (p *Policy) CanModify(org string) bool {
	return p.IsOversight(org)
}

// CompanyVisibleTo checks if org can see the company
func (p *Policy) CompanyVisibleTo(company *domain.Company, org string) bool {
	if p.IsOversight(org) {
		return true
	}
	if company == nil || org == "" {
		return false
	}
	for _, contractor := range company.EffectiveContractors() {
		if domain.SameOrganization(contractor, org) {
			return true
		}
	}
	return false
}

// FilterCompanies returns the companies visible to org
func (p *Policy) FilterCompanies(companies []domain.Company, org string) []domain.Company {
	if p.IsOversight(org) {
		return companies
	}
	out := make([]domain.Company, 0, len(companies))
	for i := range companies {
		if p.CompanyVisibleTo(&companies[i], org) {
			out = append(out, companies[i])
		}
	}
	return out
}

// FilterChangeLog returns the entries owned by org. Ownership is exact-case.
func (p *Policy) FilterChangeLog(entries []domain.ChangeLogEntry, org string) []domain.ChangeLogEntry {
	if p.IsOversight(org) {
		return entries
	}
	out := make([]domain.ChangeLogEntry, 0)
	for _, e := range entries {
		if e.Org == org {
			out = append(out, e)
		}
	}
	return out
}

// FilterDependents keeps the items whose company resolves and is visible to org.
// Used for locations, contacts, projects and opportunities.
func FilterDependents[T any](p *Policy, items []T, org string, resolveCompany func(T) *domain.Company) []T {
	if p.IsOversight(org) {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if p.CompanyVisibleTo(resolveCompany(item), org) {
			out = append(out, item)
		}
	}
	return out
}

// FilterTransitive keeps items keyed by a contact reference (gifts, referrals)
// whose contact and company both resolve and the company is visible to org.
func FilterTransitive[T any](p *Policy, items []T, org string, resolveContact func(T) *domain.Contact, resolveCompany func(*domain.Contact) *domain.Company) []T {
	if p.IsOversight(org) {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		contact := resolveContact(item)
		if contact == nil {
			continue
		}
		if p.CompanyVisibleTo(resolveCompany(contact), org) {
			out = append(out, item)
		}
	}
	return out
}
