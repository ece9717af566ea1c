package auth

import (
	"context"
)

// UserContext holds the authenticated caller
type UserContext struct {
	UserID      string
	DisplayName string
	Email       string
	// Organization is the tenant the caller belongs to
	Organization string
	// AuthType is "jwt" or "api_key"
	AuthType string
}

type contextKey string

const userContextKey contextKey = "userContext"
const orgFilterKey contextKey = "orgFilter"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

// OrgFilter is the organization whose view a request is evaluated against.
// It is set by middleware from the caller's own organization or, for the
// oversight organization, from an explicit ?org= selection.
type OrgFilter struct {
	Organization string
	// ViewingAs is true when an oversight caller selected another organization
	ViewingAs bool
}

// WithOrgFilter adds the org filter to the context
func WithOrgFilter(ctx context.Context, filter *OrgFilter) context.Context {
	return context.WithValue(ctx, orgFilterKey, filter)
}

// OrgFilterFromContext extracts the org filter from the context
func OrgFilterFromContext(ctx context.Context) (*OrgFilter, bool) {
	filter, ok := ctx.Value(orgFilterKey).(*OrgFilter)
	return filter, ok && filter != nil
}

// EffectiveOrganization returns the organization to evaluate visibility for.
// Empty when the request carries neither a filter nor a user, which every
// visibility check treats as an organization with no access.
func EffectiveOrganization(ctx context.Context) string {
	if filter, ok := OrgFilterFromContext(ctx); ok {
		return filter.Organization
	}
	if user, ok := FromContext(ctx); ok {
		return user.Organization
	}
	return ""
}
