package middleware

import (
	"net/http"
	"strings"

	"github.com/triumph-atlantic/matrix-api/internal/access"
	"github.com/triumph-atlantic/matrix-api/internal/auth"
	"github.com/triumph-atlantic/matrix-api/internal/config"
	"go.uber.org/zap"
)

// OrgQueryParam lets the oversight organization view data as another organization
const OrgQueryParam = "org"

// OrgFilterMiddleware decides which organization a request is evaluated for.
// Contractor organizations always see their own view. The oversight
// organization sees everything unless it selects another view with ?org=.
type OrgFilterMiddleware struct {
	policy *access.Policy
	orgs   *config.OrganizationsConfig
	logger *zap.Logger
}

// NewOrgFilterMiddleware creates a new org filter middleware
func NewOrgFilterMiddleware(policy *access.Policy, orgs *config.OrganizationsConfig, logger *zap.Logger) *OrgFilterMiddleware {
	return &OrgFilterMiddleware{
		policy: policy,
		orgs:   orgs,
		logger: logger,
	}
}

// Filter sets the org filter on the request context
func (m *OrgFilterMiddleware) Filter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := auth.FromContext(r.Context())
		if !ok {
			// Authentication middleware rejects anonymous requests before this point
			next.ServeHTTP(w, r)
			return
		}

		filter := &auth.OrgFilter{Organization: userCtx.Organization}

		if requested := strings.TrimSpace(r.URL.Query().Get(OrgQueryParam)); requested != "" && requested != userCtx.Organization {
			if !m.policy.IsOversight(userCtx.Organization) {
				m.logger.Warn("Organization attempted to view as another organization",
					zap.String("user_id", userCtx.UserID),
					zap.String("org", userCtx.Organization),
					zap.String("requested_org", requested),
				)
				respondError(w, http.StatusForbidden, "Only the oversight organization may select another organization's view")
				return
			}
			if m.orgs != nil && !m.orgs.IsKnown(requested) {
				// Still allowed: an unknown organization simply sees nothing
				m.logger.Warn("Viewing as an unconfigured organization", zap.String("requested_org", requested))
			}
			filter = &auth.OrgFilter{Organization: requested, ViewingAs: true}
		}

		next.ServeHTTP(w, r.WithContext(auth.WithOrgFilter(r.Context(), filter)))
	})
}
