package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/triumph-atlantic/matrix-api/internal/access"
	"github.com/triumph-atlantic/matrix-api/internal/auth"
	"github.com/triumph-atlantic/matrix-api/internal/config"
	"github.com/triumph-atlantic/matrix-api/internal/http/middleware"
	"go.uber.org/zap"
)

const (
	oversight = "Triumph Atlantic"
	guercio   = "Guercio Energy Group"
	myers     = "Myers Industrial Services"
)

func withUser(r *http.Request, org string) *http.Request {
	return r.WithContext(auth.WithUserContext(r.Context(), &auth.UserContext{
		UserID:       "u-1",
		DisplayName:  "Test User",
		Organization: org,
		AuthType:     "jwt",
	}))
}

func newOrgFilter() *middleware.OrgFilterMiddleware {
	orgs := &config.OrganizationsConfig{Oversight: oversight, Names: []string{oversight, guercio, myers}}
	return middleware.NewOrgFilterMiddleware(access.NewPolicy(oversight), orgs, zap.NewNop())
}

func TestOrgFilter(t *testing.T) {
	tests := []struct {
		name           string
		org            string
		query          string
		expectedStatus int
		expectedOrg    string
		viewingAs      bool
	}{
		{"contractor sees own view", guercio, "", http.StatusOK, guercio, false},
		{"contractor may name itself", guercio, "?org=Guercio+Energy+Group", http.StatusOK, guercio, false},
		{"contractor cannot view as another", guercio, "?org=Myers+Industrial+Services", http.StatusForbidden, "", false},
		{"contractor cannot view as oversight", guercio, "?org=Triumph+Atlantic", http.StatusForbidden, "", false},
		{"oversight sees everything by default", oversight, "", http.StatusOK, oversight, false},
		{"oversight views as contractor", oversight, "?org=Myers+Industrial+Services", http.StatusOK, myers, true},
		{"oversight views as unconfigured org", oversight, "?org=Nobody", http.StatusOK, "Nobody", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOrg string
			var gotViewingAs bool
			handler := newOrgFilter().Filter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotOrg = auth.EffectiveOrganization(r.Context())
				if f, ok := auth.OrgFilterFromContext(r.Context()); ok {
					gotViewingAs = f.ViewingAs
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/companies"+tt.query, nil), tt.org)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrg, gotOrg)
			assert.Equal(t, tt.viewingAs, gotViewingAs)
		})
	}
}

func TestOrgFilter_NoUser(t *testing.T) {
	called := false
	handler := newOrgFilter().Filter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := auth.OrgFilterFromContext(r.Context())
		assert.False(t, ok)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies?org=x", nil).WithContext(context.Background())
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}
