package handler

import (
	"net/http"

	"github.com/triumph-atlantic/matrix-api/internal/auth"
	"github.com/triumph-atlantic/matrix-api/internal/config"
	"github.com/triumph-atlantic/matrix-api/internal/mapper"
)

// OrganizationHandler describes the tenants and the current caller
type OrganizationHandler struct {
	orgs *config.OrganizationsConfig
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(orgs *config.OrganizationsConfig) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

// MeResponse describes the authenticated caller
type MeResponse struct {
	UserID       string `json:"userId"`
	DisplayName  string `json:"displayName,omitempty"`
	Email        string `json:"email,omitempty"`
	Organization string `json:"organization"`
	Oversight    bool   `json:"oversight"`
	// ViewingAs is set when an oversight caller selected another view
	ViewingAs string `json:"viewingAs,omitempty"`
	AuthType  string `json:"authType"`
}

// ListOrganizations godoc
// @Summary List organizations
// @Tags Organizations
// @Produce json
// @Success 200 {object} domain.ListResponse
// @Router /organizations [get]
func (h *OrganizationHandler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	respondList(w, mapper.ToOrganizations(h.orgs.Names, h.orgs.Oversight))
}

// Me godoc
// @Summary Current caller
// @Tags Organizations
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *OrganizationHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	resp := MeResponse{
		UserID:       user.UserID,
		DisplayName:  user.DisplayName,
		Email:        user.Email,
		Organization: user.Organization,
		Oversight:    user.Organization == h.orgs.Oversight,
		AuthType:     user.AuthType,
	}
	if filter, ok := auth.OrgFilterFromContext(r.Context()); ok && filter.ViewingAs {
		resp.ViewingAs = filter.Organization
	}
	respondJSON(w, http.StatusOK, resp)
}
