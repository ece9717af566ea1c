package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/triumph-atlantic/matrix-api/internal/mapper"
	"github.com/triumph-atlantic/matrix-api/internal/service"
	"go.uber.org/zap"
)

// VisibilityHandler serves the org-filtered collections
type VisibilityHandler struct {
	visibility *service.VisibilityService
	logger     *zap.Logger
	now        func() time.Time
}

// NewVisibilityHandler creates a new VisibilityHandler
func NewVisibilityHandler(visibility *service.VisibilityService, logger *zap.Logger) *VisibilityHandler {
	return &VisibilityHandler{
		visibility: visibility,
		logger:     logger,
		now:        time.Now,
	}
}

// ListCompanies godoc
// @Summary List companies
// @Description Companies visible to the caller's organization, or to the organization selected with ?org= (oversight only)
// @Tags Companies
// @Produce json
// @Param org query string false "View as organization (oversight only)"
// @Success 200 {object} domain.ListResponse
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies [get]
func (h *VisibilityHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.visibility.GetVisibleCompanies(r.Context(), viewOrg(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "list companies")
		return
	}
	respondList(w, companies)
}

// ListLocations godoc
// @Summary List locations
// @Tags Locations
// @Produce json
// @Param org query string false "View as organization (oversight only)"
// @Success 200 {object} domain.ListResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /locations [get]
func (h *VisibilityHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.visibility.GetVisibleLocations(r.Context(), viewOrg(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "list locations")
		return
	}
	respondList(w, locations)
}

// ListContacts godoc
// @Summary List contacts
// @Description Visible contacts with their outreach state. overdue=true keeps only contacts past their cadence.
// @Tags Contacts
// @Produce json
// @Param org query string false "View as organization (oversight only)"
// @Param overdue query bool false "Only overdue contacts"
// @Success 200 {object} domain.ListResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts [get]
func (h *VisibilityHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	onlyOverdue := false
	if raw := r.URL.Query().Get("overdue"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid overdue: must be true or false")
			return
		}
		onlyOverdue = v
	}

	contacts, err := h.visibility.GetVisibleContacts(r.Context(), viewOrg(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "list contacts")
		return
	}

	respondList(w, mapper.ToContactDTOs(contacts, h.now(), onlyOverdue))
}

// ListProjects godoc
// @Summary List projects
// @Tags Projects
// @Produce json
// @Param org query string false "View as organization (oversight only)"
// @Success 200 {object} domain.ListResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects [get]
func (h *VisibilityHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.visibility.GetVisibleProjects(r.Context(), viewOrg(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "list projects")
		return
	}
	respondList(w, projects)
}

// ListOpportunities godoc
// @Summary List opportunities
// @Tags Opportunities
// @Produce json
// @Param org query string false "View as organization (oversight only)"
// @Success 200 {object} domain.ListResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities [get]
func (h *VisibilityHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	opportunities, err := h.visibility.GetVisibleOpportunities(r.Context(), viewOrg(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "list opportunities")
		return
	}
	respondList(w, opportunities)
}

// ListGifts godoc
// @Summary List gifts
// @Tags Activities
// @Produce json
// @Param org query string false "View as organization (oversight only)"
// @Success 200 {object} domain.ListResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /gifts [get]
func (h *VisibilityHandler) ListGifts(w http.ResponseWriter, r *http.Request) {
	gifts, err := h.visibility.GetVisibleGifts(r.Context(), viewOrg(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "list gifts")
		return
	}
	respondList(w, gifts)
}

// ListReferrals godoc
// @Summary List referrals
// @Tags Activities
// @Produce json
// @Param org query string false "View as organization (oversight only)"
// @Success 200 {object} domain.ListResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /referrals [get]
func (h *VisibilityHandler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	referrals, err := h.visibility.GetVisibleReferrals(r.Context(), viewOrg(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "list referrals")
		return
	}
	respondList(w, referrals)
}

// ListChangeLog godoc
// @Summary List change log
// @Description Entries owned by the organization, newest first
// @Tags ChangeLog
// @Produce json
// @Param org query string false "View as organization (oversight only)"
// @Param limit query int false "Maximum entries" default(100)
// @Success 200 {object} domain.ListResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /changelog [get]
func (h *VisibilityHandler) ListChangeLog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 1000 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit: must be between 1 and 1000")
			return
		}
		limit = v
	}

	entries, err := h.visibility.GetVisibleChangeLog(r.Context(), viewOrg(r), limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "list change log")
		return
	}
	respondList(w, entries)
}
