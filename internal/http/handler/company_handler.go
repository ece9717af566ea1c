package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/service"
	"go.uber.org/zap"
)

// CompanyHandler serves single companies and their oversight-only maintenance
type CompanyHandler struct {
	records    *service.RecordService
	visibility *service.VisibilityService
	tradeSwap  *service.TradeSwapService
	logger     *zap.Logger
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(records *service.RecordService, visibility *service.VisibilityService, tradeSwap *service.TradeSwapService, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		records:    records,
		visibility: visibility,
		tradeSwap:  tradeSwap,
		logger:     logger,
	}
}

// GetCompany godoc
// @Summary Get company
// @Description A company visible to the organization, by slug or name. Invisible companies are reported as not found.
// @Tags Companies
// @Produce json
// @Param slug path string true "Company slug"
// @Param org query string false "View as organization (oversight only)"
// @Success 200 {object} domain.Company
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies/{slug} [get]
func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.visibility.VisibleCompany(r.Context(), viewOrg(r), chi.URLParam(r, "slug"))
	if err != nil {
		respondServiceError(w, h.logger, err, "get company")
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// GetWorkSummary godoc
// @Summary Company work summary
// @Description Projects at the company grouped by contractor, most active first
// @Tags TradeSwap
// @Produce json
// @Param slug path string true "Company slug"
// @Param org query string false "View as organization (oversight only)"
// @Success 200 {object} domain.ListResponse
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies/{slug}/work-summary [get]
func (h *CompanyHandler) GetWorkSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.tradeSwap.GetCompanyWorkSummary(r.Context(), viewOrg(r), chi.URLParam(r, "slug"))
	if err != nil {
		respondServiceError(w, h.logger, err, "summarize company work")
		return
	}
	respondList(w, summary)
}

// CreateCompany godoc
// @Summary Create company
// @Description Oversight organization only
// @Tags Companies
// @Accept json
// @Produce json
// @Param request body domain.CreateCompanyRequest true "Company data"
// @Success 201 {object} domain.Company
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies [post]
func (h *CompanyHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCompanyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	company, err := h.records.CreateCompany(r.Context(), actingOrg(r), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create companies")
		return
	}

	w.Header().Set("Location", "/api/v1/companies/"+company.Slug)
	respondJSON(w, http.StatusCreated, company)
}

// UpdateCompany godoc
// @Summary Update company
// @Description Oversight organization only
// @Tags Companies
// @Accept json
// @Produce json
// @Param slug path string true "Company slug"
// @Param request body domain.UpdateCompanyRequest true "Company fields"
// @Success 200 {object} domain.Company
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies/{slug} [put]
func (h *CompanyHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateCompanyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	company, err := h.records.UpdateCompany(r.Context(), actingOrg(r), chi.URLParam(r, "slug"), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update companies")
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// AssignContractors godoc
// @Summary Assign contractors
// @Description Replaces the trade-to-contractor slots of a company. Oversight organization only.
// @Tags Companies
// @Accept json
// @Produce json
// @Param slug path string true "Company slug"
// @Param request body domain.AssignContractorsRequest true "Trade to contractor"
// @Success 200 {object} domain.Company
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /companies/{slug}/contractors [put]
func (h *CompanyHandler) AssignContractors(w http.ResponseWriter, r *http.Request) {
	var req domain.AssignContractorsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	company, err := h.records.AssignContractors(r.Context(), actingOrg(r), chi.URLParam(r, "slug"), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "assign contractors")
		return
	}
	respondJSON(w, http.StatusOK, company)
}
