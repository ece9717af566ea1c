package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/triumph-atlantic/matrix-api/internal/domain"
	"github.com/triumph-atlantic/matrix-api/internal/service"
	"go.uber.org/zap"
)

// RecordHandler creates records that hang off a visible company or contact
type RecordHandler struct {
	records *service.RecordService
	logger  *zap.Logger
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(records *service.RecordService, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{
		records: records,
		logger:  logger,
	}
}

// CreateLocation godoc
// @Summary Create location
// @Tags Locations
// @Accept json
// @Produce json
// @Param request body domain.CreateLocationRequest true "Location data"
// @Success 201 {object} domain.Location
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /locations [post]
func (h *RecordHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLocationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	location, err := h.records.CreateLocation(r.Context(), actingOrg(r), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create location")
		return
	}
	respondJSON(w, http.StatusCreated, location)
}

// CreateContact godoc
// @Summary Create contact
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body domain.CreateContactRequest true "Contact data"
// @Success 201 {object} domain.Contact
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts [post]
func (h *RecordHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	contact, err := h.records.CreateContact(r.Context(), actingOrg(r), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create contact")
		return
	}
	w.Header().Set("Location", "/api/v1/contacts/"+contact.Email)
	respondJSON(w, http.StatusCreated, contact)
}

// TouchContact godoc
// @Summary Record outreach
// @Description Sets the contact's last contacted time. An empty body means now.
// @Tags Contacts
// @Accept json
// @Produce json
// @Param email path string true "Contact email"
// @Param request body domain.TouchContactRequest false "Contact time"
// @Success 200 {object} domain.Contact
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contacts/{email}/touch [post]
func (h *RecordHandler) TouchContact(w http.ResponseWriter, r *http.Request) {
	var req domain.TouchContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	contact, err := h.records.TouchContact(r.Context(), actingOrg(r), chi.URLParam(r, "email"), req.ContactedAt)
	if err != nil {
		respondServiceError(w, h.logger, err, "touch contact")
		return
	}
	respondJSON(w, http.StatusOK, contact)
}

// CreateProject godoc
// @Summary Record project
// @Description Performed work at a visible company. Contractors may omit performedBy to record their own work.
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body domain.CreateProjectRequest true "Project data"
// @Success 201 {object} domain.Project
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects [post]
func (h *RecordHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	project, err := h.records.CreateProject(r.Context(), actingOrg(r), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create project")
		return
	}
	respondJSON(w, http.StatusCreated, project)
}

// CreateOpportunity godoc
// @Summary Create opportunity
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param request body domain.CreateOpportunityRequest true "Opportunity data"
// @Success 201 {object} domain.Opportunity
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities [post]
func (h *RecordHandler) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOpportunityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	opportunity, err := h.records.CreateOpportunity(r.Context(), actingOrg(r), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create opportunity")
		return
	}
	respondJSON(w, http.StatusCreated, opportunity)
}

// CreateGift godoc
// @Summary Record gift
// @Tags Activities
// @Accept json
// @Produce json
// @Param request body domain.CreateGiftRequest true "Gift data"
// @Success 201 {object} domain.Gift
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /gifts [post]
func (h *RecordHandler) CreateGift(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGiftRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	gift, err := h.records.CreateGift(r.Context(), actingOrg(r), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create gift")
		return
	}
	respondJSON(w, http.StatusCreated, gift)
}

// CreateReferral godoc
// @Summary Record referral
// @Tags Activities
// @Accept json
// @Produce json
// @Param request body domain.CreateReferralRequest true "Referral data"
// @Success 201 {object} domain.Referral
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /referrals [post]
func (h *RecordHandler) CreateReferral(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateReferralRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	referral, err := h.records.CreateReferral(r.Context(), actingOrg(r), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create referral")
		return
	}
	respondJSON(w, http.StatusCreated, referral)
}
