package handler

import (
	"net/http"
	"strconv"

	"github.com/triumph-atlantic/matrix-api/internal/access"
	"github.com/triumph-atlantic/matrix-api/internal/service"
	"go.uber.org/zap"
)

// ImportHandler triggers warehouse imports on demand
type ImportHandler struct {
	importer *service.ProjectImportService
	policy   *access.Policy
	logger   *zap.Logger
}

// NewImportHandler creates a new ImportHandler. importer may be nil when the
// warehouse is not configured.
func NewImportHandler(importer *service.ProjectImportService, policy *access.Policy, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		importer: importer,
		policy:   policy,
		logger:   logger,
	}
}

// SyncWarehouse godoc
// @Summary Import warehouse projects
// @Description Pulls new and changed projects from the ERP warehouse. Oversight organization only.
// @Tags Imports
// @Produce json
// @Param full query bool false "Read the whole export instead of changes since the last run"
// @Success 200 {object} service.ImportResult
// @Failure 403 {object} domain.APIError
// @Failure 503 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /imports/warehouse [post]
func (h *ImportHandler) SyncWarehouse(w http.ResponseWriter, r *http.Request) {
	if !h.policy.CanModify(actingOrg(r)) {
		respondWithError(w, http.StatusForbidden, "Only the oversight organization may import projects")
		return
	}
	if h.importer == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Warehouse import is not configured")
		return
	}

	full, _ := strconv.ParseBool(r.URL.Query().Get("full"))
	result, err := h.importer.Sync(r.Context(), full)
	if err != nil {
		respondServiceError(w, h.logger, err, "import warehouse projects")
		return
	}
	respondJSON(w, http.StatusOK, result)
}
