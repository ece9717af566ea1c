package handler

import (
	"net/http"
	"strconv"

	"github.com/triumph-atlantic/matrix-api/internal/service"
	"go.uber.org/zap"
)

// TradeSwapHandler serves introduction candidates
type TradeSwapHandler struct {
	tradeSwap *service.TradeSwapService
	logger    *zap.Logger
}

// NewTradeSwapHandler creates a new TradeSwapHandler
func NewTradeSwapHandler(tradeSwap *service.TradeSwapService, logger *zap.Logger) *TradeSwapHandler {
	return &TradeSwapHandler{
		tradeSwap: tradeSwap,
		logger:    logger,
	}
}

// ListCandidates godoc
// @Summary Trade-swap candidates
// @Description Contractor pairs who could introduce each other at shared client companies, ranked by potential value. Computed only over records visible to the organization.
// @Tags TradeSwap
// @Produce json
// @Param org query string false "View as organization (oversight only)"
// @Param limit query int false "Maximum candidates"
// @Success 200 {object} domain.ListResponse
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /trade-swap/candidates [get]
func (h *TradeSwapHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit: must be a positive integer")
			return
		}
		limit = v
	}

	candidates, err := h.tradeSwap.GetTradeSwapCandidates(r.Context(), viewOrg(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "compute trade-swap candidates")
		return
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	respondList(w, candidates)
}
