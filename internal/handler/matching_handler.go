package handler

import (
	"encoding/json"
	"net/http"

	"github.com/finchoice/backend/internal/logger"
	"github.com/finchoice/backend/internal/model"
)

type MatchingHandler struct {
	matching MatchingServiceInterface
	market   MarketServiceInterface
	data     MarketDataInterface
}

func NewMatchingHandler(matching MatchingServiceInterface, market MarketServiceInterface, data MarketDataInterface) *MatchingHandler {
	return &MatchingHandler{matching: matching, market: market, data: data}
}

// RefreshRequest re-evaluates a previously computed solution against the
// current catalog.
type RefreshRequest struct {
	Requirements model.UserRequirements `json:"requirements"`
	Solution     model.OptimalSolution  `json:"solution"`
}

// Match godoc
// @Summary Find optimal products
// @Description Rank the catalog against requirements and preferences; a fully filtered-out catalog yields found=false with diagnostics, not an error
// @Tags matching
// @Accept json
// @Produce json
// @Param input body model.UserRequirements true "User requirements"
// @Success 200 {object} model.OptimalSolution
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /matching [post]
func (h *MatchingHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req model.UserRequirements
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Category == "" || !req.Amount.IsPositive() || req.TermMonths <= 0 {
		respondError(w, http.StatusBadRequest, "category, amount and termMonths are required")
		return
	}

	solution, err := h.matching.Match(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !solution.Found {
		logger.FromContext(r.Context()).Info("no optimal solution",
			"category", req.Category,
			"warnings", len(solution.Reasoning.Warnings),
		)
	}

	// Annotate for the macro picture when a snapshot is available.
	if conditions, fresh := h.data.Current(); fresh {
		solution = h.market.UpdateForMarketConditions(solution, conditions)
	}
	respondJSON(w, http.StatusOK, solution)
}

// Combinations godoc
// @Summary Suggest product combinations
// @Description Complementary bundles: mortgage+insurance pairs or a deposit split
// @Tags matching
// @Accept json
// @Produce json
// @Param input body model.UserRequirements true "User requirements"
// @Success 200 {array} model.ProductCombination
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /matching/combinations [post]
func (h *MatchingHandler) Combinations(w http.ResponseWriter, r *http.Request) {
	var req model.UserRequirements
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	combos, err := h.matching.Combinations(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, combos)
}

// Refresh godoc
// @Summary Re-evaluate a recommendation
// @Description Diff a previous solution against the refreshed catalog and report what changed
// @Tags matching
// @Accept json
// @Produce json
// @Param input body RefreshRequest true "Previous solution and its requirements"
// @Success 200 {object} model.DynamicRecommendation
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /matching/refresh [post]
func (h *MatchingHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.market.RefreshRecommendations(r.Context(), &req.Solution, req.Requirements)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// MarketConditions godoc
// @Summary Current market conditions
// @Tags market
// @Produce json
// @Success 200 {object} model.MarketConditions
// @Router /market/conditions [get]
func (h *MatchingHandler) MarketConditions(w http.ResponseWriter, r *http.Request) {
	conditions, _ := h.data.Current()
	respondJSON(w, http.StatusOK, conditions)
}
