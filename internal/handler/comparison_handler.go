package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finchoice/backend/internal/model"
)

type ComparisonHandler struct {
	service ComparisonServiceInterface
}

func NewComparisonHandler(service ComparisonServiceInterface) *ComparisonHandler {
	return &ComparisonHandler{service: service}
}

// CompareRequest is the comparison request payload.
type CompareRequest struct {
	ProductIDs []uuid.UUID              `json:"productIds"`
	Criteria   model.ComparisonCriteria `json:"criteria"`
}

// DetailedCompareRequest adds the amount and term the cost columns are
// computed for.
type DetailedCompareRequest struct {
	CompareRequest
	Amount     decimal.Decimal `json:"amount"`
	TermMonths int             `json:"termMonths"`
}

// SaveComparisonRequest bookmarks a comparison for a user.
type SaveComparisonRequest struct {
	UserID     uuid.UUID                `json:"userId"`
	ProductIDs []uuid.UUID              `json:"productIds"`
	Criteria   model.ComparisonCriteria `json:"criteria"`
}

// Compare godoc
// @Summary Compare products
// @Description Build a scored comparison matrix for a set of products of one category
// @Tags comparisons
// @Accept json
// @Produce json
// @Param input body CompareRequest true "Products and criteria"
// @Success 200 {object} model.ComparisonResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /comparisons [post]
func (h *ComparisonHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Compare(r.Context(), req.ProductIDs, req.Criteria)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CompareDetailed godoc
// @Summary Compare products with cost projections
// @Description Comparison matrix augmented with total-cost, effective-rate and monthly-payment columns
// @Tags comparisons
// @Accept json
// @Produce json
// @Param input body DetailedCompareRequest true "Products, criteria, amount and term"
// @Success 200 {object} model.ComparisonResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /comparisons/detailed [post]
func (h *ComparisonHandler) CompareDetailed(w http.ResponseWriter, r *http.Request) {
	var req DetailedCompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TermMonths <= 0 || !req.Amount.IsPositive() {
		respondError(w, http.StatusBadRequest, "amount and termMonths must be positive")
		return
	}

	result, err := h.service.CompareDetailed(r.Context(), req.ProductIDs, req.Criteria, req.Amount, req.TermMonths)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Save godoc
// @Summary Save a comparison
// @Tags comparisons
// @Accept json
// @Produce json
// @Param input body SaveComparisonRequest true "Comparison to bookmark"
// @Success 201 {object} model.SavedComparison
// @Failure 400 {object} ErrorResponse
// @Router /comparisons/saved [post]
func (h *ComparisonHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	cmp, err := h.service.SaveComparison(r.Context(), req.UserID, req.ProductIDs, req.Criteria)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cmp)
}

// GetSaved godoc
// @Summary Get a saved comparison
// @Tags comparisons
// @Produce json
// @Param id path string true "Comparison ID"
// @Success 200 {object} model.SavedComparison
// @Failure 404 {object} ErrorResponse
// @Router /comparisons/saved/{id} [get]
func (h *ComparisonHandler) GetSaved(w http.ResponseWriter, r *http.Request) {
	cmp, err := h.service.GetSavedComparison(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "comparison not found")
		return
	}
	respondJSON(w, http.StatusOK, cmp)
}

// ListSaved godoc
// @Summary List a user's saved comparisons
// @Tags comparisons
// @Produce json
// @Param userId query string true "User ID"
// @Success 200 {array} model.SavedComparison
// @Failure 400 {object} ErrorResponse
// @Router /comparisons/saved [get]
func (h *ComparisonHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid userId")
		return
	}

	comparisons, err := h.service.ListSavedComparisons(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, comparisons)
}

// DeleteSaved godoc
// @Summary Delete a saved comparison
// @Tags comparisons
// @Param id path string true "Comparison ID"
// @Param userId query string true "User ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /comparisons/saved/{id} [delete]
func (h *ComparisonHandler) DeleteSaved(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid userId")
		return
	}

	if err := h.service.DeleteSavedComparison(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		respondError(w, http.StatusNotFound, "comparison not found")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
