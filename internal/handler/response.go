package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finchoice/backend/internal/apperror"
	"github.com/finchoice/backend/internal/model"
)

// ErrorResponse represents a JSON error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// respondJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response with the given status code and message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError maps a service-layer error onto an HTTP response,
// preserving AppError status codes and sentinel classifications.
func respondServiceError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		respondJSON(w, appErr.StatusCode, ErrorResponse{Error: appErr.Message, Field: appErr.Field})
		return
	}
	respondError(w, apperror.GetStatusCode(err), apperror.GetMessage(err))
}

// splitAndTrim splits a string by separator and trims whitespace from each part.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseDecimal parses a string into a decimal.Decimal.
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// parseCategory validates a product category query value. Returns an
// empty category for unknown input.
func parseCategory(s string) model.ProductCategory {
	switch c := model.ProductCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case model.CategoryMortgage, model.CategoryDeposit, model.CategoryCredit, model.CategoryInsurance:
		return c
	default:
		return ""
	}
}

// parseUUIDList parses a comma-separated list of uuids, skipping blanks.
func parseUUIDList(s string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range splitAndTrim(s, ",") {
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
