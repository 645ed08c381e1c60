package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finchoice/backend/internal/apperror"
	"github.com/finchoice/backend/internal/model"
)

// MockComparisonService implements ComparisonServiceInterface for testing
type MockComparisonService struct {
	mock.Mock
}

func (m *MockComparisonService) Compare(ctx context.Context, productIDs []uuid.UUID, criteria model.ComparisonCriteria) (*model.ComparisonResult, error) {
	args := m.Called(ctx, productIDs, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ComparisonResult), args.Error(1)
}

func (m *MockComparisonService) CompareDetailed(ctx context.Context, productIDs []uuid.UUID, criteria model.ComparisonCriteria, amount decimal.Decimal, termMonths int) (*model.ComparisonResult, error) {
	args := m.Called(ctx, productIDs, criteria, amount, termMonths)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ComparisonResult), args.Error(1)
}

func (m *MockComparisonService) SaveComparison(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID, criteria model.ComparisonCriteria) (*model.SavedComparison, error) {
	args := m.Called(ctx, userID, productIDs, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SavedComparison), args.Error(1)
}

func (m *MockComparisonService) GetSavedComparison(ctx context.Context, id string) (*model.SavedComparison, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SavedComparison), args.Error(1)
}

func (m *MockComparisonService) ListSavedComparisons(ctx context.Context, userID uuid.UUID) ([]model.SavedComparison, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SavedComparison), args.Error(1)
}

func (m *MockComparisonService) DeleteSavedComparison(ctx context.Context, id string, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func TestNewComparisonHandler(t *testing.T) {
	mockService := new(MockComparisonService)
	handler := NewComparisonHandler(mockService)
	assert.NotNil(t, handler)
}

func TestComparisonHandler_Compare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockComparisonService)
		wantStatus int
	}{
		{
			name:       "malformed body",
			body:       `{"productIds": [`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "too few products maps to 400",
			body: `{"productIds": ["` + uuid.NewString() + `"]}`,
			setupMock: func(s *MockComparisonService) {
				s.On("Compare", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, apperror.InsufficientProducts(1))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown products map to 404",
			body: `{"productIds": ["` + uuid.NewString() + `", "` + uuid.NewString() + `"]}`,
			setupMock: func(s *MockComparisonService) {
				s.On("Compare", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, apperror.ProductsNotFound())
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "success",
			body: `{"productIds": ["` + uuid.NewString() + `", "` + uuid.NewString() + `"]}`,
			setupMock: func(s *MockComparisonService) {
				s.On("Compare", mock.Anything, mock.Anything, mock.Anything).
					Return(&model.ComparisonResult{Category: model.CategoryMortgage}, nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockService := new(MockComparisonService)
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			handler := NewComparisonHandler(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/comparisons", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.Compare(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var result model.ComparisonResult
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
				assert.Equal(t, model.CategoryMortgage, result.Category)
			}
		})
	}
}

func TestComparisonHandler_CompareDetailed_Validation(t *testing.T) {
	t.Parallel()

	handler := NewComparisonHandler(new(MockComparisonService))

	body := `{"productIds": ["` + uuid.NewString() + `", "` + uuid.NewString() + `"], "amount": "0", "termMonths": 12}`
	req := httptest.NewRequest(http.MethodPost, "/api/comparisons/detailed", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.CompareDetailed(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComparisonHandler_Save(t *testing.T) {
	t.Parallel()

	t.Run("requires a user id", func(t *testing.T) {
		t.Parallel()
		handler := NewComparisonHandler(new(MockComparisonService))

		body := `{"productIds": ["` + uuid.NewString() + `", "` + uuid.NewString() + `"]}`
		req := httptest.NewRequest(http.MethodPost, "/api/comparisons/saved", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.Save(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("created", func(t *testing.T) {
		t.Parallel()
		mockService := new(MockComparisonService)
		mockService.On("SaveComparison", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&model.SavedComparison{ID: "comparison_1_test"}, nil)
		handler := NewComparisonHandler(mockService)

		body := `{"userId": "` + uuid.NewString() + `", "productIds": ["` + uuid.NewString() + `", "` + uuid.NewString() + `"]}`
		req := httptest.NewRequest(http.MethodPost, "/api/comparisons/saved", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.Save(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		mockService.AssertExpectations(t)
	})
}
