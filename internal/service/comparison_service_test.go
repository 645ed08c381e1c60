package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finchoice/backend/internal/apperror"
	"github.com/finchoice/backend/internal/model"
	"github.com/finchoice/backend/pkg/currency"
)

// testNow pins the clock so promo expiry is deterministic.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// MockProductCatalog for testing
type MockProductCatalog struct {
	mock.Mock
}

func (m *MockProductCatalog) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

// MockComparisonStore for testing
type MockComparisonStore struct {
	mock.Mock
}

func (m *MockComparisonStore) Save(ctx context.Context, cmp *model.SavedComparison) error {
	args := m.Called(ctx, cmp)
	return args.Error(0)
}

func (m *MockComparisonStore) GetByID(ctx context.Context, id string) (*model.SavedComparison, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SavedComparison), args.Error(1)
}

func (m *MockComparisonStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SavedComparison, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SavedComparison), args.Error(1)
}

func (m *MockComparisonStore) Delete(ctx context.Context, id string, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func newTestComparisonService(catalog *MockProductCatalog, store *MockComparisonStore) *ComparisonService {
	svc := NewComparisonService(catalog, store, currency.RUB)
	svc.now = func() time.Time { return testNow }
	return svc
}

func testBank(name string, rating float64) *model.Bank {
	return &model.Bank{
		ID:            uuid.New(),
		Name:          name,
		OverallRating: &rating,
	}
}

func mortgageProduct(name string, rate float64, fees model.Fees) model.Product {
	bank := testBank(name+" Bank", 4.0)
	return model.Product{
		ID:           uuid.New(),
		BankID:       bank.ID,
		Bank:         bank,
		Name:         name,
		Category:     model.CategoryMortgage,
		InterestRate: rate,
		Fees:         fees,
		Regions:      []string{model.RegionAll},
		IsActive:     true,
	}
}

func TestComparisonService_Compare(t *testing.T) {
	t.Parallel()

	productA := mortgageProduct("Standard", 10.5, nil)
	productB := mortgageProduct("Prime", 9.8, nil)

	tests := []struct {
		name       string
		ids        []uuid.UUID
		setupMock  func(*MockProductCatalog)
		wantErrIs  error
		wantErrMsg string
		wantRows   int
	}{
		{
			name:      "single id is not enough",
			ids:       []uuid.UUID{productA.ID},
			wantErrIs: apperror.ErrInsufficientProducts,
		},
		{
			name: "nothing resolves",
			ids:  []uuid.UUID{uuid.New(), uuid.New()},
			setupMock: func(c *MockProductCatalog) {
				c.On("GetByIDs", mock.Anything, mock.Anything).Return([]model.Product{}, nil)
			},
			wantErrIs: apperror.ErrProductsNotFound,
		},
		{
			name: "catalog failure propagates",
			ids:  []uuid.UUID{productA.ID, productB.ID},
			setupMock: func(c *MockProductCatalog) {
				c.On("GetByIDs", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
			},
			wantErrMsg: "db down",
		},
		{
			name: "two products build a matrix",
			ids:  []uuid.UUID{productA.ID, productB.ID},
			setupMock: func(c *MockProductCatalog) {
				c.On("GetByIDs", mock.Anything, mock.Anything).Return([]model.Product{productA, productB}, nil)
			},
			wantRows: 2,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			catalog := new(MockProductCatalog)
			if tt.setupMock != nil {
				tt.setupMock(catalog)
			}
			svc := newTestComparisonService(catalog, new(MockComparisonStore))

			result, err := svc.Compare(context.Background(), tt.ids, model.ComparisonCriteria{})
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				return
			}
			if tt.wantErrMsg != "" {
				assert.ErrorContains(t, err, tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Len(t, result.Rows, tt.wantRows)
		})
	}
}

func TestBuildMatrix_Completeness(t *testing.T) {
	t.Parallel()

	products := []model.Product{
		mortgageProduct("Alpha", 9.0, model.Fees{model.FeeApplication: decimal.NewFromInt(5000)}),
		mortgageProduct("Beta", 11.0, nil),
		mortgageProduct("Gamma", 10.0, nil),
	}
	svc := newTestComparisonService(new(MockProductCatalog), new(MockComparisonStore))

	result := svc.BuildMatrix(products, model.ComparisonCriteria{})

	require.Len(t, result.Rows, len(products))
	require.NotEmpty(t, result.Headers)
	for _, row := range result.Rows {
		for _, h := range result.Headers {
			cell, ok := row.Values[h.Key]
			require.True(t, ok, "row %s is missing header %s", row.ProductName, h.Key)
			assert.NotEmpty(t, cell.Formatted)
		}
	}
	assert.Contains(t, result.Summary, "3 mortgage products")
}

func TestBuildMatrix_TiedRatesAllFlaggedBest(t *testing.T) {
	t.Parallel()

	products := []model.Product{
		mortgageProduct("One", 9.5, nil),
		mortgageProduct("Two", 9.5, nil),
		mortgageProduct("Three", 9.5, nil),
	}
	svc := newTestComparisonService(new(MockProductCatalog), new(MockComparisonStore))

	result := svc.BuildMatrix(products, model.ComparisonCriteria{})

	for _, row := range result.Rows {
		cell := row.Values["interest_rate"]
		assert.True(t, cell.IsBest, "%s should share the best rate", row.ProductName)
		assert.Equal(t, 50.0, cell.Score)
	}

	// The aggregate winner map is stricter: one product per header.
	assert.Equal(t, products[0].ID, result.BestInCategory["interest_rate"])
}

func TestBuildMatrix_WeightedTotalDecidesBestOverall(t *testing.T) {
	t.Parallel()

	// A has the worse rate but no fees; B has the better rate but a large
	// fee. Rate carries twice the weight of fees, so B must win overall.
	productA := mortgageProduct("NoFees", 12.0, nil)
	productB := mortgageProduct("LowRate", 10.0, model.Fees{model.FeeApplication: decimal.NewFromInt(50000)})

	svc := newTestComparisonService(new(MockProductCatalog), new(MockComparisonStore))
	result := svc.BuildMatrix([]model.Product{productA, productB}, model.ComparisonCriteria{})

	rowA, rowB := result.Rows[0], result.Rows[1]
	assert.True(t, rowB.Values["interest_rate"].IsBest)
	assert.True(t, rowA.Values["fees"].IsBest)
	assert.Greater(t, rowB.TotalScore, rowA.TotalScore)
	assert.True(t, rowB.IsBestOverall)
	assert.False(t, rowA.IsBestOverall)
}

func TestBuildMatrix_PromotionalRate(t *testing.T) {
	t.Parallel()

	promoRate := 7.5
	until := testNow.Add(30 * 24 * time.Hour)
	promo := mortgageProduct("Promo", 10.0, nil)
	promo.PromotionalRate = &promoRate
	promo.PromoValidUntil = &until
	plain := mortgageProduct("Plain", 9.0, nil)

	svc := newTestComparisonService(new(MockProductCatalog), new(MockComparisonStore))

	t.Run("active promo is scored and annotated", func(t *testing.T) {
		t.Parallel()
		result := svc.BuildMatrix([]model.Product{promo, plain}, model.ComparisonCriteria{IncludePromotions: true})
		cell := result.Rows[0].Values["interest_rate"]
		assert.Equal(t, 7.5, cell.Raw.Num)
		assert.Equal(t, "promotional rate", cell.Note)
		assert.Contains(t, result.Rows[0].Highlights, "Promotional rate")
	})

	t.Run("promotions excluded on request", func(t *testing.T) {
		t.Parallel()
		result := svc.BuildMatrix([]model.Product{promo, plain}, model.ComparisonCriteria{IncludePromotions: false})
		cell := result.Rows[0].Values["interest_rate"]
		assert.Equal(t, 10.0, cell.Raw.Num)
		assert.Empty(t, cell.Note)
	})
}

func TestStripExpiredPromos(t *testing.T) {
	t.Parallel()

	promoRate := 6.0
	expired := testNow.Add(-24 * time.Hour)
	active := testNow.Add(24 * time.Hour)

	expiredPromo := mortgageProduct("Expired", 10.0, nil)
	expiredPromo.PromotionalRate = &promoRate
	expiredPromo.PromoValidUntil = &expired
	expiredPromo.PromoConditions = "first-time buyers"

	activePromo := mortgageProduct("Active", 10.0, nil)
	activePromo.PromotionalRate = &promoRate
	activePromo.PromoValidUntil = &active

	input := []model.Product{expiredPromo, activePromo}
	stripped := StripExpiredPromos(input, testNow)

	assert.Nil(t, stripped[0].PromotionalRate)
	assert.Nil(t, stripped[0].PromoValidUntil)
	assert.Empty(t, stripped[0].PromoConditions)
	assert.NotNil(t, stripped[1].PromotionalRate)

	// Copy-on-write: the caller's slice is untouched.
	assert.NotNil(t, input[0].PromotionalRate)

	// A second pass changes nothing.
	again := StripExpiredPromos(stripped, testNow)
	assert.Equal(t, stripped, again)
}

func TestComparisonService_Cost(t *testing.T) {
	t.Parallel()

	svc := newTestComparisonService(new(MockProductCatalog), new(MockComparisonStore))
	amount := decimal.NewFromInt(120000)

	t.Run("zero rate splits the principal evenly", func(t *testing.T) {
		t.Parallel()
		p := mortgageProduct("Free", 0, nil)
		cost := svc.Cost(&p, amount, 12)
		assert.True(t, cost.TotalCost.Equal(decimal.NewFromInt(120000)))
		assert.True(t, cost.MonthlyPayment.Equal(decimal.NewFromInt(10000)))
		assert.Equal(t, 0.0, cost.EffectiveRate)
	})

	t.Run("fees raise the effective rate", func(t *testing.T) {
		t.Parallel()
		p := mortgageProduct("Fee", 0, model.Fees{model.FeeApplication: decimal.NewFromInt(1200)})
		cost := svc.Cost(&p, amount, 12)
		assert.True(t, cost.TotalCost.Equal(decimal.NewFromInt(121200)))
		assert.InDelta(t, 1.0, cost.EffectiveRate, 1e-9)
	})

	t.Run("positive rate costs more than the principal", func(t *testing.T) {
		t.Parallel()
		p := mortgageProduct("Loan", 12.0, nil)
		cost := svc.Cost(&p, decimal.NewFromInt(2000000), 120)
		assert.True(t, cost.TotalCost.GreaterThan(decimal.NewFromInt(2000000)))
		assert.Greater(t, cost.EffectiveRate, 0.0)
	})
}

func TestFilterProducts(t *testing.T) {
	t.Parallel()

	promoRate := 5.0
	expired := testNow.Add(-time.Hour)

	deposit := mortgageProduct("Deposit", 15.0, nil)
	deposit.Category = model.CategoryDeposit

	expiredPromo := mortgageProduct("ExpiredPromo", 10.0, nil)
	expiredPromo.PromotionalRate = &promoRate
	expiredPromo.PromoValidUntil = &expired

	regional := mortgageProduct("Regional", 9.0, nil)
	regional.Regions = []string{"moscow"}

	svc := newTestComparisonService(new(MockProductCatalog), new(MockComparisonStore))
	products := []model.Product{deposit, expiredPromo, regional}

	t.Run("category", func(t *testing.T) {
		t.Parallel()
		out := svc.FilterProducts(products, model.CatalogFilter{Category: model.CategoryDeposit})
		require.Len(t, out, 1)
		assert.Equal(t, "Deposit", out[0].Name)
	})

	t.Run("expired promo cannot satisfy promoOnly", func(t *testing.T) {
		t.Parallel()
		out := svc.FilterProducts(products, model.CatalogFilter{PromoOnly: true})
		assert.Empty(t, out)
	})

	t.Run("region honors the all sentinel", func(t *testing.T) {
		t.Parallel()
		out := svc.FilterProducts(products, model.CatalogFilter{Region: "spb"})
		require.Len(t, out, 2)
	})

	t.Run("bank allowlist", func(t *testing.T) {
		t.Parallel()
		out := svc.FilterProducts(products, model.CatalogFilter{AllowedBanks: []uuid.UUID{regional.BankID}})
		require.Len(t, out, 1)
		assert.Equal(t, "Regional", out[0].Name)
	})
}

func TestSaveComparison(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	t.Run("assigns a synthetic id and persists", func(t *testing.T) {
		t.Parallel()
		store := new(MockComparisonStore)
		store.On("Save", mock.Anything, mock.Anything).Return(nil)
		svc := newTestComparisonService(new(MockProductCatalog), store)

		cmp, err := svc.SaveComparison(context.Background(), userID, ids, model.ComparisonCriteria{})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(cmp.ID, "comparison_"))
		assert.Contains(t, cmp.ID, userID.String())
		assert.Equal(t, testNow, cmp.CreatedAt)
		store.AssertExpectations(t)
	})

	t.Run("rejects a single product", func(t *testing.T) {
		t.Parallel()
		svc := newTestComparisonService(new(MockProductCatalog), new(MockComparisonStore))
		_, err := svc.SaveComparison(context.Background(), userID, ids[:1], model.ComparisonCriteria{})
		assert.ErrorIs(t, err, apperror.ErrInsufficientProducts)
	})
}
