package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finchoice/backend/internal/handler"
	"github.com/finchoice/backend/internal/model"
)

// ============ Mock Services ============

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, p *model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, filter model.CatalogFilter) ([]model.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Featured(ctx context.Context, limit int) ([]model.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, p *model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductService) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductService) Banks(ctx context.Context) ([]model.Bank, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Bank), args.Error(1)
}

func (m *MockProductService) Bank(ctx context.Context, id uuid.UUID) (*model.Bank, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Bank), args.Error(1)
}

func (m *MockProductService) BankProducts(ctx context.Context, bankID uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, bankID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

type MockMatchingService struct {
	mock.Mock
}

func (m *MockMatchingService) Match(ctx context.Context, req model.UserRequirements) (*model.OptimalSolution, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OptimalSolution), args.Error(1)
}

func (m *MockMatchingService) Combinations(ctx context.Context, req model.UserRequirements) ([]model.ProductCombination, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductCombination), args.Error(1)
}

type MockMarketService struct {
	mock.Mock
}

func (m *MockMarketService) UpdateForMarketConditions(sol *model.OptimalSolution, mc model.MarketConditions) *model.OptimalSolution {
	args := m.Called(sol, mc)
	return args.Get(0).(*model.OptimalSolution)
}

func (m *MockMarketService) RefreshRecommendations(ctx context.Context, prev *model.OptimalSolution, req model.UserRequirements) (*model.DynamicRecommendation, error) {
	args := m.Called(ctx, prev, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DynamicRecommendation), args.Error(1)
}

type MockMarketData struct {
	mock.Mock
}

func (m *MockMarketData) Current() (model.MarketConditions, bool) {
	args := m.Called()
	return args.Get(0).(model.MarketConditions), args.Bool(1)
}

// ============ Router Setup ============

type apiMocks struct {
	products *MockProductService
	matching *MockMatchingService
	market   *MockMarketService
	data     *MockMarketData
}

func setupRouter() (*chi.Mux, *apiMocks) {
	mocks := &apiMocks{
		products: new(MockProductService),
		matching: new(MockMatchingService),
		market:   new(MockMarketService),
		data:     new(MockMarketData),
	}

	productHandler := handler.NewProductHandler(mocks.products)
	matchingHandler := handler.NewMatchingHandler(mocks.matching, mocks.market, mocks.data)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/products", productHandler.List)
	r.Get("/api/products/featured", productHandler.Featured)
	r.Get("/api/products/{id}", productHandler.Get)
	r.Post("/api/products", productHandler.Create)
	r.Get("/api/banks", productHandler.ListBanks)
	r.Post("/api/matching", matchingHandler.Match)
	r.Post("/api/matching/combinations", matchingHandler.Combinations)

	return r, mocks
}

func doRequest(t *testing.T, router *chi.Mux, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// ============ Routing Tests ============

func TestAPI_ListProducts(t *testing.T) {
	router, mocks := setupRouter()

	mocks.products.On("List", mock.Anything, mock.MatchedBy(func(f model.CatalogFilter) bool {
		return f.Category == model.CategoryDeposit && f.Region == "moscow"
	})).Return([]model.Product{{Name: "Classic Deposit"}}, nil)

	rr := doRequest(t, router, "GET", "/api/products?category=deposit&region=moscow", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Classic Deposit")
	mocks.products.AssertExpectations(t)
}

func TestAPI_ListProducts_MissingCategory(t *testing.T) {
	router, mocks := setupRouter()

	rr := doRequest(t, router, "GET", "/api/products", nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mocks.products.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestAPI_GetProduct_NotFound(t *testing.T) {
	router, mocks := setupRouter()

	id := uuid.New()
	mocks.products.On("Get", mock.Anything, id).Return(nil, assert.AnError)

	rr := doRequest(t, router, "GET", "/api/products/"+id.String(), nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_FeaturedRouting(t *testing.T) {
	// /products/featured must not be swallowed by the /products/{id} route
	router, mocks := setupRouter()

	mocks.products.On("Featured", mock.Anything, 0).Return([]model.Product{}, nil)

	rr := doRequest(t, router, "GET", "/api/products/featured", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	mocks.products.AssertCalled(t, "Featured", mock.Anything, 0)
}

func TestAPI_Match(t *testing.T) {
	router, mocks := setupRouter()

	solution := &model.OptimalSolution{
		Found: true,
		PrimaryRecommendation: model.RankedProduct{
			Product: &model.Product{Name: "Best Credit"},
			Rank:    1,
			Score:   87.5,
		},
		RiskLevel: model.RiskLow,
	}
	mocks.matching.On("Match", mock.Anything, mock.Anything).Return(solution, nil)
	mocks.data.On("Current").Return(model.MarketConditions{}, false)

	rr := doRequest(t, router, "POST", "/api/matching", map[string]interface{}{
		"category":   "credit",
		"amount":     "250000",
		"termMonths": 24,
		"region":     "moscow",
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Best Credit")
	mocks.market.AssertNotCalled(t, "UpdateForMarketConditions", mock.Anything, mock.Anything)
}

func TestAPI_Match_AnnotatesWithFreshConditions(t *testing.T) {
	router, mocks := setupRouter()

	solution := &model.OptimalSolution{Found: true, RiskLevel: model.RiskLow}
	adjusted := &model.OptimalSolution{Found: true, RiskLevel: model.RiskMedium}
	conditions := model.MarketConditions{CentralBankRate: 18.0}

	mocks.matching.On("Match", mock.Anything, mock.Anything).Return(solution, nil)
	mocks.data.On("Current").Return(conditions, true)
	mocks.market.On("UpdateForMarketConditions", solution, conditions).Return(adjusted)

	rr := doRequest(t, router, "POST", "/api/matching", map[string]interface{}{
		"category":   "credit",
		"amount":     "250000",
		"termMonths": 24,
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), string(model.RiskMedium))
	mocks.market.AssertExpectations(t)
}

func TestAPI_Match_RejectsIncompleteRequirements(t *testing.T) {
	router, mocks := setupRouter()

	rr := doRequest(t, router, "POST", "/api/matching", map[string]interface{}{
		"category": "credit",
		"amount":   "0",
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mocks.matching.AssertNotCalled(t, "Match", mock.Anything, mock.Anything)
}

func TestAPI_Combinations(t *testing.T) {
	router, mocks := setupRouter()

	combos := []model.ProductCombination{{
		Strategy: "mortgage_with_insurance",
		Products: []*model.Product{{Name: "Mortgage"}, {Name: "Insurance"}},
	}}
	mocks.matching.On("Combinations", mock.Anything, mock.MatchedBy(func(req model.UserRequirements) bool {
		return req.Category == model.CategoryMortgage && req.Amount.Equal(decimal.NewFromInt(3000000))
	})).Return(combos, nil)

	rr := doRequest(t, router, "POST", "/api/matching/combinations", map[string]interface{}{
		"category":   "mortgage",
		"amount":     "3000000",
		"termMonths": 240,
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "mortgage_with_insurance")
}
