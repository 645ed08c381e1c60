package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finchoice/backend/internal/model"
)

// ProductServiceInterface for handler testing
type ProductServiceInterface interface {
	Create(ctx context.Context, p *model.Product) error
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter model.CatalogFilter) ([]model.Product, error)
	Featured(ctx context.Context, limit int) ([]model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	Banks(ctx context.Context) ([]model.Bank, error)
	Bank(ctx context.Context, id uuid.UUID) (*model.Bank, error)
	BankProducts(ctx context.Context, bankID uuid.UUID) ([]model.Product, error)
}

// ComparisonServiceInterface for handler testing
type ComparisonServiceInterface interface {
	Compare(ctx context.Context, productIDs []uuid.UUID, criteria model.ComparisonCriteria) (*model.ComparisonResult, error)
	CompareDetailed(ctx context.Context, productIDs []uuid.UUID, criteria model.ComparisonCriteria, amount decimal.Decimal, termMonths int) (*model.ComparisonResult, error)
	SaveComparison(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID, criteria model.ComparisonCriteria) (*model.SavedComparison, error)
	GetSavedComparison(ctx context.Context, id string) (*model.SavedComparison, error)
	ListSavedComparisons(ctx context.Context, userID uuid.UUID) ([]model.SavedComparison, error)
	DeleteSavedComparison(ctx context.Context, id string, userID uuid.UUID) error
}

// MatchingServiceInterface for handler testing
type MatchingServiceInterface interface {
	Match(ctx context.Context, req model.UserRequirements) (*model.OptimalSolution, error)
	Combinations(ctx context.Context, req model.UserRequirements) ([]model.ProductCombination, error)
}

// MarketServiceInterface for handler testing
type MarketServiceInterface interface {
	UpdateForMarketConditions(sol *model.OptimalSolution, mc model.MarketConditions) *model.OptimalSolution
	RefreshRecommendations(ctx context.Context, prev *model.OptimalSolution, req model.UserRequirements) (*model.DynamicRecommendation, error)
}

// MarketDataInterface for handler testing
type MarketDataInterface interface {
	Current() (model.MarketConditions, bool)
}
