package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/finchoice/backend/internal/model"
)

//go:generate mockery --name=ProductRepositoryInterface --output=../mocks --outpkg=mocks
type ProductRepositoryInterface interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	ListActive(ctx context.Context, category model.ProductCategory) ([]model.Product, error)
	ListByBank(ctx context.Context, bankID uuid.UUID) ([]model.Product, error)
	ListFeatured(ctx context.Context, limit int) ([]model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	UpdateRates(ctx context.Context, category model.ProductCategory, delta float64) (int64, error)
}

//go:generate mockery --name=BankRepositoryInterface --output=../mocks --outpkg=mocks
type BankRepositoryInterface interface {
	Create(ctx context.Context, bank *model.Bank) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Bank, error)
	List(ctx context.Context) ([]model.Bank, error)
	ListPartners(ctx context.Context) ([]model.Bank, error)
	Update(ctx context.Context, bank *model.Bank) error
}

//go:generate mockery --name=ComparisonRepositoryInterface --output=../mocks --outpkg=mocks
type ComparisonRepositoryInterface interface {
	Save(ctx context.Context, cmp *model.SavedComparison) error
	GetByID(ctx context.Context, id string) (*model.SavedComparison, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SavedComparison, error)
	Delete(ctx context.Context, id string, userID uuid.UUID) error
}
