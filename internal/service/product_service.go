package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/finchoice/backend/internal/model"
	"github.com/finchoice/backend/internal/repository"
	"github.com/finchoice/backend/pkg/datetime"
)

// ProductService is the catalog management layer: CRUD plus filtered
// listings. Comparison and matching only read what this service manages.
type ProductService struct {
	products   repository.ProductRepositoryInterface
	banks      repository.BankRepositoryInterface
	comparison *ComparisonService
}

func NewProductService(products repository.ProductRepositoryInterface, banks repository.BankRepositoryInterface, comparison *ComparisonService) *ProductService {
	return &ProductService{
		products:   products,
		banks:      banks,
		comparison: comparison,
	}
}

func (s *ProductService) Create(ctx context.Context, p *model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := s.banks.GetByID(ctx, p.BankID); err != nil {
		return fmt.Errorf("resolving bank %s: %w", p.BankID, err)
	}
	normalizePromoExpiry(p)
	return s.products.Create(ctx, p)
}

// normalizePromoExpiry extends the promo cutoff to the end of its day so
// a promotion advertised as "valid until June 30" still applies on June 30.
func normalizePromoExpiry(p *model.Product) {
	if p.PromoValidUntil == nil {
		return
	}
	until := datetime.EndOfDay(p.PromoValidUntil.UTC())
	p.PromoValidUntil = &until
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.products.GetByID(ctx, id)
}

// List loads the active products of the filter's category and narrows
// them in memory. An empty category lists nothing: the catalog is always
// browsed per category.
func (s *ProductService) List(ctx context.Context, filter model.CatalogFilter) ([]model.Product, error) {
	if filter.Category == "" {
		return nil, nil
	}
	products, err := s.products.ListActive(ctx, filter.Category)
	if err != nil {
		return nil, fmt.Errorf("listing %s products: %w", filter.Category, err)
	}
	return s.comparison.FilterProducts(products, filter), nil
}

func (s *ProductService) Featured(ctx context.Context, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.products.ListFeatured(ctx, limit)
}

func (s *ProductService) Update(ctx context.Context, p *model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	normalizePromoExpiry(p)
	return s.products.Update(ctx, p)
}

func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.products.Deactivate(ctx, id)
}

func (s *ProductService) Banks(ctx context.Context) ([]model.Bank, error) {
	return s.banks.List(ctx)
}

func (s *ProductService) Bank(ctx context.Context, id uuid.UUID) (*model.Bank, error) {
	return s.banks.GetByID(ctx, id)
}

func (s *ProductService) BankProducts(ctx context.Context, bankID uuid.UUID) ([]model.Product, error) {
	return s.products.ListByBank(ctx, bankID)
}
