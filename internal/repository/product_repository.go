package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/finchoice/backend/internal/model"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// productRow is an internal struct for database scanning with JSONB and
// array support. Bank columns come from the joined banks table.
type productRow struct {
	ID              uuid.UUID           `db:"id"`
	BankID          uuid.UUID           `db:"bank_id"`
	Name            string              `db:"name"`
	Category        string              `db:"category"`
	InterestRate    float64             `db:"interest_rate"`
	PromotionalRate sql.NullFloat64     `db:"promotional_rate"`
	PromoValidUntil sql.NullTime        `db:"promo_valid_until"`
	PromoConditions sql.NullString      `db:"promo_conditions"`
	MinAmount       decimal.NullDecimal `db:"min_amount"`
	MaxAmount       decimal.NullDecimal `db:"max_amount"`
	MinTermMonths   sql.NullInt64       `db:"min_term_months"`
	MaxTermMonths   sql.NullInt64       `db:"max_term_months"`
	Fees            sql.NullString      `db:"fees"`
	Requirements    sql.NullString      `db:"requirements"`
	Features        sql.NullString      `db:"features"`
	Regions         pq.StringArray      `db:"regions"`
	IsActive        bool                `db:"is_active"`
	IsFeatured      bool                `db:"is_featured"`
	Priority        int                 `db:"priority"`
	CreatedAt       time.Time           `db:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at"`

	BankName            sql.NullString  `db:"bank_name"`
	BankWebsite         sql.NullString  `db:"bank_website"`
	BankOverallRating   sql.NullFloat64 `db:"bank_overall_rating"`
	BankServiceRating   sql.NullFloat64 `db:"bank_service_rating"`
	BankReliability     sql.NullFloat64 `db:"bank_reliability_rating"`
	BankProcessingSpeed sql.NullFloat64 `db:"bank_processing_speed_rating"`
	BankIsPartner       sql.NullBool    `db:"bank_is_partner"`
	BankCommissionRate  sql.NullFloat64 `db:"bank_commission_rate"`
}

// productColumns is the joined select list shared by every read query.
const productColumns = `
	p.id, p.bank_id, p.name, p.category, p.interest_rate,
	p.promotional_rate, p.promo_valid_until, p.promo_conditions,
	p.min_amount, p.max_amount, p.min_term_months, p.max_term_months,
	p.fees, p.requirements, p.features, p.regions,
	p.is_active, p.is_featured, p.priority, p.created_at, p.updated_at,
	b.name AS bank_name, b.website AS bank_website,
	b.overall_rating AS bank_overall_rating,
	b.service_rating AS bank_service_rating,
	b.reliability_rating AS bank_reliability_rating,
	b.processing_speed_rating AS bank_processing_speed_rating,
	b.is_partner AS bank_is_partner,
	b.commission_rate AS bank_commission_rate`

func (r *productRow) toModel() *model.Product {
	p := &model.Product{
		ID:           r.ID,
		BankID:       r.BankID,
		Name:         r.Name,
		Category:     model.ProductCategory(r.Category),
		InterestRate: r.InterestRate,
		Regions:      r.Regions,
		IsActive:     r.IsActive,
		IsFeatured:   r.IsFeatured,
		Priority:     r.Priority,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}

	if r.PromotionalRate.Valid {
		p.PromotionalRate = &r.PromotionalRate.Float64
	}
	if r.PromoValidUntil.Valid {
		p.PromoValidUntil = &r.PromoValidUntil.Time
	}
	if r.PromoConditions.Valid {
		p.PromoConditions = r.PromoConditions.String
	}
	if r.MinAmount.Valid {
		p.MinAmount = &r.MinAmount.Decimal
	}
	if r.MaxAmount.Valid {
		p.MaxAmount = &r.MaxAmount.Decimal
	}
	if r.MinTermMonths.Valid {
		v := int(r.MinTermMonths.Int64)
		p.MinTermMonths = &v
	}
	if r.MaxTermMonths.Valid {
		v := int(r.MaxTermMonths.Int64)
		p.MaxTermMonths = &v
	}

	if r.Fees.Valid {
		_ = json.Unmarshal([]byte(r.Fees.String), &p.Fees)
	}
	if r.Requirements.Valid {
		_ = json.Unmarshal([]byte(r.Requirements.String), &p.Requirements)
	}
	if r.Features.Valid {
		_ = json.Unmarshal([]byte(r.Features.String), &p.Features)
	}

	if r.BankName.Valid {
		p.Bank = &model.Bank{
			ID:        r.BankID,
			Name:      r.BankName.String,
			IsPartner: r.BankIsPartner.Bool,
		}
		if r.BankWebsite.Valid {
			p.Bank.Website = r.BankWebsite.String
		}
		if r.BankOverallRating.Valid {
			p.Bank.OverallRating = &r.BankOverallRating.Float64
		}
		if r.BankServiceRating.Valid {
			p.Bank.ServiceRating = &r.BankServiceRating.Float64
		}
		if r.BankReliability.Valid {
			p.Bank.ReliabilityRating = &r.BankReliability.Float64
		}
		if r.BankProcessingSpeed.Valid {
			p.Bank.ProcessingSpeedRating = &r.BankProcessingSpeed.Float64
		}
		if r.BankCommissionRate.Valid {
			p.Bank.CommissionRate = &r.BankCommissionRate.Float64
		}
	}
	return p
}

func marshalAttributes(v any) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	feesJSON, err := marshalAttributes(p.Fees)
	if err != nil {
		return err
	}
	requirementsJSON, err := marshalAttributes(p.Requirements)
	if err != nil {
		return err
	}
	featuresJSON, err := marshalAttributes(p.Features)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, bank_id, name, category, interest_rate,
			promotional_rate, promo_valid_until, promo_conditions,
			min_amount, max_amount, min_term_months, max_term_months,
			fees, requirements, features, regions,
			is_active, is_featured, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())
		RETURNING created_at, updated_at`

	p.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		p.ID, p.BankID, p.Name, p.Category, p.InterestRate,
		p.PromotionalRate, p.PromoValidUntil, nullString(p.PromoConditions),
		p.MinAmount, p.MaxAmount, p.MinTermMonths, p.MaxTermMonths,
		feesJSON, requirementsJSON, featuresJSON, pq.Array(p.Regions),
		p.IsActive, p.IsFeatured, p.Priority,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var row productRow
	query := `SELECT` + productColumns + `
		FROM products p
		JOIN banks b ON b.id = p.bank_id
		WHERE p.id = $1`
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// GetByIDs resolves a set of products in one round trip. Missing ids are
// silently dropped; order follows the catalog's priority, not the input.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT` + productColumns + `
		FROM products p
		JOIN banks b ON b.id = p.bank_id
		WHERE p.id = ANY($1)
		ORDER BY p.priority DESC, p.name`
	return r.selectProducts(ctx, query, pq.Array(ids))
}

func (r *ProductRepository) ListActive(ctx context.Context, category model.ProductCategory) ([]model.Product, error) {
	query := `SELECT` + productColumns + `
		FROM products p
		JOIN banks b ON b.id = p.bank_id
		WHERE p.category = $1 AND p.is_active = true
		ORDER BY p.priority DESC, p.interest_rate`
	return r.selectProducts(ctx, query, category)
}

func (r *ProductRepository) ListByBank(ctx context.Context, bankID uuid.UUID) ([]model.Product, error) {
	query := `SELECT` + productColumns + `
		FROM products p
		JOIN banks b ON b.id = p.bank_id
		WHERE p.bank_id = $1
		ORDER BY p.category, p.name`
	return r.selectProducts(ctx, query, bankID)
}

// ListFeatured returns active featured products across all categories.
func (r *ProductRepository) ListFeatured(ctx context.Context, limit int) ([]model.Product, error) {
	query := `SELECT` + productColumns + `
		FROM products p
		JOIN banks b ON b.id = p.bank_id
		WHERE p.is_featured = true AND p.is_active = true
		ORDER BY p.priority DESC
		LIMIT $1`
	return r.selectProducts(ctx, query, limit)
}

func (r *ProductRepository) selectProducts(ctx context.Context, query string, args ...interface{}) ([]model.Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	products := make([]model.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].toModel()
	}
	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	feesJSON, err := marshalAttributes(p.Fees)
	if err != nil {
		return err
	}
	requirementsJSON, err := marshalAttributes(p.Requirements)
	if err != nil {
		return err
	}
	featuresJSON, err := marshalAttributes(p.Features)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $2, category = $3, interest_rate = $4,
			promotional_rate = $5, promo_valid_until = $6, promo_conditions = $7,
			min_amount = $8, max_amount = $9, min_term_months = $10, max_term_months = $11,
			fees = $12, requirements = $13, features = $14, regions = $15,
			is_active = $16, is_featured = $17, priority = $18, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	result := r.db.QueryRowxContext(ctx, query,
		p.ID, p.Name, p.Category, p.InterestRate,
		p.PromotionalRate, p.PromoValidUntil, nullString(p.PromoConditions),
		p.MinAmount, p.MaxAmount, p.MinTermMonths, p.MaxTermMonths,
		feesJSON, requirementsJSON, featuresJSON, pq.Array(p.Regions),
		p.IsActive, p.IsFeatured, p.Priority,
	)
	err = result.Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	return err
}

// Deactivate soft-removes a product from the catalog.
func (r *ProductRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE products SET is_active = false, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProductNotFound
	}
	return nil
}

// UpdateRates bulk-adjusts nominal rates after a market refresh. Returns
// the number of touched products.
func (r *ProductRepository) UpdateRates(ctx context.Context, category model.ProductCategory, delta float64) (int64, error) {
	query := `
		UPDATE products
		SET interest_rate = GREATEST(interest_rate + $2, 0), updated_at = NOW()
		WHERE category = $1 AND is_active = true`
	result, err := r.db.ExecContext(ctx, query, category, delta)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
