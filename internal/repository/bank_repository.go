package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/finchoice/backend/internal/model"
)

var ErrBankNotFound = errors.New("bank not found")

type BankRepository struct {
	db *sqlx.DB
}

func NewBankRepository(db *sqlx.DB) *BankRepository {
	return &BankRepository{db: db}
}

func (r *BankRepository) Create(ctx context.Context, bank *model.Bank) error {
	query := `
		INSERT INTO banks (id, name, website, overall_rating, service_rating,
			reliability_rating, processing_speed_rating, is_partner, commission_rate,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at`

	bank.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		bank.ID, bank.Name, nullString(bank.Website),
		bank.OverallRating, bank.ServiceRating, bank.ReliabilityRating,
		bank.ProcessingSpeedRating, bank.IsPartner, bank.CommissionRate,
	).Scan(&bank.CreatedAt, &bank.UpdatedAt)
}

func (r *BankRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Bank, error) {
	var bank model.Bank
	query := `SELECT * FROM banks WHERE id = $1`
	err := r.db.GetContext(ctx, &bank, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBankNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bank, nil
}

func (r *BankRepository) List(ctx context.Context) ([]model.Bank, error) {
	var banks []model.Bank
	query := `SELECT * FROM banks ORDER BY name`
	err := r.db.SelectContext(ctx, &banks, query)
	return banks, err
}

func (r *BankRepository) ListPartners(ctx context.Context) ([]model.Bank, error) {
	var banks []model.Bank
	query := `SELECT * FROM banks WHERE is_partner = true ORDER BY commission_rate DESC NULLS LAST`
	err := r.db.SelectContext(ctx, &banks, query)
	return banks, err
}

func (r *BankRepository) Update(ctx context.Context, bank *model.Bank) error {
	query := `
		UPDATE banks
		SET name = $2, website = $3, overall_rating = $4, service_rating = $5,
			reliability_rating = $6, processing_speed_rating = $7,
			is_partner = $8, commission_rate = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		bank.ID, bank.Name, nullString(bank.Website),
		bank.OverallRating, bank.ServiceRating, bank.ReliabilityRating,
		bank.ProcessingSpeedRating, bank.IsPartner, bank.CommissionRate,
	).Scan(&bank.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBankNotFound
	}
	return err
}
