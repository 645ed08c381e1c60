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

	"github.com/finchoice/backend/internal/model"
)

var ErrComparisonNotFound = errors.New("comparison not found")

type ComparisonRepository struct {
	db *sqlx.DB
}

func NewComparisonRepository(db *sqlx.DB) *ComparisonRepository {
	return &ComparisonRepository{db: db}
}

// savedComparisonRow is an internal struct for database scanning with
// array and JSONB support.
type savedComparisonRow struct {
	ID         string         `db:"id"`
	UserID     uuid.UUID      `db:"user_id"`
	ProductIDs pq.StringArray `db:"product_ids"`
	Criteria   sql.NullString `db:"criteria"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r *savedComparisonRow) toModel() (*model.SavedComparison, error) {
	cmp := &model.SavedComparison{
		ID:        r.ID,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
	}
	for _, raw := range r.ProductIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		cmp.ProductIDs = append(cmp.ProductIDs, id)
	}
	if r.Criteria.Valid {
		if err := json.Unmarshal([]byte(r.Criteria.String), &cmp.Criteria); err != nil {
			return nil, err
		}
	}
	return cmp, nil
}

func (r *ComparisonRepository) Save(ctx context.Context, cmp *model.SavedComparison) error {
	criteriaJSON, err := marshalAttributes(cmp.Criteria)
	if err != nil {
		return err
	}

	ids := make([]string, len(cmp.ProductIDs))
	for i, id := range cmp.ProductIDs {
		ids[i] = id.String()
	}

	query := `
		INSERT INTO saved_comparisons (id, user_id, product_ids, criteria, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err = r.db.ExecContext(ctx, query,
		cmp.ID, cmp.UserID, pq.Array(ids), criteriaJSON, cmp.CreatedAt,
	)
	return err
}

func (r *ComparisonRepository) GetByID(ctx context.Context, id string) (*model.SavedComparison, error) {
	var row savedComparisonRow
	query := `SELECT * FROM saved_comparisons WHERE id = $1`
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrComparisonNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *ComparisonRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SavedComparison, error) {
	var rows []savedComparisonRow
	query := `SELECT * FROM saved_comparisons WHERE user_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}
	comparisons := make([]model.SavedComparison, 0, len(rows))
	for i := range rows {
		cmp, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		comparisons = append(comparisons, *cmp)
	}
	return comparisons, nil
}

func (r *ComparisonRepository) Delete(ctx context.Context, id string, userID uuid.UUID) error {
	query := `DELETE FROM saved_comparisons WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrComparisonNotFound
	}
	return nil
}
