package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/hunt-reservation/models"
)

var ErrClaimNotFound = errors.New("point claim not found")

type ClaimRepository interface {
	Create(ctx context.Context, q SQLExecutor, claim *models.PointClaim) error
	GetByID(ctx context.Context, q SQLExecutor, id int, forUpdate bool) (*models.PointClaim, error)
	List(ctx context.Context, userID *int) ([]*models.PointClaim, error)
	UpdateStatus(ctx context.Context, q SQLExecutor, id int, status models.ClaimStatus) error
}

type postgresClaimRepository struct {
	db *sql.DB
}

func NewPostgresClaimRepository(db *sql.DB) ClaimRepository {
	return &postgresClaimRepository{db: db}
}

const claimColumns = `id, user_id, amount, description, status, created_at, updated_at`

func (r *postgresClaimRepository) scanClaim(row interface {
	Scan(dest ...interface{}) error
}, c *models.PointClaim) error {
	return row.Scan(&c.ID, &c.UserID, &c.Amount, &c.Description, &c.Status, &c.CreatedAt, &c.UpdatedAt)
}

func (r *postgresClaimRepository) Create(ctx context.Context, q SQLExecutor, claim *models.PointClaim) error {
	if q == nil {
		q = r.db
	}
	query := `
		INSERT INTO point_claims (user_id, amount, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := q.QueryRowContext(ctx, query,
		claim.UserID,
		claim.Amount,
		claim.Description,
		claim.Status,
	).Scan(&claim.ID, &claim.CreatedAt, &claim.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create point claim: %w", err)
	}
	return nil
}

func (r *postgresClaimRepository) GetByID(ctx context.Context, q SQLExecutor, id int, forUpdate bool) (*models.PointClaim, error) {
	if q == nil {
		q = r.db
	}
	query := `SELECT ` + claimColumns + ` FROM point_claims WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	c := &models.PointClaim{}
	if err := r.scanClaim(q.QueryRowContext(ctx, query, id), c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("failed to find point claim: %w", err)
	}
	return c, nil
}

func (r *postgresClaimRepository) List(ctx context.Context, userID *int) ([]*models.PointClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM point_claims`
	args := []interface{}{}
	if userID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *userID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list point claims: %w", err)
	}
	defer rows.Close()

	claims := make([]*models.PointClaim, 0)
	for rows.Next() {
		var c models.PointClaim
		if err := r.scanClaim(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan point claim row: %w", err)
		}
		claims = append(claims, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating point claim rows: %w", err)
	}
	return claims, nil
}

func (r *postgresClaimRepository) UpdateStatus(ctx context.Context, q SQLExecutor, id int, status models.ClaimStatus) error {
	if q == nil {
		q = r.db
	}
	query := `UPDATE point_claims SET status = $1, updated_at = now() WHERE id = $2`
	result, err := q.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update point claim status: %w", err)
	}
	return checkAffectedRows(result, ErrClaimNotFound)
}
