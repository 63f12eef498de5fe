package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/lib/pq"
)

var (
	ErrDifficultyNotFound = errors.New("difficulty not found")
	ErrDifficultyInUse    = errors.New("difficulty is referenced by respawns")
)

type DifficultyRepository interface {
	Create(ctx context.Context, d *models.Difficulty) error
	GetByID(ctx context.Context, id int) (*models.Difficulty, error)
	List(ctx context.Context) ([]*models.Difficulty, error)
	Update(ctx context.Context, d *models.Difficulty) error
	Delete(ctx context.Context, id int) error
}

type postgresDifficultyRepository struct {
	db *sql.DB
}

func NewPostgresDifficultyRepository(db *sql.DB) DifficultyRepository {
	return &postgresDifficultyRepository{db: db}
}

func (r *postgresDifficultyRepository) Create(ctx context.Context, d *models.Difficulty) error {
	query := `INSERT INTO difficulties (name, sort_order, color) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, d.Name, d.SortOrder, d.Color).Scan(&d.ID); err != nil {
		return fmt.Errorf("failed to create difficulty: %w", err)
	}
	return nil
}

func (r *postgresDifficultyRepository) GetByID(ctx context.Context, id int) (*models.Difficulty, error) {
	d := &models.Difficulty{}
	query := `SELECT id, name, sort_order, color FROM difficulties WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Name, &d.SortOrder, &d.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDifficultyNotFound
		}
		return nil, fmt.Errorf("failed to find difficulty: %w", err)
	}
	return d, nil
}

func (r *postgresDifficultyRepository) List(ctx context.Context) ([]*models.Difficulty, error) {
	// Порядок отображения задаётся sort_order
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, sort_order, color FROM difficulties ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list difficulties: %w", err)
	}
	defer rows.Close()

	difficulties := make([]*models.Difficulty, 0)
	for rows.Next() {
		var d models.Difficulty
		if err := rows.Scan(&d.ID, &d.Name, &d.SortOrder, &d.Color); err != nil {
			return nil, fmt.Errorf("failed to scan difficulty row: %w", err)
		}
		difficulties = append(difficulties, &d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating difficulty rows: %w", err)
	}
	return difficulties, nil
}

func (r *postgresDifficultyRepository) Update(ctx context.Context, d *models.Difficulty) error {
	query := `UPDATE difficulties SET name = $1, sort_order = $2, color = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, d.Name, d.SortOrder, d.Color, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update difficulty: %w", err)
	}
	return checkAffectedRows(result, ErrDifficultyNotFound)
}

func (r *postgresDifficultyRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM difficulties WHERE id = $1`, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign_key_violation
			return ErrDifficultyInUse
		}
		return fmt.Errorf("failed to delete difficulty: %w", err)
	}
	return checkAffectedRows(result, ErrDifficultyNotFound)
}
