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
	ErrCharacterNotFound     = errors.New("character not found")
	ErrCharacterNameConflict = errors.New("character name is already registered")
)

type CharacterRepository interface {
	Create(ctx context.Context, character *models.Character) error
	GetByID(ctx context.Context, id int) (*models.Character, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Character, error)
	Delete(ctx context.Context, id int) error
}

type postgresCharacterRepository struct {
	db *sql.DB
}

func NewPostgresCharacterRepository(db *sql.DB) CharacterRepository {
	return &postgresCharacterRepository{db: db}
}

const characterColumns = `id, user_id, name, world, vocation, level, created_at`

func (r *postgresCharacterRepository) scanCharacter(row interface {
	Scan(dest ...interface{}) error
}, c *models.Character) error {
	return row.Scan(&c.ID, &c.UserID, &c.Name, &c.World, &c.Vocation, &c.Level, &c.CreatedAt)
}

func (r *postgresCharacterRepository) Create(ctx context.Context, character *models.Character) error {
	query := `
		INSERT INTO characters (user_id, name, world, vocation, level)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		character.UserID,
		character.Name,
		character.World,
		character.Vocation,
		character.Level,
	).Scan(&character.ID, &character.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" &&
			pqErr.Constraint == "characters_name_key" {
			return ErrCharacterNameConflict
		}
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

func (r *postgresCharacterRepository) GetByID(ctx context.Context, id int) (*models.Character, error) {
	c := &models.Character{}
	query := `SELECT ` + characterColumns + ` FROM characters WHERE id = $1`
	if err := r.scanCharacter(r.db.QueryRowContext(ctx, query, id), c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("failed to find character: %w", err)
	}
	return c, nil
}

func (r *postgresCharacterRepository) ListByUser(ctx context.Context, userID int) ([]*models.Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters WHERE user_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	characters := make([]*models.Character, 0)
	for rows.Next() {
		var c models.Character
		if err := r.scanCharacter(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan character row: %w", err)
		}
		characters = append(characters, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating character rows: %w", err)
	}
	return characters, nil
}

func (r *postgresCharacterRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return checkAffectedRows(result, ErrCharacterNotFound)
}
