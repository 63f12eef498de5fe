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
	ErrRespawnNotFound          = errors.New("respawn not found")
	ErrRespawnServerInvalid     = errors.New("respawn server conflict or invalid")
	ErrRespawnDifficultyInvalid = errors.New("respawn difficulty conflict or invalid")
)

type RespawnRepository interface {
	Create(ctx context.Context, q SQLExecutor, respawn *models.Respawn) error
	GetByID(ctx context.Context, id int) (*models.Respawn, error)
	ListByServer(ctx context.Context, q SQLExecutor, serverID int, includeDifficulty bool) ([]*models.Respawn, error)
	Update(ctx context.Context, respawn *models.Respawn) error
	UpdateImageKey(ctx context.Context, id int, imageKey *string) error
	Delete(ctx context.Context, id int) error
	// DeleteByServer удаляет все респауны сервера и возвращает число удалённых
	// строк. Используется режимом overwrite копирования каталога.
	DeleteByServer(ctx context.Context, q SQLExecutor, serverID int) (int, error)
}

type postgresRespawnRepository struct {
	db *sql.DB
}

func NewPostgresRespawnRepository(db *sql.DB) RespawnRepository {
	return &postgresRespawnRepository{db: db}
}

func mapRespawnConstraintError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign_key_violation
		switch pqErr.Constraint {
		case "respawns_server_id_fkey":
			return ErrRespawnServerInvalid
		case "respawns_difficulty_id_fkey":
			return ErrRespawnDifficultyInvalid
		}
	}
	return nil
}

func (r *postgresRespawnRepository) Create(ctx context.Context, q SQLExecutor, respawn *models.Respawn) error {
	if q == nil {
		q = r.db
	}
	query := `
		INSERT INTO respawns (server_id, name, difficulty_id, max_players, image_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := q.QueryRowContext(ctx, query,
		respawn.ServerID,
		respawn.Name,
		respawn.DifficultyID,
		respawn.MaxPlayers,
		respawn.ImageKey,
	).Scan(&respawn.ID, &respawn.CreatedAt)

	if err != nil {
		if mapped := mapRespawnConstraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create respawn: %w", err)
	}
	return nil
}

func (r *postgresRespawnRepository) GetByID(ctx context.Context, id int) (*models.Respawn, error) {
	query := `
		SELECT r.id, r.server_id, r.name, r.difficulty_id, r.max_players, r.image_key, r.created_at,
			d.id, d.name, d.sort_order, d.color
		FROM respawns r
		JOIN difficulties d ON r.difficulty_id = d.id
		WHERE r.id = $1`

	var rp models.Respawn
	var d models.Difficulty
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rp.ID, &rp.ServerID, &rp.Name, &rp.DifficultyID, &rp.MaxPlayers, &rp.ImageKey, &rp.CreatedAt,
		&d.ID, &d.Name, &d.SortOrder, &d.Color,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRespawnNotFound
		}
		return nil, fmt.Errorf("failed to find respawn: %w", err)
	}
	rp.Difficulty = &d
	return &rp, nil
}

func (r *postgresRespawnRepository) ListByServer(ctx context.Context, q SQLExecutor, serverID int, includeDifficulty bool) ([]*models.Respawn, error) {
	if q == nil {
		q = r.db
	}
	query := `
		SELECT r.id, r.server_id, r.name, r.difficulty_id, r.max_players, r.image_key, r.created_at
		FROM respawns r
		WHERE r.server_id = $1
		ORDER BY r.name, r.id`
	if includeDifficulty {
		query = `
			SELECT r.id, r.server_id, r.name, r.difficulty_id, r.max_players, r.image_key, r.created_at,
				d.id, d.name, d.sort_order, d.color
			FROM respawns r
			JOIN difficulties d ON r.difficulty_id = d.id
			WHERE r.server_id = $1
			ORDER BY d.sort_order, r.name, r.id`
	}

	rows, err := q.QueryContext(ctx, query, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list respawns by server: %w", err)
	}
	defer rows.Close()

	respawns := make([]*models.Respawn, 0)
	for rows.Next() {
		var rp models.Respawn
		if includeDifficulty {
			var d models.Difficulty
			if err := rows.Scan(&rp.ID, &rp.ServerID, &rp.Name, &rp.DifficultyID, &rp.MaxPlayers, &rp.ImageKey, &rp.CreatedAt,
				&d.ID, &d.Name, &d.SortOrder, &d.Color); err != nil {
				return nil, fmt.Errorf("failed to scan respawn row: %w", err)
			}
			rp.Difficulty = &d
		} else {
			if err := rows.Scan(&rp.ID, &rp.ServerID, &rp.Name, &rp.DifficultyID, &rp.MaxPlayers, &rp.ImageKey, &rp.CreatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan respawn row: %w", err)
			}
		}
		respawns = append(respawns, &rp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating respawn rows: %w", err)
	}
	return respawns, nil
}

func (r *postgresRespawnRepository) Update(ctx context.Context, respawn *models.Respawn) error {
	query := `UPDATE respawns SET name = $1, difficulty_id = $2, max_players = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, respawn.Name, respawn.DifficultyID, respawn.MaxPlayers, respawn.ID)
	if err != nil {
		if mapped := mapRespawnConstraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update respawn: %w", err)
	}
	return checkAffectedRows(result, ErrRespawnNotFound)
}

func (r *postgresRespawnRepository) UpdateImageKey(ctx context.Context, id int, imageKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE respawns SET image_key = $1 WHERE id = $2`, imageKey, id)
	if err != nil {
		return fmt.Errorf("failed to update respawn image key: %w", err)
	}
	return checkAffectedRows(result, ErrRespawnNotFound)
}

func (r *postgresRespawnRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM respawns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete respawn: %w", err)
	}
	return checkAffectedRows(result, ErrRespawnNotFound)
}

func (r *postgresRespawnRepository) DeleteByServer(ctx context.Context, q SQLExecutor, serverID int) (int, error) {
	if q == nil {
		q = r.db
	}
	result, err := q.ExecContext(ctx, `DELETE FROM respawns WHERE server_id = $1`, serverID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete respawns by server: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows for respawn bulk delete: %w", err)
	}
	return int(deleted), nil
}
