package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/hunt-reservation/models"
)

var ErrServerNotFound = errors.New("server not found")

type ServerRepository interface {
	Create(ctx context.Context, server *models.Server) error
	GetByID(ctx context.Context, id int) (*models.Server, error)
	List(ctx context.Context) ([]*models.Server, error)
	Update(ctx context.Context, server *models.Server) error
	Delete(ctx context.Context, id int) error
}

type postgresServerRepository struct {
	db *sql.DB
}

func NewPostgresServerRepository(db *sql.DB) ServerRepository {
	return &postgresServerRepository{db: db}
}

func (r *postgresServerRepository) Create(ctx context.Context, server *models.Server) error {
	query := `INSERT INTO servers (name, region) VALUES ($1, $2) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, server.Name, server.Region).Scan(&server.ID, &server.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return nil
}

func (r *postgresServerRepository) GetByID(ctx context.Context, id int) (*models.Server, error) {
	s := &models.Server{}
	query := `SELECT id, name, region, created_at FROM servers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.Region, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to find server: %w", err)
	}
	return s, nil
}

func (r *postgresServerRepository) List(ctx context.Context) ([]*models.Server, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, region, created_at FROM servers ORDER BY region, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	defer rows.Close()

	servers := make([]*models.Server, 0)
	for rows.Next() {
		var s models.Server
		if err := rows.Scan(&s.ID, &s.Name, &s.Region, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan server row: %w", err)
		}
		servers = append(servers, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating server rows: %w", err)
	}
	return servers, nil
}

func (r *postgresServerRepository) Update(ctx context.Context, server *models.Server) error {
	query := `UPDATE servers SET name = $1, region = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, server.Name, server.Region, server.ID)
	if err != nil {
		return fmt.Errorf("failed to update server: %w", err)
	}
	return checkAffectedRows(result, ErrServerNotFound)
}

func (r *postgresServerRepository) Delete(ctx context.Context, id int) error {
	// Каскадно удаляет респауны, слоты и периоды сервера (FK ON DELETE CASCADE).
	result, err := r.db.ExecContext(ctx, `DELETE FROM servers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}
	return checkAffectedRows(result, ErrServerNotFound)
}
