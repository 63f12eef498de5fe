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
	ErrSlotNotFound      = errors.New("slot not found")
	ErrSlotServerInvalid = errors.New("slot server conflict or invalid")
)

type SlotRepository interface {
	Create(ctx context.Context, slot *models.Slot) error
	GetByID(ctx context.Context, id int) (*models.Slot, error)
	ListByServer(ctx context.Context, serverID int) ([]*models.Slot, error)
	Update(ctx context.Context, slot *models.Slot) error
	Delete(ctx context.Context, id int) error
}

type postgresSlotRepository struct {
	db *sql.DB
}

func NewPostgresSlotRepository(db *sql.DB) SlotRepository {
	return &postgresSlotRepository{db: db}
}

func (r *postgresSlotRepository) Create(ctx context.Context, slot *models.Slot) error {
	query := `INSERT INTO slots (server_id, start_time, end_time) VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, slot.ServerID, slot.StartTime, slot.EndTime).Scan(&slot.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrSlotServerInvalid
		}
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

func (r *postgresSlotRepository) GetByID(ctx context.Context, id int) (*models.Slot, error) {
	s := &models.Slot{}
	query := `SELECT id, server_id, start_time, end_time FROM slots WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.ServerID, &s.StartTime, &s.EndTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}
	return s, nil
}

func (r *postgresSlotRepository) ListByServer(ctx context.Context, serverID int) ([]*models.Slot, error) {
	query := `SELECT id, server_id, start_time, end_time FROM slots WHERE server_id = $1 ORDER BY start_time, id`
	rows, err := r.db.QueryContext(ctx, query, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots by server: %w", err)
	}
	defer rows.Close()

	slots := make([]*models.Slot, 0)
	for rows.Next() {
		var s models.Slot
		if err := rows.Scan(&s.ID, &s.ServerID, &s.StartTime, &s.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan slot row: %w", err)
		}
		slots = append(slots, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slot rows: %w", err)
	}
	return slots, nil
}

func (r *postgresSlotRepository) Update(ctx context.Context, slot *models.Slot) error {
	query := `UPDATE slots SET start_time = $1, end_time = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, slot.StartTime, slot.EndTime, slot.ID)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}
	return checkAffectedRows(result, ErrSlotNotFound)
}

func (r *postgresSlotRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	return checkAffectedRows(result, ErrSlotNotFound)
}
