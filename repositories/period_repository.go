package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/lib/pq"
)

var (
	ErrPeriodNotFound      = errors.New("schedule period not found")
	ErrPeriodServerInvalid = errors.New("schedule period server conflict or invalid")
)

type PeriodRepository interface {
	Create(ctx context.Context, period *models.SchedulePeriod) error
	GetByID(ctx context.Context, id int) (*models.SchedulePeriod, error)
	ListByServer(ctx context.Context, serverID int, onlyActive bool) ([]*models.SchedulePeriod, error)
	Update(ctx context.Context, period *models.SchedulePeriod) error
	Delete(ctx context.Context, id int) error
	// SetActive включает период и в той же транзакции гасит остальные периоды
	// того же сервера. «Не более одного активного периода» остаётся мягким
	// правилом: БД его не навязывает.
	SetActive(ctx context.Context, q SQLExecutor, periodID int) error
	// DeactivateExpired гасит активные периоды, чей end_date уже прошёл.
	// Возвращает число затронутых строк. Вызывается фоновым планировщиком.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type postgresPeriodRepository struct {
	db *sql.DB
}

func NewPostgresPeriodRepository(db *sql.DB) PeriodRepository {
	return &postgresPeriodRepository{db: db}
}

const periodColumns = `id, server_id, name, start_date, end_date, is_active, created_at`

func (r *postgresPeriodRepository) scanPeriod(row interface {
	Scan(dest ...interface{}) error
}, p *models.SchedulePeriod) error {
	return row.Scan(&p.ID, &p.ServerID, &p.Name, &p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt)
}

func (r *postgresPeriodRepository) Create(ctx context.Context, period *models.SchedulePeriod) error {
	query := `
		INSERT INTO schedule_periods (server_id, name, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		period.ServerID,
		period.Name,
		period.StartDate,
		period.EndDate,
		period.IsActive,
	).Scan(&period.ID, &period.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrPeriodServerInvalid
		}
		return fmt.Errorf("failed to create schedule period: %w", err)
	}
	return nil
}

func (r *postgresPeriodRepository) GetByID(ctx context.Context, id int) (*models.SchedulePeriod, error) {
	p := &models.SchedulePeriod{}
	query := `SELECT ` + periodColumns + ` FROM schedule_periods WHERE id = $1`
	if err := r.scanPeriod(r.db.QueryRowContext(ctx, query, id), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPeriodNotFound
		}
		return nil, fmt.Errorf("failed to find schedule period: %w", err)
	}
	return p, nil
}

func (r *postgresPeriodRepository) ListByServer(ctx context.Context, serverID int, onlyActive bool) ([]*models.SchedulePeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM schedule_periods WHERE server_id = $1`
	if onlyActive {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY start_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule periods: %w", err)
	}
	defer rows.Close()

	periods := make([]*models.SchedulePeriod, 0)
	for rows.Next() {
		var p models.SchedulePeriod
		if err := r.scanPeriod(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan schedule period row: %w", err)
		}
		periods = append(periods, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule period rows: %w", err)
	}
	return periods, nil
}

func (r *postgresPeriodRepository) Update(ctx context.Context, period *models.SchedulePeriod) error {
	query := `UPDATE schedule_periods SET name = $1, start_date = $2, end_date = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, period.Name, period.StartDate, period.EndDate, period.ID)
	if err != nil {
		return fmt.Errorf("failed to update schedule period: %w", err)
	}
	return checkAffectedRows(result, ErrPeriodNotFound)
}

func (r *postgresPeriodRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedule_periods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule period: %w", err)
	}
	return checkAffectedRows(result, ErrPeriodNotFound)
}

func (r *postgresPeriodRepository) SetActive(ctx context.Context, q SQLExecutor, periodID int) error {
	if q == nil {
		q = r.db
	}
	deactivate := `
		UPDATE schedule_periods SET is_active = FALSE
		WHERE server_id = (SELECT server_id FROM schedule_periods WHERE id = $1) AND id <> $1`
	if _, err := q.ExecContext(ctx, deactivate, periodID); err != nil {
		return fmt.Errorf("failed to deactivate sibling periods: %w", err)
	}

	result, err := q.ExecContext(ctx, `UPDATE schedule_periods SET is_active = TRUE WHERE id = $1`, periodID)
	if err != nil {
		return fmt.Errorf("failed to activate schedule period: %w", err)
	}
	return checkAffectedRows(result, ErrPeriodNotFound)
}

func (r *postgresPeriodRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE schedule_periods SET is_active = FALSE WHERE is_active = TRUE AND end_date < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired periods: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows for period deactivation: %w", err)
	}
	return affected, nil
}
