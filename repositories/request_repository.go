package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/lib/pq"
)

var (
	ErrRequestNotFound = errors.New("request not found")
	// ErrRequestSlotConflict — нарушение частичного уникального индекса
	// requests_approved_tuple_key: одобренная заявка на этот
	// (респаун, слот, период) уже существует.
	ErrRequestSlotConflict   = errors.New("approved request already exists for this respawn, slot and period")
	ErrRequestInvalidRef     = errors.New("request references a missing entity")
	ErrPartyCharacterInvalid = errors.New("party member references a missing character")
)

// RequestFilter — фильтры листинга заявок. nil-поля не применяются.
type RequestFilter struct {
	ServerID *int
	PeriodID *int
	UserID   *int
	Status   *models.RequestStatus
}

type RequestRepository interface {
	// Create вставляет заявку вместе с составом пати одной операцией.
	Create(ctx context.Context, q SQLExecutor, request *models.Request) error
	GetByID(ctx context.Context, q SQLExecutor, id int, forUpdate bool) (*models.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]*models.Request, error)
	ListByTuple(ctx context.Context, q SQLExecutor, respawnID, slotID, periodID int) ([]*models.Request, error)
	// UpdateStatus переводит заявку в новый статус. Перевод в approved может
	// вернуть ErrRequestSlotConflict — индекс в БД закрывает гонку одобрений.
	UpdateStatus(ctx context.Context, q SQLExecutor, id int, status models.RequestStatus) error
	ListPartyMembers(ctx context.Context, q SQLExecutor, requestID int) ([]models.PartyMember, error)
}

type postgresRequestRepository struct {
	db *sql.DB
}

func NewPostgresRequestRepository(db *sql.DB) RequestRepository {
	return &postgresRequestRepository{db: db}
}

const requestColumns = `id, user_id, server_id, respawn_id, slot_id, period_id, status, created_at, updated_at`

func (r *postgresRequestRepository) scanRequest(row interface {
	Scan(dest ...interface{}) error
}, req *models.Request) error {
	return row.Scan(
		&req.ID,
		&req.UserID,
		&req.ServerID,
		&req.RespawnID,
		&req.SlotID,
		&req.PeriodID,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
}

func (r *postgresRequestRepository) Create(ctx context.Context, q SQLExecutor, request *models.Request) error {
	if q == nil {
		q = r.db
	}
	query := `
		INSERT INTO requests (user_id, server_id, respawn_id, slot_id, period_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := q.QueryRowContext(ctx, query,
		request.UserID,
		request.ServerID,
		request.RespawnID,
		request.SlotID,
		request.PeriodID,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "requests_approved_tuple_key" {
					return ErrRequestSlotConflict
				}
			case "23503": // foreign_key_violation
				return ErrRequestInvalidRef
			}
		}
		return fmt.Errorf("failed to create request: %w", err)
	}

	for i := range request.Party {
		m := &request.Party[i]
		m.RequestID = request.ID
		memberQuery := `
			INSERT INTO party_members (request_id, character_id, character_name, role_in_party, is_leader)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`
		err := q.QueryRowContext(ctx, memberQuery,
			m.RequestID, m.CharacterID, m.CharacterName, m.RoleInParty, m.IsLeader,
		).Scan(&m.ID)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
				return ErrPartyCharacterInvalid
			}
			return fmt.Errorf("failed to create party member: %w", err)
		}
	}
	return nil
}

func (r *postgresRequestRepository) GetByID(ctx context.Context, q SQLExecutor, id int, forUpdate bool) (*models.Request, error) {
	if q == nil {
		q = r.db
	}
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	if forUpdate {
		// Блокируем строку на время транзакции одобрения/отмены
		query += ` FOR UPDATE`
	}

	req := &models.Request{}
	if err := r.scanRequest(q.QueryRowContext(ctx, query, id), req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to find request: %w", err)
	}

	party, err := r.ListPartyMembers(ctx, q, req.ID)
	if err != nil {
		return nil, err
	}
	req.Party = party
	return req, nil
}

func (r *postgresRequestRepository) List(ctx context.Context, filter RequestFilter) ([]*models.Request, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + requestColumns + ` FROM requests`)

	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)
	if filter.ServerID != nil {
		args = append(args, *filter.ServerID)
		conditions = append(conditions, fmt.Sprintf("server_id = $%d", len(args)))
	}
	if filter.PeriodID != nil {
		args = append(args, *filter.PeriodID)
		conditions = append(conditions, fmt.Sprintf("period_id = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.Request, 0)
	for rows.Next() {
		var req models.Request
		if err := r.scanRequest(rows, &req); err != nil {
			return nil, fmt.Errorf("failed to scan request row: %w", err)
		}
		requests = append(requests, &req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating request rows: %w", err)
	}

	for _, req := range requests {
		party, err := r.ListPartyMembers(ctx, nil, req.ID)
		if err != nil {
			return nil, err
		}
		req.Party = party
	}
	return requests, nil
}

func (r *postgresRequestRepository) ListByTuple(ctx context.Context, q SQLExecutor, respawnID, slotID, periodID int) ([]*models.Request, error) {
	if q == nil {
		q = r.db
	}
	query := `SELECT ` + requestColumns + ` FROM requests
		WHERE respawn_id = $1 AND slot_id = $2 AND period_id = $3
		ORDER BY created_at ASC`

	rows, err := q.QueryContext(ctx, query, respawnID, slotID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests by tuple: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.Request, 0)
	for rows.Next() {
		var req models.Request
		if err := r.scanRequest(rows, &req); err != nil {
			return nil, fmt.Errorf("failed to scan request row: %w", err)
		}
		requests = append(requests, &req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating request rows: %w", err)
	}
	return requests, nil
}

func (r *postgresRequestRepository) UpdateStatus(ctx context.Context, q SQLExecutor, id int, status models.RequestStatus) error {
	if q == nil {
		q = r.db
	}
	query := `UPDATE requests SET status = $1, updated_at = now() WHERE id = $2`
	result, err := q.ExecContext(ctx, query, status, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" &&
			pqErr.Constraint == "requests_approved_tuple_key" {
			return ErrRequestSlotConflict
		}
		return fmt.Errorf("failed to update request status: %w", err)
	}
	return checkAffectedRows(result, ErrRequestNotFound)
}

func (r *postgresRequestRepository) ListPartyMembers(ctx context.Context, q SQLExecutor, requestID int) ([]models.PartyMember, error) {
	if q == nil {
		q = r.db
	}
	query := `
		SELECT id, request_id, character_id, character_name, role_in_party, is_leader
		FROM party_members
		WHERE request_id = $1
		ORDER BY is_leader DESC, id`

	rows, err := q.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list party members: %w", err)
	}
	defer rows.Close()

	members := make([]models.PartyMember, 0)
	for rows.Next() {
		var m models.PartyMember
		if err := rows.Scan(&m.ID, &m.RequestID, &m.CharacterID, &m.CharacterName, &m.RoleInParty, &m.IsLeader); err != nil {
			return nil, fmt.Errorf("failed to scan party member row: %w", err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating party member rows: %w", err)
	}
	return members, nil
}
