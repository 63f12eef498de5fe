package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/hunt-reservation/models"
)

var ErrPointTransactionNotFound = errors.New("point transaction not found")

// PointRepository — журнал очков. Только добавление и чтение: записи никогда
// не обновляются и не удаляются, исправления делаются обратной проводкой.
type PointRepository interface {
	Append(ctx context.Context, q SQLExecutor, tx *models.PointTransaction) error
	ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.PointTransaction, error)
	// SumByUser возвращает сумму всех проводок пользователя. Должна совпадать
	// с кэшированным users.points; расхождение — баг.
	SumByUser(ctx context.Context, q SQLExecutor, userID int) (int, error)
	FindByRequestAndReason(ctx context.Context, q SQLExecutor, requestID int, reason string) (*models.PointTransaction, error)
	FindByClaimAndReason(ctx context.Context, q SQLExecutor, claimID int, reason string) (*models.PointTransaction, error)
}

type postgresPointRepository struct {
	db *sql.DB
}

func NewPostgresPointRepository(db *sql.DB) PointRepository {
	return &postgresPointRepository{db: db}
}

const pointTxColumns = `id, user_id, amount, reason, related_request_id, related_claim_id, created_at`

func (r *postgresPointRepository) scanTx(row interface {
	Scan(dest ...interface{}) error
}, t *models.PointTransaction) error {
	return row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Reason, &t.RelatedRequestID, &t.RelatedClaimID, &t.CreatedAt)
}

func (r *postgresPointRepository) Append(ctx context.Context, q SQLExecutor, tx *models.PointTransaction) error {
	if q == nil {
		q = r.db
	}
	query := `
		INSERT INTO point_transactions (user_id, amount, reason, related_request_id, related_claim_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := q.QueryRowContext(ctx, query,
		tx.UserID,
		tx.Amount,
		tx.Reason,
		tx.RelatedRequestID,
		tx.RelatedClaimID,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append point transaction: %w", err)
	}
	return nil
}

func (r *postgresPointRepository) ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.PointTransaction, error) {
	query := `SELECT ` + pointTxColumns + ` FROM point_transactions
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list point transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*models.PointTransaction, 0)
	for rows.Next() {
		var t models.PointTransaction
		if err := r.scanTx(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan point transaction row: %w", err)
		}
		txs = append(txs, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating point transaction rows: %w", err)
	}
	return txs, nil
}

func (r *postgresPointRepository) SumByUser(ctx context.Context, q SQLExecutor, userID int) (int, error) {
	if q == nil {
		q = r.db
	}
	var sum int
	query := `SELECT COALESCE(SUM(amount), 0) FROM point_transactions WHERE user_id = $1`
	if err := q.QueryRowContext(ctx, query, userID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum point transactions: %w", err)
	}
	return sum, nil
}

func (r *postgresPointRepository) findOne(ctx context.Context, q SQLExecutor, query string, args ...interface{}) (*models.PointTransaction, error) {
	if q == nil {
		q = r.db
	}
	t := &models.PointTransaction{}
	if err := r.scanTx(q.QueryRowContext(ctx, query, args...), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPointTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find point transaction: %w", err)
	}
	return t, nil
}

func (r *postgresPointRepository) FindByRequestAndReason(ctx context.Context, q SQLExecutor, requestID int, reason string) (*models.PointTransaction, error) {
	query := `SELECT ` + pointTxColumns + ` FROM point_transactions
		WHERE related_request_id = $1 AND reason = $2
		ORDER BY id DESC LIMIT 1`
	return r.findOne(ctx, q, query, requestID, reason)
}

func (r *postgresPointRepository) FindByClaimAndReason(ctx context.Context, q SQLExecutor, claimID int, reason string) (*models.PointTransaction, error) {
	query := `SELECT ` + pointTxColumns + ` FROM point_transactions
		WHERE related_claim_id = $1 AND reason = $2
		ORDER BY id DESC LIMIT 1`
	return r.findOne(ctx, q, query, claimID, reason)
}
