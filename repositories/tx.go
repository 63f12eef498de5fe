package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// TxRunner выполняет функцию внутри транзакции БД. Критические секции
// (одобрение заявки + списание очков, копирование респаунов) должны проходить
// одной транзакцией, чтобы сбой не оставил журнал очков рассинхронизированным
// со статусом заявки.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(q SQLExecutor) error) error
}

type sqlTxRunner struct {
	db *sql.DB
}

func NewSQLTxRunner(db *sql.DB) TxRunner {
	return &sqlTxRunner{db: db}
}

func (r *sqlTxRunner) RunInTx(ctx context.Context, fn func(q SQLExecutor) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
