package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/repositories"
)

// PointService — журнал очков. Запись в журнал и обновление кэшированного
// баланса всегда идут парой внутри одного SQLExecutor: вызывающий сервис
// передаёт сюда свою транзакцию, чтобы списание разделяло судьбу перехода
// статуса, который его вызвал.
type PointService interface {
	// DebitTx списывает |amount| очков. ErrInsufficientPoints, если баланс
	// ушёл бы в минус.
	DebitTx(ctx context.Context, q repositories.SQLExecutor, userID, amount int, reason string, relatedRequestID, relatedClaimID *int) (*models.PointTransaction, error)
	// CreditTx начисляет |amount| очков. Отказов по балансу нет.
	CreditTx(ctx context.Context, q repositories.SQLExecutor, userID, amount int, reason string, relatedRequestID, relatedClaimID *int) (*models.PointTransaction, error)
	// Grant — административное начисление вне чужих транзакций.
	Grant(ctx context.Context, caller Identity, userID, amount int) (*models.PointTransaction, error)
	GetBalance(ctx context.Context, userID int) (int, error)
	ListTransactions(ctx context.Context, caller Identity, userID, limit, offset int) ([]*models.PointTransaction, error)
	// Reconcile сверяет кэшированный баланс с суммой журнала.
	// Расхождение — баг, тесты обязаны его ловить.
	Reconcile(ctx context.Context, userID int) (balance int, ledgerSum int, err error)
}

type pointService struct {
	txRunner  repositories.TxRunner
	userRepo  repositories.UserRepository
	pointRepo repositories.PointRepository
}

func NewPointService(
	txRunner repositories.TxRunner,
	userRepo repositories.UserRepository,
	pointRepo repositories.PointRepository,
) PointService {
	return &pointService{
		txRunner:  txRunner,
		userRepo:  userRepo,
		pointRepo: pointRepo,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (s *pointService) apply(ctx context.Context, q repositories.SQLExecutor, userID, signedAmount int, reason string, relatedRequestID, relatedClaimID *int) (*models.PointTransaction, error) {
	// Сначала баланс: именно здесь ловится недостаток очков, и запись
	// в журнал тогда не происходит вовсе.
	if err := s.userRepo.ApplyPointsDelta(ctx, q, userID, signedAmount); err != nil {
		switch {
		case errors.Is(err, repositories.ErrInsufficientPoints):
			return nil, ErrInsufficientPoints
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update cached balance for user %d: %w", userID, err)
	}

	tx := &models.PointTransaction{
		UserID:           userID,
		Amount:           signedAmount,
		Reason:           reason,
		RelatedRequestID: relatedRequestID,
		RelatedClaimID:   relatedClaimID,
	}
	if err := s.pointRepo.Append(ctx, q, tx); err != nil {
		return nil, fmt.Errorf("failed to append point transaction for user %d: %w", userID, err)
	}
	return tx, nil
}

func (s *pointService) DebitTx(ctx context.Context, q repositories.SQLExecutor, userID, amount int, reason string, relatedRequestID, relatedClaimID *int) (*models.PointTransaction, error) {
	if amount == 0 {
		return nil, ErrPointAmountInvalid
	}
	return s.apply(ctx, q, userID, -abs(amount), reason, relatedRequestID, relatedClaimID)
}

func (s *pointService) CreditTx(ctx context.Context, q repositories.SQLExecutor, userID, amount int, reason string, relatedRequestID, relatedClaimID *int) (*models.PointTransaction, error) {
	if amount == 0 {
		return nil, ErrPointAmountInvalid
	}
	return s.apply(ctx, q, userID, abs(amount), reason, relatedRequestID, relatedClaimID)
}

func (s *pointService) Grant(ctx context.Context, caller Identity, userID, amount int) (*models.PointTransaction, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if amount <= 0 {
		return nil, ErrPointAmountInvalid
	}

	var granted *models.PointTransaction
	err := s.txRunner.RunInTx(ctx, func(q repositories.SQLExecutor) error {
		tx, err := s.CreditTx(ctx, q, userID, amount, models.PointReasonAdminGrant, nil, nil)
		if err != nil {
			return err
		}
		granted = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return granted, nil
}

func (s *pointService) GetBalance(ctx context.Context, userID int) (int, error) {
	points, err := s.userRepo.GetPoints(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get balance for user %d: %w", userID, err)
	}
	return points, nil
}

func (s *pointService) ListTransactions(ctx context.Context, caller Identity, userID, limit, offset int) ([]*models.PointTransaction, error) {
	if !caller.CanActFor(userID) {
		return nil, ErrForbiddenOperation
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	txs, err := s.pointRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %d: %w", userID, err)
	}
	return txs, nil
}

func (s *pointService) Reconcile(ctx context.Context, userID int) (int, int, error) {
	balance, err := s.userRepo.GetPoints(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return 0, 0, ErrUserNotFound
		}
		return 0, 0, fmt.Errorf("failed to get cached balance for user %d: %w", userID, err)
	}
	sum, err := s.pointRepo.SumByUser(ctx, nil, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum ledger for user %d: %w", userID, err)
	}
	return balance, sum, nil
}
