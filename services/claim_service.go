package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/repositories"
)

// ClaimService — погашение очков. Структурно повторяет цикл заявки на бронь,
// но с обратной асимметрией: очки списываются сразу при создании, одобрение
// лишь фиксирует списание, а отклонение возвращает его обратной проводкой.
type ClaimService interface {
	Create(ctx context.Context, caller Identity, amount int, description string) (*models.PointClaim, error)
	GetByID(ctx context.Context, caller Identity, id int) (*models.PointClaim, error)
	List(ctx context.Context, caller Identity) ([]*models.PointClaim, error)
	Approve(ctx context.Context, caller Identity, claimID int) (*models.PointClaim, error)
	Reject(ctx context.Context, caller Identity, claimID int) (*models.PointClaim, error)
}

type claimService struct {
	txRunner  repositories.TxRunner
	claimRepo repositories.ClaimRepository
	pointRepo repositories.PointRepository
	points    PointService
}

func NewClaimService(
	txRunner repositories.TxRunner,
	claimRepo repositories.ClaimRepository,
	pointRepo repositories.PointRepository,
	points PointService,
) ClaimService {
	return &claimService{
		txRunner:  txRunner,
		claimRepo: claimRepo,
		pointRepo: pointRepo,
		points:    points,
	}
}

func (s *claimService) Create(ctx context.Context, caller Identity, amount int, description string) (*models.PointClaim, error) {
	if amount <= 0 {
		return nil, ErrClaimAmountInvalid
	}

	claim := &models.PointClaim{
		UserID:      caller.UserID,
		Amount:      amount,
		Description: description,
		Status:      models.ClaimStatusPending,
	}

	err := s.txRunner.RunInTx(ctx, func(q repositories.SQLExecutor) error {
		if err := s.claimRepo.Create(ctx, q, claim); err != nil {
			return fmt.Errorf("failed to persist claim: %w", err)
		}
		// Списание сразу при создании, в той же транзакции: нехватка очков
		// откатывает и саму заявку.
		_, err := s.points.DebitTx(ctx, q, caller.UserID, amount, models.PointReasonClaimHold, nil, &claim.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (s *claimService) GetByID(ctx context.Context, caller Identity, id int) (*models.PointClaim, error) {
	claim, err := s.claimRepo.GetByID(ctx, nil, id, false)
	if err != nil {
		if errors.Is(err, repositories.ErrClaimNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("failed to get claim %d: %w", id, err)
	}
	if !caller.CanActFor(claim.UserID) {
		return nil, ErrForbiddenOperation
	}
	return claim, nil
}

func (s *claimService) List(ctx context.Context, caller Identity) ([]*models.PointClaim, error) {
	// Администратор видит все заявки, пользователь — только свои.
	var userID *int
	if !caller.IsAdmin {
		userID = &caller.UserID
	}
	claims, err := s.claimRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return claims, nil
}

func (s *claimService) transition(
	ctx context.Context,
	claimID int,
	target models.ClaimStatus,
	sideEffects func(q repositories.SQLExecutor, claim *models.PointClaim) error,
) (*models.PointClaim, error) {
	var result *models.PointClaim

	err := s.txRunner.RunInTx(ctx, func(q repositories.SQLExecutor) error {
		claim, err := s.claimRepo.GetByID(ctx, q, claimID, true)
		if err != nil {
			if errors.Is(err, repositories.ErrClaimNotFound) {
				return ErrClaimNotFound
			}
			return fmt.Errorf("failed to lock claim %d: %w", claimID, err)
		}
		if !claim.Status.CanTransitionTo(target) {
			return ErrInvalidStateTransition
		}
		if sideEffects != nil {
			if err := sideEffects(q, claim); err != nil {
				return err
			}
		}
		if err := s.claimRepo.UpdateStatus(ctx, q, claimID, target); err != nil {
			return fmt.Errorf("failed to update claim %d status: %w", claimID, err)
		}
		claim.Status = target
		result = claim
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *claimService) Approve(ctx context.Context, caller Identity, claimID int) (*models.PointClaim, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	// Очки уже удержаны при создании; одобрение только фиксирует статус.
	return s.transition(ctx, claimID, models.ClaimStatusApproved, nil)
}

func (s *claimService) Reject(ctx context.Context, caller Identity, claimID int) (*models.PointClaim, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	return s.transition(ctx, claimID, models.ClaimStatusRejected,
		func(q repositories.SQLExecutor, claim *models.PointClaim) error {
			hold, err := s.pointRepo.FindByClaimAndReason(ctx, q, claim.ID, models.PointReasonClaimHold)
			if err != nil {
				if errors.Is(err, repositories.ErrPointTransactionNotFound) {
					return fmt.Errorf("no claim_hold debit recorded for claim %d: %w", claim.ID, err)
				}
				return fmt.Errorf("failed to find hold for claim %d: %w", claim.ID, err)
			}
			_, err = s.points.CreditTx(ctx, q, claim.UserID, abs(hold.Amount), models.PointReasonClaimRefund, nil, &claim.ID)
			return err
		})
}
