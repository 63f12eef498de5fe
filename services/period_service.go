package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/repositories"
)

type CreatePeriodInput struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type PeriodService interface {
	Create(ctx context.Context, caller Identity, serverID int, input CreatePeriodInput) (*models.SchedulePeriod, error)
	GetByID(ctx context.Context, id int) (*models.SchedulePeriod, error)
	ListByServer(ctx context.Context, serverID int, onlyActive bool) ([]*models.SchedulePeriod, error)
	Update(ctx context.Context, caller Identity, id int, input CreatePeriodInput) (*models.SchedulePeriod, error)
	Delete(ctx context.Context, caller Identity, id int) error
	// Activate делает период активным и снимает активность с остальных
	// периодов того же сервера.
	Activate(ctx context.Context, caller Identity, id int) (*models.SchedulePeriod, error)
	// DeactivateExpired снимает активность с периодов, чья дата окончания
	// уже прошла. Вызывается фоновым планировщиком.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type periodService struct {
	txRunner   repositories.TxRunner
	periodRepo repositories.PeriodRepository
	serverRepo repositories.ServerRepository
	logger     *slog.Logger
}

func NewPeriodService(
	txRunner repositories.TxRunner,
	periodRepo repositories.PeriodRepository,
	serverRepo repositories.ServerRepository,
	logger *slog.Logger,
) PeriodService {
	return &periodService{
		txRunner:   txRunner,
		periodRepo: periodRepo,
		serverRepo: serverRepo,
		logger:     logger,
	}
}

func validatePeriodInput(input CreatePeriodInput) error {
	if input.Name == "" {
		return ErrValidationFailed
	}
	if !input.EndDate.After(input.StartDate) {
		return ErrPeriodInvalidDateRange
	}
	return nil
}

func (s *periodService) Create(ctx context.Context, caller Identity, serverID int, input CreatePeriodInput) (*models.SchedulePeriod, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if err := validatePeriodInput(input); err != nil {
		return nil, err
	}
	if _, err := s.serverRepo.GetByID(ctx, serverID); err != nil {
		if errors.Is(err, repositories.ErrServerNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to get server %d: %w", serverID, err)
	}

	period := &models.SchedulePeriod{
		ServerID:  serverID,
		Name:      input.Name,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if err := s.periodRepo.Create(ctx, period); err != nil {
		if errors.Is(err, repositories.ErrPeriodServerInvalid) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to create schedule period: %w", err)
	}
	return period, nil
}

func (s *periodService) GetByID(ctx context.Context, id int) (*models.SchedulePeriod, error) {
	period, err := s.periodRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPeriodNotFound) {
			return nil, ErrPeriodNotFound
		}
		return nil, fmt.Errorf("failed to get schedule period %d: %w", id, err)
	}
	return period, nil
}

func (s *periodService) ListByServer(ctx context.Context, serverID int, onlyActive bool) ([]*models.SchedulePeriod, error) {
	if _, err := s.serverRepo.GetByID(ctx, serverID); err != nil {
		if errors.Is(err, repositories.ErrServerNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to get server %d: %w", serverID, err)
	}
	periods, err := s.periodRepo.ListByServer(ctx, serverID, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule periods: %w", err)
	}
	return periods, nil
}

func (s *periodService) Update(ctx context.Context, caller Identity, id int, input CreatePeriodInput) (*models.SchedulePeriod, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if err := validatePeriodInput(input); err != nil {
		return nil, err
	}
	period, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	period.Name = input.Name
	period.StartDate = input.StartDate
	period.EndDate = input.EndDate
	if err := s.periodRepo.Update(ctx, period); err != nil {
		if errors.Is(err, repositories.ErrPeriodNotFound) {
			return nil, ErrPeriodNotFound
		}
		return nil, fmt.Errorf("failed to update schedule period %d: %w", id, err)
	}
	return period, nil
}

func (s *periodService) Delete(ctx context.Context, caller Identity, id int) error {
	if !caller.IsAdmin {
		return ErrAdminOnly
	}
	if err := s.periodRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrPeriodNotFound) {
			return ErrPeriodNotFound
		}
		return fmt.Errorf("failed to delete schedule period %d: %w", id, err)
	}
	return nil
}

func (s *periodService) Activate(ctx context.Context, caller Identity, id int) (*models.SchedulePeriod, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	err := s.txRunner.RunInTx(ctx, func(q repositories.SQLExecutor) error {
		if err := s.periodRepo.SetActive(ctx, q, id); err != nil {
			if errors.Is(err, repositories.ErrPeriodNotFound) {
				return ErrPeriodNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *periodService) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.periodRepo.DeactivateExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info("deactivated expired schedule periods", slog.Int64("count", count))
	}
	return count, nil
}
