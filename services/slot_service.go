package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/repositories"
)

// Время слота хранится строкой, переход через полночь допустим,
// поэтому проверяем только формат.
var slotTimeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type CreateSlotInput struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type SlotService interface {
	Create(ctx context.Context, caller Identity, serverID int, input CreateSlotInput) (*models.Slot, error)
	GetByID(ctx context.Context, id int) (*models.Slot, error)
	ListByServer(ctx context.Context, serverID int) ([]*models.Slot, error)
	Update(ctx context.Context, caller Identity, id int, input CreateSlotInput) (*models.Slot, error)
	Delete(ctx context.Context, caller Identity, id int) error
}

type slotService struct {
	slotRepo   repositories.SlotRepository
	serverRepo repositories.ServerRepository
}

func NewSlotService(slotRepo repositories.SlotRepository, serverRepo repositories.ServerRepository) SlotService {
	return &slotService{slotRepo: slotRepo, serverRepo: serverRepo}
}

func validateSlotTimes(input CreateSlotInput) error {
	if !slotTimeRe.MatchString(input.StartTime) || !slotTimeRe.MatchString(input.EndTime) {
		return ErrSlotInvalidTime
	}
	return nil
}

func (s *slotService) Create(ctx context.Context, caller Identity, serverID int, input CreateSlotInput) (*models.Slot, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if err := validateSlotTimes(input); err != nil {
		return nil, err
	}
	if _, err := s.serverRepo.GetByID(ctx, serverID); err != nil {
		if errors.Is(err, repositories.ErrServerNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to get server %d: %w", serverID, err)
	}

	slot := &models.Slot{ServerID: serverID, StartTime: input.StartTime, EndTime: input.EndTime}
	if err := s.slotRepo.Create(ctx, slot); err != nil {
		if errors.Is(err, repositories.ErrSlotServerInvalid) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}
	return slot, nil
}

func (s *slotService) GetByID(ctx context.Context, id int) (*models.Slot, error) {
	slot, err := s.slotRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to get slot %d: %w", id, err)
	}
	return slot, nil
}

func (s *slotService) ListByServer(ctx context.Context, serverID int) ([]*models.Slot, error) {
	if _, err := s.serverRepo.GetByID(ctx, serverID); err != nil {
		if errors.Is(err, repositories.ErrServerNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to get server %d: %w", serverID, err)
	}
	slots, err := s.slotRepo.ListByServer(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (s *slotService) Update(ctx context.Context, caller Identity, id int, input CreateSlotInput) (*models.Slot, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if err := validateSlotTimes(input); err != nil {
		return nil, err
	}
	slot, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	slot.StartTime = input.StartTime
	slot.EndTime = input.EndTime
	if err := s.slotRepo.Update(ctx, slot); err != nil {
		if errors.Is(err, repositories.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to update slot %d: %w", id, err)
	}
	return slot, nil
}

func (s *slotService) Delete(ctx context.Context, caller Identity, id int) error {
	if !caller.IsAdmin {
		return ErrAdminOnly
	}
	if err := s.slotRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrSlotNotFound) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("failed to delete slot %d: %w", id, err)
	}
	return nil
}
