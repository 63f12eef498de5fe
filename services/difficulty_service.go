package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/repositories"
)

type CreateDifficultyInput struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
	Color     string `json:"color"`
}

type DifficultyService interface {
	Create(ctx context.Context, caller Identity, input CreateDifficultyInput) (*models.Difficulty, error)
	List(ctx context.Context) ([]*models.Difficulty, error)
	Update(ctx context.Context, caller Identity, id int, input CreateDifficultyInput) (*models.Difficulty, error)
	Delete(ctx context.Context, caller Identity, id int) error
}

type difficultyService struct {
	difficultyRepo repositories.DifficultyRepository
}

func NewDifficultyService(difficultyRepo repositories.DifficultyRepository) DifficultyService {
	return &difficultyService{difficultyRepo: difficultyRepo}
}

func (s *difficultyService) Create(ctx context.Context, caller Identity, input CreateDifficultyInput) (*models.Difficulty, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if input.Name == "" {
		return nil, ErrValidationFailed
	}
	d := &models.Difficulty{Name: input.Name, SortOrder: input.SortOrder, Color: input.Color}
	if err := s.difficultyRepo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create difficulty: %w", err)
	}
	return d, nil
}

func (s *difficultyService) List(ctx context.Context) ([]*models.Difficulty, error) {
	difficulties, err := s.difficultyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list difficulties: %w", err)
	}
	return difficulties, nil
}

func (s *difficultyService) Update(ctx context.Context, caller Identity, id int, input CreateDifficultyInput) (*models.Difficulty, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if input.Name == "" {
		return nil, ErrValidationFailed
	}
	d, err := s.difficultyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrDifficultyNotFound) {
			return nil, ErrDifficultyNotFound
		}
		return nil, fmt.Errorf("failed to get difficulty %d: %w", id, err)
	}
	d.Name = input.Name
	d.SortOrder = input.SortOrder
	d.Color = input.Color
	if err := s.difficultyRepo.Update(ctx, d); err != nil {
		if errors.Is(err, repositories.ErrDifficultyNotFound) {
			return nil, ErrDifficultyNotFound
		}
		return nil, fmt.Errorf("failed to update difficulty %d: %w", id, err)
	}
	return d, nil
}

func (s *difficultyService) Delete(ctx context.Context, caller Identity, id int) error {
	if !caller.IsAdmin {
		return ErrAdminOnly
	}
	if err := s.difficultyRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDifficultyNotFound):
			return ErrDifficultyNotFound
		case errors.Is(err, repositories.ErrDifficultyInUse):
			return ErrDifficultyInUse
		}
		return fmt.Errorf("failed to delete difficulty %d: %w", id, err)
	}
	return nil
}
