package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/repositories"
)

type CreateServerInput struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

type ServerService interface {
	Create(ctx context.Context, caller Identity, input CreateServerInput) (*models.Server, error)
	GetByID(ctx context.Context, id int) (*models.Server, error)
	List(ctx context.Context) ([]*models.Server, error)
	Update(ctx context.Context, caller Identity, id int, input CreateServerInput) (*models.Server, error)
	Delete(ctx context.Context, caller Identity, id int) error
}

type serverService struct {
	serverRepo repositories.ServerRepository
}

func NewServerService(serverRepo repositories.ServerRepository) ServerService {
	return &serverService{serverRepo: serverRepo}
}

func (s *serverService) Create(ctx context.Context, caller Identity, input CreateServerInput) (*models.Server, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if input.Name == "" {
		return nil, ErrValidationFailed
	}
	server := &models.Server{Name: input.Name, Region: input.Region}
	if err := s.serverRepo.Create(ctx, server); err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	return server, nil
}

func (s *serverService) GetByID(ctx context.Context, id int) (*models.Server, error) {
	server, err := s.serverRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrServerNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to get server %d: %w", id, err)
	}
	return server, nil
}

func (s *serverService) List(ctx context.Context) ([]*models.Server, error) {
	servers, err := s.serverRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

func (s *serverService) Update(ctx context.Context, caller Identity, id int, input CreateServerInput) (*models.Server, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if input.Name == "" {
		return nil, ErrValidationFailed
	}
	server, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	server.Name = input.Name
	server.Region = input.Region
	if err := s.serverRepo.Update(ctx, server); err != nil {
		if errors.Is(err, repositories.ErrServerNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to update server %d: %w", id, err)
	}
	return server, nil
}

func (s *serverService) Delete(ctx context.Context, caller Identity, id int) error {
	if !caller.IsAdmin {
		return ErrAdminOnly
	}
	if err := s.serverRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrServerNotFound) {
			return ErrServerNotFound
		}
		return fmt.Errorf("failed to delete server %d: %w", id, err)
	}
	return nil
}
