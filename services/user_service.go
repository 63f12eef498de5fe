package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/repositories"
	"github.com/Dosada05/hunt-reservation/tibia"
)

type RegisterCharacterInput struct {
	Name string `json:"name"`
}

type UserService interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	List(ctx context.Context, caller Identity, limit, offset int) ([]*models.User, error)
	// RegisterCharacter привязывает игрового персонажа к пользователю.
	// Имя, мир и уровень подтверждаются через TibiaData; несуществующий
	// персонаж зарегистрировать нельзя.
	RegisterCharacter(ctx context.Context, caller Identity, userID int, input RegisterCharacterInput) (*models.Character, error)
	ListCharacters(ctx context.Context, userID int) ([]*models.Character, error)
	DeleteCharacter(ctx context.Context, caller Identity, characterID int) error
}

type userService struct {
	userRepo      repositories.UserRepository
	characterRepo repositories.CharacterRepository
	validator     CharacterValidator
	logger        *slog.Logger
}

func NewUserService(
	userRepo repositories.UserRepository,
	characterRepo repositories.CharacterRepository,
	validator CharacterValidator,
	logger *slog.Logger,
) UserService {
	return &userService{
		userRepo:      userRepo,
		characterRepo: characterRepo,
		validator:     validator,
		logger:        logger,
	}
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) List(ctx context.Context, caller Identity, limit, offset int) ([]*models.User, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users, nil
}

func (s *userService) RegisterCharacter(ctx context.Context, caller Identity, userID int, input RegisterCharacterInput) (*models.Character, error) {
	if !caller.CanActFor(userID) {
		return nil, ErrForbiddenOperation
	}
	if input.Name == "" {
		return nil, ErrValidationFailed
	}
	if _, err := s.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	verified, err := s.validator.ValidateCharacter(ctx, input.Name)
	if err != nil {
		if errors.Is(err, tibia.ErrCharacterNotFound) {
			return nil, ErrCharacterNotFound
		}
		s.logger.Warn("character validation failed", slog.String("name", input.Name), slog.Any("error", err))
		return nil, ErrStorageUnavailable
	}

	character := &models.Character{
		UserID: userID,
		// Берём каноническое написание имени из API, а не из ввода.
		Name:  verified.Name,
		World: verified.World,
	}
	if verified.Vocation != "" {
		character.Vocation = &verified.Vocation
	}
	if verified.Level > 0 {
		character.Level = &verified.Level
	}

	if err := s.characterRepo.Create(ctx, character); err != nil {
		if errors.Is(err, repositories.ErrCharacterNameConflict) {
			return nil, ErrCharacterNameConflict
		}
		return nil, fmt.Errorf("failed to create character: %w", err)
	}
	return character, nil
}

func (s *userService) ListCharacters(ctx context.Context, userID int) ([]*models.Character, error) {
	characters, err := s.characterRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return characters, nil
}

func (s *userService) DeleteCharacter(ctx context.Context, caller Identity, characterID int) error {
	character, err := s.characterRepo.GetByID(ctx, characterID)
	if err != nil {
		if errors.Is(err, repositories.ErrCharacterNotFound) {
			return ErrCharacterNotFound
		}
		return fmt.Errorf("failed to get character %d: %w", characterID, err)
	}
	if !caller.CanActFor(character.UserID) {
		return ErrForbiddenOperation
	}
	if err := s.characterRepo.Delete(ctx, characterID); err != nil {
		if errors.Is(err, repositories.ErrCharacterNotFound) {
			return ErrCharacterNotFound
		}
		return fmt.Errorf("failed to delete character %d: %w", characterID, err)
	}
	return nil
}
