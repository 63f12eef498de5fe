package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/repositories"
	"github.com/Dosada05/hunt-reservation/storage"
	"golang.org/x/sync/errgroup"
)

// CopyRespawnsResult — итог массового копирования каталога между серверами.
type CopyRespawnsResult struct {
	CopiedCount  int `json:"copied_count"`
	DeletedCount int `json:"deleted_count"`
}

type CreateRespawnInput struct {
	Name         string `json:"name"`
	DifficultyID int    `json:"difficulty_id"`
	MaxPlayers   int    `json:"max_players"`
}

type RespawnService interface {
	Create(ctx context.Context, caller Identity, serverID int, input CreateRespawnInput) (*models.Respawn, error)
	GetByID(ctx context.Context, id int) (*models.Respawn, error)
	ListByServer(ctx context.Context, serverID int) ([]*models.Respawn, error)
	Update(ctx context.Context, caller Identity, id int, input CreateRespawnInput) (*models.Respawn, error)
	Delete(ctx context.Context, caller Identity, id int) error
	SetImage(ctx context.Context, caller Identity, id int, contentType string, reader io.Reader) (*models.Respawn, error)
	// CopyRespawns копирует все респауны source-сервера на target-сервер.
	// overwrite=true СНАЧАЛА БЕЗВОЗВРАТНО удаляет все респауны target-сервера.
	// Дубликаты имён в target не схлопываются.
	CopyRespawns(ctx context.Context, caller Identity, sourceServerID, targetServerID int, overwrite bool) (*CopyRespawnsResult, error)
}

type respawnService struct {
	txRunner       repositories.TxRunner
	respawnRepo    repositories.RespawnRepository
	serverRepo     repositories.ServerRepository
	difficultyRepo repositories.DifficultyRepository
	uploader       storage.FileUploader // может быть nil, тогда картинки отключены
	logger         *slog.Logger
}

func NewRespawnService(
	txRunner repositories.TxRunner,
	respawnRepo repositories.RespawnRepository,
	serverRepo repositories.ServerRepository,
	difficultyRepo repositories.DifficultyRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) RespawnService {
	return &respawnService{
		txRunner:       txRunner,
		respawnRepo:    respawnRepo,
		serverRepo:     serverRepo,
		difficultyRepo: difficultyRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *respawnService) requireServer(ctx context.Context, serverID int) (*models.Server, error) {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		if errors.Is(err, repositories.ErrServerNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, fmt.Errorf("failed to get server %d: %w", serverID, err)
	}
	return server, nil
}

func (s *respawnService) validateInput(ctx context.Context, input CreateRespawnInput) error {
	if input.Name == "" || input.MaxPlayers <= 0 {
		return ErrValidationFailed
	}
	if _, err := s.difficultyRepo.GetByID(ctx, input.DifficultyID); err != nil {
		if errors.Is(err, repositories.ErrDifficultyNotFound) {
			return ErrDifficultyNotFound
		}
		return fmt.Errorf("failed to check difficulty %d: %w", input.DifficultyID, err)
	}
	return nil
}

func (s *respawnService) Create(ctx context.Context, caller Identity, serverID int, input CreateRespawnInput) (*models.Respawn, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if _, err := s.requireServer(ctx, serverID); err != nil {
		return nil, err
	}
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	respawn := &models.Respawn{
		ServerID:     serverID,
		Name:         input.Name,
		DifficultyID: input.DifficultyID,
		MaxPlayers:   input.MaxPlayers,
	}
	if err := s.respawnRepo.Create(ctx, nil, respawn); err != nil {
		return nil, fmt.Errorf("failed to create respawn: %w", err)
	}
	s.attachImageURL(respawn)
	return respawn, nil
}

func (s *respawnService) GetByID(ctx context.Context, id int) (*models.Respawn, error) {
	respawn, err := s.respawnRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRespawnNotFound) {
			return nil, ErrRespawnNotFound
		}
		return nil, fmt.Errorf("failed to get respawn %d: %w", id, err)
	}
	s.attachImageURL(respawn)
	return respawn, nil
}

func (s *respawnService) ListByServer(ctx context.Context, serverID int) ([]*models.Respawn, error) {
	if _, err := s.requireServer(ctx, serverID); err != nil {
		return nil, err
	}
	respawns, err := s.respawnRepo.ListByServer(ctx, nil, serverID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list respawns: %w", err)
	}
	for _, r := range respawns {
		s.attachImageURL(r)
	}
	return respawns, nil
}

func (s *respawnService) Update(ctx context.Context, caller Identity, id int, input CreateRespawnInput) (*models.Respawn, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	respawn, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	respawn.Name = input.Name
	respawn.DifficultyID = input.DifficultyID
	respawn.MaxPlayers = input.MaxPlayers
	if err := s.respawnRepo.Update(ctx, respawn); err != nil {
		if errors.Is(err, repositories.ErrRespawnNotFound) {
			return nil, ErrRespawnNotFound
		}
		return nil, fmt.Errorf("failed to update respawn %d: %w", id, err)
	}
	return respawn, nil
}

func (s *respawnService) Delete(ctx context.Context, caller Identity, id int) error {
	if !caller.IsAdmin {
		return ErrAdminOnly
	}
	respawn, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.respawnRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRespawnNotFound) {
			return ErrRespawnNotFound
		}
		return fmt.Errorf("failed to delete respawn %d: %w", id, err)
	}
	// Картинку чистим после удаления строки; неудача не откатывает операцию.
	if s.uploader != nil && respawn.ImageKey != nil {
		if err := s.uploader.Delete(ctx, *respawn.ImageKey); err != nil {
			s.logger.Warn("failed to delete respawn image", slog.String("key", *respawn.ImageKey), slog.Any("error", err))
		}
	}
	return nil
}

func (s *respawnService) SetImage(ctx context.Context, caller Identity, id int, contentType string, reader io.Reader) (*models.Respawn, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if s.uploader == nil {
		return nil, ErrValidationFailed
	}
	respawn, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("respawns/%d/%d", id, time.Now().UnixNano())
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload respawn image: %w", err)
	}
	oldKey := respawn.ImageKey
	if err := s.respawnRepo.UpdateImageKey(ctx, id, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store respawn image key: %w", err)
	}
	if oldKey != nil {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous respawn image", slog.String("key", *oldKey), slog.Any("error", err))
		}
	}
	respawn.ImageKey = &result.Key
	s.attachImageURL(respawn)
	return respawn, nil
}

func (s *respawnService) CopyRespawns(ctx context.Context, caller Identity, sourceServerID, targetServerID int, overwrite bool) (*CopyRespawnsResult, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}
	if sourceServerID == targetServerID {
		return nil, ErrCopySameServer
	}

	// Оба сервера проверяем параллельно: независимые чтения.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.requireServer(gCtx, sourceServerID)
		return err
	})
	g.Go(func() error {
		_, err := s.requireServer(gCtx, targetServerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &CopyRespawnsResult{}
	err := s.txRunner.RunInTx(ctx, func(q repositories.SQLExecutor) error {
		source, err := s.respawnRepo.ListByServer(ctx, q, sourceServerID, false)
		if err != nil {
			return fmt.Errorf("failed to list source respawns: %w", err)
		}

		if overwrite {
			deleted, err := s.respawnRepo.DeleteByServer(ctx, q, targetServerID)
			if err != nil {
				return err
			}
			result.DeletedCount = deleted
		}

		for _, src := range source {
			dup := &models.Respawn{
				ServerID:     targetServerID,
				Name:         src.Name,
				DifficultyID: src.DifficultyID,
				MaxPlayers:   src.MaxPlayers,
			}
			if err := s.respawnRepo.Create(ctx, q, dup); err != nil {
				return fmt.Errorf("failed to copy respawn %q: %w", src.Name, err)
			}
			result.CopiedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("respawn catalog copied",
		slog.Int("source_server_id", sourceServerID),
		slog.Int("target_server_id", targetServerID),
		slog.Bool("overwrite", overwrite),
		slog.Int("copied", result.CopiedCount),
		slog.Int("deleted", result.DeletedCount))
	return result, nil
}

func (s *respawnService) attachImageURL(respawn *models.Respawn) {
	if s.uploader == nil || respawn.ImageKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*respawn.ImageKey)
	if url != "" {
		respawn.ImageURL = &url
	}
}
