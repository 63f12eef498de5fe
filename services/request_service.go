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

// Стоимость одобренной брони в очках. Списывается при одобрении,
// возвращается целиком при отмене одобренной заявки.
const slotClaimCost = 10

// События, рассылаемые в комнату сервера после коммита.
const (
	EventRequestCreated   = "REQUEST_CREATED"
	EventRequestApproved  = "REQUEST_APPROVED"
	EventRequestRejected  = "REQUEST_REJECTED"
	EventRequestCancelled = "REQUEST_CANCELLED"
)

// EventPublisher — уведомления о смене статуса заявок. Fire-and-forget:
// доставка не влияет на корректность операции.
type EventPublisher interface {
	PublishServerEvent(serverID int, eventType string, payload interface{})
}

// CharacterValidator — внешняя проверка существования персонажа.
// Справочный факт, не авторитетное хранилище.
type CharacterValidator interface {
	ValidateCharacter(ctx context.Context, name string) (*tibia.Character, error)
}

type RequestService interface {
	Create(ctx context.Context, caller Identity, draft RequestDraft) (*models.Request, error)
	GetByID(ctx context.Context, id int) (*models.Request, error)
	List(ctx context.Context, filter repositories.RequestFilter) ([]*models.Request, error)
	Approve(ctx context.Context, caller Identity, requestID int) (*models.Request, error)
	Reject(ctx context.Context, caller Identity, requestID int) (*models.Request, error)
	Cancel(ctx context.Context, caller Identity, requestID int) (*models.Request, error)
}

type requestService struct {
	txRunner      repositories.TxRunner
	requestRepo   repositories.RequestRepository
	serverRepo    repositories.ServerRepository
	respawnRepo   repositories.RespawnRepository
	slotRepo      repositories.SlotRepository
	periodRepo    repositories.PeriodRepository
	characterRepo repositories.CharacterRepository
	pointRepo     repositories.PointRepository
	points        PointService
	arbiter       ConflictArbiter
	validator     CharacterValidator // может быть nil
	events        EventPublisher     // может быть nil
	logger        *slog.Logger
}

func NewRequestService(
	txRunner repositories.TxRunner,
	requestRepo repositories.RequestRepository,
	serverRepo repositories.ServerRepository,
	respawnRepo repositories.RespawnRepository,
	slotRepo repositories.SlotRepository,
	periodRepo repositories.PeriodRepository,
	characterRepo repositories.CharacterRepository,
	pointRepo repositories.PointRepository,
	points PointService,
	validator CharacterValidator,
	events EventPublisher,
	logger *slog.Logger,
) RequestService {
	return &requestService{
		txRunner:      txRunner,
		requestRepo:   requestRepo,
		serverRepo:    serverRepo,
		respawnRepo:   respawnRepo,
		slotRepo:      slotRepo,
		periodRepo:    periodRepo,
		characterRepo: characterRepo,
		pointRepo:     pointRepo,
		points:        points,
		validator:     validator,
		events:        events,
		logger:        logger,
	}
}

func (s *requestService) publish(serverID int, eventType string, payload interface{}) {
	if s.events != nil {
		s.events.PublishServerEvent(serverID, eventType, payload)
	}
}

// loadArbiterInput собирает вход арбитра. Отсутствующие сущности остаются
// nil-полями: их превращение в NotFound — дело арбитра.
func (s *requestService) loadArbiterInput(ctx context.Context, draft RequestDraft) (ArbiterInput, error) {
	var in ArbiterInput
	var err error

	in.Server, err = s.serverRepo.GetByID(ctx, draft.ServerID)
	if err != nil && !errors.Is(err, repositories.ErrServerNotFound) {
		return in, fmt.Errorf("failed to load server %d: %w", draft.ServerID, err)
	}
	in.Respawn, err = s.respawnRepo.GetByID(ctx, draft.RespawnID)
	if err != nil && !errors.Is(err, repositories.ErrRespawnNotFound) {
		return in, fmt.Errorf("failed to load respawn %d: %w", draft.RespawnID, err)
	}
	in.Slot, err = s.slotRepo.GetByID(ctx, draft.SlotID)
	if err != nil && !errors.Is(err, repositories.ErrSlotNotFound) {
		return in, fmt.Errorf("failed to load slot %d: %w", draft.SlotID, err)
	}
	in.Period, err = s.periodRepo.GetByID(ctx, draft.PeriodID)
	if err != nil && !errors.Is(err, repositories.ErrPeriodNotFound) {
		return in, fmt.Errorf("failed to load period %d: %w", draft.PeriodID, err)
	}

	in.Characters = make(map[int]*models.Character)
	for _, m := range draft.Party {
		if !m.Known() {
			continue
		}
		character, err := s.characterRepo.GetByID(ctx, *m.CharacterID)
		if err != nil {
			if errors.Is(err, repositories.ErrCharacterNotFound) {
				continue // арбитр вернёт ErrCharacterNotFound
			}
			return in, fmt.Errorf("failed to load character %d: %w", *m.CharacterID, err)
		}
		in.Characters[character.ID] = character
	}

	in.Existing, err = s.requestRepo.ListByTuple(ctx, nil, draft.RespawnID, draft.SlotID, draft.PeriodID)
	if err != nil {
		return in, fmt.Errorf("failed to load existing requests: %w", err)
	}
	return in, nil
}

// validateExternalMembers сверяет внешних участников с игровым API: персонаж
// должен существовать и находиться в мире сервера заявки. Недоступность API
// не блокирует заявку — это справочная проверка.
func (s *requestService) validateExternalMembers(ctx context.Context, draft RequestDraft, server *models.Server) error {
	if s.validator == nil {
		return nil
	}
	for _, m := range draft.Party {
		if !m.External() {
			continue
		}
		info, err := s.validator.ValidateCharacter(ctx, *m.CharacterName)
		if err != nil {
			if errors.Is(err, tibia.ErrCharacterNotFound) {
				return ErrCharacterNotFound
			}
			s.logger.Warn("character validator unavailable, skipping external check",
				slog.String("character", *m.CharacterName), slog.Any("error", err))
			continue
		}
		if info.World != server.Name {
			return ErrCharacterServerMismatch
		}
	}
	return nil
}

func (s *requestService) Create(ctx context.Context, caller Identity, draft RequestDraft) (*models.Request, error) {
	draft.UserID = caller.UserID

	in, err := s.loadArbiterInput(ctx, draft)
	if err != nil {
		return nil, err
	}
	if err := s.arbiter.Evaluate(draft, in); err != nil {
		return nil, err
	}
	if err := s.validateExternalMembers(ctx, draft, in.Server); err != nil {
		return nil, err
	}

	request := &models.Request{
		UserID:    draft.UserID,
		ServerID:  draft.ServerID,
		RespawnID: draft.RespawnID,
		SlotID:    draft.SlotID,
		PeriodID:  draft.PeriodID,
		Status:    models.RequestStatusPending,
		Party:     draft.Party,
	}

	err = s.txRunner.RunInTx(ctx, func(q repositories.SQLExecutor) error {
		// Повторная проверка внутри транзакции: конкурентное одобрение могло
		// занять слот между Evaluate и этим моментом.
		existing, err := s.requestRepo.ListByTuple(ctx, q, draft.RespawnID, draft.SlotID, draft.PeriodID)
		if err != nil {
			return fmt.Errorf("failed to re-check tuple: %w", err)
		}
		for _, e := range existing {
			if e.Status == models.RequestStatusApproved {
				return ErrSlotAlreadyTaken
			}
		}
		if err := s.requestRepo.Create(ctx, q, request); err != nil {
			switch {
			case errors.Is(err, repositories.ErrRequestSlotConflict):
				return ErrSlotAlreadyTaken
			case errors.Is(err, repositories.ErrRequestInvalidRef):
				return ErrNotFound
			}
			return fmt.Errorf("failed to persist request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(request.ServerID, EventRequestCreated, request)
	return request, nil
}

func (s *requestService) GetByID(ctx context.Context, id int) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, nil, id, false)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request %d: %w", id, err)
	}
	return request, nil
}

func (s *requestService) List(ctx context.Context, filter repositories.RequestFilter) ([]*models.Request, error) {
	requests, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}

// transition переводит заявку в target внутри одной транзакции, применяя
// sideEffects (списание/возврат очков) до смены статуса.
func (s *requestService) transition(
	ctx context.Context,
	requestID int,
	target models.RequestStatus,
	authorize func(request *models.Request) error,
	sideEffects func(q repositories.SQLExecutor, request *models.Request) error,
) (*models.Request, error) {
	var result *models.Request

	err := s.txRunner.RunInTx(ctx, func(q repositories.SQLExecutor) error {
		request, err := s.requestRepo.GetByID(ctx, q, requestID, true)
		if err != nil {
			if errors.Is(err, repositories.ErrRequestNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("failed to lock request %d: %w", requestID, err)
		}
		if authorize != nil {
			if err := authorize(request); err != nil {
				return err
			}
		}
		if !request.Status.CanTransitionTo(target) {
			return ErrInvalidStateTransition
		}
		if sideEffects != nil {
			if err := sideEffects(q, request); err != nil {
				return err
			}
		}
		if err := s.requestRepo.UpdateStatus(ctx, q, requestID, target); err != nil {
			if errors.Is(err, repositories.ErrRequestSlotConflict) {
				return ErrSlotAlreadyTaken
			}
			return fmt.Errorf("failed to update request %d status: %w", requestID, err)
		}
		request.Status = target
		result = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *requestService) Approve(ctx context.Context, caller Identity, requestID int) (*models.Request, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}

	request, err := s.transition(ctx, requestID, models.RequestStatusApproved, nil,
		func(q repositories.SQLExecutor, request *models.Request) error {
			// Защитная повторная проверка уникальности. Решающее слово всё
			// равно за частичным индексом в UpdateStatus.
			existing, err := s.requestRepo.ListByTuple(ctx, q, request.RespawnID, request.SlotID, request.PeriodID)
			if err != nil {
				return fmt.Errorf("failed to re-check approved tuple: %w", err)
			}
			for _, e := range existing {
				if e.ID != request.ID && e.Status == models.RequestStatusApproved {
					return ErrSlotAlreadyTaken
				}
			}
			// Списание в той же транзакции: при нехватке очков одобрение
			// откатывается целиком и заявка остаётся pending.
			_, err = s.points.DebitTx(ctx, q, request.UserID, slotClaimCost, models.PointReasonSlotClaim, &request.ID, nil)
			return err
		})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request approved",
		slog.Int("request_id", request.ID),
		slog.Int("admin_id", caller.UserID),
		slog.Int("user_id", request.UserID))
	s.publish(request.ServerID, EventRequestApproved, request)
	return request, nil
}

func (s *requestService) Reject(ctx context.Context, caller Identity, requestID int) (*models.Request, error) {
	if !caller.IsAdmin {
		return nil, ErrAdminOnly
	}

	// До одобрения списаний не было, поэтому отклонение журнал очков не трогает.
	request, err := s.transition(ctx, requestID, models.RequestStatusRejected, nil, nil)
	if err != nil {
		return nil, err
	}

	s.publish(request.ServerID, EventRequestRejected, request)
	return request, nil
}

func (s *requestService) Cancel(ctx context.Context, caller Identity, requestID int) (*models.Request, error) {
	request, err := s.transition(ctx, requestID, models.RequestStatusCancelled,
		func(request *models.Request) error {
			if !caller.CanActFor(request.UserID) {
				return ErrForbiddenOperation
			}
			return nil
		},
		func(q repositories.SQLExecutor, request *models.Request) error {
			if request.Status != models.RequestStatusApproved {
				return nil
			}
			// Возврат ровно того, что было списано при одобрении.
			debit, err := s.pointsDebitFor(ctx, q, request.ID)
			if err != nil {
				return err
			}
			_, err = s.points.CreditTx(ctx, q, request.UserID, abs(debit.Amount), models.PointReasonSlotRefund, &request.ID, nil)
			return err
		})
	if err != nil {
		return nil, err
	}

	s.publish(request.ServerID, EventRequestCancelled, request)
	return request, nil
}

func (s *requestService) pointsDebitFor(ctx context.Context, q repositories.SQLExecutor, requestID int) (*models.PointTransaction, error) {
	debit, err := s.pointRepo.FindByRequestAndReason(ctx, q, requestID, models.PointReasonSlotClaim)
	if err != nil {
		if errors.Is(err, repositories.ErrPointTransactionNotFound) {
			// Одобренная заявка без списания — рассинхрон журнала, не глотаем.
			return nil, fmt.Errorf("no slot_claim debit recorded for approved request %d: %w", requestID, err)
		}
		return nil, fmt.Errorf("failed to find debit for request %d: %w", requestID, err)
	}
	return debit, nil
}
