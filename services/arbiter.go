package services

import (
	"github.com/Dosada05/hunt-reservation/models"
)

// RequestDraft — кандидат на бронь до записи в БД.
type RequestDraft struct {
	UserID    int
	ServerID  int
	RespawnID int
	SlotID    int
	PeriodID  int
	Party     []models.PartyMember
}

// ArbiterInput — всё, что арбитру нужно знать о мире. Загрузку делает
// вызывающая сторона; сам арбитр никуда не ходит.
type ArbiterInput struct {
	Server  *models.Server
	Respawn *models.Respawn
	Slot    *models.Slot
	Period  *models.SchedulePeriod
	// Characters — зарегистрированные персонажи, на которых ссылаются
	// участники пати (по CharacterID).
	Characters map[int]*models.Character
	// Existing — заявки на тот же (респаун, слот, период).
	Existing []*models.Request
}

// ConflictArbiter — чистая логика допуска заявки: ссылочная целостность,
// валидация пати, коллизия с одобренной заявкой. Побочных эффектов нет;
// запись и повторная проверка на гонку — обязанность RequestService, который
// выполняет их в транзакции с уникальным индексом в БД.
type ConflictArbiter struct{}

// Evaluate возвращает nil, если заявку можно записать, иначе — типизированную
// ошибку NotFound/Validation/Conflict.
func (ConflictArbiter) Evaluate(draft RequestDraft, in ArbiterInput) error {
	if err := checkReferences(draft, in); err != nil {
		return err
	}
	if err := checkParty(draft, in); err != nil {
		return err
	}
	// Блокирует слот только ОДОБРЕННАЯ заявка: pending-заявки не мешают
	// подавать новые, их судьбу решит администратор.
	for _, existing := range in.Existing {
		if existing.Status == models.RequestStatusApproved {
			return ErrSlotAlreadyTaken
		}
	}
	return nil
}

func checkReferences(draft RequestDraft, in ArbiterInput) error {
	if in.Server == nil {
		return ErrServerNotFound
	}
	if in.Respawn == nil {
		return ErrRespawnNotFound
	}
	if in.Slot == nil {
		return ErrSlotNotFound
	}
	if in.Period == nil {
		return ErrPeriodNotFound
	}
	if in.Respawn.ServerID != draft.ServerID {
		return ErrRespawnServerMismatch
	}
	if in.Slot.ServerID != draft.ServerID {
		return ErrSlotServerMismatch
	}
	if in.Period.ServerID != draft.ServerID {
		return ErrPeriodServerMismatch
	}
	return nil
}

func checkParty(draft RequestDraft, in ArbiterInput) error {
	if len(draft.Party) == 0 {
		return ErrPartyEmpty
	}
	if len(draft.Party) > in.Respawn.MaxPlayers {
		return ErrPartyTooLarge
	}

	leaders := 0
	for _, m := range draft.Party {
		if m.IsLeader {
			leaders++
		}
		switch {
		case m.Known() && m.CharacterName != nil:
			return ErrPartyMemberAmbiguous
		case !m.Known() && !m.External():
			return ErrPartyMemberAmbiguous
		case m.Known():
			character, ok := in.Characters[*m.CharacterID]
			if !ok {
				return ErrCharacterNotFound
			}
			if character.UserID != draft.UserID {
				return ErrCharacterNotOwned
			}
			if character.World != in.Server.Name {
				return ErrCharacterServerMismatch
			}
		}
	}
	if leaders != 1 {
		return ErrPartyLeaderRequired
	}
	return nil
}
