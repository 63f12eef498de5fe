package models

import "time"

// RequestStatus представляет статусы заявки, соответствующие ENUM в БД.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// requestTransitions — закрытая таблица допустимых переходов.
// Терминальные статусы не переоткрываются; единственное исключение —
// одобренную заявку можно отменить (с возвратом очков).
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:  {RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled},
	RequestStatusApproved: {RequestStatusCancelled},
}

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo сообщает, разрешён ли переход в статус target.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	for _, t := range requestTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Terminal сообщает, является ли статус конечным для пользовательских действий.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusRejected || s == RequestStatusCancelled
}

// PartyMember — участник пати в заявке. Ровно одно из двух полей задано:
// CharacterID для персонажа, зарегистрированного в системе, CharacterName —
// для внешнего персонажа, указанного свободным текстом.
type PartyMember struct {
	ID            int     `json:"id"`
	RequestID     int     `json:"request_id"`
	CharacterID   *int    `json:"character_id,omitempty"`
	CharacterName *string `json:"character_name,omitempty"`
	RoleInParty   *string `json:"role_in_party,omitempty"`
	IsLeader      bool    `json:"is_leader"`
}

// Known сообщает, ссылается ли участник на зарегистрированного персонажа.
func (m PartyMember) Known() bool { return m.CharacterID != nil }

// External сообщает, указан ли участник внешним именем.
func (m PartyMember) External() bool { return m.CharacterID == nil && m.CharacterName != nil }

// Request — заявка на бронь (сервер, респаун, слот, период).
// Записи не удаляются, только переводятся по статусам: история заявок и есть
// аудиторский след.
type Request struct {
	ID        int           `json:"id"`
	UserID    int           `json:"user_id"`
	ServerID  int           `json:"server_id"`
	RespawnID int           `json:"respawn_id"`
	SlotID    int           `json:"slot_id"`
	PeriodID  int           `json:"period_id"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	Party []PartyMember `json:"party_members,omitempty"`

	// Опциональные связанные сущности (не мапятся напрямую)
	User    *User           `json:"user,omitempty"`
	Respawn *Respawn        `json:"respawn,omitempty"`
	Slot    *Slot           `json:"slot,omitempty"`
	Period  *SchedulePeriod `json:"period,omitempty"`
}
