package models

import "time"

// Причины движения очков. Reason в транзакции — бизнес-причина записи,
// знак суммы определяет направление.
const (
	PointReasonSlotClaim   = "slot_claim"
	PointReasonSlotRefund  = "slot_refund"
	PointReasonClaimHold   = "claim_hold"
	PointReasonClaimRefund = "claim_refund"
	PointReasonAdminGrant  = "admin_grant"
)

// PointTransaction — запись журнала очков. Журнал append-only: записи никогда
// не изменяются и не удаляются, исправления делаются обратной проводкой.
type PointTransaction struct {
	ID               int       `json:"id"`
	UserID           int       `json:"user_id"`
	Amount           int       `json:"amount"` // со знаком: дебет < 0, кредит > 0
	Reason           string    `json:"reason"`
	RelatedRequestID *int      `json:"related_request_id,omitempty"`
	RelatedClaimID   *int      `json:"related_claim_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ClaimStatus представляет статусы заявки на списание очков.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusRejected ClaimStatus = "rejected"
)

var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimStatusPending: {ClaimStatusApproved, ClaimStatusRejected},
}

func (s ClaimStatus) CanTransitionTo(target ClaimStatus) bool {
	for _, t := range claimTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// PointClaim — заявка на погашение очков. Очки списываются сразу при создании
// и возвращаются обратной проводкой, если администратор отклонил заявку.
type PointClaim struct {
	ID          int         `json:"id"`
	UserID      int         `json:"user_id"`
	Amount      int         `json:"amount"` // всегда > 0
	Description string      `json:"description"`
	Status      ClaimStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
