package services

import (
	"errors"
	"testing"

	"github.com/Dosada05/hunt-reservation/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func arbiterFixture() (RequestDraft, ArbiterInput) {
	draft := RequestDraft{
		UserID:    1,
		ServerID:  1,
		RespawnID: 1,
		SlotID:    1,
		PeriodID:  1,
		Party: []models.PartyMember{
			{CharacterID: intPtr(1), IsLeader: true},
		},
	}
	in := ArbiterInput{
		Server:  &models.Server{ID: 1, Name: "Antica"},
		Respawn: &models.Respawn{ID: 1, ServerID: 1, MaxPlayers: 4},
		Slot:    &models.Slot{ID: 1, ServerID: 1, StartTime: "20:00", EndTime: "22:00"},
		Period:  &models.SchedulePeriod{ID: 1, ServerID: 1},
		Characters: map[int]*models.Character{
			1: {ID: 1, UserID: 1, Name: "Knight", World: "Antica"},
		},
	}
	return draft, in
}

func TestArbiterEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(draft *RequestDraft, in *ArbiterInput)
		wantErr error
	}{
		{
			name:    "valid draft",
			mutate:  func(draft *RequestDraft, in *ArbiterInput) {},
			wantErr: nil,
		},
		{
			name:    "missing server",
			mutate:  func(draft *RequestDraft, in *ArbiterInput) { in.Server = nil },
			wantErr: ErrServerNotFound,
		},
		{
			name:    "missing respawn",
			mutate:  func(draft *RequestDraft, in *ArbiterInput) { in.Respawn = nil },
			wantErr: ErrRespawnNotFound,
		},
		{
			name:    "missing slot",
			mutate:  func(draft *RequestDraft, in *ArbiterInput) { in.Slot = nil },
			wantErr: ErrSlotNotFound,
		},
		{
			name:    "missing period",
			mutate:  func(draft *RequestDraft, in *ArbiterInput) { in.Period = nil },
			wantErr: ErrPeriodNotFound,
		},
		{
			name:    "respawn from another server",
			mutate:  func(draft *RequestDraft, in *ArbiterInput) { in.Respawn.ServerID = 2 },
			wantErr: ErrRespawnServerMismatch,
		},
		{
			name:    "slot from another server",
			mutate:  func(draft *RequestDraft, in *ArbiterInput) { in.Slot.ServerID = 2 },
			wantErr: ErrSlotServerMismatch,
		},
		{
			name:    "period from another server",
			mutate:  func(draft *RequestDraft, in *ArbiterInput) { in.Period.ServerID = 2 },
			wantErr: ErrPeriodServerMismatch,
		},
		{
			name:    "empty party",
			mutate:  func(draft *RequestDraft, in *ArbiterInput) { draft.Party = nil },
			wantErr: ErrPartyEmpty,
		},
		{
			name: "party exceeds respawn limit",
			mutate: func(draft *RequestDraft, in *ArbiterInput) {
				in.Respawn.MaxPlayers = 1
				draft.Party = append(draft.Party, models.PartyMember{CharacterName: strPtr("Stranger")})
			},
			wantErr: ErrPartyTooLarge,
		},
		{
			name: "no leader",
			mutate: func(draft *RequestDraft, in *ArbiterInput) {
				draft.Party[0].IsLeader = false
			},
			wantErr: ErrPartyLeaderRequired,
		},
		{
			name: "two leaders",
			mutate: func(draft *RequestDraft, in *ArbiterInput) {
				draft.Party = append(draft.Party, models.PartyMember{CharacterName: strPtr("Stranger"), IsLeader: true})
			},
			wantErr: ErrPartyLeaderRequired,
		},
		{
			name: "member with both id and name",
			mutate: func(draft *RequestDraft, in *ArbiterInput) {
				draft.Party[0].CharacterName = strPtr("Knight")
			},
			wantErr: ErrPartyMemberAmbiguous,
		},
		{
			name: "member with neither id nor name",
			mutate: func(draft *RequestDraft, in *ArbiterInput) {
				draft.Party = append(draft.Party, models.PartyMember{})
			},
			wantErr: ErrPartyMemberAmbiguous,
		},
		{
			name: "unknown character",
			mutate: func(draft *RequestDraft, in *ArbiterInput) {
				draft.Party[0].CharacterID = intPtr(99)
			},
			wantErr: ErrCharacterNotFound,
		},
		{
			name: "character of another user",
			mutate: func(draft *RequestDraft, in *ArbiterInput) {
				in.Characters[1].UserID = 2
			},
			wantErr: ErrCharacterNotOwned,
		},
		{
			name: "character from another world",
			mutate: func(draft *RequestDraft, in *ArbiterInput) {
				in.Characters[1].World = "Secura"
			},
			wantErr: ErrCharacterServerMismatch,
		},
		{
			name: "approved request blocks the tuple",
			mutate: func(draft *RequestDraft, in *ArbiterInput) {
				in.Existing = []*models.Request{{ID: 7, Status: models.RequestStatusApproved}}
			},
			wantErr: ErrSlotAlreadyTaken,
		},
		{
			name: "pending requests do not block",
			mutate: func(draft *RequestDraft, in *ArbiterInput) {
				in.Existing = []*models.Request{
					{ID: 7, Status: models.RequestStatusPending},
					{ID: 8, Status: models.RequestStatusRejected},
					{ID: 9, Status: models.RequestStatusCancelled},
				}
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, in := arbiterFixture()
			tt.mutate(&draft, &in)

			err := ConflictArbiter{}.Evaluate(draft, in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Evaluate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestArbiterExternalMembersAllowed(t *testing.T) {
	draft, in := arbiterFixture()
	draft.Party = append(draft.Party,
		models.PartyMember{CharacterName: strPtr("Random Knight")},
		models.PartyMember{CharacterName: strPtr("Random Druid")},
	)

	if err := (ConflictArbiter{}).Evaluate(draft, in); err != nil {
		t.Fatalf("Evaluate() = %v, want nil", err)
	}
}
