package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/tibia"
)

type requestFixture struct {
	service   RequestService
	points    PointService
	users     *mockUserRepo
	requests  *mockRequestRepo
	ledger    *mockPointRepo
	periods   *mockPeriodRepo
	publisher *mockPublisher
	validator *mockValidator
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()

	users := newMockUserRepo(
		&models.User{ID: 1, Nickname: "hunter", Role: models.RolePlayer, Points: 50},
		&models.User{ID: 2, Nickname: "admin", Role: models.RoleAdmin, Points: 0},
	)
	requests := newMockRequestRepo()
	ledger := &mockPointRepo{}
	periods := newMockPeriodRepo(
		&models.SchedulePeriod{ID: 1, ServerID: 1, Name: "week 1", IsActive: true},
		&models.SchedulePeriod{ID: 2, ServerID: 1, Name: "week 2"},
	)
	publisher := &mockPublisher{}
	validator := &mockValidator{characters: map[string]*tibia.Character{
		"External Druid": {Name: "External Druid", World: "Antica"},
		"Secura Knight":  {Name: "Secura Knight", World: "Secura"},
	}}

	txRunner := &mockTxRunner{}
	points := NewPointService(txRunner, users, ledger)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewRequestService(
		txRunner,
		requests,
		newMockServerRepo(&models.Server{ID: 1, Name: "Antica"}),
		newMockRespawnRepo(&models.Respawn{ID: 1, ServerID: 1, Name: "Dragon Lair", MaxPlayers: 4}),
		newMockSlotRepo(&models.Slot{ID: 1, ServerID: 1, StartTime: "20:00", EndTime: "22:00"}),
		periods,
		newMockCharacterRepo(&models.Character{ID: 1, UserID: 1, Name: "Knight", World: "Antica"}),
		ledger,
		points,
		validator,
		publisher,
		logger,
	)

	return &requestFixture{
		service:   service,
		points:    points,
		users:     users,
		requests:  requests,
		ledger:    ledger,
		periods:   periods,
		publisher: publisher,
		validator: validator,
	}
}

func validDraft() RequestDraft {
	return RequestDraft{
		ServerID:  1,
		RespawnID: 1,
		SlotID:    1,
		PeriodID:  1,
		Party:     []models.PartyMember{{CharacterID: intPtr(1), IsLeader: true}},
	}
}

var (
	asUser  = Identity{UserID: 1}
	asAdmin = Identity{UserID: 2, IsAdmin: true}
)

func (f *requestFixture) mustCreate(t *testing.T, caller Identity, draft RequestDraft) *models.Request {
	t.Helper()
	request, err := f.service.Create(context.Background(), caller, draft)
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}
	return request
}

func (f *requestFixture) balance(t *testing.T, userID int) int {
	t.Helper()
	balance, err := f.points.GetBalance(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetBalance() = %v", err)
	}
	return balance
}

func TestRequestCreate(t *testing.T) {
	f := newRequestFixture(t)

	request := f.mustCreate(t, asUser, validDraft())

	if request.Status != models.RequestStatusPending {
		t.Errorf("status = %q, want %q", request.Status, models.RequestStatusPending)
	}
	if request.UserID != 1 {
		t.Errorf("user id = %d, want 1", request.UserID)
	}
	if got := f.balance(t, 1); got != 50 {
		t.Errorf("balance after create = %d, want 50 (no debit before approval)", got)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].eventType != EventRequestCreated {
		t.Errorf("events = %+v, want one %s", f.publisher.events, EventRequestCreated)
	}
}

func TestRequestCreateBlockedByApprovedTuple(t *testing.T) {
	f := newRequestFixture(t)

	first := f.mustCreate(t, asUser, validDraft())
	if _, err := f.service.Approve(context.Background(), asAdmin, first.ID); err != nil {
		t.Fatalf("Approve() = %v", err)
	}

	_, err := f.service.Create(context.Background(), asUser, validDraft())
	if !errors.Is(err, ErrSlotAlreadyTaken) {
		t.Fatalf("Create() = %v, want ErrSlotAlreadyTaken", err)
	}
}

func TestRequestCreatePendingDoesNotBlock(t *testing.T) {
	f := newRequestFixture(t)

	f.mustCreate(t, asUser, validDraft())
	f.mustCreate(t, asUser, validDraft())
}

func TestRequestCreateExternalMember(t *testing.T) {
	f := newRequestFixture(t)

	draft := validDraft()
	draft.Party = append(draft.Party, models.PartyMember{CharacterName: strPtr("External Druid")})
	f.mustCreate(t, asUser, draft)
}

func TestRequestCreateExternalMemberUnknown(t *testing.T) {
	f := newRequestFixture(t)

	draft := validDraft()
	draft.Party = append(draft.Party, models.PartyMember{CharacterName: strPtr("Nobody")})

	_, err := f.service.Create(context.Background(), asUser, draft)
	if !errors.Is(err, ErrCharacterNotFound) {
		t.Fatalf("Create() = %v, want ErrCharacterNotFound", err)
	}
}

func TestRequestCreateExternalMemberWrongWorld(t *testing.T) {
	f := newRequestFixture(t)

	draft := validDraft()
	draft.Party = append(draft.Party, models.PartyMember{CharacterName: strPtr("Secura Knight")})

	_, err := f.service.Create(context.Background(), asUser, draft)
	if !errors.Is(err, ErrCharacterServerMismatch) {
		t.Fatalf("Create() = %v, want ErrCharacterServerMismatch", err)
	}
}

func TestRequestCreateValidatorUnavailable(t *testing.T) {
	f := newRequestFixture(t)
	f.validator.err = errors.New("api down")

	// Недоступность внешнего API не блокирует заявку.
	draft := validDraft()
	draft.Party = append(draft.Party, models.PartyMember{CharacterName: strPtr("Whoever")})
	f.mustCreate(t, asUser, draft)
}

func TestRequestApprove(t *testing.T) {
	f := newRequestFixture(t)
	request := f.mustCreate(t, asUser, validDraft())

	approved, err := f.service.Approve(context.Background(), asAdmin, request.ID)
	if err != nil {
		t.Fatalf("Approve() = %v", err)
	}
	if approved.Status != models.RequestStatusApproved {
		t.Errorf("status = %q, want %q", approved.Status, models.RequestStatusApproved)
	}
	if got := f.balance(t, 1); got != 40 {
		t.Errorf("balance after approve = %d, want 40", got)
	}
	if got := f.ledger.countByReason(1, models.PointReasonSlotClaim); got != 1 {
		t.Errorf("slot_claim entries = %d, want 1", got)
	}

	balance, ledgerSum, err := f.points.Reconcile(context.Background(), 1)
	if err != nil {
		t.Fatalf("Reconcile() = %v", err)
	}
	if balance-50 != ledgerSum {
		t.Errorf("balance delta %d diverges from ledger sum %d", balance-50, ledgerSum)
	}
}

func TestRequestApproveAdminOnly(t *testing.T) {
	f := newRequestFixture(t)
	request := f.mustCreate(t, asUser, validDraft())

	if _, err := f.service.Approve(context.Background(), asUser, request.ID); !errors.Is(err, ErrAdminOnly) {
		t.Fatalf("Approve() = %v, want ErrAdminOnly", err)
	}
	if _, err := f.service.Reject(context.Background(), asUser, request.ID); !errors.Is(err, ErrAdminOnly) {
		t.Fatalf("Reject() = %v, want ErrAdminOnly", err)
	}
}

func TestRequestApproveInsufficientPoints(t *testing.T) {
	f := newRequestFixture(t)
	f.users.users[1].Points = slotClaimCost - 1

	request := f.mustCreate(t, asUser, validDraft())

	_, err := f.service.Approve(context.Background(), asAdmin, request.ID)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("Approve() = %v, want ErrInsufficientPoints", err)
	}

	// Одобрение откатилось целиком: заявка осталась pending, журнал пуст.
	stored, err := f.service.GetByID(context.Background(), request.ID)
	if err != nil {
		t.Fatalf("GetByID() = %v", err)
	}
	if stored.Status != models.RequestStatusPending {
		t.Errorf("status = %q, want %q", stored.Status, models.RequestStatusPending)
	}
	if got := f.ledger.countByReason(1, models.PointReasonSlotClaim); got != 0 {
		t.Errorf("slot_claim entries = %d, want 0", got)
	}
}

func TestRequestApproveConcurrentSameTuple(t *testing.T) {
	f := newRequestFixture(t)

	first := f.mustCreate(t, asUser, validDraft())
	second := f.mustCreate(t, asUser, validDraft())

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []int{first.ID, second.ID} {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			_, errs[i] = f.service.Approve(context.Background(), asAdmin, id)
		}(i, id)
	}
	wg.Wait()

	var approved, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			approved++
		case errors.Is(err, ErrSlotAlreadyTaken):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if approved != 1 || conflicted != 1 {
		t.Fatalf("approved = %d, conflicted = %d, want exactly one of each", approved, conflicted)
	}
	if got := f.balance(t, 1); got != 50-slotClaimCost {
		t.Errorf("balance = %d, want %d (single debit)", got, 50-slotClaimCost)
	}
	if got := f.ledger.countByReason(1, models.PointReasonSlotClaim); got != 1 {
		t.Errorf("slot_claim entries = %d, want 1", got)
	}
}

func TestRequestSameTupleDifferentPeriods(t *testing.T) {
	f := newRequestFixture(t)

	first := f.mustCreate(t, asUser, validDraft())

	otherPeriod := validDraft()
	otherPeriod.PeriodID = 2
	second := f.mustCreate(t, asUser, otherPeriod)

	if _, err := f.service.Approve(context.Background(), asAdmin, first.ID); err != nil {
		t.Fatalf("Approve(first) = %v", err)
	}
	if _, err := f.service.Approve(context.Background(), asAdmin, second.ID); err != nil {
		t.Fatalf("Approve(second) = %v, different periods must not conflict", err)
	}
}

func TestRequestRejectTouchesNoPoints(t *testing.T) {
	f := newRequestFixture(t)
	request := f.mustCreate(t, asUser, validDraft())

	rejected, err := f.service.Reject(context.Background(), asAdmin, request.ID)
	if err != nil {
		t.Fatalf("Reject() = %v", err)
	}
	if rejected.Status != models.RequestStatusRejected {
		t.Errorf("status = %q, want %q", rejected.Status, models.RequestStatusRejected)
	}
	if got := f.balance(t, 1); got != 50 {
		t.Errorf("balance = %d, want 50", got)
	}
	if len(f.ledger.txs) != 0 {
		t.Errorf("ledger has %d entries, want 0", len(f.ledger.txs))
	}
}

func TestRequestCancelPending(t *testing.T) {
	f := newRequestFixture(t)
	request := f.mustCreate(t, asUser, validDraft())

	cancelled, err := f.service.Cancel(context.Background(), asUser, request.ID)
	if err != nil {
		t.Fatalf("Cancel() = %v", err)
	}
	if cancelled.Status != models.RequestStatusCancelled {
		t.Errorf("status = %q, want %q", cancelled.Status, models.RequestStatusCancelled)
	}
	if len(f.ledger.txs) != 0 {
		t.Errorf("ledger has %d entries, want 0 (pending cancel is free)", len(f.ledger.txs))
	}
}

func TestRequestCancelApprovedRefunds(t *testing.T) {
	f := newRequestFixture(t)
	request := f.mustCreate(t, asUser, validDraft())

	if _, err := f.service.Approve(context.Background(), asAdmin, request.ID); err != nil {
		t.Fatalf("Approve() = %v", err)
	}
	if got := f.balance(t, 1); got != 40 {
		t.Fatalf("balance after approve = %d, want 40", got)
	}

	if _, err := f.service.Cancel(context.Background(), asUser, request.ID); err != nil {
		t.Fatalf("Cancel() = %v", err)
	}
	if got := f.balance(t, 1); got != 50 {
		t.Errorf("balance after refund = %d, want 50", got)
	}
	if got := f.ledger.countByReason(1, models.PointReasonSlotRefund); got != 1 {
		t.Errorf("slot_refund entries = %d, want 1", got)
	}

	// Освобождённый кортеж можно занять заново.
	again := f.mustCreate(t, asUser, validDraft())
	if _, err := f.service.Approve(context.Background(), asAdmin, again.ID); err != nil {
		t.Fatalf("Approve() after cancel = %v", err)
	}
}

func TestRequestCancelForbiddenForStranger(t *testing.T) {
	f := newRequestFixture(t)
	request := f.mustCreate(t, asUser, validDraft())

	stranger := Identity{UserID: 99}
	if _, err := f.service.Cancel(context.Background(), stranger, request.ID); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("Cancel() = %v, want ErrForbiddenOperation", err)
	}

	// Администратор может отменить чужую заявку.
	if _, err := f.service.Cancel(context.Background(), asAdmin, request.ID); err != nil {
		t.Fatalf("Cancel() by admin = %v", err)
	}
}

func TestRequestInvalidTransitions(t *testing.T) {
	f := newRequestFixture(t)
	request := f.mustCreate(t, asUser, validDraft())

	if _, err := f.service.Reject(context.Background(), asAdmin, request.ID); err != nil {
		t.Fatalf("Reject() = %v", err)
	}

	if _, err := f.service.Approve(context.Background(), asAdmin, request.ID); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("Approve() after reject = %v, want ErrInvalidStateTransition", err)
	}
	if _, err := f.service.Cancel(context.Background(), asUser, request.ID); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("Cancel() after reject = %v, want ErrInvalidStateTransition", err)
	}
}

func TestRequestNotFound(t *testing.T) {
	f := newRequestFixture(t)

	if _, err := f.service.GetByID(context.Background(), 42); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("GetByID() = %v, want ErrRequestNotFound", err)
	}
	if _, err := f.service.Approve(context.Background(), asAdmin, 42); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("Approve() = %v, want ErrRequestNotFound", err)
	}
}
