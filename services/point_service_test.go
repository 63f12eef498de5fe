package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/hunt-reservation/models"
)

type pointFixture struct {
	service PointService
	users   *mockUserRepo
	ledger  *mockPointRepo
}

func newPointFixture(t *testing.T, startBalance int) *pointFixture {
	t.Helper()
	users := newMockUserRepo(
		&models.User{ID: 1, Nickname: "hunter", Role: models.RolePlayer, Points: startBalance},
	)
	ledger := &mockPointRepo{}
	return &pointFixture{
		service: NewPointService(&mockTxRunner{}, users, ledger),
		users:   users,
		ledger:  ledger,
	}
}

// reconcile падает, если кэшированный баланс разошёлся с суммой журнала
// относительно стартового значения.
func (f *pointFixture) reconcile(t *testing.T, startBalance int) {
	t.Helper()
	balance, sum, err := f.service.Reconcile(context.Background(), 1)
	if err != nil {
		t.Fatalf("Reconcile() = %v", err)
	}
	if balance-startBalance != sum {
		t.Fatalf("balance delta %d diverges from ledger sum %d", balance-startBalance, sum)
	}
}

func TestPointDebitCreditRoundTrip(t *testing.T) {
	f := newPointFixture(t, 30)
	ctx := context.Background()

	debit, err := f.service.DebitTx(ctx, nil, 1, 10, models.PointReasonSlotClaim, intPtr(1), nil)
	if err != nil {
		t.Fatalf("DebitTx() = %v", err)
	}
	if debit.Amount != -10 {
		t.Errorf("debit amount = %d, want -10", debit.Amount)
	}
	f.reconcile(t, 30)

	credit, err := f.service.CreditTx(ctx, nil, 1, 10, models.PointReasonSlotRefund, intPtr(1), nil)
	if err != nil {
		t.Fatalf("CreditTx() = %v", err)
	}
	if credit.Amount != 10 {
		t.Errorf("credit amount = %d, want 10", credit.Amount)
	}
	f.reconcile(t, 30)

	balance, err := f.service.GetBalance(ctx, 1)
	if err != nil {
		t.Fatalf("GetBalance() = %v", err)
	}
	if balance != 30 {
		t.Errorf("balance = %d, want 30", balance)
	}
}

func TestPointDebitInsufficient(t *testing.T) {
	f := newPointFixture(t, 5)

	_, err := f.service.DebitTx(context.Background(), nil, 1, 10, models.PointReasonSlotClaim, nil, nil)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("DebitTx() = %v, want ErrInsufficientPoints", err)
	}
	// Отказ по балансу не оставляет следов в журнале.
	if len(f.ledger.txs) != 0 {
		t.Errorf("ledger has %d entries, want 0", len(f.ledger.txs))
	}
	f.reconcile(t, 5)
}

func TestPointDebitToZeroAllowed(t *testing.T) {
	f := newPointFixture(t, 10)

	if _, err := f.service.DebitTx(context.Background(), nil, 1, 10, models.PointReasonSlotClaim, nil, nil); err != nil {
		t.Fatalf("DebitTx() = %v", err)
	}
	balance, err := f.service.GetBalance(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetBalance() = %v", err)
	}
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
}

func TestPointZeroAmountRejected(t *testing.T) {
	f := newPointFixture(t, 10)
	ctx := context.Background()

	if _, err := f.service.DebitTx(ctx, nil, 1, 0, models.PointReasonSlotClaim, nil, nil); !errors.Is(err, ErrPointAmountInvalid) {
		t.Errorf("DebitTx(0) = %v, want ErrPointAmountInvalid", err)
	}
	if _, err := f.service.CreditTx(ctx, nil, 1, 0, models.PointReasonSlotRefund, nil, nil); !errors.Is(err, ErrPointAmountInvalid) {
		t.Errorf("CreditTx(0) = %v, want ErrPointAmountInvalid", err)
	}
}

func TestPointGrant(t *testing.T) {
	f := newPointFixture(t, 0)
	ctx := context.Background()

	granted, err := f.service.Grant(ctx, asAdmin, 1, 25)
	if err != nil {
		t.Fatalf("Grant() = %v", err)
	}
	if granted.Amount != 25 || granted.Reason != models.PointReasonAdminGrant {
		t.Errorf("granted = %+v, want amount 25 reason %s", granted, models.PointReasonAdminGrant)
	}
	f.reconcile(t, 0)

	if _, err := f.service.Grant(ctx, asUser, 1, 25); !errors.Is(err, ErrAdminOnly) {
		t.Errorf("Grant() by player = %v, want ErrAdminOnly", err)
	}
	if _, err := f.service.Grant(ctx, asAdmin, 1, -5); !errors.Is(err, ErrPointAmountInvalid) {
		t.Errorf("Grant(-5) = %v, want ErrPointAmountInvalid", err)
	}
}

func TestPointListTransactions(t *testing.T) {
	f := newPointFixture(t, 100)
	ctx := context.Background()

	if _, err := f.service.DebitTx(ctx, nil, 1, 10, models.PointReasonSlotClaim, intPtr(1), nil); err != nil {
		t.Fatalf("DebitTx() = %v", err)
	}

	txs, err := f.service.ListTransactions(ctx, asUser, 1, 0, 0)
	if err != nil {
		t.Fatalf("ListTransactions() = %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}

	stranger := Identity{UserID: 99}
	if _, err := f.service.ListTransactions(ctx, stranger, 1, 0, 0); !errors.Is(err, ErrForbiddenOperation) {
		t.Errorf("ListTransactions() by stranger = %v, want ErrForbiddenOperation", err)
	}
	if _, err := f.service.ListTransactions(ctx, asAdmin, 1, 0, 0); err != nil {
		t.Errorf("ListTransactions() by admin = %v", err)
	}
}

func TestPointListTransactionsClampsPaging(t *testing.T) {
	f := newPointFixture(t, 100)
	ctx := context.Background()

	// Отрицательные и завышенные значения не должны дойти до LIMIT/OFFSET.
	if _, err := f.service.ListTransactions(ctx, asUser, 1, -5, -1); err != nil {
		t.Fatalf("ListTransactions() = %v", err)
	}
	if f.ledger.lastLimit != 50 {
		t.Errorf("limit passed to storage = %d, want 50", f.ledger.lastLimit)
	}
	if f.ledger.lastOffset != 0 {
		t.Errorf("offset passed to storage = %d, want 0", f.ledger.lastOffset)
	}

	if _, err := f.service.ListTransactions(ctx, asUser, 1, 500, 20); err != nil {
		t.Fatalf("ListTransactions() = %v", err)
	}
	if f.ledger.lastLimit != 50 || f.ledger.lastOffset != 20 {
		t.Errorf("storage got limit=%d offset=%d, want 50/20", f.ledger.lastLimit, f.ledger.lastOffset)
	}
}

func TestPointUnknownUser(t *testing.T) {
	f := newPointFixture(t, 0)
	ctx := context.Background()

	if _, err := f.service.GetBalance(ctx, 42); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetBalance() = %v, want ErrUserNotFound", err)
	}
	if _, err := f.service.CreditTx(ctx, nil, 42, 5, models.PointReasonAdminGrant, nil, nil); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("CreditTx() = %v, want ErrUserNotFound", err)
	}
}
