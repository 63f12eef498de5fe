package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dosada05/hunt-reservation/models"
)

func newPeriodFixture(t *testing.T, periods ...*models.SchedulePeriod) (PeriodService, *mockPeriodRepo) {
	t.Helper()
	repo := newMockPeriodRepo(periods...)
	service := NewPeriodService(
		&mockTxRunner{},
		repo,
		newMockServerRepo(&models.Server{ID: 1, Name: "Antica"}),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return service, repo
}

func TestPeriodCreateDateRange(t *testing.T) {
	service, _ := newPeriodFixture(t)
	ctx := context.Background()
	day := 24 * time.Hour
	now := time.Now()

	period, err := service.Create(ctx, asAdmin, 1, CreatePeriodInput{
		Name:      "week 1",
		StartDate: now,
		EndDate:   now.Add(7 * day),
	})
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}
	if period.IsActive {
		t.Error("new period must not be active")
	}

	bad := []CreatePeriodInput{
		{Name: "reversed", StartDate: now.Add(day), EndDate: now},
		{Name: "empty", StartDate: now, EndDate: now},
	}
	for _, input := range bad {
		if _, err := service.Create(ctx, asAdmin, 1, input); !errors.Is(err, ErrPeriodInvalidDateRange) {
			t.Errorf("Create(%s) = %v, want ErrPeriodInvalidDateRange", input.Name, err)
		}
	}

	if _, err := service.Create(ctx, asAdmin, 1, CreatePeriodInput{StartDate: now, EndDate: now.Add(day)}); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("Create() without name = %v, want ErrValidationFailed", err)
	}
}

func TestPeriodActivateExclusive(t *testing.T) {
	now := time.Now()
	service, repo := newPeriodFixture(t,
		&models.SchedulePeriod{ID: 1, ServerID: 1, Name: "week 1", StartDate: now, EndDate: now.Add(time.Hour), IsActive: true},
		&models.SchedulePeriod{ID: 2, ServerID: 1, Name: "week 2", StartDate: now, EndDate: now.Add(time.Hour)},
	)

	activated, err := service.Activate(context.Background(), asAdmin, 2)
	if err != nil {
		t.Fatalf("Activate() = %v", err)
	}
	if !activated.IsActive {
		t.Error("activated period is not active")
	}
	// На сервере активен ровно один период.
	if repo.periods[1].IsActive {
		t.Error("previous active period was not deactivated")
	}

	if _, err := service.Activate(context.Background(), asUser, 1); !errors.Is(err, ErrAdminOnly) {
		t.Errorf("Activate() by player = %v, want ErrAdminOnly", err)
	}
	if _, err := service.Activate(context.Background(), asAdmin, 42); !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("Activate(42) = %v, want ErrPeriodNotFound", err)
	}
}

func TestPeriodDeactivateExpired(t *testing.T) {
	now := time.Now()
	service, repo := newPeriodFixture(t,
		&models.SchedulePeriod{ID: 1, ServerID: 1, Name: "past", StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-time.Hour), IsActive: true},
		&models.SchedulePeriod{ID: 2, ServerID: 1, Name: "current", StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), IsActive: true},
	)

	n, err := service.DeactivateExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("DeactivateExpired() = %v", err)
	}
	if n != 1 {
		t.Errorf("deactivated %d periods, want 1", n)
	}
	if repo.periods[1].IsActive {
		t.Error("expired period is still active")
	}
	if !repo.periods[2].IsActive {
		t.Error("current period was deactivated")
	}
}
