package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Dosada05/hunt-reservation/models"
	"github.com/Dosada05/hunt-reservation/repositories"
)

type respawnFixture struct {
	service  RespawnService
	respawns *mockRespawnRepo
}

func newRespawnFixture(t *testing.T, respawns ...*models.Respawn) *respawnFixture {
	t.Helper()
	repo := newMockRespawnRepo(respawns...)
	service := NewRespawnService(
		&mockTxRunner{},
		repo,
		newMockServerRepo(
			&models.Server{ID: 1, Name: "Antica"},
			&models.Server{ID: 2, Name: "Secura"},
		),
		&mockDifficultyRepo{difficulties: map[int]*models.Difficulty{
			1: {ID: 1, Name: "easy"},
		}},
		nil, // картинки отключены
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return &respawnFixture{service: service, respawns: repo}
}

type mockDifficultyRepo struct {
	difficulties map[int]*models.Difficulty
}

func (r *mockDifficultyRepo) Create(ctx context.Context, d *models.Difficulty) error {
	d.ID = len(r.difficulties) + 1
	r.difficulties[d.ID] = d
	return nil
}

func (r *mockDifficultyRepo) GetByID(ctx context.Context, id int) (*models.Difficulty, error) {
	d, ok := r.difficulties[id]
	if !ok {
		return nil, repositories.ErrDifficultyNotFound
	}
	return d, nil
}

func (r *mockDifficultyRepo) List(ctx context.Context) ([]*models.Difficulty, error) {
	out := make([]*models.Difficulty, 0, len(r.difficulties))
	for _, d := range r.difficulties {
		out = append(out, d)
	}
	return out, nil
}

func (r *mockDifficultyRepo) Update(ctx context.Context, d *models.Difficulty) error {
	if _, ok := r.difficulties[d.ID]; !ok {
		return repositories.ErrDifficultyNotFound
	}
	r.difficulties[d.ID] = d
	return nil
}

func (r *mockDifficultyRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.difficulties[id]; !ok {
		return repositories.ErrDifficultyNotFound
	}
	delete(r.difficulties, id)
	return nil
}

func TestRespawnCreate(t *testing.T) {
	f := newRespawnFixture(t)

	respawn, err := f.service.Create(context.Background(), asAdmin, 1, CreateRespawnInput{
		Name:         "Dragon Lair",
		DifficultyID: 1,
		MaxPlayers:   4,
	})
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}
	if respawn.ServerID != 1 || respawn.MaxPlayers != 4 {
		t.Errorf("respawn = %+v", respawn)
	}

	if _, err := f.service.Create(context.Background(), asUser, 1, CreateRespawnInput{
		Name: "X", DifficultyID: 1, MaxPlayers: 1,
	}); !errors.Is(err, ErrAdminOnly) {
		t.Errorf("Create() by player = %v, want ErrAdminOnly", err)
	}
}

func TestRespawnCreateValidation(t *testing.T) {
	f := newRespawnFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		input   CreateRespawnInput
		wantErr error
	}{
		{"empty name", CreateRespawnInput{DifficultyID: 1, MaxPlayers: 4}, ErrValidationFailed},
		{"zero max players", CreateRespawnInput{Name: "X", DifficultyID: 1}, ErrValidationFailed},
		{"unknown difficulty", CreateRespawnInput{Name: "X", DifficultyID: 9, MaxPlayers: 4}, ErrDifficultyNotFound},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.service.Create(ctx, asAdmin, 1, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := f.service.Create(ctx, asAdmin, 42, CreateRespawnInput{
		Name: "X", DifficultyID: 1, MaxPlayers: 1,
	}); !errors.Is(err, ErrServerNotFound) {
		t.Errorf("Create() on unknown server = %v, want ErrServerNotFound", err)
	}
}

func catalogFixture(t *testing.T) *respawnFixture {
	t.Helper()
	return newRespawnFixture(t,
		&models.Respawn{ID: 1, ServerID: 1, Name: "Dragon Lair", DifficultyID: 1, MaxPlayers: 4},
		&models.Respawn{ID: 2, ServerID: 1, Name: "Hydra Cave", DifficultyID: 1, MaxPlayers: 4},
		&models.Respawn{ID: 3, ServerID: 2, Name: "Old Spot", DifficultyID: 1, MaxPlayers: 2},
	)
}

func TestCopyRespawns(t *testing.T) {
	f := catalogFixture(t)

	result, err := f.service.CopyRespawns(context.Background(), asAdmin, 1, 2, false)
	if err != nil {
		t.Fatalf("CopyRespawns() = %v", err)
	}
	if result.CopiedCount != 2 || result.DeletedCount != 0 {
		t.Errorf("result = %+v, want 2 copied, 0 deleted", result)
	}

	target, err := f.service.ListByServer(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListByServer() = %v", err)
	}
	// Без overwrite существующие респауны target остаются на месте.
	if len(target) != 3 {
		t.Errorf("target has %d respawns, want 3", len(target))
	}
	for _, r := range target {
		if r.ServerID != 2 {
			t.Errorf("copied respawn kept server id %d", r.ServerID)
		}
	}
}

func TestCopyRespawnsOverwrite(t *testing.T) {
	f := catalogFixture(t)

	result, err := f.service.CopyRespawns(context.Background(), asAdmin, 1, 2, true)
	if err != nil {
		t.Fatalf("CopyRespawns() = %v", err)
	}
	if result.CopiedCount != 2 || result.DeletedCount != 1 {
		t.Errorf("result = %+v, want 2 copied, 1 deleted", result)
	}

	target, err := f.service.ListByServer(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListByServer() = %v", err)
	}
	if len(target) != 2 {
		t.Errorf("target has %d respawns, want 2", len(target))
	}
	for _, r := range target {
		if r.Name == "Old Spot" {
			t.Error("overwrite must remove the previous catalog")
		}
	}

	// Источник не тронут.
	source, err := f.service.ListByServer(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListByServer() = %v", err)
	}
	if len(source) != 2 {
		t.Errorf("source has %d respawns, want 2", len(source))
	}
}

func TestCopyRespawnsGuards(t *testing.T) {
	f := catalogFixture(t)
	ctx := context.Background()

	if _, err := f.service.CopyRespawns(ctx, asUser, 1, 2, false); !errors.Is(err, ErrAdminOnly) {
		t.Errorf("CopyRespawns() by player = %v, want ErrAdminOnly", err)
	}
	if _, err := f.service.CopyRespawns(ctx, asAdmin, 1, 1, false); !errors.Is(err, ErrCopySameServer) {
		t.Errorf("CopyRespawns() same server = %v, want ErrCopySameServer", err)
	}
	if _, err := f.service.CopyRespawns(ctx, asAdmin, 1, 42, false); !errors.Is(err, ErrServerNotFound) {
		t.Errorf("CopyRespawns() unknown target = %v, want ErrServerNotFound", err)
	}
}

func TestRespawnSetImageDisabled(t *testing.T) {
	f := catalogFixture(t)

	_, err := f.service.SetImage(context.Background(), asAdmin, 1, "image/png", nil)
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("SetImage() without uploader = %v, want ErrValidationFailed", err)
	}
}
