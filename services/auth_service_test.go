package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/hunt-reservation/models"
)

func TestAuthRegister(t *testing.T) {
	service := NewAuthService(newMockUserRepo())

	user, err := service.Register(context.Background(), RegisterInput{
		Nickname: "hunter",
		Email:    "hunter@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Register() = %v", err)
	}
	if user.Role != models.RolePlayer {
		t.Errorf("role = %q, want %q", user.Role, models.RolePlayer)
	}
	if user.PasswordHash != "" {
		t.Error("password hash leaked in response")
	}
}

func TestAuthRegisterValidation(t *testing.T) {
	service := NewAuthService(newMockUserRepo())
	ctx := context.Background()

	cases := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{"empty nickname", RegisterInput{Email: "a@b.com", Password: "longenough"}, ErrValidationFailed},
		{"bad email", RegisterInput{Nickname: "x", Email: "not-an-email", Password: "longenough"}, ErrValidationFailed},
		{"short password", RegisterInput{Nickname: "x", Email: "a@b.com", Password: "short"}, ErrPasswordTooShort},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.Register(ctx, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthRegisterConflicts(t *testing.T) {
	service := NewAuthService(newMockUserRepo())
	ctx := context.Background()

	first := RegisterInput{Nickname: "hunter", Email: "hunter@example.com", Password: "correct horse"}
	if _, err := service.Register(ctx, first); err != nil {
		t.Fatalf("Register() = %v", err)
	}

	dupEmail := RegisterInput{Nickname: "other", Email: "hunter@example.com", Password: "correct horse"}
	if _, err := service.Register(ctx, dupEmail); !errors.Is(err, ErrUserEmailConflict) {
		t.Errorf("Register(dup email) = %v, want ErrUserEmailConflict", err)
	}

	dupNickname := RegisterInput{Nickname: "hunter", Email: "other@example.com", Password: "correct horse"}
	if _, err := service.Register(ctx, dupNickname); !errors.Is(err, ErrNicknameConflict) {
		t.Errorf("Register(dup nickname) = %v, want ErrNicknameConflict", err)
	}
}

func TestAuthLogin(t *testing.T) {
	repo := newMockUserRepo()
	service := NewAuthService(repo)
	ctx := context.Background()

	if _, err := service.Register(ctx, RegisterInput{
		Nickname: "hunter",
		Email:    "hunter@example.com",
		Password: "correct horse",
	}); err != nil {
		t.Fatalf("Register() = %v", err)
	}

	user, err := service.Login(ctx, LoginInput{Email: "hunter@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login() = %v", err)
	}
	if user.Nickname != "hunter" {
		t.Errorf("nickname = %q, want hunter", user.Nickname)
	}
	if user.PasswordHash != "" {
		t.Error("password hash leaked in response")
	}

	if _, err := service.Login(ctx, LoginInput{Email: "hunter@example.com", Password: "wrong"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Errorf("Login(wrong password) = %v, want ErrAuthInvalidCredentials", err)
	}
	if _, err := service.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "correct horse"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Errorf("Login(unknown email) = %v, want ErrAuthInvalidCredentials", err)
	}
}
