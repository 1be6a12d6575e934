package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/repository/gormdb"
	"github.com/msomdec/inscripciones/internal/service"
)

func TestAuthService_CreateUser_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.CreateUser(ctx, service.NewUser{Name: "Weak", Email: "weak@example.com", Password: "short"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}

	_, err = env.auth.CreateUser(ctx, service.NewUser{Email: "noname@example.com", Password: "password123"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing name, got %v", err)
	}
}

func TestAuthService_CreateUser_AdminHasNoDiscipline(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com", true, ptr(int64(3)))
	if admin.DisciplineID != nil {
		t.Fatalf("expected admin without discipline, got %d", *admin.DisciplineID)
	}
}

func TestAuthService_CreateUser_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "dup@example.com", false, nil)

	_, err := env.auth.CreateUser(context.Background(), service.NewUser{
		Name: "Again", Email: "dup@example.com", Password: "password456",
	})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	env := newTestEnv(t)
	created := env.createUser(t, "login@example.com", false, ptr(int64(3)))

	user, token, err := env.auth.Login(context.Background(), "login@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if user.ID != created.ID {
		t.Fatalf("expected user %d, got %d", created.ID, user.ID)
	}
	if user.DisciplineName != "Música" {
		t.Fatalf("expected discipline name Música, got %q", user.DisciplineName)
	}

	userID, err := env.auth.ValidateSession(token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if userID != created.ID {
		t.Fatalf("expected user ID %d, got %d", created.ID, userID)
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "user@example.com", false, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"wrong password", "user@example.com", "wrongpassword", domain.ErrUnauthorized},
		{"unknown email", "nobody@example.com", "password123", domain.ErrUnauthorized},
		{"missing password", "user@example.com", "", domain.ErrInvalidInput},
		{"missing email", "  ", "password123", domain.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := env.auth.Login(ctx, tc.email, tc.password); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthService_ValidateSession_Rejects(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "tok@example.com", false, nil)

	if _, err := env.auth.ValidateSession("invalid.token.here"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for garbage, got %v", err)
	}

	other := service.NewAuthService(gormdb.NewUserRepository(env.db), "another-secret-that-is-long-enough-000", 4, time.Hour)
	foreign, err := other.IssueSession(user)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if _, err := env.auth.ValidateSession(foreign); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong secret, got %v", err)
	}

	expired := service.NewAuthService(gormdb.NewUserRepository(env.db), testJWTSecret, 4, -time.Hour)
	stale, err := expired.IssueSession(user)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if _, err := env.auth.ValidateSession(stale); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.auth.EnsureAdmin(ctx, "root@example.com", "supersecret")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if !created {
		t.Fatal("expected admin to be created")
	}

	created, err = env.auth.EnsureAdmin(ctx, "root@example.com", "supersecret")
	if err != nil {
		t.Fatalf("second EnsureAdmin: %v", err)
	}
	if created {
		t.Fatal("expected second call to be a no-op")
	}

	user, _, err := env.auth.Login(ctx, "root@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !user.IsAdmin {
		t.Fatal("expected bootstrap user to be admin")
	}

	if created, err := env.auth.EnsureAdmin(ctx, "", ""); err != nil || created {
		t.Fatalf("expected no-op without credentials, got %v %v", created, err)
	}
}
