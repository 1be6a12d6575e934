package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/logging"
	"github.com/msomdec/inscripciones/internal/repository/disk"
	"github.com/msomdec/inscripciones/internal/repository/gormdb"
	"github.com/msomdec/inscripciones/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

type testEnv struct {
	db       *gormdb.DB
	basePath string
	audit    *gormdb.SystemLogRepository
	catalog  *service.DisciplineCatalog
	files    *service.FileService
	regs     *service.RegistrationService
	auth     *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	log := logging.Discard()

	db, err := gormdb.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), log)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	basePath := filepath.Join(t.TempDir(), "private")
	store, err := disk.New(basePath)
	if err != nil {
		t.Fatalf("disk.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	catalog := service.NewDisciplineCatalog(gormdb.NewDisciplineRepository(db), log)
	if err := catalog.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	audit := gormdb.NewSystemLogRepository(db)
	files := service.NewFileService(store, service.DefaultMaxFileSize, log)

	return &testEnv{
		db:       db,
		basePath: basePath,
		audit:    audit,
		catalog:  catalog,
		files:    files,
		regs:     service.NewRegistrationService(gormdb.NewRegistrationRepository(db), audit, catalog, files, log),
		// Use cost 4 for fast tests.
		auth: service.NewAuthService(gormdb.NewUserRepository(db), testJWTSecret, 4, 7*24*time.Hour),
	}
}

func (e *testEnv) createUser(t *testing.T, email string, admin bool, disciplineID *int64) *domain.User {
	t.Helper()
	user, err := e.auth.CreateUser(context.Background(), service.NewUser{
		Name:         "Test User",
		Email:        email,
		Password:     "password123",
		IsAdmin:      admin,
		DisciplineID: disciplineID,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func ptr[T any](v T) *T { return &v }

func linkDraft(name string, disciplineID int64) domain.RegistrationDraft {
	return domain.RegistrationDraft{
		Name:         name,
		DisciplineID: disciplineID,
		Email:        "grupo@example.com",
		ContentKind:  domain.ContentKindLink,
		ContentURL:   "https://example.com/obra",
	}
}
