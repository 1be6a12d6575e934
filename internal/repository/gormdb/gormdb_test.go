package gormdb_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/msomdec/inscripciones/internal/config"
	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/logging"
	"github.com/msomdec/inscripciones/internal/repository/gormdb"
)

// Verify that *gormdb.DB implements domain.Database at compile time.
var _ domain.Database = (*gormdb.DB)(nil)

func newTestDB(t *testing.T) *gormdb.DB {
	t.Helper()
	db, err := gormdb.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), logging.Discard())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := gormdb.NewDisciplineRepository(db).Seed(ctx, domain.Disciplines); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gormdb.DB, email string, disciplineID *int64) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
		DisciplineID: disciplineID,
	}
	if err := gormdb.NewUserRepository(db).Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func ptr[T any](v T) *T { return &v }

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	db := newTestDB(t)

	var fk int
	if err := db.Gorm().Raw("PRAGMA foreign_keys").Scan(&fk).Error; err != nil {
		t.Fatalf("check foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := gormdb.Open(config.Database{Driver: "oracle", DSN: "x"}, nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestDisciplineRepository_SeedIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := gormdb.NewDisciplineRepository(db)
	ctx := context.Background()

	if err := repo.Seed(ctx, domain.Disciplines); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != len(domain.Disciplines) {
		t.Fatalf("expected %d disciplines, got %d", len(domain.Disciplines), len(list))
	}
	if list[2].ID != 3 || list[2].Name != "Música" {
		t.Fatalf("unexpected third discipline: %+v", list[2])
	}

	if _, err := repo.GetByID(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := gormdb.NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "Ana@Example.com", ptr(int64(2)))
	if user.ID == 0 {
		t.Fatal("expected user ID to be set")
	}

	got, err := repo.GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected ID %d, got %d", user.ID, got.ID)
	}
	if got.DisciplineID == nil || *got.DisciplineID != 2 || got.DisciplineName != "Teatro" {
		t.Fatalf("unexpected discipline: %v %q", got.DisciplineID, got.DisciplineName)
	}

	byID, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.Email != "ana@example.com" {
		t.Fatalf("expected lowercased email, got %q", byID.Email)
	}

	if _, err := repo.GetByID(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com", nil)

	err := gormdb.NewUserRepository(db).Create(context.Background(), &domain.User{
		Name:         "Other",
		Email:        "DUP@example.com",
		PasswordHash: "hash",
	})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func newRegistration(ownerID, disciplineID int64, name string) *domain.Registration {
	return &domain.Registration{
		Name:         name,
		DisciplineID: disciplineID,
		Email:        "grupo@example.com",
		ContentKind:  domain.ContentKindLink,
		ContentURL:   "https://example.com/video",
		OwnerID:      ownerID,
	}
}

func TestRegistrationRepository_CreatePreservesMembers(t *testing.T) {
	db := newTestDB(t)
	repo := gormdb.NewRegistrationRepository(db)
	owner := createTestUser(t, db, "owner@example.com", ptr(int64(2)))
	ctx := context.Background()

	reg := newRegistration(owner.ID, 2, "La Comedia")
	reg.Details.Synopsis = ptr("Una obra en tres actos")
	reg.Members = domain.MemberLists{
		OnStage: []domain.Member{
			{FirstName: "Ana", LastName: "Paz", NationalID: "1"},
			{FirstName: "Luis", LastName: "Rey", NationalID: "2"},
		},
		Cast: []domain.Member{
			{Role: "Protagonista", FirstName: "Eva", LastName: "Sol"},
		},
		TechnicalCrew: []domain.Member{
			{Role: "Luces", FirstName: "Juan", LastName: "Mar"},
			{Role: "Sonido", FirstName: "Rosa", LastName: "Luz"},
		},
		OffStage: []domain.Member{
			{Role: "Director", FirstName: "Pedro", LastName: "Vega"},
		},
	}

	if err := repo.Create(ctx, reg); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if reg.ID == 0 {
		t.Fatal("expected registration ID to be set")
	}
	if reg.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %q", reg.Status)
	}
	if reg.DisciplineName != "Teatro" {
		t.Fatalf("expected Teatro, got %q", reg.DisciplineName)
	}
	if reg.Details.Synopsis == nil || *reg.Details.Synopsis != "Una obra en tres actos" {
		t.Fatalf("synopsis not persisted: %v", reg.Details.Synopsis)
	}
	if reg.Details.Technique != nil {
		t.Fatalf("expected unset detail to stay nil, got %q", *reg.Details.Technique)
	}

	got, err := repo.GetByID(ctx, reg.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	checkNames := func(kind string, members []domain.Member, want ...string) {
		t.Helper()
		if len(members) != len(want) {
			t.Fatalf("%s: expected %d members, got %d", kind, len(want), len(members))
		}
		for i, m := range members {
			if m.FirstName != want[i] {
				t.Fatalf("%s[%d]: expected %q, got %q", kind, i, want[i], m.FirstName)
			}
		}
	}
	checkNames("on stage", got.Members.OnStage, "Ana", "Luis")
	checkNames("cast", got.Members.Cast, "Eva")
	checkNames("crew", got.Members.TechnicalCrew, "Juan", "Rosa")
	checkNames("off stage", got.Members.OffStage, "Pedro")
	checkNames("ensemble", got.Members.Ensemble)
	checkNames("collaborators", got.Members.Collaborators)

	if got.Members.TechnicalCrew[1].Role != "Sonido" {
		t.Fatalf("expected role Sonido, got %q", got.Members.TechnicalCrew[1].Role)
	}
	if got.Members.OnStage[0].Kind != domain.MemberOnStage {
		t.Fatalf("expected kind en_escena, got %q", got.Members.OnStage[0].Kind)
	}
}

func TestRegistrationRepository_CreateIsAtomic(t *testing.T) {
	db := newTestDB(t)
	repo := gormdb.NewRegistrationRepository(db)
	owner := createTestUser(t, db, "owner@example.com", nil)
	ctx := context.Background()

	forced := errors.New("forced member failure")
	err := db.Gorm().Callback().Create().Before("gorm:create").Register("test:fail_members", func(tx *gorm.DB) {
		if tx.Statement.Table == "members" {
			tx.AddError(forced)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	reg := newRegistration(owner.ID, 1, "Ballet")
	reg.Members.OnStage = []domain.Member{{FirstName: "Ana", LastName: "Paz"}}

	if err := repo.Create(ctx, reg); !errors.Is(err, forced) {
		t.Fatalf("expected forced failure, got %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no registration rows after rollback, got %d", n)
	}

	var members int64
	if err := db.Gorm().Model(&gormdb.Member{}).Count(&members).Error; err != nil {
		t.Fatalf("count members: %v", err)
	}
	if members != 0 {
		t.Fatalf("expected no member rows after rollback, got %d", members)
	}
}

func TestRegistrationRepository_CreateUnknownDiscipline(t *testing.T) {
	db := newTestDB(t)
	repo := gormdb.NewRegistrationRepository(db)
	owner := createTestUser(t, db, "owner@example.com", nil)
	ctx := context.Background()

	if err := repo.Create(ctx, newRegistration(owner.ID, 99, "Nada")); err == nil {
		t.Fatal("expected foreign key failure for unknown discipline")
	}

	list, err := repo.List(ctx, domain.RegistrationFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}

func TestRegistrationRepository_ListNewestFirstAndFiltered(t *testing.T) {
	db := newTestDB(t)
	repo := gormdb.NewRegistrationRepository(db)
	owner := createTestUser(t, db, "owner@example.com", nil)
	ctx := context.Background()

	for _, tc := range []struct {
		name       string
		discipline int64
	}{
		{"first", 3}, {"second", 1}, {"third", 3}, {"fourth", 3},
	} {
		if err := repo.Create(ctx, newRegistration(owner.ID, tc.discipline, tc.name)); err != nil {
			t.Fatalf("Create %s: %v", tc.name, err)
		}
	}

	all, err := repo.List(ctx, domain.RegistrationFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 registrations, got %d", len(all))
	}
	want := []string{"fourth", "third", "second", "first"}
	for i, r := range all {
		if r.Name != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], r.Name)
		}
		if i > 0 && r.CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatalf("position %d is newer than position %d", i, i-1)
		}
	}

	music, err := repo.List(ctx, domain.RegistrationFilter{DisciplineID: ptr(int64(3))})
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(music) != 3 {
		t.Fatalf("expected 3 music registrations, got %d", len(music))
	}
	for _, r := range music {
		if r.DisciplineID != 3 || r.DisciplineName != "Música" {
			t.Fatalf("unexpected registration in filtered list: %+v", r)
		}
	}
	if music[0].Name != "fourth" || music[2].Name != "first" {
		t.Fatalf("filtered list not newest first: %q .. %q", music[0].Name, music[2].Name)
	}
}

func TestRegistrationRepository_UpdateStatus(t *testing.T) {
	db := newTestDB(t)
	repo := gormdb.NewRegistrationRepository(db)
	owner := createTestUser(t, db, "owner@example.com", nil)
	ctx := context.Background()

	reg := newRegistration(owner.ID, 4, "Poemas")
	if err := repo.Create(ctx, reg); err != nil {
		t.Fatalf("Create: %v", err)
	}

	at := reg.UpdatedAt.Add(time.Second)
	if err := repo.UpdateStatus(ctx, reg.ID, domain.StatusPending, domain.StatusApproved, at); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	got, err := repo.GetByID(ctx, reg.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.StatusApproved {
		t.Fatalf("expected aprobado, got %q", got.Status)
	}
	if !got.UpdatedAt.After(reg.UpdatedAt) {
		t.Fatalf("expected updated_at to advance: before %s after %s", reg.UpdatedAt, got.UpdatedAt)
	}
	if !got.CreatedAt.Equal(reg.CreatedAt) {
		t.Fatalf("created_at changed: %s -> %s", reg.CreatedAt, got.CreatedAt)
	}

	err = repo.UpdateStatus(ctx, reg.ID, domain.StatusPending, domain.StatusRejected, at.Add(time.Second))
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	err = repo.UpdateStatus(ctx, 9999, domain.StatusPending, domain.StatusApproved, at)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistrationRepository_GetByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := gormdb.NewRegistrationRepository(db).GetByID(context.Background(), 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistrationRepository_GetByFilePath(t *testing.T) {
	db := newTestDB(t)
	repo := gormdb.NewRegistrationRepository(db)
	owner := createTestUser(t, db, "files@example.com", ptr(int64(2)))
	ctx := context.Background()

	reg := newRegistration(owner.ID, 2, "Con archivos")
	reg.ContentKind = domain.ContentKindFile
	reg.ContentURL = ""
	reg.ContentPath = "inscription/obra.pdf"
	reg.Details.SwornStatement = ptr("pdf/ddjj.pdf")
	if err := repo.Create(ctx, reg); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, newRegistration(owner.ID, 2, "Sin archivos")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, path := range []string{"inscription/obra.pdf", "pdf/ddjj.pdf"} {
		got, err := repo.GetByFilePath(ctx, path)
		if err != nil {
			t.Fatalf("GetByFilePath(%q): %v", path, err)
		}
		if got.ID != reg.ID || got.DisciplineID != 2 {
			t.Fatalf("GetByFilePath(%q): got registration %d", path, got.ID)
		}
	}
	if _, err := repo.GetByFilePath(ctx, "pdf/otro.pdf"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSystemLogRepository_InsertAndList(t *testing.T) {
	db := newTestDB(t)
	repo := gormdb.NewSystemLogRepository(db)
	ctx := context.Background()

	entries := []domain.SystemLog{
		{Level: domain.LogLevelInfo, Message: "created", Detail: `{"id":1}`},
		{Level: domain.LogLevelError, Message: "failed", Detail: `{"error":"boom"}`},
		{Level: domain.LogLevelInfo, Message: "approved", Detail: `{"id":1}`},
	}
	for i := range entries {
		if err := repo.Insert(ctx, &entries[i]); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if entries[i].ID == 0 {
			t.Fatal("expected ID to be set")
		}
	}

	all, err := repo.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Message != "approved" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	infos, err := repo.List(ctx, domain.LogLevelInfo, 1)
	if err != nil {
		t.Fatalf("List info: %v", err)
	}
	if len(infos) != 1 || infos[0].Message != "approved" {
		t.Fatalf("expected latest info entry only, got %+v", infos)
	}
}
