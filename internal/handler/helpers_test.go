package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/handler"
	"github.com/msomdec/inscripciones/internal/logging"
	"github.com/msomdec/inscripciones/internal/repository/disk"
	"github.com/msomdec/inscripciones/internal/repository/gormdb"
	"github.com/msomdec/inscripciones/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type testApp struct {
	db    *gormdb.DB
	auth  *service.AuthService
	regs  *service.RegistrationService
	files *service.FileService
	logs  *logging.Buffer
	deps  handler.Dependencies
	srv   *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	log, buffer := logging.New(logging.Options{
		Level:      slog.LevelDebug,
		BufferSize: 100,
		Stdout:     io.Discard,
		Stderr:     io.Discard,
	})

	db, err := gormdb.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), log)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	store, err := disk.New(filepath.Join(t.TempDir(), "private"))
	if err != nil {
		t.Fatalf("disk.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	catalog := service.NewDisciplineCatalog(gormdb.NewDisciplineRepository(db), log)
	if err := catalog.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	audit := gormdb.NewSystemLogRepository(db)
	files := service.NewFileService(store, 1<<20, log)
	auth := service.NewAuthService(gormdb.NewUserRepository(db), testJWTSecret, 4, 7*24*time.Hour)
	regs := service.NewRegistrationService(gormdb.NewRegistrationRepository(db), audit, catalog, files, log)

	app := &testApp{db: db, auth: auth, regs: regs, files: files, logs: buffer}
	app.deps = handler.Dependencies{
		Auth:          auth,
		Registrations: regs,
		Files:         files,
		Disciplines:   catalog,
		Audit:         audit,
		Logs:          buffer,
		DB:            db,
		CookieSecure:  false,
		Log:           log,
	}
	return app
}

// start serves the app with the full middleware chain.
func (a *testApp) start(t *testing.T) {
	t.Helper()
	a.srv = httptest.NewServer(handler.NewRouter(a.deps))
	t.Cleanup(a.srv.Close)
}

func (a *testApp) createUser(t *testing.T, email string, admin bool, disciplineID *int64) *domain.User {
	t.Helper()
	user, err := a.auth.CreateUser(context.Background(), service.NewUser{
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

func (a *testApp) token(t *testing.T, user *domain.User) string {
	t.Helper()
	token, err := a.auth.IssueSession(user)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	return token
}

// client returns an HTTP client logged in as email via the login endpoint.
func (a *testApp) client(t *testing.T, email string) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	c := &http.Client{Jar: jar}

	resp := postJSON(t, c, a.srv.URL+"/api/auth/login", map[string]string{"email": email, "password": "password123"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", email, resp.StatusCode)
	}
	return c
}

func postJSON(t *testing.T, c *http.Client, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := c.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

type formFile struct {
	field, name string
	data        []byte
}

func postForm(t *testing.T, c *http.Client, url string, values map[string]string, files ...formFile) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	resp, err := c.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
