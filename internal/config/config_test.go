package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/msomdec/inscripciones/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)

	conf, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if conf.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", conf.Server.Port)
	}
	if conf.Database.Driver != config.DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", conf.Database.Driver)
	}
	if conf.Storage.MaxUploadBytes != 100<<20 {
		t.Fatalf("expected 100 MiB upload cap, got %d", conf.Storage.MaxUploadBytes)
	}
	if conf.Auth.SessionTTL != 7*24*time.Hour {
		t.Fatalf("expected 7 day session, got %s", conf.Auth.SessionTTL)
	}
	if !conf.Server.CookieSecure {
		t.Fatal("expected secure cookies by default")
	}
	if err := conf.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: "9000"
database:
  driver: postgres
  dsn: "host=db user=postgres dbname=postgres sslmode=disable"
auth:
  sessionSecret: "` + testSecret + `"
  sessionTTL: 48h
  bcryptCost: 10
log:
  bufferSize: 50
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PORT", "9100")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("LOG_BUFFER_SIZE", "25")

	conf, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if conf.Server.Port != "9100" {
		t.Fatalf("expected env to override port, got %q", conf.Server.Port)
	}
	if conf.Database.Driver != config.DriverPostgres {
		t.Fatalf("expected postgres from yaml, got %q", conf.Database.Driver)
	}
	if conf.Auth.SessionTTL != 48*time.Hour {
		t.Fatalf("expected 48h session from yaml, got %s", conf.Auth.SessionTTL)
	}
	if conf.Auth.BcryptCost != 10 {
		t.Fatalf("expected bcrypt cost 10, got %d", conf.Auth.BcryptCost)
	}
	if conf.Log.BufferSize != 25 {
		t.Fatalf("expected buffer size 25 from env, got %d", conf.Log.BufferSize)
	}
	if conf.Server.CookieSecure {
		t.Fatal("expected COOKIE_SECURE=false to disable secure cookies")
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("BCRYPT_COST", "twelve")

	if _, err := config.Load(""); err == nil {
		t.Fatal("expected error for non-numeric BCRYPT_COST")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := config.Default()
	valid.Auth.SessionSecret = testSecret

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"missing secret", func(c *config.Config) { c.Auth.SessionSecret = "" }, "SESSION_SECRET is required"},
		{"short secret", func(c *config.Config) { c.Auth.SessionSecret = "short" }, "at least 32"},
		{"bcrypt too low", func(c *config.Config) { c.Auth.BcryptCost = 3 }, "BCRYPT_COST"},
		{"bcrypt too high", func(c *config.Config) { c.Auth.BcryptCost = 15 }, "BCRYPT_COST"},
		{"unknown driver", func(c *config.Config) { c.Database.Driver = "oracle" }, "unknown database driver"},
		{"zero upload cap", func(c *config.Config) { c.Storage.MaxUploadBytes = 0 }, "MAX_UPLOAD_BYTES"},
		{"zero buffer", func(c *config.Config) { c.Log.BufferSize = 0 }, "LOG_BUFFER_SIZE"},
		{"trace without endpoint", func(c *config.Config) { c.Trace.Enable = true }, "TRACE_ENDPOINT"},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
