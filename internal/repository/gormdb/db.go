package gormdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/msomdec/inscripciones/internal/config"
	"github.com/msomdec/inscripciones/internal/domain"
)

// DB wraps the gorm handle shared by every repository in this package.
type DB struct {
	gorm   *gorm.DB
	driver string
}

var _ domain.Database = (*DB)(nil)

// Open connects to the configured database. SQLite goes through a pure-Go
// connection pool with WAL and foreign keys enabled; postgres uses pgx.
func Open(cfg config.Database, log *slog.Logger) (*DB, error) {
	if log == nil {
		log = slog.Default()
	}

	gormConfig := &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger: logger.New(
			slog.NewLogLogger(log.Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             300 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	}

	var (
		gdb *gorm.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		var pool *sql.DB
		pool, err = openSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		gdb, err = gorm.Open(sqlite.Dialector{Conn: pool}, gormConfig)
		if err != nil {
			pool.Close()
		}
	case config.DriverPostgres:
		gdb, err = gorm.Open(postgres.Open(cfg.DSN), gormConfig)
		if err == nil {
			err = configurePool(gdb, cfg)
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	return &DB{gorm: gdb, driver: cfg.Driver}, nil
}

// OpenSQLite is a shorthand for a SQLite database at path.
func OpenSQLite(path string, log *slog.Logger) (*DB, error) {
	return Open(config.Database{Driver: config.DriverSQLite, DSN: path}, log)
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// PRAGMAs are per connection, so the pool is pinned to one.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func configurePool(gdb *gorm.DB, cfg config.Database) error {
	pool, err := gdb.DB()
	if err != nil {
		return err
	}
	if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	pool.SetConnMaxLifetime(30 * time.Minute)
	return nil
}

// Migrate creates or updates the schema.
func (db *DB) Migrate(ctx context.Context) error {
	err := db.gorm.WithContext(ctx).AutoMigrate(
		&Discipline{},
		&User{},
		&Registration{},
		&Member{},
		&SystemLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	pool, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}

// Ping checks connectivity. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	pool, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

// Gorm exposes the underlying handle, mainly for tests that need to inject
// failures through gorm callbacks.
func (db *DB) Gorm() *gorm.DB {
	return db.gorm
}

func (db *DB) Driver() string {
	return db.driver
}
