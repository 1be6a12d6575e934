package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation owns its own schema strategy, so the relational
// backend (SQLite, Postgres) stays swappable behind the repositories.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
