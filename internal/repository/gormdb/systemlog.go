package gormdb

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/msomdec/inscripciones/internal/domain"
)

// SystemLogRepository implements domain.SystemLogRepository.
type SystemLogRepository struct {
	db *gorm.DB
}

func NewSystemLogRepository(db *DB) *SystemLogRepository {
	return &SystemLogRepository{db: db.gorm}
}

var _ domain.SystemLogRepository = (*SystemLogRepository)(nil)

func (r *SystemLogRepository) Insert(ctx context.Context, entry *domain.SystemLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	row := SystemLog{
		Level:     entry.Level,
		Message:   entry.Message,
		Detail:    entry.Detail,
		CreatedAt: entry.CreatedAt,
	}
	if err := insert(ctx, r.db, &row); err != nil {
		return fmt.Errorf("insert system log: %w", err)
	}
	entry.ID = row.ID
	return nil
}

func (r *SystemLogRepository) List(ctx context.Context, level string, n int) ([]domain.SystemLog, error) {
	scopes := []scope{newestFirst}
	if level != "" {
		scopes = append(scopes, where(&SystemLog{Level: level}))
	}
	if n > 0 {
		scopes = append(scopes, limit(n))
	}

	rows, err := query[SystemLog](ctx, r.db, scopes...)
	if err != nil {
		return nil, fmt.Errorf("list system logs: %w", err)
	}
	out := make([]domain.SystemLog, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}
