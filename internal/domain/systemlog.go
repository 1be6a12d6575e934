package domain

import (
	"context"
	"time"
)

const (
	LogLevelInfo  = "INFO"
	LogLevelWarn  = "WARNING"
	LogLevelError = "ERROR"
	LogLevelDebug = "DEBUG"
)

// SystemLog is an audit entry persisted alongside the registrations.
type SystemLog struct {
	ID        int64
	Level     string
	Message   string
	Detail    string // JSON object
	CreatedAt time.Time
}

// SystemLogRepository handles audit entry persistence.
type SystemLogRepository interface {
	Insert(ctx context.Context, entry *SystemLog) error
	// List returns the newest entries first. An empty level matches all.
	List(ctx context.Context, level string, limit int) ([]SystemLog, error)
}
