package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
)

// FileSink appends events to a file as JSON lines.
type FileSink struct {
	mu   sync.Mutex
	path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Write(_ context.Context, e Event) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("write log file: %w", err)
	}
	return f.Close()
}

// RedisSink pushes events onto a capped redis list, newest at the head.
type RedisSink struct {
	client redis.Cmdable
	key    string
	max    int64
}

// NewRedisSink returns a sink writing to key. When max is positive the list
// is trimmed to its newest max entries after every push.
func NewRedisSink(client redis.Cmdable, key string, max int64) *RedisSink {
	return &RedisSink{client: client, key: key, max: max}
}

func (s *RedisSink) Write(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.client.LPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	if s.max > 0 {
		if err := s.client.LTrim(ctx, s.key, 0, s.max-1).Err(); err != nil {
			return fmt.Errorf("redis ltrim: %w", err)
		}
	}
	return nil
}
