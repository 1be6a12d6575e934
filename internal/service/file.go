package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/msomdec/inscripciones/internal/domain"
)

// DefaultMaxFileSize is the per-file upload cap.
const DefaultMaxFileSize = 100 << 20 // 100 MiB

// FileService stores uploads under category subdirectories with names that
// never collide.
type FileService struct {
	files   domain.FileStore
	maxSize int64
	log     *slog.Logger
	now     func() time.Time
}

func NewFileService(files domain.FileStore, maxSize int64, log *slog.Logger) *FileService {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &FileService{files: files, maxSize: maxSize, log: log, now: time.Now}
}

func (s *FileService) MaxSize() int64 {
	return s.maxSize
}

// Store writes data under category and returns its relative path, such as
// "inscription/<uuid>-<millis>-<name>.pdf". Oversized payloads are rejected
// before anything is written.
func (s *FileService) Store(ctx context.Context, data []byte, originalName string, category domain.FileCategory) (string, error) {
	ctx, span := tracer.Start(ctx, "File.Service.Store")
	defer span.End()

	if !category.Valid() {
		return "", fmt.Errorf("%w: unknown file category %q", domain.ErrInvalidInput, category)
	}
	if int64(len(data)) > s.maxSize {
		return "", fmt.Errorf("%w: file exceeds %d bytes", domain.ErrTooLarge, s.maxSize)
	}

	key := string(category) + "/" + storedName(originalName, s.now())
	if err := s.files.Save(ctx, key, data); err != nil {
		span.RecordError(err)
		s.log.Error("store file", "path", key, "error", err)
		return "", fmt.Errorf("save file: %w", err)
	}
	return key, nil
}

// Retrieve returns the stored bytes, or domain.ErrNotFound.
func (s *FileService) Retrieve(ctx context.Context, storedPath string) ([]byte, error) {
	data, err := s.files.Get(ctx, storedPath)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return data, nil
}

// Delete removes a stored file. Failures are logged, never returned.
func (s *FileService) Delete(ctx context.Context, storedPath string) {
	if storedPath == "" {
		return
	}
	if err := s.files.Delete(ctx, storedPath); err != nil {
		s.log.Warn("delete file", "path", storedPath, "error", err)
	}
}

// ContentType infers the MIME type from the extension, falling back to
// sniffing the content.
func ContentType(storedPath string, data []byte) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(storedPath)), ".")
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if len(data) > 0 {
		return mimetype.Detect(data).String()
	}
	return "application/octet-stream"
}

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"txt":  "text/plain; charset=utf-8",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"zip":  "application/zip",
}

const maxNameFragment = 20

func storedName(originalName string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(originalName, `\`, "/"))
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	return uuid.NewString() + "-" +
		strconv.FormatInt(now.UnixMilli(), 10) + "-" +
		sanitize(stem, maxNameFragment, '_') +
		cleanExt(ext)
}

// sanitize replaces every non-alphanumeric ASCII byte with repl and
// truncates to n bytes.
func sanitize(s string, n int, repl byte) string {
	b := make([]byte, 0, min(len(s), n))
	for i := 0; i < len(s) && len(b) < n; i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			b = append(b, c)
		} else {
			b = append(b, repl)
		}
	}
	return string(b)
}

func cleanExt(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return ""
	}
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if !(('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')) {
			return ""
		}
	}
	if len(ext) > 10 {
		return ""
	}
	return "." + strings.ToLower(ext)
}
