package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/logging"
	"github.com/msomdec/inscripciones/internal/service"
)

const maxSystemLogs = 500

// LogHandler exposes recent log events and the persisted audit trail to admins.
type LogHandler struct {
	buffer *logging.Buffer
	audit  domain.SystemLogRepository
	log    *slog.Logger
}

// NewLogHandler creates a new LogHandler.
func NewLogHandler(buffer *logging.Buffer, audit domain.SystemLogRepository, log *slog.Logger) *LogHandler {
	return &LogHandler{buffer: buffer, audit: audit, log: log.With("component", "logs")}
}

// HandleRecent returns buffered log events, oldest first.
// GET /api/logs?level=error
// Response: {"logs":[...]}
func (h *LogHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	if err := service.RequireAdmin(RequesterFromContext(r.Context())); err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}

	events := h.buffer.Events()
	if raw := r.URL.Query().Get("level"); raw != "" {
		level, err := logging.ParseLevel(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Nivel de log inválido")
			return
		}
		events = h.buffer.ByLevel(level)
	}

	writeJSON(w, http.StatusOK, map[string]any{"logs": toLogEventDTOs(events)})
}

// HandleClear empties the in-memory buffer. The audit table is untouched.
// DELETE /api/logs
func (h *LogHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	requester := RequesterFromContext(r.Context())
	if err := service.RequireAdmin(requester); err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}

	h.buffer.Clear()
	h.log.InfoContext(r.Context(), "log buffer cleared", "user_id", requester.UserID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleSystem returns persisted audit entries, newest first.
// GET /api/logs/sistema?level=ERROR&limit=50
// Response: {"logs":[...]}
func (h *LogHandler) HandleSystem(w http.ResponseWriter, r *http.Request) {
	if err := service.RequireAdmin(RequesterFromContext(r.Context())); err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}

	q := r.URL.Query()
	var level string
	if raw := q.Get("level"); raw != "" {
		parsed, err := logging.ParseLevel(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Nivel de log inválido")
			return
		}
		level = logging.LevelName(parsed)
	}

	limit := 100
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Límite inválido")
			return
		}
		limit = min(n, maxSystemLogs)
	}

	entries, err := h.audit.List(r.Context(), level, limit)
	if err != nil {
		h.log.Error("list system logs", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"logs": toSystemLogDTOs(entries)})
}
