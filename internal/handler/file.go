package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/service"
)

// FileHandler streams stored uploads.
type FileHandler struct {
	files *service.FileService
	regs  *service.RegistrationService
	log   *slog.Logger
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(files *service.FileService, regs *service.RegistrationService, log *slog.Logger) *FileHandler {
	return &FileHandler{files: files, regs: regs, log: log.With("component", "files")}
}

// HandleInscriptionFile serves a registration content file by name.
// GET /api/archivos/{path}
func (h *FileHandler) HandleInscriptionFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("path")
	if name == "" {
		writeError(w, http.StatusBadRequest, "Nombre de archivo no proporcionado")
		return
	}
	// Stored paths are returned as "inscription/<name>"; accept either form.
	name = strings.TrimPrefix(name, string(domain.FileCategoryInscription)+"/")
	h.serve(w, r, string(domain.FileCategoryInscription)+"/"+name)
}

// HandleMedia serves any stored file by its relative path.
// GET /media/{path...}
func (h *FileHandler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, r.PathValue("path"))
}

func (h *FileHandler) serve(w http.ResponseWriter, r *http.Request, storedPath string) {
	if err := h.regs.AuthorizeFile(r.Context(), RequesterFromContext(r.Context()), storedPath); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Archivo no encontrado")
		case errors.Is(err, domain.ErrForbidden):
			writeError(w, http.StatusForbidden, "No tiene permiso para ver este archivo")
		default:
			status, msg := statusFor(err)
			if status == http.StatusInternalServerError {
				h.log.ErrorContext(r.Context(), "authorize file", "path", storedPath, "error", err)
			}
			writeError(w, status, msg)
		}
		return
	}

	data, err := h.files.Retrieve(r.Context(), storedPath)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInvalidInput) {
			h.log.Error("serve file", "path", storedPath, "error", err)
		}
		writeError(w, http.StatusNotFound, "Archivo no encontrado")
		return
	}

	w.Header().Set("Content-Type", service.ContentType(storedPath, data))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(storedPath)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Warn("write file response", "path", storedPath, "error", err)
	}
}
