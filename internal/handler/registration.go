package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/service"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling file parts to temporary files.
const multipartMemory = 32 << 20

// RegistrationHandler serves submission, listing, detail and review of
// artistic registrations.
type RegistrationHandler struct {
	regs  *service.RegistrationService
	files *service.FileService
	log   *slog.Logger
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(regs *service.RegistrationService, files *service.FileService, log *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{regs: regs, files: files, log: log.With("component", "registrations")}
}

// HandleSubmit stores a new registration from a multipart form.
// POST /api/inscripciones
// Response: 201 {"success":true,"inscripcion":{...}}
func (h *RegistrationHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	// Two files plus the text fields.
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.files.MaxSize()+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, http.StatusRequestEntityTooLarge, "El archivo excede el tamaño máximo permitido")
			return
		}
		writeFailure(w, http.StatusBadRequest, "Formulario inválido")
		return
	}
	defer r.MultipartForm.RemoveAll()

	sub, err := parseSubmission(r.MultipartForm, h.files.MaxSize())
	if err != nil {
		h.fail(w, err, "parse submission")
		return
	}

	reg, err := h.regs.Submit(r.Context(), RequesterFromContext(r.Context()), sub.draft, sub.content, sub.sworn)
	if err != nil {
		h.fail(w, err, "submit registration")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"inscripcion": toRegistrationDetailDTO(reg),
	})
}

// HandleList returns the registrations visible to the requester.
// GET /api/inscripciones/listar
// Response: {"inscripciones":[...]}
func (h *RegistrationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	requester := RequesterFromContext(r.Context())
	regs, err := h.regs.List(r.Context(), requester)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error("list registrations", "error", err)
			msg = "Error al obtener las inscripciones"
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"inscripciones": toRegistrationDTOs(regs, requester.IsAdmin),
	})
}

// HandleDetail returns one registration with its members.
// GET /api/inscripciones/detalles/{id}
func (h *RegistrationHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "ID inválido")
		return
	}

	reg, err := h.regs.GetByID(r.Context(), RequesterFromContext(r.Context()), id)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusForbidden {
			msg = "No tiene permiso para ver esta inscripción"
		}
		if status == http.StatusInternalServerError {
			h.log.Error("get registration", "id", id, "error", err)
			msg = "Error al obtener los detalles de la inscripción"
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, toRegistrationDetailDTO(reg))
}

// HandleApprove marks a pending registration as approved.
// POST /api/inscripciones/aprobar
// Request:  {"id": 7}
// Response: {"success":true,"inscripcion":{...}}
func (h *RegistrationHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.StatusApproved)
}

// HandleReject marks a pending registration as rejected.
// POST /api/inscripciones/rechazar
func (h *RegistrationHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.StatusRejected)
}

func (h *RegistrationHandler) transition(w http.ResponseWriter, r *http.Request, target domain.Status) {
	requester := RequesterFromContext(r.Context())
	if err := service.RequireAdmin(requester); err != nil {
		status, msg := statusFor(err)
		writeFailure(w, status, msg)
		return
	}

	var req struct {
		ID flexibleID `json:"id"`
	}
	if err := readJSON(r, &req); err != nil || req.ID <= 0 {
		writeFailure(w, http.StatusBadRequest, "ID de inscripción inválido")
		return
	}

	reg, err := h.regs.TransitionStatus(r.Context(), requester, int64(req.ID), target)
	if err != nil {
		h.fail(w, err, "transition registration", "id", int64(req.ID), "target", target)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"inscripcion": toRegistrationDTO(reg),
	})
}

// fail maps err onto a {success:false} response, logging internal errors.
func (h *RegistrationHandler) fail(w http.ResponseWriter, err error, op string, attrs ...any) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(op, append(attrs, "error", err)...)
	}
	writeFailure(w, status, msg)
}
