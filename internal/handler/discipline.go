package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/service"
)

// DisciplineDTO is one entry of the public catalog.
type DisciplineDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// DisciplineHandler serves the discipline catalog used by the submission form.
type DisciplineHandler struct {
	catalog *service.DisciplineCatalog
	log     *slog.Logger
}

func NewDisciplineHandler(catalog *service.DisciplineCatalog, log *slog.Logger) *DisciplineHandler {
	return &DisciplineHandler{catalog: catalog, log: log.With("component", "disciplines")}
}

// HandleList returns every discipline ordered by id.
// GET /api/disciplinas
// Response: {"disciplinas":[{"id":1,"nombre":"..."}]}
func (h *DisciplineHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	disciplines, err := h.catalog.List(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "list disciplines", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"disciplinas": toDisciplineDTOs(disciplines)})
}

func toDisciplineDTOs(ds []domain.Discipline) []DisciplineDTO {
	out := make([]DisciplineDTO, 0, len(ds))
	for _, d := range ds {
		out = append(out, DisciplineDTO{ID: d.ID, Name: d.Name})
	}
	return out
}
