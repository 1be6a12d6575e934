package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/msomdec/inscripciones/internal/domain"
)

const msgInternal = "Error interno del servidor"

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure sends the {success:false, error} shape used by mutating endpoints.
func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

// readJSON decodes the request body into dst, rejecting unknown fields.
func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusFor maps a service error onto the HTTP taxonomy. The message is safe
// to show to clients; internal errors never leak detail.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, clientMessage(err)
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "No autorizado"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "No tiene permisos para realizar esta acción"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Inscripción no encontrada"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, clientMessage(err)
	case errors.Is(err, domain.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "El archivo excede el tamaño máximo permitido"
	}
	return http.StatusInternalServerError, msgInternal
}

// clientMessage returns the detail after the sentinel prefix, e.g.
// "invalid input: Name failed required" → "Name failed required".
func clientMessage(err error) string {
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		return rest
	}
	return msg
}

// flexibleID accepts a JSON number or a numeric string.
type flexibleID int64

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("id must be a number: %w", err)
		}
		n = json.Number(strings.TrimSpace(s))
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("id must be an integer: %w", err)
	}
	*id = flexibleID(v)
	return nil
}
