package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/service"
)

// Multipart keys of the submission form.
const (
	fieldContentFile    = "archivoContenido"
	fieldSwornStatement = "declaracionJurada"
)

var (
	errUnknownField  = errors.New("unknown field")
	errRepeatedField = errors.New("repeated field")
)

// memberFields maps the JSON-array form fields to member kinds.
var memberFields = map[string]domain.MemberKind{
	"integrantesEnEscena":    domain.MemberOnStage,
	"integrantesFueraEscena": domain.MemberOffStage,
	"elenco":                 domain.MemberCast,
	"integrantes":            domain.MemberEnsemble,
	"colaboradores":          domain.MemberCollaborator,
	"equipoTecnico":          domain.MemberTechnicalCrew,
}

// detailFields maps the optional text fields to their slot in the draft.
var detailFields = map[string]func(*domain.RegistrationDetails) **string{
	"fichaArtistica":      func(d *domain.RegistrationDetails) **string { return &d.ArtisticSheet },
	"historiaSolista":     func(d *domain.RegistrationDetails) **string { return &d.SoloistHistory },
	"autor":               func(d *domain.RegistrationDetails) **string { return &d.Author },
	"duracion":            func(d *domain.RegistrationDetails) **string { return &d.Duration },
	"genero":              func(d *domain.RegistrationDetails) **string { return &d.Genre },
	"destinatarios":       func(d *domain.RegistrationDetails) **string { return &d.Audience },
	"sinopsis":            func(d *domain.RegistrationDetails) **string { return &d.Synopsis },
	"fechaEstreno":        func(d *domain.RegistrationDetails) **string { return &d.PremiereDate },
	"numeroFunciones":     func(d *domain.RegistrationDetails) **string { return &d.PerformanceCount },
	"nombreGrupo":         func(d *domain.RegistrationDetails) **string { return &d.GroupName },
	"historia":            func(d *domain.RegistrationDetails) **string { return &d.History },
	"descripcionMaterial": func(d *domain.RegistrationDetails) **string { return &d.MaterialDescription },
	"nombreAutor":         func(d *domain.RegistrationDetails) **string { return &d.AuthorFirstName },
	"apellidoAutor":       func(d *domain.RegistrationDetails) **string { return &d.AuthorLastName },
	"dniAutor":            func(d *domain.RegistrationDetails) **string { return &d.AuthorNationalID },
	"tecnica":             func(d *domain.RegistrationDetails) **string { return &d.Technique },
	"nombreReferente":     func(d *domain.RegistrationDetails) **string { return &d.ContactFirstName },
	"apellidoReferente":   func(d *domain.RegistrationDetails) **string { return &d.ContactLastName },
	"dniReferente":        func(d *domain.RegistrationDetails) **string { return &d.ContactNationalID },
	"materialEntregado":   func(d *domain.RegistrationDetails) **string { return &d.DeliveredMaterial },
	"responsableNombre":   func(d *domain.RegistrationDetails) **string { return &d.ResponsibleFirstName },
	"responsableApellido": func(d *domain.RegistrationDetails) **string { return &d.ResponsibleLastName },
	"responsableTelefono": func(d *domain.RegistrationDetails) **string { return &d.ResponsiblePhone },
	"responsableEmail":    func(d *domain.RegistrationDetails) **string { return &d.ResponsibleEmail },
}

// submission is the typed result of parsing the multipart form.
type submission struct {
	draft   domain.RegistrationDraft
	content *service.Upload
	sworn   *service.Upload
}

// parseSubmission turns the multipart form into a draft. Unknown or repeated
// keys and malformed member lists are rejected with domain.ErrInvalidInput. The owner
// is never read from the form.
func parseSubmission(form *multipart.Form, maxFileSize int64) (*submission, error) {
	var s submission
	d := &s.draft

	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		if len(values) > 1 {
			return nil, fmt.Errorf("%w: %w %q", domain.ErrInvalidInput, errRepeatedField, key)
		}
		value := values[0]

		if kind, ok := memberFields[key]; ok {
			members, err := decodeMembers(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
			}
			d.Members.Set(kind, fromMemberDTOs(members, kind))
			continue
		}
		if slot, ok := detailFields[key]; ok {
			if v := strings.TrimSpace(value); v != "" {
				*slot(&d.Details) = &v
			}
			continue
		}

		switch key {
		case "nombre":
			d.Name = strings.TrimSpace(value)
		case "disciplina_id":
			id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: disciplina_id must be an integer", domain.ErrInvalidInput)
			}
			d.DisciplineID = id
		case "email":
			d.Email = strings.TrimSpace(value)
		case "telefono":
			d.Phone = strings.TrimSpace(value)
		case "descripcion":
			d.Description = value
		case "tipoContenido":
			d.ContentKind = domain.ContentKind(strings.TrimSpace(value))
		case "linkContenido":
			d.ContentURL = strings.TrimSpace(value)
		case "usuario_id", "disciplina":
			// Sent by older clients; the owner comes from the session and the
			// display name from the catalog.
		default:
			return nil, fmt.Errorf("%w: %w %q", domain.ErrInvalidInput, errUnknownField, key)
		}
	}

	for key, headers := range form.File {
		if len(headers) > 1 {
			return nil, fmt.Errorf("%w: %w %q", domain.ErrInvalidInput, errRepeatedField, key)
		}
		// Browsers send an empty part for an untouched file input.
		if len(headers) == 0 || (headers[0].Filename == "" && headers[0].Size == 0) {
			continue
		}
		upload, err := readUpload(headers[0], maxFileSize)
		if err != nil {
			return nil, err
		}
		switch key {
		case fieldContentFile:
			s.content = upload
		case fieldSwornStatement:
			s.sworn = upload
		default:
			return nil, fmt.Errorf("%w: %w %q", domain.ErrInvalidInput, errUnknownField, key)
		}
	}

	return &s, nil
}

func decodeMembers(raw string) ([]MemberDTO, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var members []MemberDTO
	if err := dec.Decode(&members); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after member list")
	}
	return members, nil
}

func readUpload(h *multipart.FileHeader, maxFileSize int64) (*service.Upload, error) {
	if h.Size > maxFileSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrTooLarge, h.Filename, maxFileSize)
	}
	f, err := h.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f, maxFileSize+1)); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(buf.Len()) > maxFileSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrTooLarge, h.Filename, maxFileSize)
	}
	return &service.Upload{Name: h.Filename, Data: buf.Bytes()}, nil
}
