package handler

import (
	"time"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/logging"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"nombre"`
	Email        string `json:"email"`
	IsAdmin      bool   `json:"es_admin"`
	DisciplineID *int64 `json:"disciplina_id"`
	Discipline   string `json:"disciplina,omitempty"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		IsAdmin:      u.IsAdmin,
		DisciplineID: u.DisciplineID,
		Discipline:   u.DisciplineName,
	}
}

// RegistrationDTO is the list representation of a registration.
type RegistrationDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"nombre"`
	DisciplineID int64  `json:"disciplina_id"`
	Discipline   string `json:"disciplina"`
	Email        string `json:"email"`
	Phone        string `json:"telefono"`
	Description  string `json:"descripcion,omitempty"`
	ContentKind  string `json:"tipo_contenido"`
	ContentURL   string `json:"link_contenido,omitempty"`
	ContentPath  string `json:"archivo_contenido,omitempty"`
	Status       string `json:"estado"`
	Ensemble     bool   `json:"es_concertado"`
	OwnerID      int64  `json:"usuario_id"`
	CreatedAt    string `json:"fecha_creacion"`
	UpdatedAt    string `json:"fecha_modificacion"`
	// Editable is only reported to admins.
	Editable *bool `json:"es_editable,omitempty"`
}

func toRegistrationDTO(r *domain.Registration) RegistrationDTO {
	return RegistrationDTO{
		ID:           r.ID,
		Name:         r.Name,
		DisciplineID: r.DisciplineID,
		Discipline:   r.DisciplineName,
		Email:        r.Email,
		Phone:        r.Phone,
		Description:  r.Description,
		ContentKind:  string(r.ContentKind),
		ContentURL:   r.ContentURL,
		ContentPath:  r.ContentPath,
		Status:       string(r.Status),
		Ensemble:     r.Ensemble,
		OwnerID:      r.OwnerID,
		CreatedAt:    formatTime(r.CreatedAt),
		UpdatedAt:    formatTime(r.UpdatedAt),
	}
}

func toRegistrationDTOs(regs []domain.Registration, admin bool) []RegistrationDTO {
	dtos := make([]RegistrationDTO, len(regs))
	for i := range regs {
		dtos[i] = toRegistrationDTO(&regs[i])
		if admin {
			editable := regs[i].Editable()
			dtos[i].Editable = &editable
		}
	}
	return dtos
}

// MemberDTO is a member as submitted and returned. Role is omitted for kinds
// that do not carry one.
type MemberDTO struct {
	Role       string `json:"rol,omitempty"`
	FirstName  string `json:"nombre"`
	LastName   string `json:"apellido"`
	NationalID string `json:"dni"`
}

func toMemberDTOs(members []domain.Member) []MemberDTO {
	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = MemberDTO{Role: m.Role, FirstName: m.FirstName, LastName: m.LastName, NationalID: m.NationalID}
	}
	return dtos
}

func fromMemberDTOs(dtos []MemberDTO, kind domain.MemberKind) []domain.Member {
	members := make([]domain.Member, len(dtos))
	for i, d := range dtos {
		members[i] = domain.Member{Kind: kind, Role: d.Role, FirstName: d.FirstName, LastName: d.LastName, NationalID: d.NationalID}
	}
	return members
}

// RegistrationDetailDTO is the full record with its members. Discipline
// specific fields use the same keys the submission form sends.
type RegistrationDetailDTO struct {
	RegistrationDTO

	ArtisticSheet        *string `json:"fichaArtistica,omitempty"`
	SoloistHistory       *string `json:"historiaSolista,omitempty"`
	Author               *string `json:"autor,omitempty"`
	Duration             *string `json:"duracion,omitempty"`
	Genre                *string `json:"genero,omitempty"`
	Audience             *string `json:"destinatarios,omitempty"`
	Synopsis             *string `json:"sinopsis,omitempty"`
	PremiereDate         *string `json:"fechaEstreno,omitempty"`
	PerformanceCount     *string `json:"numeroFunciones,omitempty"`
	GroupName            *string `json:"nombreGrupo,omitempty"`
	History              *string `json:"historia,omitempty"`
	MaterialDescription  *string `json:"descripcionMaterial,omitempty"`
	AuthorFirstName      *string `json:"nombreAutor,omitempty"`
	AuthorLastName       *string `json:"apellidoAutor,omitempty"`
	AuthorNationalID     *string `json:"dniAutor,omitempty"`
	Technique            *string `json:"tecnica,omitempty"`
	ContactFirstName     *string `json:"nombreReferente,omitempty"`
	ContactLastName      *string `json:"apellidoReferente,omitempty"`
	ContactNationalID    *string `json:"dniReferente,omitempty"`
	SwornStatement       *string `json:"declaracionJurada,omitempty"`
	DeliveredMaterial    *string `json:"materialEntregado,omitempty"`
	ResponsibleFirstName *string `json:"responsableNombre,omitempty"`
	ResponsibleLastName  *string `json:"responsableApellido,omitempty"`
	ResponsiblePhone     *string `json:"responsableTelefono,omitempty"`
	ResponsibleEmail     *string `json:"responsableEmail,omitempty"`

	OnStage       []MemberDTO `json:"integrantesEnEscena"`
	OffStage      []MemberDTO `json:"integrantesFueraEscena"`
	Cast          []MemberDTO `json:"elenco"`
	Ensemble      []MemberDTO `json:"integrantes"`
	Collaborators []MemberDTO `json:"colaboradores"`
	TechnicalCrew []MemberDTO `json:"equipoTecnico"`
}

func toRegistrationDetailDTO(r *domain.Registration) RegistrationDetailDTO {
	d := r.Details
	return RegistrationDetailDTO{
		RegistrationDTO:      toRegistrationDTO(r),
		ArtisticSheet:        d.ArtisticSheet,
		SoloistHistory:       d.SoloistHistory,
		Author:               d.Author,
		Duration:             d.Duration,
		Genre:                d.Genre,
		Audience:             d.Audience,
		Synopsis:             d.Synopsis,
		PremiereDate:         d.PremiereDate,
		PerformanceCount:     d.PerformanceCount,
		GroupName:            d.GroupName,
		History:              d.History,
		MaterialDescription:  d.MaterialDescription,
		AuthorFirstName:      d.AuthorFirstName,
		AuthorLastName:       d.AuthorLastName,
		AuthorNationalID:     d.AuthorNationalID,
		Technique:            d.Technique,
		ContactFirstName:     d.ContactFirstName,
		ContactLastName:      d.ContactLastName,
		ContactNationalID:    d.ContactNationalID,
		SwornStatement:       d.SwornStatement,
		DeliveredMaterial:    d.DeliveredMaterial,
		ResponsibleFirstName: d.ResponsibleFirstName,
		ResponsibleLastName:  d.ResponsibleLastName,
		ResponsiblePhone:     d.ResponsiblePhone,
		ResponsibleEmail:     d.ResponsibleEmail,
		OnStage:              toMemberDTOs(r.Members.OnStage),
		OffStage:             toMemberDTOs(r.Members.OffStage),
		Cast:                 toMemberDTOs(r.Members.Cast),
		Ensemble:             toMemberDTOs(r.Members.Ensemble),
		Collaborators:        toMemberDTOs(r.Members.Collaborators),
		TechnicalCrew:        toMemberDTOs(r.Members.TechnicalCrew),
	}
}

// LogEventDTO is one in-memory log event.
type LogEventDTO struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

func toLogEventDTOs(events []logging.Event) []LogEventDTO {
	dtos := make([]LogEventDTO, len(events))
	for i, e := range events {
		dtos[i] = LogEventDTO{
			Timestamp: formatTime(e.Time),
			Level:     logging.LevelName(e.Level),
			Message:   e.Message,
			Details:   e.Attrs,
		}
	}
	return dtos
}

// SystemLogDTO is one persisted audit entry.
type SystemLogDTO struct {
	ID        int64  `json:"id"`
	Level     string `json:"nivel"`
	Message   string `json:"mensaje"`
	Detail    string `json:"detalles"`
	CreatedAt string `json:"fecha"`
}

func toSystemLogDTOs(entries []domain.SystemLog) []SystemLogDTO {
	dtos := make([]SystemLogDTO, len(entries))
	for i, e := range entries {
		dtos[i] = SystemLogDTO{
			ID:        e.ID,
			Level:     e.Level,
			Message:   e.Message,
			Detail:    e.Detail,
			CreatedAt: formatTime(e.CreatedAt),
		}
	}
	return dtos
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
