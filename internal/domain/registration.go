package domain

import (
	"context"
	"time"
)

type Status string

const (
	StatusPending  Status = "pendiente"
	StatusApproved Status = "aprobado"
	StatusRejected Status = "rechazado"
)

// Terminal reports whether the status is a review outcome.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type ContentKind string

const (
	ContentKindFile ContentKind = "archivo"
	ContentKindLink ContentKind = "link"
)

type MemberKind string

const (
	MemberOnStage       MemberKind = "en_escena"
	MemberOffStage      MemberKind = "fuera_escena"
	MemberCast          MemberKind = "elenco"
	MemberEnsemble      MemberKind = "integrante"
	MemberCollaborator  MemberKind = "colaborador"
	MemberTechnicalCrew MemberKind = "equipo_tecnico"
)

// MemberKinds lists every kind in the order members are persisted.
var MemberKinds = []MemberKind{
	MemberOnStage,
	MemberOffStage,
	MemberCast,
	MemberEnsemble,
	MemberCollaborator,
	MemberTechnicalCrew,
}

// HasRole reports whether members of this kind carry a role label.
func (k MemberKind) HasRole() bool {
	switch k {
	case MemberOffStage, MemberCast, MemberCollaborator, MemberTechnicalCrew:
		return true
	}
	return false
}

// Valid reports whether k is one of the known member kinds.
func (k MemberKind) Valid() bool {
	for _, known := range MemberKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Member is a person attached to a registration. Members have no lifecycle
// of their own: they are created with the registration and deleted with it.
type Member struct {
	ID             int64
	RegistrationID int64
	Kind           MemberKind
	Role           string
	FirstName      string `validate:"required,max=100"`
	LastName       string `validate:"required,max=100"`
	NationalID     string `validate:"omitempty,max=32"`
}

// MemberLists holds the members of a registration split by kind, each list
// in insertion order.
type MemberLists struct {
	OnStage       []Member `validate:"dive"`
	OffStage      []Member `validate:"dive"`
	Cast          []Member `validate:"dive"`
	Ensemble      []Member `validate:"dive"`
	Collaborators []Member `validate:"dive"`
	TechnicalCrew []Member `validate:"dive"`
}

// ByKind returns the list for kind k.
func (l *MemberLists) ByKind(k MemberKind) []Member {
	switch k {
	case MemberOnStage:
		return l.OnStage
	case MemberOffStage:
		return l.OffStage
	case MemberCast:
		return l.Cast
	case MemberEnsemble:
		return l.Ensemble
	case MemberCollaborator:
		return l.Collaborators
	case MemberTechnicalCrew:
		return l.TechnicalCrew
	}
	return nil
}

// Set replaces the list for kind k.
func (l *MemberLists) Set(k MemberKind, members []Member) {
	switch k {
	case MemberOnStage:
		l.OnStage = members
	case MemberOffStage:
		l.OffStage = members
	case MemberCast:
		l.Cast = members
	case MemberEnsemble:
		l.Ensemble = members
	case MemberCollaborator:
		l.Collaborators = members
	case MemberTechnicalCrew:
		l.TechnicalCrew = members
	}
}

// Flatten returns every member tagged with its kind, kinds in MemberKinds order.
func (l *MemberLists) Flatten() []Member {
	var all []Member
	for _, k := range MemberKinds {
		for _, m := range l.ByKind(k) {
			m.Kind = k
			if !k.HasRole() {
				m.Role = ""
			}
			all = append(all, m)
		}
	}
	return all
}

// GroupMembers partitions members by kind, preserving their relative order.
func GroupMembers(members []Member) MemberLists {
	var lists MemberLists
	for _, m := range members {
		lists.Set(m.Kind, append(lists.ByKind(m.Kind), m))
	}
	return lists
}

// RegistrationDetails holds the discipline-specific optional fields. None is
// required at the storage layer; nil means the field was not submitted.
type RegistrationDetails struct {
	ArtisticSheet        *string
	SoloistHistory       *string
	Author               *string
	Duration             *string
	Genre                *string
	Audience             *string
	Synopsis             *string
	PremiereDate         *string
	PerformanceCount     *string
	GroupName            *string
	History              *string
	MaterialDescription  *string
	AuthorFirstName      *string
	AuthorLastName       *string
	AuthorNationalID     *string
	Technique            *string
	ContactFirstName     *string
	ContactLastName      *string
	ContactNationalID    *string
	SwornStatement       *string
	DeliveredMaterial    *string
	ResponsibleFirstName *string
	ResponsibleLastName  *string
	ResponsiblePhone     *string
	ResponsibleEmail     *string
}

// Registration is one artistic submission and the aggregate root of its members.
type Registration struct {
	ID             int64
	Name           string
	DisciplineID   int64
	DisciplineName string
	Email          string
	Phone          string
	Description    string
	ContentKind    ContentKind
	ContentPath    string
	ContentURL     string
	Status         Status
	Ensemble       bool
	OwnerID        int64
	Details        RegistrationDetails
	Members        MemberLists
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Editable reports whether the registration can still be reviewed.
func (r *Registration) Editable() bool {
	return r.Status == StatusPending
}

// RegistrationDraft is the validated boundary value built from a submitted
// form. ContentPath is filled by the file service after the upload is stored.
type RegistrationDraft struct {
	Name         string      `validate:"required,max=255"`
	DisciplineID int64       `validate:"required,min=1"`
	Email        string      `validate:"omitempty,email,max=255"`
	Phone        string      `validate:"omitempty,max=50"`
	Description  string      `validate:"omitempty,max=10000"`
	ContentKind  ContentKind `validate:"required,oneof=archivo link"`
	ContentURL   string      `validate:"omitempty,url,max=2048"`
	ContentPath  string      `validate:"omitempty,max=512"`
	OwnerID      int64       `validate:"required,min=1"`
	Details      RegistrationDetails
	Members      MemberLists
}

// RegistrationFilter scopes a listing. A nil DisciplineID lists everything.
type RegistrationFilter struct {
	DisciplineID *int64
}

// RegistrationRepository persists registrations together with their members.
type RegistrationRepository interface {
	// Create inserts the registration and all of its members atomically.
	Create(ctx context.Context, reg *Registration) error
	GetByID(ctx context.Context, id int64) (*Registration, error)
	// List returns registrations newest first, without members.
	List(ctx context.Context, filter RegistrationFilter) ([]Registration, error)
	// UpdateStatus moves a registration from one status to another. It returns
	// ErrInvalidTransition when the stored status is not from, and ErrNotFound
	// when the registration does not exist.
	UpdateStatus(ctx context.Context, id int64, from, to Status, at time.Time) error
	Count(ctx context.Context) (int64, error)
	// GetByFilePath returns the registration whose content file or sworn
	// statement is stored at path, without members.
	GetByFilePath(ctx context.Context, path string) (*Registration, error)
}
