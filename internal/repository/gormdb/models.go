package gormdb

import (
	"time"

	"github.com/msomdec/inscripciones/internal/domain"
)

type Discipline struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"size:100;not null;uniqueIndex"`
}

type User struct {
	ID           int64       `gorm:"primaryKey"`
	Name         string      `gorm:"size:255;not null"`
	Email        string      `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string      `gorm:"size:255;not null"`
	IsAdmin      bool        `gorm:"not null"`
	DisciplineID *int64      `gorm:"index"`
	Discipline   *Discipline `gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt    time.Time
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

type Registration struct {
	ID           int64      `gorm:"primaryKey"`
	Name         string     `gorm:"size:255;not null"`
	DisciplineID int64      `gorm:"not null;index"`
	Discipline   Discipline `gorm:"constraint:OnDelete:RESTRICT"`
	Email        string     `gorm:"size:255"`
	Phone        string     `gorm:"size:50"`
	Description  string
	ContentKind  string `gorm:"size:16;not null"`
	ContentPath  string `gorm:"size:512"`
	ContentURL   string `gorm:"size:2048"`
	Status       string `gorm:"size:16;not null;index"`
	Ensemble     bool   `gorm:"not null"`
	OwnerID      int64  `gorm:"not null;index"`
	Owner        User   `gorm:"constraint:OnDelete:RESTRICT"`

	domain.RegistrationDetails `gorm:"embedded"`

	Members   []Member  `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

type Member struct {
	ID             int64  `gorm:"primaryKey"`
	RegistrationID int64  `gorm:"not null;index"`
	Kind           string `gorm:"size:32;not null;check:chk_members_kind,kind IN ('en_escena','fuera_escena','elenco','integrante','colaborador','equipo_tecnico')"`
	Role           string `gorm:"size:255"`
	FirstName      string `gorm:"size:100;not null"`
	LastName       string `gorm:"size:100;not null"`
	NationalID     string `gorm:"size:32"`
}

type SystemLog struct {
	ID        int64  `gorm:"primaryKey"`
	Level     string `gorm:"size:16;not null;index"`
	Message   string `gorm:"not null"`
	Detail    string
	CreatedAt time.Time `gorm:"index"`
}

func (m *Discipline) toDomain() domain.Discipline {
	return domain.Discipline{ID: m.ID, Name: m.Name}
}

func (m *User) toDomain() *domain.User {
	u := &domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		IsAdmin:      m.IsAdmin,
		DisciplineID: m.DisciplineID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Discipline != nil {
		u.DisciplineName = m.Discipline.Name
	}
	return u
}

func registrationRow(r *domain.Registration) Registration {
	return Registration{
		ID:                  r.ID,
		Name:                r.Name,
		DisciplineID:        r.DisciplineID,
		Email:               r.Email,
		Phone:               r.Phone,
		Description:         r.Description,
		ContentKind:         string(r.ContentKind),
		ContentPath:         r.ContentPath,
		ContentURL:          r.ContentURL,
		Status:              string(r.Status),
		Ensemble:            r.Ensemble,
		OwnerID:             r.OwnerID,
		RegistrationDetails: r.Details,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func (m *Registration) toDomain() *domain.Registration {
	r := &domain.Registration{
		ID:           m.ID,
		Name:         m.Name,
		DisciplineID: m.DisciplineID,
		Email:        m.Email,
		Phone:        m.Phone,
		Description:  m.Description,
		ContentKind:  domain.ContentKind(m.ContentKind),
		ContentPath:  m.ContentPath,
		ContentURL:   m.ContentURL,
		Status:       domain.Status(m.Status),
		Ensemble:     m.Ensemble,
		OwnerID:      m.OwnerID,
		Details:      m.RegistrationDetails,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.Discipline.ID != 0 {
		r.DisciplineName = m.Discipline.Name
	}
	if len(m.Members) > 0 {
		members := make([]domain.Member, len(m.Members))
		for i := range m.Members {
			members[i] = m.Members[i].toDomain()
		}
		r.Members = domain.GroupMembers(members)
	}
	return r
}

func memberRow(registrationID int64, m domain.Member) Member {
	return Member{
		RegistrationID: registrationID,
		Kind:           string(m.Kind),
		Role:           m.Role,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		NationalID:     m.NationalID,
	}
}

func (m *Member) toDomain() domain.Member {
	return domain.Member{
		ID:             m.ID,
		RegistrationID: m.RegistrationID,
		Kind:           domain.MemberKind(m.Kind),
		Role:           m.Role,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		NationalID:     m.NationalID,
	}
}

func (m *SystemLog) toDomain() domain.SystemLog {
	return domain.SystemLog{
		ID:        m.ID,
		Level:     m.Level,
		Message:   m.Message,
		Detail:    m.Detail,
		CreatedAt: m.CreatedAt.UTC(),
	}
}
