package domain

import (
	"context"
	"time"
)

// User represents a reviewer account. Admins have no discipline; every
// other user is affiliated with at most one discipline.
type User struct {
	ID             int64
	Name           string
	Email          string
	PasswordHash   string
	IsAdmin        bool
	DisciplineID   *int64
	DisciplineName string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Requester returns the authorization capability carried by this user.
func (u *User) Requester() *Requester {
	return &Requester{
		UserID:       u.ID,
		IsAdmin:      u.IsAdmin,
		DisciplineID: u.DisciplineID,
	}
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// Requester is the per-request capability derived from a verified session.
// It is never built from client-supplied claims.
type Requester struct {
	UserID       int64
	IsAdmin      bool
	DisciplineID *int64
}
