package service

import (
	"fmt"

	"github.com/msomdec/inscripciones/internal/domain"
)

// Access rules for discipline-scoped data. Admins bypass scoping; everyone
// else is confined to their own discipline. A nil requester is never allowed.

// RequireRequester rejects a missing identity.
func RequireRequester(r *domain.Requester) error {
	if r == nil {
		return domain.ErrUnauthorized
	}
	return nil
}

// RequireAdmin rejects a missing identity or a non-admin one.
func RequireAdmin(r *domain.Requester) error {
	if r == nil {
		return domain.ErrUnauthorized
	}
	if !r.IsAdmin {
		return fmt.Errorf("%w: admin only", domain.ErrForbidden)
	}
	return nil
}

// CanView reports whether r may read a record of the given discipline.
func CanView(r *domain.Requester, disciplineID int64) bool {
	if r == nil {
		return false
	}
	if r.IsAdmin {
		return true
	}
	return r.DisciplineID != nil && *r.DisciplineID == disciplineID
}

// CanSubmit checks whether r may file a registration for disciplineID. Users
// without a discipline may submit to any.
func CanSubmit(r *domain.Requester, disciplineID int64) error {
	if r == nil {
		return domain.ErrUnauthorized
	}
	if r.IsAdmin || r.DisciplineID == nil || *r.DisciplineID == disciplineID {
		return nil
	}
	return fmt.Errorf("%w: discipline %d is outside your scope", domain.ErrForbidden, disciplineID)
}

// ListFilter returns the listing scope for r. ok is false when r may see
// nothing at all.
func ListFilter(r *domain.Requester) (filter domain.RegistrationFilter, ok bool) {
	if r == nil {
		return filter, false
	}
	if r.IsAdmin {
		return filter, true
	}
	if r.DisciplineID == nil {
		return filter, false
	}
	id := *r.DisciplineID
	filter.DisciplineID = &id
	return filter, true
}
