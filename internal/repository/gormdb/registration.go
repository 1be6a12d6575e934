package gormdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/msomdec/inscripciones/internal/domain"
)

// RegistrationRepository implements domain.RegistrationRepository.
type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *DB) *RegistrationRepository {
	return &RegistrationRepository{db: db.gorm}
}

var _ domain.RegistrationRepository = (*RegistrationRepository)(nil)

// Create inserts the registration row, then every member across all kinds,
// inside one transaction. On success reg is replaced by the reloaded record.
func (r *RegistrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if reg.Status == "" {
		reg.Status = domain.StatusPending
	}
	reg.CreatedAt = now
	reg.UpdatedAt = now

	row := registrationRow(reg)
	row.ID = 0
	members := reg.Members.Flatten()

	err := transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := insert(ctx, tx, &row); err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}

		rows := make([]Member, len(members))
		for i, m := range members {
			rows[i] = memberRow(row.ID, m)
		}
		if err := insertAll(ctx, tx, rows); err != nil {
			return fmt.Errorf("insert members: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	saved, err := r.GetByID(ctx, row.ID)
	if err != nil {
		return fmt.Errorf("reload registration %d: %w", row.ID, err)
	}
	*reg = *saved
	return nil
}

// GetByID returns the registration with its members grouped by kind, each
// group in insertion order.
func (r *RegistrationRepository) GetByID(ctx context.Context, id int64) (*domain.Registration, error) {
	row, err := getByID[Registration](ctx, r.db, id, preload("Discipline"), preloadMembers)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query registration %d: %w", id, err)
	}
	return row.toDomain(), nil
}

func (r *RegistrationRepository) List(ctx context.Context, filter domain.RegistrationFilter) ([]domain.Registration, error) {
	scopes := []scope{preload("Discipline"), newestFirst}
	if filter.DisciplineID != nil {
		scopes = append(scopes, where(&Registration{DisciplineID: *filter.DisciplineID}))
	}

	rows, err := query[Registration](ctx, r.db, scopes...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	regs := make([]domain.Registration, len(rows))
	for i := range rows {
		regs[i] = *rows[i].toDomain()
	}
	return regs, nil
}

func (r *RegistrationRepository) GetByFilePath(ctx context.Context, path string) (*domain.Registration, error) {
	referencing := func(db *gorm.DB) *gorm.DB {
		return db.Where("content_path = ? OR sworn_statement = ?", path, path)
	}
	rows, err := query[Registration](ctx, r.db, referencing, byID, limit(1))
	if err != nil {
		return nil, fmt.Errorf("query registration by file: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

// UpdateStatus is a single conditional UPDATE, so of two concurrent
// transitions out of the same status exactly one succeeds.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.Status, at time.Time) error {
	n, err := updateWhere(ctx, r.db,
		&Registration{ID: id, Status: string(from)},
		&Registration{Status: string(to), UpdatedAt: at.UTC().Truncate(time.Microsecond)},
	)
	if err != nil {
		return fmt.Errorf("update registration %d status: %w", id, err)
	}
	if n > 0 {
		return nil
	}

	if _, err := getByID[Registration](ctx, r.db, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("query registration %d: %w", id, err)
	}
	return domain.ErrInvalidTransition
}

func (r *RegistrationRepository) Count(ctx context.Context) (int64, error) {
	n, err := count[Registration](ctx, r.db)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

func preloadMembers(db *gorm.DB) *gorm.DB {
	return db.Preload("Members", byID)
}
