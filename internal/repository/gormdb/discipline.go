package gormdb

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/msomdec/inscripciones/internal/domain"
)

// DisciplineRepository implements domain.DisciplineRepository.
type DisciplineRepository struct {
	db *gorm.DB
}

func NewDisciplineRepository(db *DB) *DisciplineRepository {
	return &DisciplineRepository{db: db.gorm}
}

var _ domain.DisciplineRepository = (*DisciplineRepository)(nil)

func (r *DisciplineRepository) List(ctx context.Context) ([]domain.Discipline, error) {
	rows, err := query[Discipline](ctx, r.db, byID)
	if err != nil {
		return nil, fmt.Errorf("list disciplines: %w", err)
	}
	out := make([]domain.Discipline, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

func (r *DisciplineRepository) GetByID(ctx context.Context, id int64) (*domain.Discipline, error) {
	row, err := getByID[Discipline](ctx, r.db, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query discipline %d: %w", id, err)
	}
	d := row.toDomain()
	return &d, nil
}

// Seed inserts the catalog entries whose id is not present yet. Existing rows
// are left untouched.
func (r *DisciplineRepository) Seed(ctx context.Context, disciplines []domain.Discipline) error {
	if len(disciplines) == 0 {
		return nil
	}
	rows := make([]Discipline, len(disciplines))
	for i, d := range disciplines {
		rows[i] = Discipline{ID: d.ID, Name: d.Name}
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("seed disciplines: %w", translate(err))
	}
	return nil
}
