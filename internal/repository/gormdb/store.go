package gormdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/msomdec/inscripciones/internal/domain"
)

// The helpers below are the only way repositories touch gorm. Conditions and
// values are typed model structs, so no column or table name ever comes from
// a caller-supplied string. Struct conditions ignore zero-valued fields.

type scope = func(*gorm.DB) *gorm.DB

func insert[T any](ctx context.Context, db *gorm.DB, row *T) error {
	return translate(db.WithContext(ctx).Omit(clause.Associations).Create(row).Error)
}

func insertAll[T any](ctx context.Context, db *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return translate(db.WithContext(ctx).Omit(clause.Associations).Create(&rows).Error)
}

// updateWhere applies the non-zero fields of values to every row matching
// cond and returns the number of rows changed.
func updateWhere[T any](ctx context.Context, db *gorm.DB, cond *T, values *T) (int64, error) {
	res := db.WithContext(ctx).Model(new(T)).Omit(clause.Associations).Where(cond).Updates(values)
	return res.RowsAffected, translate(res.Error)
}

func getByID[T any](ctx context.Context, db *gorm.DB, id int64, scopes ...scope) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Scopes(scopes...).First(&row, id).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func getByConditions[T any](ctx context.Context, db *gorm.DB, cond *T, scopes ...scope) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Scopes(scopes...).Where(cond).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func query[T any](ctx context.Context, db *gorm.DB, scopes ...scope) ([]T, error) {
	var rows []T
	if err := db.WithContext(ctx).Scopes(scopes...).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func count[T any](ctx context.Context, db *gorm.DB, scopes ...scope) (int64, error) {
	var n int64
	if err := db.WithContext(ctx).Model(new(T)).Scopes(scopes...).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// transaction runs fn in a single database transaction. fn must only use the
// handle it is given; the SQLite pool holds one connection.
func transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// Scopes shared by the repositories.

func where[T any](cond *T) scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where(cond) }
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "created_at"}, Desc: true},
		{Column: clause.Column{Name: "id"}, Desc: true},
	}})
}

func byID(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}

func limit(n int) scope {
	return func(db *gorm.DB) *gorm.DB { return db.Limit(n) }
}

func preload(association string) scope {
	return func(db *gorm.DB) *gorm.DB { return db.Preload(association) }
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %w", errUniqueViolation, err)
	}
	return err
}

var errUniqueViolation = errors.New("unique constraint violation")

// isUniqueViolation covers postgres (translated by gorm) and SQLite, whose
// pure-Go driver errors gorm does not translate.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
