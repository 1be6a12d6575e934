package domain

import "context"

// UnknownDisciplineName is displayed for ids outside the catalog.
const UnknownDisciplineName = "No especificada"

// Discipline is one of the fixed artistic categories a registration belongs to.
type Discipline struct {
	ID   int64
	Name string
}

// Disciplines is the fixed catalog seeded at startup.
var Disciplines = []Discipline{
	{ID: 1, Name: "Danza"},
	{ID: 2, Name: "Teatro"},
	{ID: 3, Name: "Música"},
	{ID: 4, Name: "Letras"},
	{ID: 5, Name: "Fotografía"},
	{ID: 6, Name: "Artes Visuales"},
	{ID: 7, Name: "Artes Audiovisuales"},
}

// DisciplineRepository handles discipline catalog persistence.
type DisciplineRepository interface {
	List(ctx context.Context) ([]Discipline, error)
	GetByID(ctx context.Context, id int64) (*Discipline, error)
	// Seed inserts any catalog entries that are missing. Idempotent.
	Seed(ctx context.Context, disciplines []Discipline) error
}
