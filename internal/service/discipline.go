package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/patrickmn/go-cache"
)

// DisciplineCatalog resolves discipline names, caching lookups in process.
type DisciplineCatalog struct {
	repo  domain.DisciplineRepository
	cache *cache.Cache
	log   *slog.Logger
}

func NewDisciplineCatalog(repo domain.DisciplineRepository, log *slog.Logger) *DisciplineCatalog {
	return &DisciplineCatalog{
		repo:  repo,
		cache: cache.New(10*time.Minute, 15*time.Minute),
		log:   log,
	}
}

// Seed stores the fixed catalog and warms the cache.
func (c *DisciplineCatalog) Seed(ctx context.Context) error {
	if err := c.repo.Seed(ctx, domain.Disciplines); err != nil {
		return err
	}
	list, err := c.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, d := range list {
		c.cache.Set(cacheKey(d.ID), d, cache.DefaultExpiration)
	}
	return nil
}

// Get returns the discipline or domain.ErrNotFound.
func (c *DisciplineCatalog) Get(ctx context.Context, id int64) (domain.Discipline, error) {
	if v, ok := c.cache.Get(cacheKey(id)); ok {
		return v.(domain.Discipline), nil
	}
	d, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Discipline{}, err
	}
	c.cache.Set(cacheKey(id), *d, cache.DefaultExpiration)
	return *d, nil
}

// Name returns the display name for id, or domain.UnknownDisciplineName.
func (c *DisciplineCatalog) Name(ctx context.Context, id int64) string {
	d, err := c.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.log.Warn("resolve discipline name", "discipline_id", id, "error", err)
		}
		return domain.UnknownDisciplineName
	}
	return d.Name
}

// Exists reports whether id is in the catalog.
func (c *DisciplineCatalog) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := c.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get discipline: %w", err)
	}
	return true, nil
}

func (c *DisciplineCatalog) List(ctx context.Context) ([]domain.Discipline, error) {
	return c.repo.List(ctx)
}

func cacheKey(id int64) string {
	return "discipline:" + strconv.FormatInt(id, 10)
}
