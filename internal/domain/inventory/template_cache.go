package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

// TemplateCache memoiza plantillas durante una sola petición. Se crea por petición y se
// descarta al terminar; no es seguro para uso concurrente.
type TemplateCache struct {
	repo repository.TemplateRepository
	byID map[string]*entity.ProductTemplate
}

// NewTemplateCache crea una caché vacía sobre repo.
func NewTemplateCache(repo repository.TemplateRepository) *TemplateCache {
	return &TemplateCache{repo: repo, byID: make(map[string]*entity.ProductTemplate)}
}

// Get devuelve la plantilla o domain.ErrNotFound.
func (c *TemplateCache) Get(ctx context.Context, id string) (*entity.ProductTemplate, error) {
	if tpl, ok := c.byID[id]; ok {
		return tpl, nil
	}
	tpl, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener plantilla %s: %w", id, err)
	}
	if tpl == nil {
		return nil, fmt.Errorf("%w: plantilla %s", domain.ErrNotFound, id)
	}
	c.byID[id] = tpl
	return tpl, nil
}
