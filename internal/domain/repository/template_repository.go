package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// TemplateRepository lectura del catálogo de plantillas (administrado por un sistema externo).
type TemplateRepository interface {
	// GetByID devuelve la plantilla con sus atributos ordenados, o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.ProductTemplate, error)
}
