package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.TemplateRepository = (*TemplateRepo)(nil)

// TemplateRepo lectura de plantillas y sus atributos.
type TemplateRepo struct {
	q Querier
}

// NewTemplateRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTemplateRepository(q Querier) *TemplateRepo {
	return &TemplateRepo{q: q}
}

// GetByID obtiene la plantilla con sus atributos en orden de presentación.
func (r *TemplateRepo) GetByID(ctx context.Context, id string) (*entity.ProductTemplate, error) {
	var t entity.ProductTemplate
	err := r.q.QueryRow(ctx, `
		SELECT id, name, unit, formula, created_at, updated_at
		FROM product_templates WHERE id = $1`, id).Scan(
		&t.ID, &t.Name, &t.Unit, &t.Formula, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get template: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, template_id, variable, display_name, full_name, type, is_required, is_in_formula, options, sort_order
		FROM template_attributes WHERE template_id = $1
		ORDER BY sort_order, variable`, id)
	if err != nil {
		return nil, fmt.Errorf("list template attributes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a entity.TemplateAttribute
		if err := rows.Scan(&a.ID, &a.TemplateID, &a.Variable, &a.DisplayName, &a.FullName, &a.Type,
			&a.IsRequired, &a.IsInFormula, &a.Options, &a.SortOrder); err != nil {
			return nil, fmt.Errorf("scan template attribute: %w", err)
		}
		t.Attributes = append(t.Attributes, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list template attributes: %w", err)
	}
	return &t, nil
}

// Save inserta o reemplaza la plantilla con todos sus atributos. Lo usan la carga inicial
// del catálogo y los tests; la API no expone escritura de plantillas.
func (r *TemplateRepo) Save(ctx context.Context, t *entity.ProductTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO product_templates (id, name, unit, formula, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, unit = EXCLUDED.unit,
			formula = EXCLUDED.formula, updated_at = now()`,
		t.ID, t.Name, t.Unit, t.Formula,
	)
	if err != nil {
		return wrapErr("upsert template", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM template_attributes WHERE template_id = $1`, t.ID); err != nil {
		return wrapErr("reset template attributes", err)
	}
	for i, a := range t.Attributes {
		id := a.ID
		if id == "" {
			id = fmt.Sprintf("%s:%s", t.ID, a.Variable)
		}
		options := a.Options
		if options == nil {
			options = []entity.SelectOption{}
		}
		sortOrder := a.SortOrder
		if sortOrder == 0 {
			sortOrder = i
		}
		_, err := r.q.Exec(ctx, `
			INSERT INTO template_attributes (id, template_id, variable, display_name, full_name, type, is_required, is_in_formula, options, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			id, t.ID, a.Variable, a.DisplayName, a.FullName, a.Type, a.IsRequired, a.IsInFormula, options, sortOrder,
		)
		if err != nil {
			return wrapErr("insert template attribute", err)
		}
	}
	return nil
}
