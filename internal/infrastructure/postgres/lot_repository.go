package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/attribute"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

const lotColumns = `id, template_id, warehouse_id, producer_id, name, attributes, quantity, sold_quantity,
	calculated_volume, status, correction_status, correction, revised_at, shipping_location, shipping_date,
	expected_arrival_date, actual_arrival_date, transport_number, notes, description, document_paths,
	is_active, created_by, created_at, updated_at`

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

// Create persiste un lote nuevo.
func (r *LotRepo) Create(ctx context.Context, l *entity.InventoryLot) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_lots (`+lotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		l.ID, l.TemplateID, l.WarehouseID, l.ProducerID, l.Name, attributesOrEmpty(l.Attributes), l.Quantity, l.SoldQuantity,
		l.CalculatedVolume, l.Status, l.CorrectionStatus, l.Correction, l.RevisedAt, l.ShippingLocation, l.ShippingDate,
		l.ExpectedArrivalDate, l.ActualArrivalDate, l.TransportNumber, l.Notes, l.Description, pathsOrEmpty(l.DocumentPaths),
		l.IsActive, l.CreatedBy, l.CreatedAt, l.UpdatedAt,
	)
	return wrapErr("insert lot", err)
}

// Update reescribe el lote completo. ErrNotFound si no existe.
func (r *LotRepo) Update(ctx context.Context, l *entity.InventoryLot) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory_lots SET template_id = $2, warehouse_id = $3, producer_id = $4, name = $5, attributes = $6,
			quantity = $7, sold_quantity = $8, calculated_volume = $9, status = $10, correction_status = $11,
			correction = $12, revised_at = $13, shipping_location = $14, shipping_date = $15,
			expected_arrival_date = $16, actual_arrival_date = $17, transport_number = $18, notes = $19,
			description = $20, document_paths = $21, is_active = $22, updated_at = $23
		WHERE id = $1`,
		l.ID, l.TemplateID, l.WarehouseID, l.ProducerID, l.Name, attributesOrEmpty(l.Attributes),
		l.Quantity, l.SoldQuantity, l.CalculatedVolume, l.Status, l.CorrectionStatus,
		l.Correction, l.RevisedAt, l.ShippingLocation, l.ShippingDate,
		l.ExpectedArrivalDate, l.ActualArrivalDate, l.TransportNumber, l.Notes,
		l.Description, pathsOrEmpty(l.DocumentPaths), l.IsActive, l.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update lot", err)
	}
	if cmd.RowsAffected() == 0 {
		return wrapNotFound("lote", l.ID)
	}
	return nil
}

// GetByID obtiene un lote por ID.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.InventoryLot, error) {
	return r.getOne(ctx, "get lot", `SELECT `+lotColumns+` FROM inventory_lots WHERE id = $1`, id)
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryLot, error) {
	return r.getOne(ctx, "get lot for update", `SELECT `+lotColumns+` FROM inventory_lots WHERE id = $1 FOR UPDATE`, id)
}

// FindAvailableForUpdate bloquea el lote más antiguo de la clave con disponible suficiente.
func (r *LotRepo) FindAvailableForUpdate(ctx context.Context, key entity.LotKey, qty decimal.Decimal) (*entity.InventoryLot, error) {
	query := `
		SELECT ` + lotColumns + ` FROM inventory_lots
		WHERE template_id = $1 AND warehouse_id = $2 AND producer_id IS NOT DISTINCT FROM $3 AND name = $4
			AND status = 'in_stock' AND is_active AND quantity - sold_quantity >= $5
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE`
	// Si el candidato cambió mientras esperábamos su bloqueo, PostgreSQL lo descarta y LIMIT 1
	// devuelve vacío aunque exista otro lote elegible; la segunda lectura usa un snapshot nuevo.
	for range 2 {
		l, err := r.getOne(ctx, "find available lot", query, key.TemplateID, key.WarehouseID, key.ProducerID, key.Name, qty)
		if err != nil || l != nil {
			return l, err
		}
	}
	return nil, nil
}

func (r *LotRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.InventoryLot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return l, nil
}

func scanLot(row pgx.Row) (*entity.InventoryLot, error) {
	var l entity.InventoryLot
	err := row.Scan(
		&l.ID, &l.TemplateID, &l.WarehouseID, &l.ProducerID, &l.Name, &l.Attributes, &l.Quantity, &l.SoldQuantity,
		&l.CalculatedVolume, &l.Status, &l.CorrectionStatus, &l.Correction, &l.RevisedAt, &l.ShippingLocation, &l.ShippingDate,
		&l.ExpectedArrivalDate, &l.ActualArrivalDate, &l.TransportNumber, &l.Notes, &l.Description, &l.DocumentPaths,
		&l.IsActive, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(l.DocumentPaths) == 0 {
		l.DocumentPaths = nil
	}
	return &l, nil
}

func attributesOrEmpty(m attribute.Map) attribute.Map {
	if m == nil {
		return attribute.Map{}
	}
	return m
}

func pathsOrEmpty(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}

// wrapNotFound formatea un ErrNotFound con el recurso.
func wrapNotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, id)
}
