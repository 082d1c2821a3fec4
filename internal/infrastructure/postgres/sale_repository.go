package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, sale_number, lot_id, warehouse_id, composite_key, quantity, unit_price, total_price, currency,
	payment_status, payment_method, reason_cancellation, customer_name, customer_phone, notes, sale_date,
	created_by, created_at, updated_at`

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste la venta. Un número repetido (23505) es domain.ErrDuplicate.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		s.ID, s.Number, s.LotID, s.WarehouseID, s.CompositeKey, s.Quantity, s.UnitPrice, s.TotalPrice, s.Currency,
		s.PaymentStatus, s.PaymentMethod, s.CancellationReason, s.CustomerName, s.CustomerPhone, s.Notes, s.SaleDate,
		s.CreatedBy, s.CreatedAt, s.UpdatedAt,
	)
	return wrapErr("insert sale", err)
}

// Update persiste estado de pago, motivo de cancelación y datos del cliente.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE sales SET payment_status = $2, payment_method = $3, reason_cancellation = $4, customer_name = $5,
			customer_phone = $6, notes = $7, updated_at = $8
		WHERE id = $1`,
		s.ID, s.PaymentStatus, s.PaymentMethod, s.CancellationReason, s.CustomerName,
		s.CustomerPhone, s.Notes, s.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update sale", err)
	}
	if cmd.RowsAffected() == 0 {
		return wrapNotFound("venta", s.ID)
	}
	return nil
}

// Delete elimina la venta.
func (r *SaleRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete sale", err)
	}
	if cmd.RowsAffected() == 0 {
		return wrapNotFound("venta", id)
	}
	return nil
}

// GetByID obtiene una venta por ID.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, "get sale", `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate obtiene la venta y bloquea la fila.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, "get sale for update", `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Sale, error) {
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.Number, &s.LotID, &s.WarehouseID, &s.CompositeKey, &s.Quantity, &s.UnitPrice, &s.TotalPrice, &s.Currency,
		&s.PaymentStatus, &s.PaymentMethod, &s.CancellationReason, &s.CustomerName, &s.CustomerPhone, &s.Notes, &s.SaleDate,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return &s, nil
}
