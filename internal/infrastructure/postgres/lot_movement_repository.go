package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.LotMovementRepository = (*LotMovementRepo)(nil)

// LotMovementRepo registro de movimientos del libro de stock (usable con pool o tx).
type LotMovementRepo struct {
	q Querier
}

// NewLotMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotMovementRepository(q Querier) *LotMovementRepo {
	return &LotMovementRepo{q: q}
}

// Create persiste un movimiento.
func (r *LotMovementRepo) Create(ctx context.Context, m *entity.LotMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO lot_movements (id, lot_id, sale_id, type, quantity, sold_after, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.LotID, m.SaleID, m.Type, m.Quantity, m.SoldAfter, m.CreatedBy, m.CreatedAt,
	)
	return wrapErr("create lot movement", err)
}

// ListByLot movimientos del lote, más recientes primero. limit 0 = sin límite.
func (r *LotMovementRepo) ListByLot(ctx context.Context, lotID string, limit, offset int) ([]*entity.LotMovement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, lot_id, sale_id, type, quantity, sold_after, created_by, created_at
		FROM lot_movements WHERE lot_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($2::int, 0) OFFSET $3`, lotID, limit, offset)
	if err != nil {
		return nil, wrapErr("list lot movements", err)
	}
	defer rows.Close()
	list := []*entity.LotMovement{}
	for rows.Next() {
		var m entity.LotMovement
		if err := rows.Scan(&m.ID, &m.LotID, &m.SaleID, &m.Type, &m.Quantity, &m.SoldAfter, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lot movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
