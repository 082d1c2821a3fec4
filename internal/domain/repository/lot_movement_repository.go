package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// LotMovementRepository puerto para el registro de movimientos del libro de stock.
type LotMovementRepository interface {
	Create(ctx context.Context, m *entity.LotMovement) error
	ListByLot(ctx context.Context, lotID string, limit, offset int) ([]*entity.LotMovement, error)
}
