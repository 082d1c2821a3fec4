package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// LotRepository puerto de persistencia de lotes. Dentro de una transacción, GetForUpdate y
// FindAvailableForUpdate bloquean la fila hasta el commit o rollback.
type LotRepository interface {
	Create(ctx context.Context, lot *entity.InventoryLot) error
	Update(ctx context.Context, lot *entity.InventoryLot) error
	// GetByID devuelve nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.InventoryLot, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE). nil si no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryLot, error)
	// FindAvailableForUpdate bloquea el primer lote activo en bodega de la clave con
	// disponible >= qty. nil si no hay.
	FindAvailableForUpdate(ctx context.Context, key entity.LotKey, qty decimal.Decimal) (*entity.InventoryLot, error)
}
