package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de stock.
const (
	LotMovementSale       = "SALE"        // descuento por venta procesada
	LotMovementSaleCancel = "SALE_CANCEL" // devolución por cancelación
	LotMovementAdjustment = "ADJUSTMENT"  // disminución/aumento directo sin venta
)

// LotMovement registro de auditoría de cada cambio de SoldQuantity.
type LotMovement struct {
	ID        string
	LotID     string
	SaleID    *string
	Type      string
	Quantity  decimal.Decimal // negativo al descontar disponible, positivo al devolver
	SoldAfter decimal.Decimal
	CreatedAt time.Time
	CreatedBy string
}
