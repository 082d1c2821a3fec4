package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// Available cantidad disponible del lote.
func Available(lot *entity.InventoryLot) decimal.Decimal {
	return lot.AvailableQuantity()
}

// Decrease descuenta qty del disponible (SoldQuantity += qty). Sólo lotes activos en bodega.
// Si qty supera el disponible devuelve ErrInsufficientStock sin mutar.
func Decrease(lot *entity.InventoryLot, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("%w: la cantidad debe ser mayor a cero", domain.ErrInvalidInput)
	}
	if lot.Status != entity.LotStatusInStock || !lot.IsActive {
		return fmt.Errorf("%w: el lote %s no está disponible para venta (estado %s)", domain.ErrInvalidState, lot.ID, lot.Status)
	}
	if available := lot.AvailableQuantity(); qty.GreaterThan(available) {
		return fmt.Errorf("%w: solicitado %s, disponible %s", domain.ErrInsufficientStock, qty, available)
	}
	lot.SoldQuantity = lot.SoldQuantity.Add(qty)
	return nil
}

// Increase devuelve qty al disponible. SoldQuantity nunca baja de cero; qty <= 0 no hace nada.
func Increase(lot *entity.InventoryLot, qty decimal.Decimal) {
	if !qty.IsPositive() {
		return
	}
	sold := lot.SoldQuantity.Sub(qty)
	if sold.IsNegative() {
		sold = decimal.Zero
	}
	lot.SoldQuantity = sold
}
