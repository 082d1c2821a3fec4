// Package sales reúne las reglas puras de una venta: precios, ciclo de pago y numeración.
package sales

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// PriceScale decimales del precio unitario derivado.
const PriceScale = 4

// DefaultCurrency moneda si la venta no indica otra.
const DefaultCurrency = "RUB"

// Details datos de la venta que no dependen del lote.
type Details struct {
	Quantity      decimal.Decimal
	UnitPrice     *decimal.Decimal
	TotalPrice    *decimal.Decimal
	Currency      string
	PaymentMethod string
	CustomerName  string
	CustomerPhone string
	Notes         string
	SaleDate      *time.Time
	CreatedBy     string
}

// DerivePrices: el total manda si viene informado; el unitario se deriva como total/cantidad
// cuando falta. Con sólo unitario, total = unitario * cantidad. Sin ninguno ambos son cero.
func DerivePrices(qty decimal.Decimal, unit, total *decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: la cantidad debe ser mayor a cero", domain.ErrInvalidInput)
	}
	if (unit != nil && unit.IsNegative()) || (total != nil && total.IsNegative()) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: los precios no pueden ser negativos", domain.ErrInvalidInput)
	}
	switch {
	case total != nil && unit != nil:
		return *unit, *total, nil
	case total != nil:
		return total.DivRound(qty, PriceScale), *total, nil
	case unit != nil:
		return *unit, unit.Mul(qty), nil
	default:
		return decimal.Zero, decimal.Zero, nil
	}
}

// New arma una venta pendiente contra el lote. La cantidad no puede superar el disponible.
func New(id, number string, lot *entity.InventoryLot, d Details, now time.Time) (*entity.Sale, error) {
	unit, total, err := DerivePrices(d.Quantity, d.UnitPrice, d.TotalPrice)
	if err != nil {
		return nil, err
	}
	if available := lot.AvailableQuantity(); d.Quantity.GreaterThan(available) {
		return nil, fmt.Errorf("%w: solicitado %s, disponible %s", domain.ErrInsufficientStock, d.Quantity, available)
	}
	currency := strings.ToUpper(strings.TrimSpace(d.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	saleDate := now
	if d.SaleDate != nil {
		saleDate = *d.SaleDate
	}
	return &entity.Sale{
		ID:            id,
		Number:        number,
		LotID:         lot.ID,
		WarehouseID:   lot.WarehouseID,
		CompositeKey:  lot.Key().String(),
		Quantity:      d.Quantity,
		UnitPrice:     unit,
		TotalPrice:    total,
		Currency:      currency,
		PaymentStatus: entity.PaymentStatusPending,
		PaymentMethod: d.PaymentMethod,
		CustomerName:  d.CustomerName,
		CustomerPhone: d.CustomerPhone,
		Notes:         d.Notes,
		SaleDate:      saleDate,
		CreatedBy:     d.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// MarkPaid pending -> paid. El descuento de stock lo hace quien llama, en la misma transacción.
func MarkPaid(s *entity.Sale, now time.Time) error {
	if s.PaymentStatus != entity.PaymentStatusPending {
		return fmt.Errorf("%w: la venta %s no está pendiente (%s)", domain.ErrInvalidState, s.Number, s.PaymentStatus)
	}
	s.PaymentStatus = entity.PaymentStatusPaid
	s.UpdatedAt = now
	return nil
}

// MarkCancelled pasa la venta a cancelled. Devuelve la cantidad a reponer en el lote (cero si
// la venta nunca descontó stock). Cancelar dos veces es ErrInvalidState.
func MarkCancelled(s *entity.Sale, reason string, now time.Time) (decimal.Decimal, error) {
	if s.PaymentStatus == entity.PaymentStatusCancelled {
		return decimal.Zero, fmt.Errorf("%w: la venta %s ya está cancelada", domain.ErrInvalidState, s.Number)
	}
	restore := decimal.Zero
	if s.AppliedToLedger() {
		restore = s.Quantity
	}
	s.PaymentStatus = entity.PaymentStatusCancelled
	if r := strings.TrimSpace(reason); r != "" {
		s.CancellationReason = &r
	}
	s.UpdatedAt = now
	return restore, nil
}
