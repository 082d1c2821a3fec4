package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de pago de una venta.
const (
	PaymentStatusPending       = "pending"
	PaymentStatusPaid          = "paid"
	PaymentStatusPartiallyPaid = "partially_paid"
	PaymentStatusCancelled     = "cancelled"
)

// Sale venta contra un lote. Una venta paid o partially_paid ya descontó Quantity del lote;
// una cancelled lo devolvió exactamente una vez.
type Sale struct {
	ID           string
	Number       string // único global: SALE-YYYYMM-XXXXXXXX
	LotID        string
	WarehouseID  string
	CompositeKey string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	TotalPrice   decimal.Decimal
	Currency     string

	PaymentStatus      string
	PaymentMethod      string
	CancellationReason *string

	CustomerName  string
	CustomerPhone string
	Notes         string
	SaleDate      time.Time

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppliedToLedger indica si la venta tiene su cantidad descontada del lote.
func (s *Sale) AppliedToLedger() bool {
	return s.PaymentStatus == PaymentStatusPaid || s.PaymentStatus == PaymentStatusPartiallyPaid
}

// Clone copia la venta sin compartir punteros.
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	c := *s
	c.CancellationReason = cloneString(s.CancellationReason)
	return &c
}
