package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain/attribute"
)

// Estados de recepción de un lote.
const (
	LotStatusOrdered    = "ordered"     // pedido
	LotStatusInTransit  = "in_transit"  // en tránsito
	LotStatusForReceipt = "for_receipt" // llegó, pendiente de recibir
	LotStatusInStock    = "in_stock"    // en bodega, vendible
	LotStatusCancelled  = "cancelled"
)

// Estados de corrección posteriores a la recepción.
const (
	CorrectionStatusNone       = "none"
	CorrectionStatusCorrection = "correction" // corrección registrada, sin confirmar
	CorrectionStatusRevised    = "revised"    // corrección confirmada
)

// InventoryLot lote de inventario de una plantilla en una bodega.
// Invariante: 0 <= SoldQuantity <= Quantity.
type InventoryLot struct {
	ID           string
	TemplateID   string
	WarehouseID  string
	ProducerID   *string
	Name         string
	Attributes   attribute.Map
	Quantity     decimal.Decimal
	SoldQuantity decimal.Decimal
	// nil = no calculado; distinto de cero.
	CalculatedVolume *decimal.Decimal

	Status           string
	CorrectionStatus string
	Correction       string
	RevisedAt        *time.Time

	ShippingLocation    string
	ShippingDate        *time.Time
	ExpectedArrivalDate *time.Time
	ActualArrivalDate   *time.Time
	TransportNumber     string
	Notes               string
	Description         string
	DocumentPaths       []string

	IsActive  bool
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailableQuantity cantidad vendible: Quantity - SoldQuantity.
func (l *InventoryLot) AvailableQuantity() decimal.Decimal {
	return l.Quantity.Sub(l.SoldQuantity)
}

// Key clave de selección del lote para ventas.
func (l *InventoryLot) Key() LotKey {
	return LotKey{TemplateID: l.TemplateID, WarehouseID: l.WarehouseID, ProducerID: l.ProducerID, Name: l.Name}
}

// IsTerminal indica si el flujo de recepción ya terminó.
func (l *InventoryLot) IsTerminal() bool {
	return l.Status == LotStatusInStock || l.Status == LotStatusCancelled
}

// Clone copia profunda (los repositorios en memoria no comparten punteros con el llamador).
func (l *InventoryLot) Clone() *InventoryLot {
	if l == nil {
		return nil
	}
	c := *l
	c.Attributes = l.Attributes.Clone()
	c.ProducerID = cloneString(l.ProducerID)
	if l.CalculatedVolume != nil {
		v := *l.CalculatedVolume
		c.CalculatedVolume = &v
	}
	c.RevisedAt = cloneTime(l.RevisedAt)
	c.ShippingDate = cloneTime(l.ShippingDate)
	c.ExpectedArrivalDate = cloneTime(l.ExpectedArrivalDate)
	c.ActualArrivalDate = cloneTime(l.ActualArrivalDate)
	if l.DocumentPaths != nil {
		c.DocumentPaths = append([]string(nil), l.DocumentPaths...)
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
