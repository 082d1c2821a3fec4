package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain/attribute"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// ShippingInfo datos de transporte que el núcleo sólo transporta.
type ShippingInfo struct {
	ShippingLocation    string     `json:"shipping_location,omitempty"`
	ShippingDate        *time.Time `json:"shipping_date,omitempty"`
	ExpectedArrivalDate *time.Time `json:"expected_arrival_date,omitempty"`
	TransportNumber     string     `json:"transport_number,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	DocumentPaths       []string   `json:"document_paths,omitempty"`
}

// CreateLotRequest body para POST /api/lots.
type CreateLotRequest struct {
	TemplateID  string          `json:"template_id"`
	WarehouseID string          `json:"warehouse_id"`
	ProducerID  *string         `json:"producer_id,omitempty"`
	Attributes  attribute.Map   `json:"attributes"`
	Quantity    decimal.Decimal `json:"quantity"`
	Status      string          `json:"status,omitempty"` // default in_stock
	Description string          `json:"description,omitempty"`
	ShippingInfo
}

// UpdateLotRequest body para PUT /api/lots/:id. Campos nil no cambian.
type UpdateLotRequest struct {
	Attributes  attribute.Map    `json:"attributes,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// ReceiptItem un lote dentro de una recepción.
type ReceiptItem struct {
	TemplateID  string          `json:"template_id"`
	ProducerID  *string         `json:"producer_id,omitempty"`
	Attributes  attribute.Map   `json:"attributes"`
	Quantity    decimal.Decimal `json:"quantity"` // cero = 1
	Description string          `json:"description,omitempty"`
}

// CreateReceiptRequest body para POST /api/receipts: N lotes en tránsito con el mismo transporte.
type CreateReceiptRequest struct {
	WarehouseID string        `json:"warehouse_id"`
	Items       []ReceiptItem `json:"items"`
	ShippingInfo
}

// CorrectionRequest body para POST /api/lots/:id/corrections. Atributos y cantidad son
// opcionales; si vienen, el lote se recalcula.
type CorrectionRequest struct {
	Correction string           `json:"correction"`
	Attributes attribute.Map    `json:"attributes,omitempty"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
}

// PreviewRequest body para POST /api/templates/:id/preview.
type PreviewRequest struct {
	Attributes attribute.Map   `json:"attributes"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// LotResponse representación de un lote.
type LotResponse struct {
	ID               string           `json:"id"`
	TemplateID       string           `json:"template_id"`
	WarehouseID      string           `json:"warehouse_id"`
	ProducerID       *string          `json:"producer_id,omitempty"`
	Name             string           `json:"name"`
	CompositeKey     string           `json:"composite_key"`
	Attributes       attribute.Map    `json:"attributes"`
	Quantity         decimal.Decimal  `json:"quantity"`
	SoldQuantity     decimal.Decimal  `json:"sold_quantity"`
	Available        decimal.Decimal  `json:"available_quantity"`
	CalculatedVolume *decimal.Decimal `json:"calculated_volume"`
	VolumeHint       string           `json:"volume_hint,omitempty"`
	Status           string           `json:"status"`
	CorrectionStatus string           `json:"correction_status"`
	Correction       string           `json:"correction,omitempty"`
	RevisedAt        *time.Time       `json:"revised_at,omitempty"`
	ActualArrival    *time.Time       `json:"actual_arrival_date,omitempty"`
	IsActive         bool             `json:"is_active"`
	ShippingInfo
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LotFromEntity mapea el lote; hint es el mensaje de volumen del último refresco (puede ser vacío).
func LotFromEntity(l *entity.InventoryLot, hint string) *LotResponse {
	return &LotResponse{
		ID:               l.ID,
		TemplateID:       l.TemplateID,
		WarehouseID:      l.WarehouseID,
		ProducerID:       l.ProducerID,
		Name:             l.Name,
		CompositeKey:     l.Key().String(),
		Attributes:       l.Attributes,
		Quantity:         l.Quantity,
		SoldQuantity:     l.SoldQuantity,
		Available:        l.AvailableQuantity(),
		CalculatedVolume: l.CalculatedVolume,
		VolumeHint:       hint,
		Status:           l.Status,
		CorrectionStatus: l.CorrectionStatus,
		Correction:       l.Correction,
		RevisedAt:        l.RevisedAt,
		ActualArrival:    l.ActualArrivalDate,
		IsActive:         l.IsActive,
		ShippingInfo: ShippingInfo{
			ShippingLocation:    l.ShippingLocation,
			ShippingDate:        l.ShippingDate,
			ExpectedArrivalDate: l.ExpectedArrivalDate,
			TransportNumber:     l.TransportNumber,
			Notes:               l.Notes,
			DocumentPaths:       l.DocumentPaths,
		},
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// AvailableResponse respuesta de GET /api/lots/:id/available.
type AvailableResponse struct {
	LotID     string          `json:"lot_id"`
	Available decimal.Decimal `json:"available_quantity"`
}

// StockChangeRequest body para aumentar/disminuir stock sin venta.
type StockChangeRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// LotMovementListResponse lista paginada de movimientos, más recientes primero.
type LotMovementListResponse struct {
	Items []LotMovementResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// LotMovementResponse un movimiento del libro de stock.
type LotMovementResponse struct {
	ID        string          `json:"id"`
	SaleID    *string         `json:"sale_id,omitempty"`
	Type      string          `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	SoldAfter decimal.Decimal `json:"sold_after"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// MovementFromEntity mapea un movimiento.
func MovementFromEntity(m *entity.LotMovement) LotMovementResponse {
	return LotMovementResponse{
		ID:        m.ID,
		SaleID:    m.SaleID,
		Type:      m.Type,
		Quantity:  m.Quantity,
		SoldAfter: m.SoldAfter,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}
