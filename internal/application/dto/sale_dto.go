package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	CompositeKey    string           `json:"composite_product_key"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	TotalPrice      *decimal.Decimal `json:"total_price,omitempty"`
	Currency        string           `json:"currency,omitempty"`
	PaymentMethod   string           `json:"payment_method,omitempty"`
	CustomerName    string           `json:"customer_name,omitempty"`
	CustomerPhone   string           `json:"customer_phone,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	SaleDate        *time.Time       `json:"sale_date,omitempty"`
	DeferProcessing bool             `json:"defer_processing,omitempty"`
}

// CancelSaleRequest body para POST /api/sales/:id/cancel.
type CancelSaleRequest struct {
	Reason string `json:"reason"`
}

// SaleResponse representación de una venta.
type SaleResponse struct {
	ID                 string          `json:"id"`
	Number             string          `json:"sale_number"`
	LotID              string          `json:"lot_id"`
	WarehouseID        string          `json:"warehouse_id"`
	CompositeKey       string          `json:"composite_product_key"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	Currency           string          `json:"currency"`
	PaymentStatus      string          `json:"payment_status"`
	PaymentMethod      string          `json:"payment_method,omitempty"`
	CancellationReason *string         `json:"reason_cancellation,omitempty"`
	CustomerName       string          `json:"customer_name,omitempty"`
	CustomerPhone      string          `json:"customer_phone,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	SaleDate           time.Time       `json:"sale_date"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// SaleFromEntity mapea la venta.
func SaleFromEntity(s *entity.Sale) *SaleResponse {
	return &SaleResponse{
		ID:                 s.ID,
		Number:             s.Number,
		LotID:              s.LotID,
		WarehouseID:        s.WarehouseID,
		CompositeKey:       s.CompositeKey,
		Quantity:           s.Quantity,
		UnitPrice:          s.UnitPrice,
		TotalPrice:         s.TotalPrice,
		Currency:           s.Currency,
		PaymentStatus:      s.PaymentStatus,
		PaymentMethod:      s.PaymentMethod,
		CancellationReason: s.CancellationReason,
		CustomerName:       s.CustomerName,
		CustomerPhone:      s.CustomerPhone,
		Notes:              s.Notes,
		SaleDate:           s.SaleDate,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}
