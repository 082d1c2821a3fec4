package inventory_test

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain/attribute"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func num(s string) attribute.Value { return attribute.NumberValue(dec(s)) }

// boardTemplate plantilla de tabla: largo y ancho en fórmula, especie descriptiva (select)
// y una nota de texto que no entra en el nombre.
func boardTemplate() *entity.ProductTemplate {
	return &entity.ProductTemplate{
		ID:      "tpl-board",
		Name:    "Board",
		Unit:    "m3",
		Formula: "length * width * quantity / 1000",
		Attributes: []entity.TemplateAttribute{
			{Variable: "length", DisplayName: "L", Type: entity.AttributeTypeNumber, IsRequired: true, IsInFormula: true},
			{Variable: "width", DisplayName: "W", Type: entity.AttributeTypeNumber, IsRequired: true, IsInFormula: true},
			{Variable: "species", DisplayName: "Especie", Type: entity.AttributeTypeSelect, Options: []entity.SelectOption{
				{Index: 0, Label: "pine"}, {Index: 1, Label: "oak"},
			}},
			{Variable: "remark", DisplayName: "Nota", Type: entity.AttributeTypeText},
		},
	}
}

func inStockLot(qty string) *entity.InventoryLot {
	return &entity.InventoryLot{
		ID:               "lot-1",
		TemplateID:       "tpl-board",
		WarehouseID:      "wh-1",
		Quantity:         dec(qty),
		SoldQuantity:     decimal.Zero,
		Status:           entity.LotStatusInStock,
		CorrectionStatus: entity.CorrectionStatusNone,
		IsActive:         true,
	}
}
