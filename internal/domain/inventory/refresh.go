package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/attribute"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/formula"
)

// VolumeScale decimales con que se guarda el volumen (NUMERIC(13,4)).
const VolumeScale = 4

// MaxStoredVolume mayor volumen representable en almacenamiento.
var MaxStoredVolume = decimal.RequireFromString("999999999.9999")

// Mensajes para la interfaz cuando no hay volumen. Nunca se guardan en CalculatedVolume.
const (
	VolumeHintNoFormula    = "La plantilla no tiene fórmula de volumen"
	VolumeHintFillNumeric  = "Complete los atributos numéricos para calcular el volumen"
	VolumeHintFormulaError = "No se pudo calcular el volumen con la fórmula de la plantilla"
	VolumeHintOutOfRange   = "El volumen calculado excede el máximo permitido"
)

// RefreshOutcome acompaña al lote refrescado. Hint es vacío si se calculó volumen.
// Err (ErrFormula o ErrVolumeOutOfRange) explica por qué CalculatedVolume quedó en nil.
type RefreshOutcome struct {
	Hint string
	Err  error
}

// Refresh recalcula atributos normalizados, nombre y volumen del lote. Es pura: no hace I/O.
// Devuelve error (sin mutar el lote) sólo si la cantidad es inválida.
func Refresh(tpl *entity.ProductTemplate, lot *entity.InventoryLot, values attribute.Map, quantity decimal.Decimal) (RefreshOutcome, error) {
	if quantity.IsNegative() {
		return RefreshOutcome{}, fmt.Errorf("%w: la cantidad no puede ser negativa", domain.ErrInvalidInput)
	}
	if quantity.LessThan(lot.SoldQuantity) {
		return RefreshOutcome{}, fmt.Errorf("%w: la cantidad (%s) no puede ser menor a la vendida (%s)",
			domain.ErrInvalidInput, quantity, lot.SoldQuantity)
	}

	normalized := tpl.ResolveSelectIndexes(attribute.NormalizeMap(values))

	lot.TemplateID = tpl.ID
	lot.Attributes = normalized
	lot.Quantity = quantity
	lot.Name = GenerateName(tpl, normalized)
	lot.CalculatedVolume = nil

	if !tpl.HasFormula() {
		return RefreshOutcome{Hint: VolumeHintNoFormula}, nil
	}

	vars := NumericSubset(normalized, quantity)
	if len(vars) == 0 {
		return RefreshOutcome{Hint: VolumeHintFillNumeric}, nil
	}

	res := formula.Evaluate(tpl.Formula, vars)
	if !res.Success() {
		var fe *formula.Error
		if errors.As(res.Err, &fe) && fe.Kind == formula.KindUnknownOperand {
			return RefreshOutcome{Hint: VolumeHintFillNumeric, Err: res.Err}, nil
		}
		return RefreshOutcome{Hint: VolumeHintFormulaError, Err: res.Err}, nil
	}

	vol := res.Value.Round(VolumeScale)
	if vol.Abs().GreaterThan(MaxStoredVolume) {
		return RefreshOutcome{
			Hint: VolumeHintOutOfRange,
			Err:  fmt.Errorf("%w: %s", domain.ErrVolumeOutOfRange, res.Value),
		}, nil
	}
	lot.CalculatedVolume = &vol
	return RefreshOutcome{}, nil
}

// NumericSubset valores numéricos positivos, más quantity si es positiva.
func NumericSubset(values attribute.Map, quantity decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(values)+1)
	for k, v := range values {
		if d, ok := v.Number(); ok && d.IsPositive() {
			out[k] = d
		}
	}
	if quantity.IsPositive() {
		out[entity.QuantityVariable] = quantity
	}
	return out
}
