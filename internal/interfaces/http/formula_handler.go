package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
)

// FormulaHandler vista previa de fórmulas y de lotes borrador para los formularios.
type FormulaHandler struct {
	uc *inventory.LotUseCase
}

// NewFormulaHandler construye el handler.
func NewFormulaHandler(uc *inventory.LotUseCase) *FormulaHandler {
	return &FormulaHandler{uc: uc}
}

// Evaluate godoc
// @Summary      Evaluar fórmula
// @Description  Evalúa la fórmula con los valores crudos del formulario. Un fallo de la fórmula
//
//	no es error HTTP: viaja en success=false con error y error_kind.
//
// @Tags         formulas
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EvaluateFormulaRequest  true  "formula, attributes, quantity"
// @Success      200   {object}  dto.EvaluateFormulaResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/formulas/evaluate [post]
func (h *FormulaHandler) Evaluate(c *fiber.Ctx) error {
	var in dto.EvaluateFormulaRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return c.JSON(h.uc.EvaluateFormula(in))
}

// Preview godoc
// @Summary      Vista previa de lote
// @Description  Calcula nombre y volumen de un lote borrador sin guardarlo.
// @Tags         formulas
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID de la plantilla"
// @Param        body  body  dto.PreviewRequest  true  "attributes, quantity"
// @Success      200   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/templates/{id}/preview [post]
func (h *FormulaHandler) Preview(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.PreviewRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Preview(c.Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
