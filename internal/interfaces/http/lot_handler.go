package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
)

// LotHandler alta, recepción y libro de stock de lotes.
type LotHandler struct {
	lots   *inventory.LotUseCase
	ledger *inventory.LedgerUseCase
}

// NewLotHandler construye el handler.
func NewLotHandler(lots *inventory.LotUseCase, ledger *inventory.LedgerUseCase) *LotHandler {
	return &LotHandler{lots: lots, ledger: ledger}
}

// Create godoc
// @Summary      Crear lote
// @Tags         lots
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header  string                 false  "Usuario que registra"
// @Param        body       body    dto.CreateLotRequest   true   "Plantilla, bodega, atributos y cantidad"
// @Success      201   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/lots [post]
func (h *LotHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateLotRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.lots.CreateLot(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateReceipt godoc
// @Summary      Registrar recepción
// @Description  Crea en una transacción un lote en tránsito por ítem, con el mismo transporte.
// @Tags         lots
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header  string                     false  "Usuario que registra"
// @Param        body       body    dto.CreateReceiptRequest   true   "Bodega, ítems y datos de envío"
// @Success      201   {array}   dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/receipts [post]
func (h *LotHandler) CreateReceipt(c *fiber.Ctx) error {
	var in dto.CreateReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.lots.CreateReceipt(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener lote por ID
// @Tags         lots
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id} [get]
func (h *LotHandler) GetByID(c *fiber.Ctx) error {
	return h.transition(c, h.lots.GetLot)
}

// Update godoc
// @Summary      Actualizar lote
// @Description  Cambia atributos, cantidad o descripción; nombre y volumen se recalculan.
// @Tags         lots
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del lote"
// @Param        body  body  dto.UpdateLotRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/lots/{id} [put]
func (h *LotHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateLotRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.transition(c, func(ctx context.Context, id string) (*dto.LotResponse, error) {
		return h.lots.UpdateLot(ctx, id, in)
	})
}

// Ship godoc
// @Summary      Despachar lote (ordered -> in_transit)
// @Tags         lots
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/ship [post]
func (h *LotHandler) Ship(c *fiber.Ctx) error {
	return h.transition(c, h.lots.Ship)
}

// Arrive godoc
// @Summary      Marcar llegada (in_transit -> for_receipt)
// @Tags         lots
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/arrive [post]
func (h *LotHandler) Arrive(c *fiber.Ctx) error {
	return h.transition(c, h.lots.MarkArrived)
}

// Receive godoc
// @Summary      Recibir lote en bodega
// @Tags         lots
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/receive [post]
func (h *LotHandler) Receive(c *fiber.Ctx) error {
	return h.transition(c, h.lots.Receive)
}

// AddCorrection godoc
// @Summary      Registrar corrección
// @Description  Anota la corrección; un lote pendiente de recepción además entra a bodega.
// @Tags         lots
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del lote"
// @Param        body  body  dto.CorrectionRequest  true  "Nota y, opcionalmente, atributos o cantidad corregidos"
// @Success      200   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/corrections [post]
func (h *LotHandler) AddCorrection(c *fiber.Ctx) error {
	var in dto.CorrectionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.transition(c, func(ctx context.Context, id string) (*dto.LotResponse, error) {
		return h.lots.AddCorrection(ctx, id, in)
	})
}

// ConfirmCorrection godoc
// @Summary      Confirmar corrección (correction -> revised)
// @Tags         lots
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/corrections/confirm [post]
func (h *LotHandler) ConfirmCorrection(c *fiber.Ctx) error {
	return h.transition(c, h.lots.ConfirmCorrection)
}

// Cancel godoc
// @Summary      Cancelar lote no recibido
// @Tags         lots
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/cancel [post]
func (h *LotHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.lots.Cancel)
}

// Delete godoc
// @Summary      Baja lógica del lote
// @Tags         lots
// @Param        id   path  string  true  "ID del lote"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id} [delete]
func (h *LotHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	if err := h.lots.Deactivate(c.Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Available godoc
// @Summary      Disponible del lote
// @Tags         ledger
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.AvailableResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/available [get]
func (h *LotHandler) Available(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.ledger.AvailableQuantity(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Movimientos del libro de stock
// @Tags         ledger
// @Produce      json
// @Param        id      path   string  true   "ID del lote"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.LotMovementListResponse
// @Router       /api/lots/{id}/movements [get]
func (h *LotHandler) Movements(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	limit := c.QueryInt("limit", 20)
	if limit > 100 {
		limit = 100
	}
	page := dto.PageRequest{Limit: limit, Offset: c.QueryInt("offset", 0)}
	out, err := h.ledger.ListMovements(c.Context(), id, page)
	if err != nil {
		return writeError(c, err)
	}
	page.DefaultPage()
	return c.JSON(dto.LotMovementListResponse{
		Items: out,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Decrease godoc
// @Summary      Disminuir disponible (ajuste sin venta)
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del lote"
// @Param        body  body  dto.StockChangeRequest  true  "Cantidad"
// @Success      200   {object}  dto.LotResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/stock/decrease [post]
func (h *LotHandler) Decrease(c *fiber.Ctx) error {
	return h.stockChange(c, h.ledger.DecreaseStock)
}

// Increase godoc
// @Summary      Aumentar disponible (ajuste sin venta)
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del lote"
// @Param        body  body  dto.StockChangeRequest  true  "Cantidad"
// @Success      200   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/stock/increase [post]
func (h *LotHandler) Increase(c *fiber.Ctx) error {
	return h.stockChange(c, h.ledger.IncreaseStock)
}

func (h *LotHandler) stockChange(c *fiber.Ctx, fn func(context.Context, inventory.StockChangeInput) (*dto.LotResponse, error)) error {
	var in dto.StockChangeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.transition(c, func(ctx context.Context, id string) (*dto.LotResponse, error) {
		return fn(ctx, inventory.StockChangeInput{LotID: id, Quantity: in.Quantity, UserID: GetUserID(c)})
	})
}

func (h *LotHandler) transition(c *fiber.Ctx, fn func(context.Context, string) (*dto.LotResponse, error)) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := fn(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
