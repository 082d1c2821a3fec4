package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/application/sales"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LotUC    *inventory.LotUseCase
	LedgerUC *inventory.LedgerUseCase
	SaleUC   *sales.SaleUseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", UserMiddleware())

	// Fórmulas y vista previa
	formulaHandler := NewFormulaHandler(deps.LotUC)
	api.Post("/formulas/evaluate", formulaHandler.Evaluate)
	api.Post("/templates/:id/preview", formulaHandler.Preview)

	// Lotes y recepción
	lotHandler := NewLotHandler(deps.LotUC, deps.LedgerUC)
	api.Post("/receipts", lotHandler.CreateReceipt)
	lots := api.Group("/lots")
	lots.Post("/", lotHandler.Create)
	lots.Get("/:id", lotHandler.GetByID)
	lots.Put("/:id", lotHandler.Update)
	lots.Delete("/:id", lotHandler.Delete)
	lots.Post("/:id/ship", lotHandler.Ship)
	lots.Post("/:id/arrive", lotHandler.Arrive)
	lots.Post("/:id/receive", lotHandler.Receive)
	lots.Post("/:id/corrections", lotHandler.AddCorrection)
	lots.Post("/:id/corrections/confirm", lotHandler.ConfirmCorrection)
	lots.Post("/:id/cancel", lotHandler.Cancel)

	// Libro de stock
	lots.Get("/:id/available", lotHandler.Available)
	lots.Get("/:id/movements", lotHandler.Movements)
	lots.Post("/:id/stock/decrease", lotHandler.Decrease)
	lots.Post("/:id/stock/increase", lotHandler.Increase)

	// Ventas
	saleHandler := NewSaleHandler(deps.SaleUC)
	salesGroup := api.Group("/sales")
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Delete("/:id", saleHandler.Delete)
	salesGroup.Post("/:id/process", saleHandler.Process)
	salesGroup.Post("/:id/cancel", saleHandler.Cancel)
}
