package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tallerpro/inventario-api/internal/application/inventory"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Recorder  *inventory.MovementRecorder
	Manager   *inventory.ReservationManager
	Receiver  *inventory.PurchaseReceiver
	Workflow  *inventory.SalesOrderWorkflow
	Stocks    repository.StockRepository
	Movements repository.MovementRepository
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Ledger de movimientos y consulta de stock
	inv := api.Group("/inventario")
	inventoryHandler := NewInventoryHandler(deps.Recorder, deps.Stocks, deps.Movements)
	inv.Post("/movimientos", inventoryHandler.RegisterMovement)
	inv.Get("/movimientos", inventoryHandler.ListMovements)
	inv.Get("/stock/:itemId/:bodegaId", inventoryHandler.GetStock)

	// Ciclo de vida de reservas
	reservas := api.Group("/reservas")
	reservationHandler := NewReservationHandler(deps.Manager)
	reservas.Post("/", reservationHandler.Create)
	reservas.Post("/:id/orden-salida", reservationHandler.MarkPickup)
	reservas.Post("/:id/entregar", reservationHandler.Deliver)
	reservas.Post("/:id/liberar", reservationHandler.Release)

	// Recepción de compras
	ordersHandler := NewOrdersHandler(deps.Receiver, deps.Workflow)
	api.Post("/ordenes-compra/:id/recepcion", ordersHandler.ReceivePurchaseOrder)

	// Flujo de órdenes de venta
	ventas := api.Group("/ordenes-venta")
	ventas.Post("/:id/confirmar", ordersHandler.ConfirmSalesOrder)
	ventas.Post("/:id/despachar", ordersHandler.ShipSalesOrder)
	ventas.Post("/:id/cancelar", ordersHandler.CancelSalesOrder)
}
