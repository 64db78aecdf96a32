package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tallerpro/inventario-api/internal/application/dto"
	"github.com/tallerpro/inventario-api/internal/application/inventory"
)

// OrdersHandler coordina recepciones de compra y el flujo de órdenes de venta.
type OrdersHandler struct {
	receiver *inventory.PurchaseReceiver
	workflow *inventory.SalesOrderWorkflow
}

// NewOrdersHandler construye el handler.
func NewOrdersHandler(receiver *inventory.PurchaseReceiver, workflow *inventory.SalesOrderWorkflow) *OrdersHandler {
	return &OrdersHandler{receiver: receiver, workflow: workflow}
}

// ReceivePurchaseOrder godoc
// @Summary      Registrar la recepción de una orden de compra
// @Description  Aplica entradas de stock por cada línea recibida, con tope en
// el remanente de la orden. Un replay con la misma clave devuelve el
// resultado original.
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "ID de la orden de compra"
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia del lote"
// @Param        body  body  dto.ReceiveRequest  true  "bodega_id y líneas recibidas"
// @Success      200  {object}  dto.ReceiveResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ordenes-compra/{id}/recepcion [post]
func (h *OrdersHandler) ReceivePurchaseOrder(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lines := make([]inventory.ReceiveLine, 0, len(in.Lineas))
	for _, l := range in.Lineas {
		lines = append(lines, inventory.ReceiveLine{
			ItemID:   l.ItemID,
			Quantity: l.Cantidad,
			UnitCost: l.CostoUnitario,
		})
	}
	result, err := h.receiver.Receive(c.Context(), c.Params("id"), in.BodegaID, lines, actor(c), idempotencyKey(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReceiveResponse{
		Orden:       dto.NewPurchaseOrderResponse(result.Order),
		Movimientos: dto.NewMovementResponses(result.Movements),
	})
}

// ConfirmSalesOrder reserva el stock de todas las líneas y pasa la orden a
// confirmada. Falla completa si alguna línea no tiene disponible.
func (h *OrdersHandler) ConfirmSalesOrder(c *fiber.Ctx) error {
	so, err := h.workflow.Confirm(c.Context(), c.Params("id"), actor(c), idempotencyKey(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewSalesOrderResponse(so))
}

// ShipSalesOrder despacha la orden consumiendo sus reservas. Sin cuerpo (o
// items vacío) despacha todo lo pendiente; con items despacha parcial.
func (h *OrdersHandler) ShipSalesOrder(c *fiber.Ctx) error {
	var in dto.ShipRequest
	_ = c.BodyParser(&in)
	var items []inventory.ShipItem
	for _, it := range in.Items {
		items = append(items, inventory.ShipItem{ItemID: it.ItemID, Quantity: it.Cantidad})
	}
	result, err := h.workflow.Ship(c.Context(), c.Params("id"), items, actor(c), idempotencyKey(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ShipResponse{
		Orden:       dto.NewSalesOrderResponse(result.Order),
		Movimientos: dto.NewMovementResponses(result.Movements),
	})
}

// CancelSalesOrder cancela la orden liberando sus reservas vivas.
func (h *OrdersHandler) CancelSalesOrder(c *fiber.Ctx) error {
	so, err := h.workflow.Cancel(c.Context(), c.Params("id"), actor(c), idempotencyKey(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewSalesOrderResponse(so))
}
