package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tallerpro/inventario-api/internal/application/dto"
	"github.com/tallerpro/inventario-api/internal/application/inventory"
)

// ReservationHandler maneja el ciclo de vida de las reservas.
type ReservationHandler struct {
	manager *inventory.ReservationManager
}

// NewReservationHandler construye el handler.
func NewReservationHandler(manager *inventory.ReservationManager) *ReservationHandler {
	return &ReservationHandler{manager: manager}
}

// Create godoc
// @Summary      Crear una reserva contra el disponible
// @Tags         reservas
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.ReserveRequest  true  "item_id, bodega_id, cantidad"
// @Success      201  {object}  dto.ReservationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/reservas [post]
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.manager.Reserve(c.Context(), inventory.ReserveInput{
		ItemID:         in.ItemID,
		WarehouseID:    in.BodegaID,
		Quantity:       in.Cantidad,
		SalesOrderID:   in.OrdenVentaID,
		WorkOrderID:    in.OrdenTrabajoID,
		IdempotencyKey: idempotencyKey(c),
	}, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewReservationResponse(res))
}

// MarkPickup pasa una reserva activa a pendiente_retiro asociándole la
// orden de salida. Reentrante: repetir con la misma orden es un no-op.
func (h *ReservationHandler) MarkPickup(c *fiber.Ctx) error {
	var in dto.PickupRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.OrdenSalidaID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "orden_salida_id requerido"})
	}
	res, err := h.manager.MarkPendingPickup(c.Context(), c.Params("id"), in.OrdenSalidaID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewReservationResponse(res))
}

// Deliver entrega una reserva pendiente de retiro: registra la salida de
// stock y deja la reserva en consumido.
func (h *ReservationHandler) Deliver(c *fiber.Ctx) error {
	mov, err := h.manager.Deliver(c.Context(), c.Params("id"), actor(c), idempotencyKey(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewMovementResponse(mov))
}

// Release libera una reserva no terminal devolviendo la cantidad al
// disponible; con cancelar=true el estado final es cancelado.
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	var in dto.ReleaseRequest
	// El cuerpo es opcional: sin cuerpo se libera sin cancelar.
	_ = c.BodyParser(&in)
	res, err := h.manager.Release(c.Context(), c.Params("id"), in.Cancelar, idempotencyKey(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewReservationResponse(res))
}
