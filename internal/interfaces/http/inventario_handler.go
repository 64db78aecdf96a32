package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tallerpro/inventario-api/internal/application/dto"
	"github.com/tallerpro/inventario-api/internal/application/inventory"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP de movimientos y stock.
type InventoryHandler struct {
	recorder  *inventory.MovementRecorder
	stocks    repository.StockRepository
	movements repository.MovementRepository
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(recorder *inventory.MovementRecorder, stocks repository.StockRepository, movements repository.MovementRepository) *InventoryHandler {
	return &InventoryHandler{recorder: recorder, stocks: stocks, movements: movements}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia; un replay devuelve el movimiento original"
// @Param        body  body  dto.RegisterMovementRequest  true  "tipo, item_id, cantidad, bodegas según el tipo"
// @Success      201  {object}  dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventario/movimientos [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.recorder.Apply(c.Context(), inventory.MovementInput{
		Tipo:            in.Tipo,
		ItemID:          in.ItemID,
		Quantity:        in.Cantidad,
		FromWarehouseID: in.BodegaOrigen,
		ToWarehouseID:   in.BodegaDestino,
		UnitCost:        in.CostoUnitario,
		Reference:       in.Referencia,
		ReferenceType:   in.RefTipo,
		ReservationID:   in.ReservaID,
		IdempotencyKey:  idempotencyKey(c),
	}, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementResponse(mov))
}

// GetStock devuelve el registro de stock de un ítem en una bodega; si no
// existe devuelve el registro en cero.
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	itemID := c.Params("itemId")
	warehouseID := c.Params("bodegaId")
	if itemID == "" || warehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "item y bodega requeridos"})
	}
	stock, err := h.stocks.Get(itemID, warehouseID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewStockResponse(stock))
}

// ListMovements godoc
// @Summary      Consultar el ledger de movimientos
// @Tags         inventario
// @Produce      json
// @Param        bodega_id  query  string  false  "Filtrar por bodega (origen o destino)"
// @Param        item_id    query  string  false  "Filtrar por ítem"
// @Param        desde      query  string  false  "Fecha inicial (RFC 3339)"
// @Param        hasta      query  string  false  "Fecha final (RFC 3339)"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/inventario/movimientos [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	warehouseID := c.Query("bodega_id")
	itemID := c.Query("item_id")
	if warehouseID == "" && itemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "bodega_id o item_id requerido"})
	}
	from, err := parseDate(c.Query("desde"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "desde inválido"})
	}
	to, err := parseDate(c.Query("hasta"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "hasta inválido"})
	}
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	if warehouseID != "" {
		ms, err := h.movements.ListByWarehouse(warehouseID, from, to, limit, offset)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"total": len(ms), "movimientos": dto.NewMovementResponses(ms)})
	}
	ms, err := h.movements.ListByItem(itemID, from, to, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(ms), "movimientos": dto.NewMovementResponses(ms)})
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
