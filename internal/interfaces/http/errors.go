package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tallerpro/inventario-api/internal/application/dto"
	"github.com/tallerpro/inventario-api/internal/domain"
)

// respondError traduce errores de dominio a respuestas HTTP. Los casos
// retriables (conflicto de concurrencia, transacción abortada) devuelven
// códigos que el cliente puede reintentar con la misma clave de idempotencia.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrTxAborted):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "TX_ABORTED", Message: "transacción abortada, reintente"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// actor identifica quién ejecuta la operación; sin autenticación se toma
// del encabezado X-Actor con "sistema" como valor por defecto.
func actor(c *fiber.Ctx) string {
	if a := c.Get("X-Actor"); a != "" {
		return a
	}
	return "sistema"
}

// idempotencyKey clave de idempotencia provista por el cliente.
func idempotencyKey(c *fiber.Ctx) string {
	return c.Get("Idempotency-Key")
}
