package repository

import (
	"time"

	"github.com/tallerpro/inventario-api/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia del ledger de
// movimientos (append-only).
type MovementRepository interface {
	Create(movement *entity.Movement) error
	GetByID(id string) (*entity.Movement, error)
	// GetByIdempotencyKey devuelve el movimiento ya aplicado con esa clave,
	// o nil si la clave no se ha usado.
	GetByIdempotencyKey(key string) (*entity.Movement, error)
	ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
	ListByItem(itemID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
}
