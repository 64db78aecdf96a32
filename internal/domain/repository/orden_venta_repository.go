package repository

import "github.com/tallerpro/inventario-api/internal/domain/entity"

// SalesOrderRepository define el puerto de persistencia de órdenes de venta.
type SalesOrderRepository interface {
	GetByID(id string) (*entity.SalesOrder, error)
	// GetForUpdate bloquea la cabecera durante confirmar/despachar/cancelar.
	GetForUpdate(id string) (*entity.SalesOrder, error)
	// Update persiste estado, claves de idempotencia y líneas.
	Update(order *entity.SalesOrder) error
}
