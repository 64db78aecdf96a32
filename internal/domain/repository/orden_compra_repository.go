package repository

import "github.com/tallerpro/inventario-api/internal/domain/entity"

// PurchaseOrderRepository define el puerto de persistencia de órdenes de
// compra (cabecera + líneas).
type PurchaseOrderRepository interface {
	GetByID(id string) (*entity.PurchaseOrder, error)
	// GetForUpdate bloquea la cabecera durante una recepción.
	GetForUpdate(id string) (*entity.PurchaseOrder, error)
	// Update persiste el estado de la cabecera y lo recibido por línea.
	Update(order *entity.PurchaseOrder) error
}
