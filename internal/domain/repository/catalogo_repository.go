package repository

import "github.com/tallerpro/inventario-api/internal/domain/entity"

// ItemRepository puerto de solo lectura sobre el catálogo: el motor de
// inventario únicamente valida existencia por identificador.
type ItemRepository interface {
	GetByID(id string) (*entity.Item, error)
}

// WarehouseRepository puerto de solo lectura sobre bodegas.
type WarehouseRepository interface {
	GetByID(id string) (*entity.Warehouse, error)
}
