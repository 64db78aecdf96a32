package repository

import "github.com/tallerpro/inventario-api/internal/domain/entity"

// StockRepository define el puerto para consultar/actualizar stock por
// ítem+bodega. Las escrituras solo ocurren dentro de transacciones del
// registrador de movimientos.
type StockRepository interface {
	// Get devuelve el registro actual; si no existe, uno en cero (getOrCreate).
	Get(itemID, warehouseID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila para escritura (SELECT FOR UPDATE).
	GetForUpdate(itemID, warehouseID string) (*entity.Stock, error)
	Upsert(stock *entity.Stock) error
}
