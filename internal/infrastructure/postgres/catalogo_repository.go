package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tallerpro/inventario-api/internal/domain/entity"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)
var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// ItemRepo lectura de ítems de catálogo: el motor solo valida existencia.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// GetByID obtiene un ítem por ID (nil si no existe).
func (r *ItemRepo) GetByID(id string) (*entity.Item, error) {
	query := `SELECT id, sku, name, created_at FROM items WHERE id = $1`
	var it entity.Item
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&it.ID, &it.SKU, &it.Name, &it.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", translateError(err))
	}
	return &it, nil
}

// WarehouseRepo lectura de bodegas.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// GetByID obtiene una bodega por ID (nil si no existe).
func (r *WarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	query := `SELECT id, code, name, created_at FROM warehouses WHERE id = $1`
	var wh entity.Warehouse
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&wh.ID, &wh.Code, &wh.Name, &wh.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", translateError(err))
	}
	return &wh, nil
}
