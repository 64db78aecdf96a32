package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tallerpro/inventario-api/internal/domain/entity"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `item_id, warehouse_id, quantity, reserved, avg_cost, updated_at`

// Get obtiene el registro actual; si la fila no existe devuelve uno en cero.
func (r *StockRepo) Get(itemID, warehouseID string) (*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE item_id = $1 AND warehouse_id = $2`
	return r.scanOne(query, itemID, warehouseID)
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT FOR UPDATE).
// Si el par no existe lo siembra primero en cero: un SELECT FOR UPDATE
// sobre una fila ausente no bloquea nada, y dos primeras entradas
// concurrentes del mismo par se pisarían el Upsert entre sí.
func (r *StockRepo) GetForUpdate(itemID, warehouseID string) (*entity.Stock, error) {
	seed := `
		INSERT INTO stock (item_id, warehouse_id, quantity, reserved, avg_cost, updated_at)
		VALUES ($1, $2, 0, 0, 0, now())
		ON CONFLICT (item_id, warehouse_id) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), seed, itemID, warehouseID); err != nil {
		return nil, fmt.Errorf("seed stock: %w", translateError(err))
	}
	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE item_id = $1 AND warehouse_id = $2
		FOR UPDATE`
	return r.scanOne(query, itemID, warehouseID)
}

func (r *StockRepo) scanOne(query, itemID, warehouseID string) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(context.Background(), query, itemID, warehouseID).Scan(
		&s.ItemID, &s.WarehouseID, &s.Quantity, &s.Reserved, &s.AvgCost, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.NewStock(itemID, warehouseID), nil
		}
		return nil, fmt.Errorf("get stock: %w", translateError(err))
	}
	return &s, nil
}

// Upsert inserta o actualiza el registro por ítem y bodega.
func (r *StockRepo) Upsert(stock *entity.Stock) error {
	query := `
		INSERT INTO stock (item_id, warehouse_id, quantity, reserved, avg_cost, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (item_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, reserved = EXCLUDED.reserved,
			avg_cost = EXCLUDED.avg_cost, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		stock.ItemID, stock.WarehouseID, stock.Quantity, stock.Reserved, stock.AvgCost)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", translateError(err))
	}
	return nil
}
