package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tallerpro/inventario-api/internal/domain/entity"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

// SalesOrderRepo implementación de SalesOrderRepository sobre PostgreSQL
// (cabecera en sales_orders, líneas en sales_order_lines). Las claves de
// idempotencia por operación tienen índice único parcial en la cabecera.
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

// GetByID obtiene la orden con sus líneas (nil si no existe).
func (r *SalesOrderRepo) GetByID(id string) (*entity.SalesOrder, error) {
	return r.get(id, false)
}

// GetForUpdate obtiene la orden bloqueando la cabecera (SELECT FOR UPDATE).
func (r *SalesOrderRepo) GetForUpdate(id string) (*entity.SalesOrder, error) {
	return r.get(id, true)
}

func (r *SalesOrderRepo) get(id string, lock bool) (*entity.SalesOrder, error) {
	query := `
		SELECT id, customer_id, warehouse_id, state, confirm_key, ship_key, cancel_key,
			created_at, updated_at
		FROM sales_orders WHERE id = $1`
	if lock {
		query += " FOR UPDATE"
	}
	var o entity.SalesOrder
	var state string
	var customer, warehouse, confirmKey, shipKey, cancelKey *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&o.ID, &customer, &warehouse, &state, &confirmKey, &shipKey, &cancelKey,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales order: %w", translateError(err))
	}
	o.CustomerID = deref(customer)
	o.WarehouseID = deref(warehouse)
	o.State = entity.SalesOrderState(state)
	o.ConfirmKey = deref(confirmKey)
	o.ShipKey = deref(shipKey)
	o.CancelKey = deref(cancelKey)

	lines, err := r.lines(id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *SalesOrderRepo) lines(orderID string) ([]entity.SalesOrderLine, error) {
	query := `
		SELECT item_id, quantity, reserved, delivered
		FROM sales_order_lines WHERE order_id = $1
		ORDER BY position`
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list sales lines: %w", translateError(err))
	}
	defer rows.Close()
	var lines []entity.SalesOrderLine
	for rows.Next() {
		var l entity.SalesOrderLine
		if err := rows.Scan(&l.ItemID, &l.Quantity, &l.Reserved, &l.Delivered); err != nil {
			return nil, fmt.Errorf("scan sales line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Update persiste estado, claves de idempotencia y líneas.
func (r *SalesOrderRepo) Update(order *entity.SalesOrder) error {
	ctx := context.Background()
	_, err := r.q.Exec(ctx, `
		UPDATE sales_orders
		SET state = $2, confirm_key = $3, ship_key = $4, cancel_key = $5, updated_at = $6
		WHERE id = $1`,
		order.ID, string(order.State),
		nullable(order.ConfirmKey), nullable(order.ShipKey), nullable(order.CancelKey),
		order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update sales order: %w", translateError(err))
	}
	for _, l := range order.Lines {
		_, err := r.q.Exec(ctx, `
			UPDATE sales_order_lines SET reserved = $3, delivered = $4
			WHERE order_id = $1 AND item_id = $2`,
			order.ID, l.ItemID, l.Reserved, l.Delivered)
		if err != nil {
			return fmt.Errorf("update sales line: %w", translateError(err))
		}
	}
	return nil
}
