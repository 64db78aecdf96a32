package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tallerpro/inventario-api/internal/domain/entity"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implementación de PurchaseOrderRepository sobre
// PostgreSQL (cabecera en purchase_orders, líneas en purchase_order_lines).
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// GetByID obtiene la orden con sus líneas (nil si no existe).
func (r *PurchaseOrderRepo) GetByID(id string) (*entity.PurchaseOrder, error) {
	return r.get(id, false)
}

// GetForUpdate obtiene la orden bloqueando la cabecera (SELECT FOR UPDATE).
func (r *PurchaseOrderRepo) GetForUpdate(id string) (*entity.PurchaseOrder, error) {
	return r.get(id, true)
}

func (r *PurchaseOrderRepo) get(id string, lock bool) (*entity.PurchaseOrder, error) {
	query := `
		SELECT id, supplier_id, state, created_at, updated_at
		FROM purchase_orders WHERE id = $1`
	if lock {
		query += " FOR UPDATE"
	}
	var o entity.PurchaseOrder
	var state string
	var supplier *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&o.ID, &supplier, &state, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", translateError(err))
	}
	o.SupplierID = deref(supplier)
	o.State = entity.PurchaseOrderState(state)

	lines, err := r.lines(id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *PurchaseOrderRepo) lines(orderID string) ([]entity.PurchaseOrderLine, error) {
	query := `
		SELECT item_id, quantity, received
		FROM purchase_order_lines WHERE order_id = $1
		ORDER BY position`
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list purchase lines: %w", translateError(err))
	}
	defer rows.Close()
	var lines []entity.PurchaseOrderLine
	for rows.Next() {
		var l entity.PurchaseOrderLine
		if err := rows.Scan(&l.ItemID, &l.Quantity, &l.Received); err != nil {
			return nil, fmt.Errorf("scan purchase line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Update persiste el estado de la cabecera y lo recibido por línea.
func (r *PurchaseOrderRepo) Update(order *entity.PurchaseOrder) error {
	ctx := context.Background()
	_, err := r.q.Exec(ctx, `
		UPDATE purchase_orders SET state = $2, updated_at = $3 WHERE id = $1`,
		order.ID, string(order.State), order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update purchase order: %w", translateError(err))
	}
	for _, l := range order.Lines {
		_, err := r.q.Exec(ctx, `
			UPDATE purchase_order_lines SET received = $3
			WHERE order_id = $1 AND item_id = $2`,
			order.ID, l.ItemID, l.Received)
		if err != nil {
			return fmt.Errorf("update purchase line: %w", translateError(err))
		}
	}
	return nil
}
