package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallerpro/inventario-api/internal/application/inventory"
	"github.com/tallerpro/inventario-api/internal/domain"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. Un
// lock_timeout local acota la espera por filas bloqueadas: alcanzarlo se
// reporta como conflicto reintentable en vez de bloquear indefinidamente.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. Ninguna mutación parcial es visible fuera de la tx.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrTxAborted, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SET LOCAL lock_timeout = '3s'"); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	repos := inventory.TxRepos{
		Movements:      NewMovementRepository(tx),
		Stock:          NewStockRepository(tx),
		Reservations:   NewReservationRepository(tx),
		PurchaseOrders: NewPurchaseOrderRepository(tx),
		SalesOrders:    NewSalesOrderRepository(tx),
		Idempotency:    NewIdempotencyRepository(tx),
	}
	if err := fn(repos); err != nil {
		return translateError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: commit: %v", domain.ErrTxAborted, err)
	}
	return nil
}
