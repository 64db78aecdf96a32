package inventory

import (
	"context"

	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

// TxRepos agrupa los repositorios atados a una misma transacción. Todo lo
// que una operación pública muta (ledger, reservas, órdenes, idempotencia)
// vive dentro del mismo alcance atómico.
type TxRepos struct {
	Movements      repository.MovementRepository
	Stock          repository.StockRepository
	Reservations   repository.ReservationRepository
	PurchaseOrders repository.PurchaseOrderRepository
	SalesOrders    repository.SalesOrderRepository
	Idempotency    repository.IdempotencyRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Si fn devuelve error se hace rollback
// completo: ninguna mutación parcial es observable fuera de la transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}
