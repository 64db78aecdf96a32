// Package memory implementa los puertos de persistencia sobre mapas en
// memoria, con la misma semántica transaccional que el adaptador de
// PostgreSQL: Run serializa las transacciones con un mutex y restaura un
// snapshot si fn falla, de modo que ninguna mutación parcial sobrevive.
// Lo usan los tests del motor de inventario.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallerpro/inventario-api/internal/application/inventory"
	"github.com/tallerpro/inventario-api/internal/domain/entity"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

// Store estado compartido. Los valores guardados nunca se mutan in situ:
// toda escritura reemplaza la entrada por un clon, así el snapshot de
// rollback puede ser una copia superficial de los mapas.
type Store struct {
	mu             sync.Mutex
	stocks         map[string]*entity.Stock
	movements      map[string]*entity.Movement
	movementKeys   map[string]string // clave de idempotencia -> movement ID
	reservations   map[string]*entity.Reservation
	purchaseOrders map[string]*entity.PurchaseOrder
	salesOrders    map[string]*entity.SalesOrder
	idempotency    map[string]*entity.IdempotencyRecord
	items          map[string]*entity.Item
	warehouses     map[string]*entity.Warehouse
	reservationSeq []string // orden de creación para listados deterministas
}

var _ inventory.TxRunner = (*Store)(nil)

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		stocks:         map[string]*entity.Stock{},
		movements:      map[string]*entity.Movement{},
		movementKeys:   map[string]string{},
		reservations:   map[string]*entity.Reservation{},
		purchaseOrders: map[string]*entity.PurchaseOrder{},
		salesOrders:    map[string]*entity.SalesOrder{},
		idempotency:    map[string]*entity.IdempotencyRecord{},
		items:          map[string]*entity.Item{},
		warehouses:     map[string]*entity.Warehouse{},
	}
}

type snapshot struct {
	stocks         map[string]*entity.Stock
	movements      map[string]*entity.Movement
	movementKeys   map[string]string
	reservations   map[string]*entity.Reservation
	purchaseOrders map[string]*entity.PurchaseOrder
	salesOrders    map[string]*entity.SalesOrder
	idempotency    map[string]*entity.IdempotencyRecord
	reservationSeq []string
}

// Run ejecuta fn como una transacción: serializada por el mutex y con
// rollback completo del estado mutable si fn devuelve error.
func (s *Store) Run(ctx context.Context, fn func(r inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	repos := inventory.TxRepos{
		Movements:      &txMovements{s: s},
		Stock:          &txStock{s: s},
		Reservations:   &txReservations{s: s},
		PurchaseOrders: &txPurchaseOrders{s: s},
		SalesOrders:    &txSalesOrders{s: s},
		Idempotency:    &txIdempotency{s: s},
	}
	if err := fn(repos); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		stocks:         copyMap(s.stocks),
		movements:      copyMap(s.movements),
		movementKeys:   copyMap(s.movementKeys),
		reservations:   copyMap(s.reservations),
		purchaseOrders: copyMap(s.purchaseOrders),
		salesOrders:    copyMap(s.salesOrders),
		idempotency:    copyMap(s.idempotency),
		reservationSeq: append([]string(nil), s.reservationSeq...),
	}
}

func (s *Store) restore(snap snapshot) {
	s.stocks = snap.stocks
	s.movements = snap.movements
	s.movementKeys = snap.movementKeys
	s.reservations = snap.reservations
	s.purchaseOrders = snap.purchaseOrders
	s.salesOrders = snap.salesOrders
	s.idempotency = snap.idempotency
	s.reservationSeq = snap.reservationSeq
}

func copyMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func stockKey(itemID, warehouseID string) string {
	return itemID + "|" + warehouseID
}

// ──────────────────────────────────────────────────────────────────────────
// Lecturas y siembras fuera de transacción (para wiring y tests)
// ──────────────────────────────────────────────────────────────────────────

// Items devuelve el puerto de catálogo de ítems (solo lectura, con lock).
func (s *Store) Items() repository.ItemRepository { return lockedItems{s} }

// Warehouses devuelve el puerto de bodegas (solo lectura, con lock).
func (s *Store) Warehouses() repository.WarehouseRepository { return lockedWarehouses{s} }

type lockedItems struct{ s *Store }

func (l lockedItems) GetByID(id string) (*entity.Item, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	it, ok := l.s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

type lockedWarehouses struct{ s *Store }

func (l lockedWarehouses) GetByID(id string) (*entity.Warehouse, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	wh, ok := l.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	cp := *wh
	return &cp, nil
}

// SeedItem registra un ítem de catálogo.
func (s *Store) SeedItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = &entity.Item{ID: id, SKU: id, Name: id, CreatedAt: time.Now()}
}

// SeedWarehouse registra una bodega.
func (s *Store) SeedWarehouse(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warehouses[id] = &entity.Warehouse{ID: id, Code: id, Name: id, CreatedAt: time.Now()}
}

// SeedStock deja un registro de stock con cantidad, reservado y costo dados.
func (s *Store) SeedStock(itemID, warehouseID string, qty, reserved, avgCost decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks[stockKey(itemID, warehouseID)] = &entity.Stock{
		ItemID:      itemID,
		WarehouseID: warehouseID,
		Quantity:    qty,
		Reserved:    reserved,
		AvgCost:     avgCost,
		UpdatedAt:   time.Now(),
	}
}

// SeedPurchaseOrder registra una orden de compra.
func (s *Store) SeedPurchaseOrder(po *entity.PurchaseOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchaseOrders[po.ID] = clonePurchaseOrder(po)
}

// SeedSalesOrder registra una orden de venta.
func (s *Store) SeedSalesOrder(so *entity.SalesOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.salesOrders[so.ID] = cloneSalesOrder(so)
}

// StockOf devuelve el registro de stock actual (en cero si no existe).
func (s *Store) StockOf(itemID, warehouseID string) *entity.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stocks[stockKey(itemID, warehouseID)]
	if !ok {
		return entity.NewStock(itemID, warehouseID)
	}
	cp := *st
	return &cp
}

// ReservationOf devuelve una reserva por ID (nil si no existe).
func (s *Store) ReservationOf(id string) *entity.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return nil
	}
	cp := *res
	return &cp
}

// SalesOrderOf devuelve una orden de venta por ID (nil si no existe).
func (s *Store) SalesOrderOf(id string) *entity.SalesOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	so, ok := s.salesOrders[id]
	if !ok {
		return nil
	}
	return cloneSalesOrder(so)
}

// PurchaseOrderOf devuelve una orden de compra por ID (nil si no existe).
func (s *Store) PurchaseOrderOf(id string) *entity.PurchaseOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.purchaseOrders[id]
	if !ok {
		return nil
	}
	return clonePurchaseOrder(po)
}

// MovementCount devuelve cuántos movimientos hay en el ledger.
func (s *Store) MovementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}
