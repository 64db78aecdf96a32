package memory

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tallerpro/inventario-api/internal/domain"
	"github.com/tallerpro/inventario-api/internal/domain/entity"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

// Repositorios atados a la "transacción" en curso: el mutex del Store ya
// está tomado por Run, por lo que operan sin bloquear. Toda escritura
// guarda un clon (ver nota en Store).

var (
	_ repository.StockRepository         = (*txStock)(nil)
	_ repository.MovementRepository      = (*txMovements)(nil)
	_ repository.ReservationRepository   = (*txReservations)(nil)
	_ repository.PurchaseOrderRepository = (*txPurchaseOrders)(nil)
	_ repository.SalesOrderRepository    = (*txSalesOrders)(nil)
	_ repository.IdempotencyRepository   = (*txIdempotency)(nil)
)

type txStock struct{ s *Store }

func (r *txStock) Get(itemID, warehouseID string) (*entity.Stock, error) {
	st, ok := r.s.stocks[stockKey(itemID, warehouseID)]
	if !ok {
		return entity.NewStock(itemID, warehouseID), nil
	}
	cp := *st
	return &cp, nil
}

func (r *txStock) GetForUpdate(itemID, warehouseID string) (*entity.Stock, error) {
	// La tx en memoria ya es exclusiva; el lock de fila es implícito.
	return r.Get(itemID, warehouseID)
}

func (r *txStock) Upsert(stock *entity.Stock) error {
	cp := *stock
	r.s.stocks[stockKey(stock.ItemID, stock.WarehouseID)] = &cp
	return nil
}

type txMovements struct{ s *Store }

func (r *txMovements) Create(m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.IdempotencyKey != "" {
		if _, used := r.s.movementKeys[m.IdempotencyKey]; used {
			return domain.ErrConflict
		}
		r.s.movementKeys[m.IdempotencyKey] = m.ID
	}
	r.s.movements[m.ID] = cloneMovement(m)
	return nil
}

func (r *txMovements) GetByID(id string) (*entity.Movement, error) {
	m, ok := r.s.movements[id]
	if !ok {
		return nil, nil
	}
	return cloneMovement(m), nil
}

func (r *txMovements) GetByIdempotencyKey(key string) (*entity.Movement, error) {
	id, ok := r.s.movementKeys[key]
	if !ok {
		return nil, nil
	}
	return r.GetByID(id)
}

func (r *txMovements) ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return r.list(func(m *entity.Movement) bool {
		return m.FromWarehouseID == warehouseID || m.ToWarehouseID == warehouseID
	}, from, to, limit, offset)
}

func (r *txMovements) ListByItem(itemID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	return r.list(func(m *entity.Movement) bool { return m.ItemID == itemID }, from, to, limit, offset)
}

func (r *txMovements) list(match func(*entity.Movement) bool, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for _, m := range r.s.movements {
		if !match(m) {
			continue
		}
		if from != nil && m.Date.Before(*from) {
			continue
		}
		if to != nil && m.Date.After(*to) {
			continue
		}
		out = append(out, cloneMovement(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type txReservations struct{ s *Store }

func (r *txReservations) Create(res *entity.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	if _, exists := r.s.reservations[res.ID]; exists {
		return domain.ErrDuplicate
	}
	cp := *res
	r.s.reservations[res.ID] = &cp
	r.s.reservationSeq = append(r.s.reservationSeq, res.ID)
	return nil
}

func (r *txReservations) GetByID(id string) (*entity.Reservation, error) {
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (r *txReservations) GetForUpdate(id string) (*entity.Reservation, error) {
	return r.GetByID(id)
}

func (r *txReservations) Update(res *entity.Reservation) error {
	if _, ok := r.s.reservations[res.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *res
	r.s.reservations[res.ID] = &cp
	return nil
}

func (r *txReservations) ListBySalesOrder(salesOrderID string) ([]*entity.Reservation, error) {
	return r.listSeq(func(res *entity.Reservation) bool { return res.SalesOrderID == salesOrderID })
}

func (r *txReservations) ListByWorkOrder(workOrderID string) ([]*entity.Reservation, error) {
	return r.listSeq(func(res *entity.Reservation) bool { return res.WorkOrderID == workOrderID })
}

func (r *txReservations) listSeq(match func(*entity.Reservation) bool) ([]*entity.Reservation, error) {
	var out []*entity.Reservation
	for _, id := range r.s.reservationSeq {
		res, ok := r.s.reservations[id]
		if !ok || !match(res) {
			continue
		}
		cp := *res
		out = append(out, &cp)
	}
	return out, nil
}

type txPurchaseOrders struct{ s *Store }

func (r *txPurchaseOrders) GetByID(id string) (*entity.PurchaseOrder, error) {
	po, ok := r.s.purchaseOrders[id]
	if !ok {
		return nil, nil
	}
	return clonePurchaseOrder(po), nil
}

func (r *txPurchaseOrders) GetForUpdate(id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(id)
}

func (r *txPurchaseOrders) Update(order *entity.PurchaseOrder) error {
	if _, ok := r.s.purchaseOrders[order.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.purchaseOrders[order.ID] = clonePurchaseOrder(order)
	return nil
}

type txSalesOrders struct{ s *Store }

func (r *txSalesOrders) GetByID(id string) (*entity.SalesOrder, error) {
	so, ok := r.s.salesOrders[id]
	if !ok {
		return nil, nil
	}
	return cloneSalesOrder(so), nil
}

func (r *txSalesOrders) GetForUpdate(id string) (*entity.SalesOrder, error) {
	return r.GetByID(id)
}

func (r *txSalesOrders) Update(order *entity.SalesOrder) error {
	if _, ok := r.s.salesOrders[order.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.salesOrders[order.ID] = cloneSalesOrder(order)
	return nil
}

type txIdempotency struct{ s *Store }

func (r *txIdempotency) Get(key string) (*entity.IdempotencyRecord, error) {
	rec, ok := r.s.idempotency[key]
	if !ok {
		return nil, nil
	}
	cp := *rec
	cp.Result = append([]byte(nil), rec.Result...)
	return &cp, nil
}

func (r *txIdempotency) Save(rec *entity.IdempotencyRecord) error {
	if _, exists := r.s.idempotency[rec.Key]; exists {
		return domain.ErrConflict
	}
	cp := *rec
	cp.Result = append([]byte(nil), rec.Result...)
	r.s.idempotency[rec.Key] = &cp
	return nil
}

func cloneMovement(m *entity.Movement) *entity.Movement {
	cp := *m
	if m.UnitCost != nil {
		uc := *m.UnitCost
		cp.UnitCost = &uc
	}
	return &cp
}

func clonePurchaseOrder(po *entity.PurchaseOrder) *entity.PurchaseOrder {
	cp := *po
	cp.Lines = append([]entity.PurchaseOrderLine(nil), po.Lines...)
	return &cp
}

func cloneSalesOrder(so *entity.SalesOrder) *entity.SalesOrder {
	cp := *so
	cp.Lines = append([]entity.SalesOrderLine(nil), so.Lines...)
	return &cp
}
