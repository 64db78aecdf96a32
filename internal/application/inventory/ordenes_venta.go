package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tallerpro/inventario-api/internal/domain"
	"github.com/tallerpro/inventario-api/internal/domain/entity"
)

// SalesOrderWorkflow coordina confirmar -> despachar (parcial o total) ->
// cancelar sobre el administrador de reservas y el registrador de
// movimientos. Cada operación corre en una sola transacción y es
// idempotente por su clave propia en la orden: repetir con la misma clave
// devuelve el estado actual sin reaplicar efectos; una clave distinta sobre
// una operación ya finalizada es conflicto.
type SalesOrderWorkflow struct {
	txRunner TxRunner
	recorder *MovementRecorder
}

// NewSalesOrderWorkflow construye el coordinador de órdenes de venta.
func NewSalesOrderWorkflow(txRunner TxRunner, recorder *MovementRecorder) *SalesOrderWorkflow {
	return &SalesOrderWorkflow{txRunner: txRunner, recorder: recorder}
}

// ShipItem despacho parcial: ítem y cantidad solicitada.
type ShipItem struct {
	ItemID   string
	Quantity decimal.Decimal
}

// ShipResult orden actualizada y movimientos de salida aplicados.
type ShipResult struct {
	Order     *entity.SalesOrder
	Movements []*entity.Movement
}

type shipReplay struct {
	MovementIDs []string `json:"movement_ids"`
}

// Confirm reserva el stock de todas las líneas y pasa la orden a confirmada.
// Si alguna línea no tiene disponible suficiente falla la operación completa
// y la orden queda como estaba.
func (uc *SalesOrderWorkflow) Confirm(ctx context.Context, orderID, actor, idempotencyKey string) (*entity.SalesOrder, error) {
	var order *entity.SalesOrder
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		so, err := r.SalesOrders.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if so == nil {
			return domain.ErrNotFound
		}
		if idempotencyKey != "" && so.ConfirmKey == idempotencyKey {
			order = so
			return nil
		}
		if so.State != entity.VentaBorrador && so.State != entity.VentaPendiente {
			return domain.ErrConflict
		}
		if so.WarehouseID == "" || len(so.Lines) == 0 {
			return domain.ErrInvalidInput
		}

		now := time.Now()
		for i := range so.Lines {
			line := &so.Lines[i]
			stock, err := r.Stock.GetForUpdate(line.ItemID, so.WarehouseID)
			if err != nil {
				return err
			}
			if line.Quantity.GreaterThan(stock.Available()) {
				return domain.ErrInsufficientStock
			}
			stock.Reserved = stock.Reserved.Add(line.Quantity)
			stock.UpdatedAt = now
			if err := r.Stock.Upsert(stock); err != nil {
				return err
			}
			res := &entity.Reservation{
				ID:           uuid.New().String(),
				ItemID:       line.ItemID,
				WarehouseID:  so.WarehouseID,
				Quantity:     line.Quantity,
				State:        entity.ReservaActiva,
				SalesOrderID: so.ID,
				CreatedAt:    now,
				UpdatedAt:    now,
				CreatedBy:    actor,
			}
			if err := r.Reservations.Create(res); err != nil {
				return err
			}
			line.Reserved = line.Quantity
		}

		so.State = entity.VentaConfirmada
		if idempotencyKey != "" {
			so.ConfirmKey = idempotencyKey
		}
		so.UpdatedAt = now
		if err := r.SalesOrders.Update(so); err != nil {
			return err
		}
		order = so
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Ship despacha la orden. Con items se despachan solo esas líneas hasta
// min(solicitado, pendiente); sin items se entrega toda reserva activa
// completa. La orden queda despachada solo con todas las líneas entregadas;
// si no, parcial.
func (uc *SalesOrderWorkflow) Ship(ctx context.Context, orderID string, items []ShipItem, actor, idempotencyKey string) (*ShipResult, error) {
	var result *ShipResult
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		so, err := r.SalesOrders.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if so == nil {
			return domain.ErrNotFound
		}
		// El replay va contra el guardián, no contra la última clave de la
		// orden: repetir un despacho parcial anterior también debe devolver
		// su resultado original.
		if idempotencyKey != "" {
			prev, err := uc.replayShip(r, so, idempotencyKey)
			if err != nil {
				return err
			}
			if prev != nil {
				result = prev
				return nil
			}
		}
		if so.State != entity.VentaConfirmada && so.State != entity.VentaParcial {
			return domain.ErrConflict
		}

		reservations, err := r.Reservations.ListBySalesOrder(so.ID)
		if err != nil {
			return err
		}
		// Reserva vigente por ítem (activo o pendiente_retiro).
		active := make(map[string]*entity.Reservation, len(reservations))
		for _, res := range reservations {
			if res.State == entity.ReservaActiva || res.State == entity.ReservaPendienteRetiro {
				active[res.ItemID] = res
			}
		}

		now := time.Now()
		var movements []*entity.Movement
		ship := func(idx int, line *entity.SalesOrderLine, qty decimal.Decimal) error {
			res := active[line.ItemID]
			if res == nil {
				return domain.ErrConflict
			}
			lineKey := ""
			if idempotencyKey != "" {
				lineKey = fmt.Sprintf("%s-%d", idempotencyKey, idx)
			}
			m, err := uc.recorder.ApplyInTx(r, MovementInput{
				Tipo:            string(entity.MovementSalida),
				ItemID:          line.ItemID,
				Quantity:        qty,
				FromWarehouseID: res.WarehouseID,
				Reference:       so.ID,
				ReferenceType:   entity.RefOrdenVenta,
				ReservationID:   res.ID,
				IdempotencyKey:  lineKey,
			}, actor, now)
			if err != nil {
				return err
			}
			movements = append(movements, m)
			line.Delivered = line.Delivered.Add(qty)
			return nil
		}

		if len(items) == 0 {
			// Despacho total: toda reserva vigente se entrega completa.
			for i := range so.Lines {
				line := &so.Lines[i]
				res := active[line.ItemID]
				if res == nil || res.Quantity.LessThanOrEqual(decimal.Zero) {
					continue
				}
				if err := ship(i, line, res.Quantity); err != nil {
					return err
				}
			}
		} else {
			for i, item := range items {
				if item.ItemID == "" || !item.Quantity.GreaterThan(decimal.Zero) {
					return domain.ErrInvalidInput
				}
				line := so.LineFor(item.ItemID)
				if line == nil {
					return domain.ErrNotFound
				}
				qty := item.Quantity
				if pending := line.Pending(); qty.GreaterThan(pending) {
					qty = pending
				}
				if qty.LessThanOrEqual(decimal.Zero) {
					continue
				}
				if err := ship(i, line, qty); err != nil {
					return err
				}
			}
		}

		if so.FullyDelivered() {
			so.State = entity.VentaDespachada
		} else {
			so.State = entity.VentaParcial
		}
		// Un despacho sin clave no borra la clave del anterior.
		if idempotencyKey != "" {
			so.ShipKey = idempotencyKey
		}
		so.UpdatedAt = now
		if err := r.SalesOrders.Update(so); err != nil {
			return err
		}
		if idempotencyKey != "" {
			if err := uc.saveShipReplay(r, idempotencyKey, movements, now); err != nil {
				return err
			}
		}
		result = &ShipResult{Order: so, Movements: movements}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel libera todas las reservas de la orden (el reservado baja, la
// cantidad física no se toca) y deja la orden en cancelada.
func (uc *SalesOrderWorkflow) Cancel(ctx context.Context, orderID, actor, idempotencyKey string) (*entity.SalesOrder, error) {
	var order *entity.SalesOrder
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		so, err := r.SalesOrders.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if so == nil {
			return domain.ErrNotFound
		}
		if idempotencyKey != "" && so.CancelKey == idempotencyKey {
			order = so
			return nil
		}
		switch so.State {
		case entity.VentaBorrador, entity.VentaPendiente, entity.VentaConfirmada, entity.VentaParcial:
		default:
			return domain.ErrConflict
		}

		reservations, err := r.Reservations.ListBySalesOrder(so.ID)
		if err != nil {
			return err
		}
		now := time.Now()
		for _, res := range reservations {
			if res.State.Terminal() {
				continue
			}
			locked, err := r.Reservations.GetForUpdate(res.ID)
			if err != nil {
				return err
			}
			if locked == nil || locked.State.Terminal() {
				continue
			}
			if err := releaseInTx(r, locked, false, now); err != nil {
				return err
			}
		}

		so.State = entity.VentaCancelada
		if idempotencyKey != "" {
			so.CancelKey = idempotencyKey
		}
		so.UpdatedAt = now
		if err := r.SalesOrders.Update(so); err != nil {
			return err
		}
		order = so
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// replayShip reconstruye el resultado de un despacho ya aplicado a partir
// del registro de idempotencia; nil si la clave no se ha usado.
func (uc *SalesOrderWorkflow) replayShip(r TxRepos, so *entity.SalesOrder, key string) (*ShipResult, error) {
	rec, err := r.Idempotency.Get(key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	result := &ShipResult{Order: so}
	var stored shipReplay
	if err := json.Unmarshal(rec.Result, &stored); err != nil {
		return nil, err
	}
	for _, id := range stored.MovementIDs {
		m, err := r.Movements.GetByID(id)
		if err != nil {
			return nil, err
		}
		if m != nil {
			result.Movements = append(result.Movements, m)
		}
	}
	return result, nil
}

func (uc *SalesOrderWorkflow) saveShipReplay(r TxRepos, key string, movements []*entity.Movement, now time.Time) error {
	stored := shipReplay{}
	for _, m := range movements {
		stored.MovementIDs = append(stored.MovementIDs, m.ID)
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return r.Idempotency.Save(&entity.IdempotencyRecord{
		Key:       key,
		Operation: "despachar_venta",
		Result:    payload,
		CreatedAt: now,
	})
}
