package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tallerpro/inventario-api/internal/domain"
	"github.com/tallerpro/inventario-api/internal/domain/entity"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

// PurchaseReceiver coordina la recepción de mercancía de una orden de
// compra: todas las líneas del lote se aplican en una sola transacción, vía
// el registrador de movimientos. Si alguna línea falla la validación se
// aborta el lote completo.
type PurchaseReceiver struct {
	txRunner      TxRunner
	recorder      *MovementRecorder
	warehouseRepo repository.WarehouseRepository
}

// NewPurchaseReceiver construye el coordinador de recepción.
func NewPurchaseReceiver(
	txRunner TxRunner,
	recorder *MovementRecorder,
	warehouseRepo repository.WarehouseRepository,
) *PurchaseReceiver {
	return &PurchaseReceiver{
		txRunner:      txRunner,
		recorder:      recorder,
		warehouseRepo: warehouseRepo,
	}
}

// ReceiveLine línea recibida físicamente en bodega.
type ReceiveLine struct {
	ItemID   string
	Quantity decimal.Decimal
	UnitCost *decimal.Decimal
}

// ReceiveResult orden actualizada y movimientos de entrada aplicados.
type ReceiveResult struct {
	Order     *entity.PurchaseOrder
	Movements []*entity.Movement
}

type receiveReplay struct {
	OrderID     string   `json:"order_id"`
	MovementIDs []string `json:"movement_ids"`
}

// Receive aplica un lote de recepción contra la orden de compra. Por línea:
// lo pendiente (remanente) se calcula contra lo ya recibido; una línea ya
// completa se omite (no-op deliberado, no error); el resto entra con tope
// min(recibido, remanente). Un replay con la misma clave devuelve los
// movimientos originales sin reaplicarlos.
func (uc *PurchaseReceiver) Receive(ctx context.Context, orderID, warehouseID string, lines []ReceiveLine, actor, idempotencyKey string) (*ReceiveResult, error) {
	if orderID == "" || warehouseID == "" || len(lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	wh, err := uc.warehouseRepo.GetByID(warehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, domain.ErrNotFound
	}

	var result *ReceiveResult
	err = uc.txRunner.Run(ctx, func(r TxRepos) error {
		now := time.Now()

		if idempotencyKey != "" {
			prev, err := uc.replay(r, idempotencyKey)
			if err != nil {
				return err
			}
			if prev != nil {
				result = prev
				return nil
			}
		}

		po, err := r.PurchaseOrders.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}

		var movements []*entity.Movement
		for i, ln := range lines {
			if ln.ItemID == "" || !ln.Quantity.GreaterThan(decimal.Zero) {
				return domain.ErrInvalidInput
			}
			line := po.LineFor(ln.ItemID)
			if line == nil {
				return domain.ErrNotFound
			}
			remaining := line.Remaining()
			if remaining.LessThanOrEqual(decimal.Zero) {
				// Línea ya recibida por completo: omitir, no es un error.
				continue
			}
			apply := ln.Quantity
			if apply.GreaterThan(remaining) {
				apply = remaining
			}
			// Clave por línea derivada por índice: dos líneas con el mismo
			// ítem y cantidad no deben colisionar.
			lineKey := ""
			if idempotencyKey != "" {
				lineKey = fmt.Sprintf("%s-%d", idempotencyKey, i)
			}
			m, err := uc.recorder.ApplyInTx(r, MovementInput{
				Tipo:           string(entity.MovementEntrada),
				ItemID:         ln.ItemID,
				Quantity:       apply,
				ToWarehouseID:  warehouseID,
				UnitCost:       ln.UnitCost,
				Reference:      orderID,
				ReferenceType:  entity.RefOrdenCompra,
				IdempotencyKey: lineKey,
			}, actor, now)
			if err != nil {
				return err
			}
			movements = append(movements, m)

			// El registrador acumuló lo recibido; refrescar la cabecera para
			// que líneas repetidas del lote vean el remanente actualizado.
			po, err = r.PurchaseOrders.GetForUpdate(orderID)
			if err != nil {
				return err
			}
		}

		if idempotencyKey != "" {
			if err := uc.saveReplay(r, idempotencyKey, po.ID, movements, now); err != nil {
				return err
			}
		}
		result = &ReceiveResult{Order: po, Movements: movements}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// replay devuelve el resultado original de una recepción ya aplicada.
func (uc *PurchaseReceiver) replay(r TxRepos, key string) (*ReceiveResult, error) {
	rec, err := r.Idempotency.Get(key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	var stored receiveReplay
	if err := json.Unmarshal(rec.Result, &stored); err != nil {
		return nil, err
	}
	po, err := r.PurchaseOrders.GetByID(stored.OrderID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.ErrConflict
	}
	movements := make([]*entity.Movement, 0, len(stored.MovementIDs))
	for _, id := range stored.MovementIDs {
		m, err := r.Movements.GetByID(id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, domain.ErrConflict
		}
		movements = append(movements, m)
	}
	return &ReceiveResult{Order: po, Movements: movements}, nil
}

func (uc *PurchaseReceiver) saveReplay(r TxRepos, key, orderID string, movements []*entity.Movement, now time.Time) error {
	stored := receiveReplay{OrderID: orderID}
	for _, m := range movements {
		stored.MovementIDs = append(stored.MovementIDs, m.ID)
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return r.Idempotency.Save(&entity.IdempotencyRecord{
		Key:       key,
		Operation: "recepcion_compra",
		Result:    payload,
		CreatedAt: now,
	})
}
