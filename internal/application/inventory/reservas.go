package inventory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tallerpro/inventario-api/internal/domain"
	"github.com/tallerpro/inventario-api/internal/domain/entity"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

// ReservationManager es el dueño del ciclo de vida de las reservas.
// La cantidad de cada reserva se espeja en Stock.Reserved y se ajusta
// exactamente una vez por transición; el guardián de idempotencia protege
// contra reentradas.
type ReservationManager struct {
	txRunner      TxRunner
	itemRepo      repository.ItemRepository
	warehouseRepo repository.WarehouseRepository
	recorder      *MovementRecorder
}

// NewReservationManager construye el administrador de reservas.
func NewReservationManager(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	warehouseRepo repository.WarehouseRepository,
	recorder *MovementRecorder,
) *ReservationManager {
	return &ReservationManager{
		txRunner:      txRunner,
		itemRepo:      itemRepo,
		warehouseRepo: warehouseRepo,
		recorder:      recorder,
	}
}

// ReserveInput entrada para crear una reserva.
type ReserveInput struct {
	ItemID         string
	WarehouseID    string
	Quantity       decimal.Decimal
	SalesOrderID   string
	WorkOrderID    string
	IdempotencyKey string
}

type reserveResult struct {
	ReservationID string `json:"reservation_id"`
}

// Reserve crea una reserva en estado activo si hay disponible suficiente,
// incrementando Stock.Reserved en la misma transacción.
func (uc *ReservationManager) Reserve(ctx context.Context, input ReserveInput, actor string) (*entity.Reservation, error) {
	if input.ItemID == "" || input.WarehouseID == "" || !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	item, err := uc.itemRepo.GetByID(input.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	wh, err := uc.warehouseRepo.GetByID(input.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, domain.ErrNotFound
	}

	var reservation *entity.Reservation
	err = uc.txRunner.Run(ctx, func(r TxRepos) error {
		now := time.Now()

		if input.IdempotencyKey != "" {
			prev, err := replayReservation(r, input.IdempotencyKey)
			if err != nil {
				return err
			}
			if prev != nil {
				reservation = prev
				return nil
			}
		}

		stock, err := r.Stock.GetForUpdate(input.ItemID, input.WarehouseID)
		if err != nil {
			return err
		}
		if input.Quantity.GreaterThan(stock.Available()) {
			return domain.ErrInsufficientStock
		}
		stock.Reserved = stock.Reserved.Add(input.Quantity)
		stock.UpdatedAt = now
		if err := r.Stock.Upsert(stock); err != nil {
			return err
		}

		res := &entity.Reservation{
			ID:           uuid.New().String(),
			ItemID:       input.ItemID,
			WarehouseID:  input.WarehouseID,
			Quantity:     input.Quantity,
			State:        entity.ReservaActiva,
			SalesOrderID: input.SalesOrderID,
			WorkOrderID:  input.WorkOrderID,
			CreatedAt:    now,
			UpdatedAt:    now,
			CreatedBy:    actor,
		}
		if err := r.Reservations.Create(res); err != nil {
			return err
		}
		if input.IdempotencyKey != "" {
			if err := saveReservationReplay(r, input.IdempotencyKey, "reservar", res.ID, now); err != nil {
				return err
			}
		}
		reservation = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// MarkPendingPickup pasa la reserva de activo a pendiente_retiro al generar
// la orden de salida. No toca el ledger: el stock ya está reservado, solo
// falta el retiro físico.
func (uc *ReservationManager) MarkPendingPickup(ctx context.Context, reservationID, pickupOrderID string) (*entity.Reservation, error) {
	var reservation *entity.Reservation
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		res, err := r.Reservations.GetForUpdate(reservationID)
		if err != nil {
			return err
		}
		if res == nil {
			return domain.ErrNotFound
		}
		// Reentrada con la misma orden de salida: devolver el estado actual.
		if res.State == entity.ReservaPendienteRetiro && res.PickupOrderID == pickupOrderID {
			reservation = res
			return nil
		}
		if res.State != entity.ReservaActiva {
			return domain.ErrConflict
		}
		res.State = entity.ReservaPendienteRetiro
		res.PickupOrderID = pickupOrderID
		res.UpdatedAt = time.Now()
		if err := r.Reservations.Update(res); err != nil {
			return err
		}
		reservation = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// Deliver entrega una reserva en pendiente_retiro: registra la salida vía el
// registrador de movimientos, que descuenta cantidad y reservado y deja la
// reserva en consumido. Idempotente por la clave del movimiento.
func (uc *ReservationManager) Deliver(ctx context.Context, reservationID, actor, idempotencyKey string) (*entity.Movement, error) {
	var movement *entity.Movement
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		res, err := r.Reservations.GetForUpdate(reservationID)
		if err != nil {
			return err
		}
		if res == nil {
			return domain.ErrNotFound
		}
		if res.State != entity.ReservaPendienteRetiro {
			// Replay tras una entrega ya aplicada: devolver el movimiento original.
			if res.State == entity.ReservaConsumida && idempotencyKey != "" {
				prev, err := r.Movements.GetByIdempotencyKey(idempotencyKey)
				if err != nil {
					return err
				}
				if prev != nil {
					movement = prev
					return nil
				}
			}
			return domain.ErrConflict
		}
		m, err := uc.recorder.ApplyInTx(r, MovementInput{
			Tipo:            string(entity.MovementSalida),
			ItemID:          res.ItemID,
			Quantity:        res.Quantity,
			FromWarehouseID: res.WarehouseID,
			Reference:       res.PickupOrderID,
			ReferenceType:   entity.RefOrdenSalida,
			ReservationID:   res.ID,
			IdempotencyKey:  idempotencyKey,
		}, actor, time.Now())
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// Release libera una reserva no terminal: descuenta Stock.Reserved (con piso
// en cero) sin tocar la cantidad física. cancel decide el estado final
// (cancelado en vez de liberado).
func (uc *ReservationManager) Release(ctx context.Context, reservationID string, cancel bool, idempotencyKey string) (*entity.Reservation, error) {
	var reservation *entity.Reservation
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		if idempotencyKey != "" {
			prev, err := replayReservation(r, idempotencyKey)
			if err != nil {
				return err
			}
			if prev != nil {
				reservation = prev
				return nil
			}
		}
		res, err := r.Reservations.GetForUpdate(reservationID)
		if err != nil {
			return err
		}
		if res == nil {
			return domain.ErrNotFound
		}
		if res.State.Terminal() {
			return domain.ErrConflict
		}
		now := time.Now()
		if err := releaseInTx(r, res, cancel, now); err != nil {
			return err
		}
		if idempotencyKey != "" {
			if err := saveReservationReplay(r, idempotencyKey, "liberar", res.ID, now); err != nil {
				return err
			}
		}
		reservation = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// releaseInTx descuenta el reservado espejado y deja la reserva en estado
// liberado o cancelado. La reserva ya debe estar bloqueada y no terminal.
func releaseInTx(r TxRepos, res *entity.Reservation, cancel bool, now time.Time) error {
	stock, err := r.Stock.GetForUpdate(res.ItemID, res.WarehouseID)
	if err != nil {
		return err
	}
	stock.Reserved = stock.Reserved.Sub(res.Quantity)
	if stock.Reserved.LessThan(decimal.Zero) {
		stock.Reserved = decimal.Zero
	}
	stock.UpdatedAt = now
	if err := r.Stock.Upsert(stock); err != nil {
		return err
	}
	if cancel {
		res.State = entity.ReservaCancelada
	} else {
		res.State = entity.ReservaLiberada
	}
	res.UpdatedAt = now
	return r.Reservations.Update(res)
}

// replayReservation devuelve la reserva registrada bajo la clave, o nil si
// la clave no se ha usado.
func replayReservation(r TxRepos, key string) (*entity.Reservation, error) {
	rec, err := r.Idempotency.Get(key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	var result reserveResult
	if err := json.Unmarshal(rec.Result, &result); err != nil {
		return nil, err
	}
	res, err := r.Reservations.GetByID(result.ReservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.ErrConflict
	}
	return res, nil
}

func saveReservationReplay(r TxRepos, key, operation, reservationID string, now time.Time) error {
	payload, err := json.Marshal(reserveResult{ReservationID: reservationID})
	if err != nil {
		return err
	}
	return r.Idempotency.Save(&entity.IdempotencyRecord{
		Key:       key,
		Operation: operation,
		Result:    payload,
		CreatedAt: now,
	})
}
