package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tallerpro/inventario-api/internal/domain"
	"github.com/tallerpro/inventario-api/internal/domain/entity"
	domaininv "github.com/tallerpro/inventario-api/internal/domain/inventory"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

// MovementRecorder registra movimientos de inventario (entrada, salida,
// transferencia, ajuste) de forma transaccional con bloqueo de fila
// (SELECT FOR UPDATE). Es el único escritor del ledger de stock: cada
// llamada produce exactamente un movimiento y a lo sumo dos mutaciones
// de stock, todo dentro del mismo alcance atómico.
type MovementRecorder struct {
	txRunner      TxRunner
	itemRepo      repository.ItemRepository
	warehouseRepo repository.WarehouseRepository
}

// NewMovementRecorder construye el registrador.
func NewMovementRecorder(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	warehouseRepo repository.WarehouseRepository,
) *MovementRecorder {
	return &MovementRecorder{
		txRunner:      txRunner,
		itemRepo:      itemRepo,
		warehouseRepo: warehouseRepo,
	}
}

// MovementInput entrada para aplicar un movimiento.
// entrada: ItemID, ToWarehouseID, Quantity; UnitCost actualiza el costo promedio.
// salida: ItemID, FromWarehouseID, Quantity; ReservationID consume una reserva.
// transferencia: ItemID, FromWarehouseID, ToWarehouseID, Quantity.
// ajuste: ItemID, Quantity y una sola bodega (destino suma, origen resta con piso 0).
type MovementInput struct {
	Tipo            string // entrada|compra|salida|venta|consumo|transferencia|ajuste
	ItemID          string
	Quantity        decimal.Decimal
	FromWarehouseID string
	ToWarehouseID   string
	UnitCost        *decimal.Decimal
	Reference       string
	ReferenceType   string
	ReservationID   string
	IdempotencyKey  string
}

// Apply valida la entrada, abre una transacción y aplica el movimiento.
// Con clave de idempotencia ya usada devuelve el movimiento original sin
// reaplicar nada.
func (uc *MovementRecorder) Apply(ctx context.Context, input MovementInput, actor string) (*entity.Movement, error) {
	if _, err := uc.validate(input); err != nil {
		return nil, err
	}
	if err := uc.checkReferences(input); err != nil {
		return nil, err
	}

	var movement *entity.Movement
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		m, err := uc.ApplyInTx(r, input, actor, time.Now())
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

// ApplyInTx aplica el movimiento usando los repositorios del caller (misma
// transacción). Lo usan los coordinadores de recepción y despacho para que
// varias líneas compartan un solo Commit/Rollback.
func (uc *MovementRecorder) ApplyInTx(r TxRepos, input MovementInput, actor string, now time.Time) (*entity.Movement, error) {
	kind, err := uc.validate(input)
	if err != nil {
		return nil, err
	}

	// Replay: la clave ya aplicada devuelve el movimiento original.
	if input.IdempotencyKey != "" {
		existing, err := r.Movements.GetByIdempotencyKey(input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	switch kind {
	case entity.MovementEntrada:
		return uc.applyEntrada(r, input, actor, now)
	case entity.MovementSalida:
		return uc.applySalida(r, input, actor, now)
	case entity.MovementTransferencia:
		return uc.applyTransferencia(r, input, actor, now)
	case entity.MovementAjuste:
		return uc.applyAjuste(r, input, actor, now)
	}
	return nil, domain.ErrInvalidInput
}

// validate verifica tipo y campos requeridos según el tipo.
func (uc *MovementRecorder) validate(input MovementInput) (entity.MovementType, error) {
	kind, err := entity.ParseMovementType(input.Tipo)
	if err != nil {
		return "", err
	}
	if input.ItemID == "" || !input.Quantity.GreaterThan(decimal.Zero) {
		return "", domain.ErrInvalidInput
	}
	switch kind {
	case entity.MovementEntrada:
		if input.ToWarehouseID == "" {
			return "", domain.ErrInvalidInput
		}
	case entity.MovementSalida:
		if input.FromWarehouseID == "" {
			return "", domain.ErrInvalidInput
		}
	case entity.MovementTransferencia:
		if input.FromWarehouseID == "" || input.ToWarehouseID == "" ||
			input.FromWarehouseID == input.ToWarehouseID {
			return "", domain.ErrInvalidInput
		}
	case entity.MovementAjuste:
		// Una sola bodega: destino suma, origen resta.
		if (input.FromWarehouseID == "") == (input.ToWarehouseID == "") {
			return "", domain.ErrInvalidInput
		}
	}
	if input.UnitCost != nil && input.UnitCost.LessThan(decimal.Zero) {
		return "", domain.ErrInvalidInput
	}
	return kind, nil
}

// checkReferences valida que ítem y bodega(s) existan (fuera de la tx, solo lectura).
func (uc *MovementRecorder) checkReferences(input MovementInput) error {
	item, err := uc.itemRepo.GetByID(input.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}
	for _, whID := range []string{input.FromWarehouseID, input.ToWarehouseID} {
		if whID == "" {
			continue
		}
		wh, err := uc.warehouseRepo.GetByID(whID)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.ErrNotFound
		}
	}
	return nil
}

// applyEntrada: bloquea la fila destino, recalcula costo promedio ponderado,
// suma cantidad y registra el movimiento. Si la referencia es una orden de
// compra, acumula lo recibido en la línea (con tope) y recalcula su estado.
func (uc *MovementRecorder) applyEntrada(r TxRepos, input MovementInput, actor string, now time.Time) (*entity.Movement, error) {
	stock, err := r.Stock.GetForUpdate(input.ItemID, input.ToWarehouseID)
	if err != nil {
		return nil, err
	}
	if input.UnitCost != nil {
		stock.AvgCost = domaininv.AvgCost(stock.Quantity, stock.AvgCost, input.Quantity, *input.UnitCost)
	}
	stock.Quantity = stock.Quantity.Add(input.Quantity)
	stock.UpdatedAt = now
	if err := r.Stock.Upsert(stock); err != nil {
		return nil, err
	}

	if input.ReferenceType == entity.RefOrdenCompra && input.Reference != "" {
		if err := uc.applyPurchaseLine(r, input.Reference, input.ItemID, input.Quantity, now); err != nil {
			return nil, err
		}
	}

	return uc.record(r, entity.MovementEntrada, input, stock, actor, now)
}

// applyPurchaseLine acumula lo recibido en la línea de la orden de compra
// (recortado al tope pedido) y deriva el estado agregado de la orden.
func (uc *MovementRecorder) applyPurchaseLine(r TxRepos, orderID, itemID string, qty decimal.Decimal, now time.Time) error {
	po, err := r.PurchaseOrders.GetForUpdate(orderID)
	if err != nil {
		return err
	}
	if po == nil {
		return domain.ErrNotFound
	}
	line := po.LineFor(itemID)
	if line == nil {
		return domain.ErrNotFound
	}
	line.Received = line.Received.Add(qty)
	if line.Received.GreaterThan(line.Quantity) {
		line.Received = line.Quantity
	}
	po.RecomputeState()
	po.UpdatedAt = now
	return r.PurchaseOrders.Update(po)
}

// applySalida: bloquea la fila origen y resta cantidad. Sin reserva exige
// cantidad <= disponible; con reserva consume stock ya reservado, por lo que
// el control es contra la cantidad física y el tamaño de la reserva.
func (uc *MovementRecorder) applySalida(r TxRepos, input MovementInput, actor string, now time.Time) (*entity.Movement, error) {
	stock, err := r.Stock.GetForUpdate(input.ItemID, input.FromWarehouseID)
	if err != nil {
		return nil, err
	}
	if err := uc.takeFrom(r, stock, input, now); err != nil {
		return nil, err
	}
	stock.UpdatedAt = now
	if err := r.Stock.Upsert(stock); err != nil {
		return nil, err
	}
	return uc.record(r, entity.MovementSalida, input, stock, actor, now)
}

// takeFrom resta input.Quantity del stock origen ya bloqueado, liberando la
// reserva referenciada cuando aplica. La reserva pasa a consumido al agotarse.
func (uc *MovementRecorder) takeFrom(r TxRepos, stock *entity.Stock, input MovementInput, now time.Time) error {
	qty := input.Quantity
	if input.ReservationID == "" {
		if qty.GreaterThan(stock.Available()) {
			return domain.ErrInsufficientStock
		}
		stock.Quantity = stock.Quantity.Sub(qty)
		return nil
	}

	res, err := r.Reservations.GetForUpdate(input.ReservationID)
	if err != nil {
		return err
	}
	if res == nil {
		return domain.ErrNotFound
	}
	if res.State != entity.ReservaActiva && res.State != entity.ReservaPendienteRetiro {
		return domain.ErrConflict
	}
	if qty.GreaterThan(res.Quantity) || qty.GreaterThan(stock.Quantity) {
		return domain.ErrInsufficientStock
	}
	stock.Quantity = stock.Quantity.Sub(qty)
	stock.Reserved = stock.Reserved.Sub(qty)
	if stock.Reserved.LessThan(decimal.Zero) {
		stock.Reserved = decimal.Zero
	}
	res.Quantity = res.Quantity.Sub(qty)
	if res.Quantity.IsZero() {
		res.State = entity.ReservaConsumida
	}
	res.UpdatedAt = now
	return r.Reservations.Update(res)
}

// applyTransferencia: resta en origen (mismas reglas de salida, reserva
// opcional) y suma en destino dentro de la misma transacción. El total entre
// ambas bodegas se conserva. Registra un solo movimiento con snapshot destino.
func (uc *MovementRecorder) applyTransferencia(r TxRepos, input MovementInput, actor string, now time.Time) (*entity.Movement, error) {
	origin, err := r.Stock.GetForUpdate(input.ItemID, input.FromWarehouseID)
	if err != nil {
		return nil, err
	}
	if err := uc.takeFrom(r, origin, input, now); err != nil {
		return nil, err
	}
	origin.UpdatedAt = now
	if err := r.Stock.Upsert(origin); err != nil {
		return nil, err
	}

	dest, err := r.Stock.GetForUpdate(input.ItemID, input.ToWarehouseID)
	if err != nil {
		return nil, err
	}
	// El destino hereda el costo de origen salvo costo unitario explícito.
	unitCost := origin.AvgCost
	if input.UnitCost != nil {
		unitCost = *input.UnitCost
	}
	dest.AvgCost = domaininv.AvgCost(dest.Quantity, dest.AvgCost, input.Quantity, unitCost)
	dest.Quantity = dest.Quantity.Add(input.Quantity)
	dest.UpdatedAt = now
	if err := r.Stock.Upsert(dest); err != nil {
		return nil, err
	}
	return uc.record(r, entity.MovementTransferencia, input, dest, actor, now)
}

// applyAjuste: corrección por conteo físico. Suma en destino o resta en
// origen con piso en cero; sin interacción con reservas, pero el reservado
// se recorta si el piso deja la cantidad por debajo de él.
func (uc *MovementRecorder) applyAjuste(r TxRepos, input MovementInput, actor string, now time.Time) (*entity.Movement, error) {
	if input.ToWarehouseID != "" {
		stock, err := r.Stock.GetForUpdate(input.ItemID, input.ToWarehouseID)
		if err != nil {
			return nil, err
		}
		if input.UnitCost != nil {
			stock.AvgCost = domaininv.AvgCost(stock.Quantity, stock.AvgCost, input.Quantity, *input.UnitCost)
		}
		stock.Quantity = stock.Quantity.Add(input.Quantity)
		stock.UpdatedAt = now
		if err := r.Stock.Upsert(stock); err != nil {
			return nil, err
		}
		return uc.record(r, entity.MovementAjuste, input, stock, actor, now)
	}

	stock, err := r.Stock.GetForUpdate(input.ItemID, input.FromWarehouseID)
	if err != nil {
		return nil, err
	}
	stock.Quantity = stock.Quantity.Sub(input.Quantity)
	if stock.Quantity.LessThan(decimal.Zero) {
		stock.Quantity = decimal.Zero
	}
	if stock.Reserved.GreaterThan(stock.Quantity) {
		stock.Reserved = stock.Quantity
	}
	stock.UpdatedAt = now
	if err := r.Stock.Upsert(stock); err != nil {
		return nil, err
	}
	return uc.record(r, entity.MovementAjuste, input, stock, actor, now)
}

// record persiste el movimiento con el snapshot post-mutación de la bodega
// afectada (destino para entrada/transferencia, origen en el resto).
func (uc *MovementRecorder) record(r TxRepos, kind entity.MovementType, input MovementInput, affected *entity.Stock, actor string, now time.Time) (*entity.Movement, error) {
	m := &entity.Movement{
		ID:              uuid.New().String(),
		Type:            kind,
		ItemID:          input.ItemID,
		Quantity:        input.Quantity,
		FromWarehouseID: input.FromWarehouseID,
		ToWarehouseID:   input.ToWarehouseID,
		UnitCost:        input.UnitCost,
		Reference:       input.Reference,
		ReferenceType:   input.ReferenceType,
		ReservationID:   input.ReservationID,
		IdempotencyKey:  input.IdempotencyKey,
		ResultQuantity:  affected.Quantity,
		ResultReserved:  affected.Reserved,
		Date:            now,
		CreatedAt:       now,
		CreatedBy:       actor,
	}
	if err := r.Movements.Create(m); err != nil {
		return nil, err
	}
	return m, nil
}
