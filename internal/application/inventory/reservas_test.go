package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallerpro/inventario-api/internal/application/inventory"
	"github.com/tallerpro/inventario-api/internal/domain"
	"github.com/tallerpro/inventario-api/internal/domain/entity"
)

func TestReservar_DescuentaDisponible(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")

	res, err := f.manager.Reserve(context.Background(), inventory.ReserveInput{
		ItemID:      "TOR-01",
		WarehouseID: "BOD-PRINCIPAL",
		Quantity:    dec("6"),
		WorkOrderID: "OT-100",
	}, "tester")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservaActiva, res.State)

	stock := f.store.StockOf("TOR-01", "BOD-PRINCIPAL")
	assert.True(t, stock.Quantity.Equal(dec("10")), "reservar no toca la cantidad física")
	assert.True(t, stock.Reserved.Equal(dec("6")))
	assert.True(t, stock.Available().Equal(dec("4")))

	// Una segunda reserva por encima del disponible falla.
	_, err = f.manager.Reserve(context.Background(), inventory.ReserveInput{
		ItemID:      "TOR-01",
		WarehouseID: "BOD-PRINCIPAL",
		Quantity:    dec("5"),
	}, "tester")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Liberar la primera devuelve el cupo y la segunda pasa.
	_, err = f.manager.Release(context.Background(), res.ID, false, "")
	require.NoError(t, err)
	_, err = f.manager.Reserve(context.Background(), inventory.ReserveInput{
		ItemID:      "TOR-01",
		WarehouseID: "BOD-PRINCIPAL",
		Quantity:    dec("5"),
	}, "tester")
	require.NoError(t, err)
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Reserved.Equal(dec("5")))
}

func TestReservar_ConcurrentesNoSobrepasanLaCantidad(t *testing.T) {
	f := newFixture()
	f.seedBasico("20", "0", "10")

	// 16 llamadores compiten por 20 unidades en reservas de 3: caben 6.
	// Las transacciones serializan sobre el registro de stock, así que la
	// suma de reservas aprobadas nunca excede la cantidad.
	const callers = 16
	qty := dec("3")
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.manager.Reserve(context.Background(), inventory.ReserveInput{
				ItemID:      "TOR-01",
				WarehouseID: "BOD-PRINCIPAL",
				Quantity:    qty,
			}, "tester")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	approved := 0
	for err := range errs {
		if err == nil {
			approved++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.Equal(t, 6, approved)

	stock := f.store.StockOf("TOR-01", "BOD-PRINCIPAL")
	assert.True(t, stock.Reserved.Equal(qty.Mul(decimal.NewFromInt(int64(approved)))),
		"el reservado refleja exactamente las reservas aprobadas")
	assert.True(t, stock.Reserved.LessThanOrEqual(stock.Quantity),
		"el reservado nunca excede la cantidad")
}

func TestReservar_ReplayConLaMismaClave(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")

	input := inventory.ReserveInput{
		ItemID:         "TOR-01",
		WarehouseID:    "BOD-PRINCIPAL",
		Quantity:       dec("4"),
		IdempotencyKey: "res-k1",
	}
	first, err := f.manager.Reserve(context.Background(), input, "tester")
	require.NoError(t, err)
	second, err := f.manager.Reserve(context.Background(), input, "tester")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "el replay devuelve la reserva original")
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Reserved.Equal(dec("4")), "el reservado se incrementa una sola vez")
}

func TestCicloDeVida_ActivoPendienteEntregado(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")

	res, err := f.manager.Reserve(context.Background(), inventory.ReserveInput{
		ItemID:      "TOR-01",
		WarehouseID: "BOD-PRINCIPAL",
		Quantity:    dec("6"),
	}, "tester")
	require.NoError(t, err)

	// activo -> pendiente_retiro al generar la orden de salida.
	res, err = f.manager.MarkPendingPickup(context.Background(), res.ID, "OS-500")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservaPendienteRetiro, res.State)
	assert.Equal(t, "OS-500", res.PickupOrderID)

	// Reentrada con la misma orden de salida es un no-op.
	res2, err := f.manager.MarkPendingPickup(context.Background(), res.ID, "OS-500")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservaPendienteRetiro, res2.State)

	// Entregar registra la salida y consume la reserva.
	mov, err := f.manager.Deliver(context.Background(), res.ID, "tester", "ent-k1")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementSalida, mov.Type)

	stock := f.store.StockOf("TOR-01", "BOD-PRINCIPAL")
	assert.True(t, stock.Quantity.Equal(dec("4")))
	assert.True(t, stock.Reserved.Equal(decimal.Zero))
	assert.Equal(t, entity.ReservaConsumida, f.store.ReservationOf(res.ID).State)

	// Replay de la entrega con la misma clave devuelve el movimiento original.
	again, err := f.manager.Deliver(context.Background(), res.ID, "tester", "ent-k1")
	require.NoError(t, err)
	assert.Equal(t, mov.ID, again.ID)
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Quantity.Equal(dec("4")), "el replay no vuelve a descontar")

	// Con otra clave sobre una reserva ya consumida es conflicto.
	_, err = f.manager.Deliver(context.Background(), res.ID, "tester", "ent-k2")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestEntregar_RequierePendienteRetiro(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")

	res, err := f.manager.Reserve(context.Background(), inventory.ReserveInput{
		ItemID:      "TOR-01",
		WarehouseID: "BOD-PRINCIPAL",
		Quantity:    dec("3"),
	}, "tester")
	require.NoError(t, err)

	_, err = f.manager.Deliver(context.Background(), res.ID, "tester", "")
	assert.ErrorIs(t, err, domain.ErrConflict, "una reserva activa sin orden de salida no se entrega")
}

func TestLiberar_YCancelar(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")

	res, err := f.manager.Reserve(context.Background(), inventory.ReserveInput{
		ItemID:      "TOR-01",
		WarehouseID: "BOD-PRINCIPAL",
		Quantity:    dec("4"),
	}, "tester")
	require.NoError(t, err)

	out, err := f.manager.Release(context.Background(), res.ID, false, "lib-k1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservaLiberada, out.State)
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Reserved.Equal(decimal.Zero))

	// Replay con la misma clave devuelve la reserva sin descontar de nuevo.
	out, err = f.manager.Release(context.Background(), res.ID, false, "lib-k1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservaLiberada, out.State)
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Reserved.Equal(decimal.Zero))

	// Sin clave, liberar un estado terminal es conflicto.
	_, err = f.manager.Release(context.Background(), res.ID, false, "")
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Cancelar produce el estado cancelado.
	res2, err := f.manager.Reserve(context.Background(), inventory.ReserveInput{
		ItemID:      "TOR-01",
		WarehouseID: "BOD-PRINCIPAL",
		Quantity:    dec("2"),
	}, "tester")
	require.NoError(t, err)
	out, err = f.manager.Release(context.Background(), res2.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservaCancelada, out.State)
}

func TestReservar_DatosInvalidos(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")

	_, err := f.manager.Reserve(context.Background(), inventory.ReserveInput{
		ItemID:      "TOR-01",
		WarehouseID: "BOD-PRINCIPAL",
		Quantity:    decimal.Zero,
	}, "tester")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.manager.Reserve(context.Background(), inventory.ReserveInput{
		ItemID:      "NO-EXISTE",
		WarehouseID: "BOD-PRINCIPAL",
		Quantity:    dec("1"),
	}, "tester")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
