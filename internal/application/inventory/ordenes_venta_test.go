package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallerpro/inventario-api/internal/application/inventory"
	"github.com/tallerpro/inventario-api/internal/domain"
	"github.com/tallerpro/inventario-api/internal/domain/entity"
)

func TestConfirmar_ReservaTodasLasLineas(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")
	f.store.SeedItem("TUE-02")
	f.store.SeedStock("TUE-02", "BOD-PRINCIPAL", dec("5"), decimal.Zero, dec("3"))
	f.seedOrdenVenta("OV-1", "BOD-PRINCIPAL",
		entity.SalesOrderLine{ItemID: "TOR-01", Quantity: dec("4")},
		entity.SalesOrderLine{ItemID: "TUE-02", Quantity: dec("2")},
	)

	so, err := f.workflow.Confirm(context.Background(), "OV-1", "tester", "conf-K")
	require.NoError(t, err)
	assert.Equal(t, entity.VentaConfirmada, so.State)
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Reserved.Equal(dec("4")))
	assert.True(t, f.store.StockOf("TUE-02", "BOD-PRINCIPAL").Reserved.Equal(dec("2")))

	// Replay con la misma clave devuelve el estado actual sin reservar de nuevo.
	so, err = f.workflow.Confirm(context.Background(), "OV-1", "tester", "conf-K")
	require.NoError(t, err)
	assert.Equal(t, entity.VentaConfirmada, so.State)
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Reserved.Equal(dec("4")))

	// Otra clave sobre una orden ya confirmada es conflicto.
	_, err = f.workflow.Confirm(context.Background(), "OV-1", "tester", "conf-K2")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestConfirmar_FallaCompletaSinEfectos(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")
	f.store.SeedItem("TUE-02")
	f.store.SeedStock("TUE-02", "BOD-PRINCIPAL", dec("1"), decimal.Zero, dec("3"))
	f.seedOrdenVenta("OV-2", "BOD-PRINCIPAL",
		entity.SalesOrderLine{ItemID: "TOR-01", Quantity: dec("4")},
		entity.SalesOrderLine{ItemID: "TUE-02", Quantity: dec("2")}, // no alcanza
	)

	_, err := f.workflow.Confirm(context.Background(), "OV-2", "tester", "")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Nada quedó reservado, ni siquiera la primera línea.
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Reserved.Equal(decimal.Zero))
	assert.True(t, f.store.StockOf("TUE-02", "BOD-PRINCIPAL").Reserved.Equal(decimal.Zero))
	assert.Equal(t, entity.VentaBorrador, f.store.SalesOrderOf("OV-2").State)
}

func TestDespachoTotal(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")
	f.seedOrdenVenta("OV-3", "BOD-PRINCIPAL",
		entity.SalesOrderLine{ItemID: "TOR-01", Quantity: dec("6")},
	)

	_, err := f.workflow.Confirm(context.Background(), "OV-3", "tester", "")
	require.NoError(t, err)

	result, err := f.workflow.Ship(context.Background(), "OV-3", nil, "tester", "ship-K")
	require.NoError(t, err)
	assert.Equal(t, entity.VentaDespachada, result.Order.State)
	require.Len(t, result.Movements, 1)
	assert.True(t, result.Movements[0].Quantity.Equal(dec("6")))

	stock := f.store.StockOf("TOR-01", "BOD-PRINCIPAL")
	assert.True(t, stock.Quantity.Equal(dec("4")), "el despacho descuenta la cantidad física")
	assert.True(t, stock.Reserved.Equal(decimal.Zero), "el despacho libera el reservado consumido")
}

func TestDespachoParcial_LuegoCompleto(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")
	f.seedOrdenVenta("OV-4", "BOD-PRINCIPAL",
		entity.SalesOrderLine{ItemID: "TOR-01", Quantity: dec("6")},
	)

	_, err := f.workflow.Confirm(context.Background(), "OV-4", "tester", "")
	require.NoError(t, err)

	// Primer despacho: 4 de 6.
	result, err := f.workflow.Ship(context.Background(), "OV-4", []inventory.ShipItem{
		{ItemID: "TOR-01", Quantity: dec("4")},
	}, "tester", "ship-P1")
	require.NoError(t, err)
	assert.Equal(t, entity.VentaParcial, result.Order.State)

	stock := f.store.StockOf("TOR-01", "BOD-PRINCIPAL")
	assert.True(t, stock.Quantity.Equal(dec("6")))
	assert.True(t, stock.Reserved.Equal(dec("2")), "quedan 2 reservadas pendientes")

	// Segundo despacho: el resto. Pedir de más recorta a lo pendiente.
	result, err = f.workflow.Ship(context.Background(), "OV-4", []inventory.ShipItem{
		{ItemID: "TOR-01", Quantity: dec("5")},
	}, "tester", "ship-P2")
	require.NoError(t, err)
	assert.Equal(t, entity.VentaDespachada, result.Order.State)
	require.Len(t, result.Movements, 1)
	assert.True(t, result.Movements[0].Quantity.Equal(dec("2")), "el despacho se recorta a lo pendiente")

	stock = f.store.StockOf("TOR-01", "BOD-PRINCIPAL")
	assert.True(t, stock.Quantity.Equal(dec("4")))
	assert.True(t, stock.Reserved.Equal(decimal.Zero))
}

func TestDespacho_ReplayConLaMismaClave(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")
	f.seedOrdenVenta("OV-5", "BOD-PRINCIPAL",
		entity.SalesOrderLine{ItemID: "TOR-01", Quantity: dec("6")},
	)

	_, err := f.workflow.Confirm(context.Background(), "OV-5", "tester", "")
	require.NoError(t, err)

	first, err := f.workflow.Ship(context.Background(), "OV-5", nil, "tester", "ship-R")
	require.NoError(t, err)

	second, err := f.workflow.Ship(context.Background(), "OV-5", nil, "tester", "ship-R")
	require.NoError(t, err)
	require.Len(t, second.Movements, len(first.Movements))
	assert.Equal(t, first.Movements[0].ID, second.Movements[0].ID, "el replay devuelve los movimientos originales")
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Quantity.Equal(dec("4")), "el stock salió una sola vez")

	// Otra clave sobre una orden ya despachada es conflicto.
	_, err = f.workflow.Ship(context.Background(), "OV-5", nil, "tester", "ship-R2")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDespacho_ReplayDeUnaClaveAnterior(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")
	f.seedOrdenVenta("OV-10", "BOD-PRINCIPAL",
		entity.SalesOrderLine{ItemID: "TOR-01", Quantity: dec("6")},
	)

	_, err := f.workflow.Confirm(context.Background(), "OV-10", "tester", "")
	require.NoError(t, err)

	first, err := f.workflow.Ship(context.Background(), "OV-10", []inventory.ShipItem{
		{ItemID: "TOR-01", Quantity: dec("4")},
	}, "tester", "ship-A")
	require.NoError(t, err)
	_, err = f.workflow.Ship(context.Background(), "OV-10", nil, "tester", "ship-B")
	require.NoError(t, err)

	// Repetir la clave del parcial después del despacho completo devuelve
	// el resultado original de ese parcial, sin reaplicar nada.
	replay, err := f.workflow.Ship(context.Background(), "OV-10", []inventory.ShipItem{
		{ItemID: "TOR-01", Quantity: dec("4")},
	}, "tester", "ship-A")
	require.NoError(t, err)
	require.Len(t, replay.Movements, 1)
	assert.Equal(t, first.Movements[0].ID, replay.Movements[0].ID)
	assert.True(t, replay.Movements[0].Quantity.Equal(dec("4")))
	assert.Equal(t, entity.VentaDespachada, replay.Order.State)

	stock := f.store.StockOf("TOR-01", "BOD-PRINCIPAL")
	assert.True(t, stock.Quantity.Equal(dec("4")), "el replay no vuelve a descontar stock")
	assert.True(t, stock.Reserved.Equal(decimal.Zero))
}

func TestDespachoSinClave_ConservaLaClaveAnterior(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")
	f.seedOrdenVenta("OV-11", "BOD-PRINCIPAL",
		entity.SalesOrderLine{ItemID: "TOR-01", Quantity: dec("6")},
	)

	_, err := f.workflow.Confirm(context.Background(), "OV-11", "tester", "")
	require.NoError(t, err)

	first, err := f.workflow.Ship(context.Background(), "OV-11", []inventory.ShipItem{
		{ItemID: "TOR-01", Quantity: dec("4")},
	}, "tester", "ship-C")
	require.NoError(t, err)
	assert.Equal(t, "ship-C", first.Order.ShipKey)

	// Un despacho posterior sin clave no borra la registrada.
	rest, err := f.workflow.Ship(context.Background(), "OV-11", nil, "tester", "")
	require.NoError(t, err)
	assert.Equal(t, entity.VentaDespachada, rest.Order.State)
	assert.Equal(t, "ship-C", rest.Order.ShipKey)

	// Y la clave del parcial sigue siendo reproducible.
	replay, err := f.workflow.Ship(context.Background(), "OV-11", nil, "tester", "ship-C")
	require.NoError(t, err)
	require.Len(t, replay.Movements, 1)
	assert.Equal(t, first.Movements[0].ID, replay.Movements[0].ID)
}

func TestDespachar_RequiereConfirmada(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")
	f.seedOrdenVenta("OV-6", "BOD-PRINCIPAL",
		entity.SalesOrderLine{ItemID: "TOR-01", Quantity: dec("2")},
	)

	_, err := f.workflow.Ship(context.Background(), "OV-6", nil, "tester", "")
	assert.ErrorIs(t, err, domain.ErrConflict, "una orden en borrador no se despacha")
}

func TestCancelar_LiberaLasReservas(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")
	f.seedOrdenVenta("OV-7", "BOD-PRINCIPAL",
		entity.SalesOrderLine{ItemID: "TOR-01", Quantity: dec("6")},
	)

	_, err := f.workflow.Confirm(context.Background(), "OV-7", "tester", "")
	require.NoError(t, err)
	require.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Reserved.Equal(dec("6")))

	so, err := f.workflow.Cancel(context.Background(), "OV-7", "tester", "can-K")
	require.NoError(t, err)
	assert.Equal(t, entity.VentaCancelada, so.State)

	stock := f.store.StockOf("TOR-01", "BOD-PRINCIPAL")
	assert.True(t, stock.Quantity.Equal(dec("10")), "cancelar no toca la cantidad física")
	assert.True(t, stock.Reserved.Equal(decimal.Zero), "cancelar devuelve el reservado")

	// Replay de la cancelación con la misma clave.
	so, err = f.workflow.Cancel(context.Background(), "OV-7", "tester", "can-K")
	require.NoError(t, err)
	assert.Equal(t, entity.VentaCancelada, so.State)

	// Con otra clave, la orden ya cancelada es conflicto.
	_, err = f.workflow.Cancel(context.Background(), "OV-7", "tester", "can-K2")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCancelar_TrasDespachoParcial(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")
	f.seedOrdenVenta("OV-8", "BOD-PRINCIPAL",
		entity.SalesOrderLine{ItemID: "TOR-01", Quantity: dec("6")},
	)

	_, err := f.workflow.Confirm(context.Background(), "OV-8", "tester", "")
	require.NoError(t, err)
	_, err = f.workflow.Ship(context.Background(), "OV-8", []inventory.ShipItem{
		{ItemID: "TOR-01", Quantity: dec("4")},
	}, "tester", "")
	require.NoError(t, err)

	// Cancelar el resto: lo entregado quedó entregado, lo pendiente se libera.
	so, err := f.workflow.Cancel(context.Background(), "OV-8", "tester", "")
	require.NoError(t, err)
	assert.Equal(t, entity.VentaCancelada, so.State)

	stock := f.store.StockOf("TOR-01", "BOD-PRINCIPAL")
	assert.True(t, stock.Quantity.Equal(dec("6")), "lo ya despachado no se repone")
	assert.True(t, stock.Reserved.Equal(decimal.Zero))
}

func TestCancelar_DespachadaEsConflicto(t *testing.T) {
	f := newFixture()
	f.seedBasico("10", "0", "10")
	f.seedOrdenVenta("OV-9", "BOD-PRINCIPAL",
		entity.SalesOrderLine{ItemID: "TOR-01", Quantity: dec("2")},
	)

	_, err := f.workflow.Confirm(context.Background(), "OV-9", "tester", "")
	require.NoError(t, err)
	_, err = f.workflow.Ship(context.Background(), "OV-9", nil, "tester", "")
	require.NoError(t, err)

	_, err = f.workflow.Cancel(context.Background(), "OV-9", "tester", "")
	assert.ErrorIs(t, err, domain.ErrConflict, "una orden despachada no se cancela")
}
