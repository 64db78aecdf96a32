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

func TestRecepcion_ParcialYCompleta(t *testing.T) {
	f := newFixture()
	f.seedBasico("0", "0", "0")
	f.seedOrdenCompra("OC-1", entity.PurchaseOrderLine{ItemID: "TOR-01", Quantity: dec("10")})

	result, err := f.receiver.Receive(context.Background(), "OC-1", "BOD-PRINCIPAL", []inventory.ReceiveLine{
		{ItemID: "TOR-01", Quantity: dec("4"), UnitCost: decPtr("8")},
	}, "tester", "")
	require.NoError(t, err)
	assert.Equal(t, entity.CompraParcial, result.Order.State)
	assert.True(t, result.Order.Lines[0].Received.Equal(dec("4")))
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Quantity.Equal(dec("4")))

	// El resto completa la línea y la orden queda recibida.
	result, err = f.receiver.Receive(context.Background(), "OC-1", "BOD-PRINCIPAL", []inventory.ReceiveLine{
		{ItemID: "TOR-01", Quantity: dec("6"), UnitCost: decPtr("8")},
	}, "tester", "")
	require.NoError(t, err)
	assert.Equal(t, entity.CompraRecibida, result.Order.State)
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Quantity.Equal(dec("10")))
}

func TestRecepcion_TopeEnElRemanente(t *testing.T) {
	f := newFixture()
	f.seedBasico("0", "0", "0")
	f.seedOrdenCompra("OC-2", entity.PurchaseOrderLine{
		ItemID: "TOR-01", Quantity: dec("10"), Received: dec("8"),
	})

	// Llegaron 5 pero solo quedan 2 pendientes: la entrada se recorta.
	result, err := f.receiver.Receive(context.Background(), "OC-2", "BOD-PRINCIPAL", []inventory.ReceiveLine{
		{ItemID: "TOR-01", Quantity: dec("5")},
	}, "tester", "")
	require.NoError(t, err)
	require.Len(t, result.Movements, 1)
	assert.True(t, result.Movements[0].Quantity.Equal(dec("2")), "la entrada entra con tope en el remanente")
	assert.True(t, result.Order.Lines[0].Received.Equal(dec("10")))
	assert.Equal(t, entity.CompraRecibida, result.Order.State)
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Quantity.Equal(dec("2")))
}

func TestRecepcion_LineaCompletaSeOmite(t *testing.T) {
	f := newFixture()
	f.seedBasico("0", "0", "0")
	f.seedOrdenCompra("OC-3", entity.PurchaseOrderLine{
		ItemID: "TOR-01", Quantity: dec("10"), Received: dec("10"),
	})

	result, err := f.receiver.Receive(context.Background(), "OC-3", "BOD-PRINCIPAL", []inventory.ReceiveLine{
		{ItemID: "TOR-01", Quantity: dec("3")},
	}, "tester", "")
	require.NoError(t, err, "recibir contra una línea completa no es un error")
	assert.Empty(t, result.Movements, "la línea completa se omite sin movimiento")
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Quantity.Equal(decimal.Zero))
}

func TestRecepcion_ReplayConLaMismaClave(t *testing.T) {
	f := newFixture()
	f.seedBasico("0", "0", "0")
	f.seedOrdenCompra("OC-4", entity.PurchaseOrderLine{ItemID: "TOR-01", Quantity: dec("10")})

	lines := []inventory.ReceiveLine{{ItemID: "TOR-01", Quantity: dec("6"), UnitCost: decPtr("9")}}

	first, err := f.receiver.Receive(context.Background(), "OC-4", "BOD-PRINCIPAL", lines, "tester", "rec-K")
	require.NoError(t, err)
	require.Len(t, first.Movements, 1)

	// El proveedor reintenta el mismo lote con la misma clave: mismo
	// resultado, sin doble entrada de stock.
	second, err := f.receiver.Receive(context.Background(), "OC-4", "BOD-PRINCIPAL", lines, "tester", "rec-K")
	require.NoError(t, err)
	require.Len(t, second.Movements, 1)
	assert.Equal(t, first.Movements[0].ID, second.Movements[0].ID)
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Quantity.Equal(dec("6")), "el stock entra una sola vez")
	assert.True(t, f.store.PurchaseOrderOf("OC-4").Lines[0].Received.Equal(dec("6")))
}

func TestRecepcion_LoteAbortaPorLineaInvalida(t *testing.T) {
	f := newFixture()
	f.seedBasico("0", "0", "0")
	f.seedOrdenCompra("OC-5",
		entity.PurchaseOrderLine{ItemID: "TOR-01", Quantity: dec("10")},
	)

	_, err := f.receiver.Receive(context.Background(), "OC-5", "BOD-PRINCIPAL", []inventory.ReceiveLine{
		{ItemID: "TOR-01", Quantity: dec("4")},
		{ItemID: "TOR-01", Quantity: decimal.Zero}, // inválida
	}, "tester", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	// El lote completo se revierte, incluida la primera línea válida.
	assert.True(t, f.store.StockOf("TOR-01", "BOD-PRINCIPAL").Quantity.Equal(decimal.Zero))
	assert.True(t, f.store.PurchaseOrderOf("OC-5").Lines[0].Received.Equal(decimal.Zero))
	assert.Equal(t, 0, f.store.MovementCount())
}

func TestRecepcion_ItemFueraDeLaOrden(t *testing.T) {
	f := newFixture()
	f.seedBasico("0", "0", "0")
	f.store.SeedItem("OTRO-99")
	f.seedOrdenCompra("OC-6", entity.PurchaseOrderLine{ItemID: "TOR-01", Quantity: dec("10")})

	_, err := f.receiver.Receive(context.Background(), "OC-6", "BOD-PRINCIPAL", []inventory.ReceiveLine{
		{ItemID: "OTRO-99", Quantity: dec("1")},
	}, "tester", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecepcion_OrdenInexistente(t *testing.T) {
	f := newFixture()
	f.seedBasico("0", "0", "0")

	_, err := f.receiver.Receive(context.Background(), "OC-NO", "BOD-PRINCIPAL", []inventory.ReceiveLine{
		{ItemID: "TOR-01", Quantity: dec("1")},
	}, "tester", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
