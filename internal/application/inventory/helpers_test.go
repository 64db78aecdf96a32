package inventory_test

import (
	"github.com/shopspring/decimal"

	"github.com/tallerpro/inventario-api/internal/application/inventory"
	"github.com/tallerpro/inventario-api/internal/domain/entity"
	"github.com/tallerpro/inventario-api/internal/infrastructure/memory"
)

// fixture arma el juego completo de casos de uso sobre el almacén en memoria.
type fixture struct {
	store    *memory.Store
	recorder *inventory.MovementRecorder
	manager  *inventory.ReservationManager
	receiver *inventory.PurchaseReceiver
	workflow *inventory.SalesOrderWorkflow
}

func newFixture() *fixture {
	store := memory.NewStore()
	recorder := inventory.NewMovementRecorder(store, store.Items(), store.Warehouses())
	return &fixture{
		store:    store,
		recorder: recorder,
		manager:  inventory.NewReservationManager(store, store.Items(), store.Warehouses(), recorder),
		receiver: inventory.NewPurchaseReceiver(store, recorder, store.Warehouses()),
		workflow: inventory.NewSalesOrderWorkflow(store, recorder),
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// seedBasico ítem TOR-01 con stock en la bodega principal.
func (f *fixture) seedBasico(qty, reserved, avgCost string) {
	f.store.SeedItem("TOR-01")
	f.store.SeedWarehouse("BOD-PRINCIPAL")
	f.store.SeedStock("TOR-01", "BOD-PRINCIPAL", dec(qty), dec(reserved), dec(avgCost))
}

func (f *fixture) seedOrdenCompra(id string, lines ...entity.PurchaseOrderLine) {
	f.store.SeedPurchaseOrder(&entity.PurchaseOrder{
		ID:    id,
		State: entity.CompraPendiente,
		Lines: lines,
	})
}

func (f *fixture) seedOrdenVenta(id, warehouseID string, lines ...entity.SalesOrderLine) {
	f.store.SeedSalesOrder(&entity.SalesOrder{
		ID:          id,
		WarehouseID: warehouseID,
		State:       entity.VentaBorrador,
		Lines:       lines,
	})
}
