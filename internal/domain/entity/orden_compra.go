package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra; se derivan siempre de sus líneas.
type PurchaseOrderState string

const (
	CompraPendiente PurchaseOrderState = "pendiente" // ninguna línea recibida
	CompraParcial   PurchaseOrderState = "parcial"   // alguna línea con recibido > 0
	CompraRecibida  PurchaseOrderState = "recibido"  // todas las líneas completas
)

// PurchaseOrderLine línea de una orden de compra. Received acumula lo
// recibido y se recorta al tope de Quantity.
type PurchaseOrderLine struct {
	ItemID   string
	Quantity decimal.Decimal
	Received decimal.Decimal
}

// Remaining devuelve lo pendiente por recibir de la línea.
func (l *PurchaseOrderLine) Remaining() decimal.Decimal {
	return l.Quantity.Sub(l.Received)
}

// PurchaseOrder agrupa líneas de compra a un proveedor.
type PurchaseOrder struct {
	ID         string
	SupplierID string
	State      PurchaseOrderState
	Lines      []PurchaseOrderLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LineFor devuelve la primera línea del ítem o nil si no existe.
func (o *PurchaseOrder) LineFor(itemID string) *PurchaseOrderLine {
	for i := range o.Lines {
		if o.Lines[i].ItemID == itemID {
			return &o.Lines[i]
		}
	}
	return nil
}

// RecomputeState recalcula el estado agregado a partir de las líneas.
func (o *PurchaseOrder) RecomputeState() {
	all := true
	some := false
	for i := range o.Lines {
		l := &o.Lines[i]
		if l.Received.GreaterThan(decimal.Zero) {
			some = true
		}
		if l.Received.LessThan(l.Quantity) {
			all = false
		}
	}
	switch {
	case len(o.Lines) > 0 && all:
		o.State = CompraRecibida
	case some:
		o.State = CompraParcial
	default:
		o.State = CompraPendiente
	}
}
