package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de venta.
// borrador -> confirmada -> {parcial -> despachada | despachada}
// cualquier estado no terminal -> cancelada
// El estado inicial es siempre "borrador"; "pendiente" se acepta como
// sinónimo histórico en confirmación y cancelación.
type SalesOrderState string

const (
	VentaBorrador   SalesOrderState = "borrador"
	VentaPendiente  SalesOrderState = "pendiente"
	VentaConfirmada SalesOrderState = "confirmada"
	VentaParcial    SalesOrderState = "parcial"
	VentaDespachada SalesOrderState = "despachada"
	VentaCancelada  SalesOrderState = "cancelada"
)

// SalesOrderLine línea de una orden de venta.
type SalesOrderLine struct {
	ItemID    string
	Quantity  decimal.Decimal
	Reserved  decimal.Decimal // cantidad cubierta por reservas al confirmar
	Delivered decimal.Decimal // cantidad ya despachada
}

// Pending devuelve lo pendiente por despachar de la línea.
func (l *SalesOrderLine) Pending() decimal.Decimal {
	return l.Quantity.Sub(l.Delivered)
}

// SalesOrder orden de venta con sus claves de idempotencia por operación.
// Cada clave es única por orden: repetir la llamada con la misma clave
// devuelve el estado actual sin reaplicar efectos.
type SalesOrder struct {
	ID          string
	CustomerID  string
	WarehouseID string
	State       SalesOrderState
	Lines       []SalesOrderLine
	ConfirmKey  string
	ShipKey     string
	CancelKey   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LineFor devuelve la primera línea del ítem o nil si no existe.
func (o *SalesOrder) LineFor(itemID string) *SalesOrderLine {
	for i := range o.Lines {
		if o.Lines[i].ItemID == itemID {
			return &o.Lines[i]
		}
	}
	return nil
}

// FullyDelivered indica si todas las líneas están completamente entregadas.
func (o *SalesOrder) FullyDelivered() bool {
	for i := range o.Lines {
		if o.Lines[i].Delivered.LessThan(o.Lines[i].Quantity) {
			return false
		}
	}
	return len(o.Lines) > 0
}
