package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de una reserva.
// activo -> pendiente_retiro -> consumido
// activo -> liberado
// cualquier estado no terminal -> cancelado
type ReservationState string

const (
	ReservaActiva          ReservationState = "activo"
	ReservaPendienteRetiro ReservationState = "pendiente_retiro"
	ReservaEntregada       ReservationState = "entregado"
	ReservaConsumida       ReservationState = "consumido"
	ReservaLiberada        ReservationState = "liberado"
	ReservaCancelada       ReservationState = "cancelado"
)

// Terminal indica si el estado es final (no admite más transiciones).
func (s ReservationState) Terminal() bool {
	switch s {
	case ReservaConsumida, ReservaLiberada, ReservaCancelada:
		return true
	}
	return false
}

// Reservation es un reclamo sobre stock disponible a nombre de una orden de
// venta u orden de trabajo. Su cantidad se refleja en Stock.Reserved; ese
// espejo es el mecanismo real de control de concurrencia y debe ajustarse
// exactamente una vez por transición.
type Reservation struct {
	ID            string
	ItemID        string
	WarehouseID   string
	Quantity      decimal.Decimal
	State         ReservationState
	SalesOrderID  string
	WorkOrderID   string
	PickupOrderID string // orden de salida generada para el retiro físico
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CreatedBy     string
}
