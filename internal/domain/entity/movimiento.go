package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallerpro/inventario-api/internal/domain"
)

// MovementType es el tipo cerrado de movimiento de inventario.
// Los sinónimos del dominio (compra, venta, consumo) se normalizan en
// ParseMovementType; un tipo desconocido es entrada inválida, nunca un no-op.
type MovementType string

const (
	MovementEntrada       MovementType = "entrada"
	MovementSalida        MovementType = "salida"
	MovementTransferencia MovementType = "transferencia"
	MovementAjuste        MovementType = "ajuste"
)

// Tipos de referencia: de dónde proviene el movimiento.
const (
	RefOrdenCompra  = "orden_compra"
	RefOrdenVenta   = "orden_venta"
	RefOrdenTrabajo = "orden_trabajo"
	RefOrdenSalida  = "orden_salida"
	RefAjuste       = "ajuste"
)

// ParseMovementType normaliza el tipo recibido (incluyendo sinónimos) al
// enum cerrado. Devuelve ErrInvalidInput para valores desconocidos.
func ParseMovementType(s string) (MovementType, error) {
	switch s {
	case "entrada", "compra":
		return MovementEntrada, nil
	case "salida", "venta", "consumo":
		return MovementSalida, nil
	case "transferencia":
		return MovementTransferencia, nil
	case "ajuste":
		return MovementAjuste, nil
	default:
		return "", domain.ErrInvalidInput
	}
}

// Movement es el registro inmutable de un cambio de stock aplicado.
// Se crea exactamente uno por mutación del ledger; nunca se modifica ni se
// borra (Voided es solo una marca lógica para auditoría).
type Movement struct {
	ID              string
	Type            MovementType
	ItemID          string
	Quantity        decimal.Decimal
	FromWarehouseID string // origen (salida, transferencia, ajuste negativo)
	ToWarehouseID   string // destino (entrada, transferencia, ajuste positivo)
	UnitCost        *decimal.Decimal
	Reference       string // ID de la orden/documento que originó el movimiento
	ReferenceType   string
	ReservationID   string
	IdempotencyKey  string
	// Snapshot post-mutación del registro de stock en la bodega afectada
	// (destino en entrada/transferencia, origen en salida/ajuste negativo).
	ResultQuantity decimal.Decimal
	ResultReserved decimal.Decimal
	Voided         bool
	Date           time.Time
	CreatedAt      time.Time
	CreatedBy      string
}
