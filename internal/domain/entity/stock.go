package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock representa el registro de inventario de un ítem en una bodega.
// Invariantes: Quantity >= 0 y 0 <= Reserved <= Quantity.
// Solo el registrador de movimientos escribe este registro.
type Stock struct {
	ItemID      string
	WarehouseID string
	Quantity    decimal.Decimal // cantidad física en bodega
	Reserved    decimal.Decimal // porción de Quantity reclamada por reservas activas
	AvgCost     decimal.Decimal // costo promedio ponderado
	UpdatedAt   time.Time
}

// Available devuelve la cantidad disponible para nuevas reservas o salidas
// sin reserva (disponible = cantidad - reservado).
func (s *Stock) Available() decimal.Decimal {
	return s.Quantity.Sub(s.Reserved)
}

// NewStock devuelve un registro en cero para (item, bodega), equivalente a
// getOrCreate cuando la fila no existe todavía.
func NewStock(itemID, warehouseID string) *Stock {
	return &Stock{
		ItemID:      itemID,
		WarehouseID: warehouseID,
		Quantity:    decimal.Zero,
		Reserved:    decimal.Zero,
		AvgCost:     decimal.Zero,
	}
}
