package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallerpro/inventario-api/internal/domain/entity"
)

// ErrorResponse respuesta de error estándar de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RegisterMovementRequest registrar un movimiento de inventario.
// tipo: entrada|compra|salida|venta|consumo|transferencia|ajuste.
type RegisterMovementRequest struct {
	Tipo          string           `json:"tipo"`
	ItemID        string           `json:"item_id"`
	Cantidad      decimal.Decimal  `json:"cantidad"`
	BodegaOrigen  string           `json:"bodega_origen_id"`
	BodegaDestino string           `json:"bodega_destino_id"`
	CostoUnitario *decimal.Decimal `json:"costo_unitario,omitempty"`
	Referencia    string           `json:"referencia"`
	RefTipo       string           `json:"referencia_tipo"`
	ReservaID     string           `json:"reserva_id"`
}

// MovementResponse movimiento del ledger.
type MovementResponse struct {
	ID            string           `json:"id"`
	Tipo          string           `json:"tipo"`
	ItemID        string           `json:"item_id"`
	Cantidad      decimal.Decimal  `json:"cantidad"`
	BodegaOrigen  string           `json:"bodega_origen_id,omitempty"`
	BodegaDestino string           `json:"bodega_destino_id,omitempty"`
	CostoUnitario *decimal.Decimal `json:"costo_unitario,omitempty"`
	Referencia    string           `json:"referencia,omitempty"`
	RefTipo       string           `json:"referencia_tipo,omitempty"`
	ReservaID     string           `json:"reserva_id,omitempty"`
	// Snapshot post-mutación en la bodega afectada.
	ResultadoCantidad  decimal.Decimal `json:"resultado_cantidad"`
	ResultadoReservado decimal.Decimal `json:"resultado_reservado"`
	Fecha              time.Time       `json:"fecha"`
	CreadoPor          string          `json:"creado_por,omitempty"`
}

// NewMovementResponse mapea la entidad al DTO.
func NewMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:                 m.ID,
		Tipo:               string(m.Type),
		ItemID:             m.ItemID,
		Cantidad:           m.Quantity,
		BodegaOrigen:       m.FromWarehouseID,
		BodegaDestino:      m.ToWarehouseID,
		CostoUnitario:      m.UnitCost,
		Referencia:         m.Reference,
		RefTipo:            m.ReferenceType,
		ReservaID:          m.ReservationID,
		ResultadoCantidad:  m.ResultQuantity,
		ResultadoReservado: m.ResultReserved,
		Fecha:              m.Date,
		CreadoPor:          m.CreatedBy,
	}
}

// NewMovementResponses mapea un lote de movimientos.
func NewMovementResponses(ms []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, NewMovementResponse(m))
	}
	return out
}

// StockResponse registro de stock de un ítem en una bodega.
type StockResponse struct {
	ItemID        string          `json:"item_id"`
	BodegaID      string          `json:"bodega_id"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	Reservado     decimal.Decimal `json:"reservado"`
	Disponible    decimal.Decimal `json:"disponible"`
	CostoPromedio decimal.Decimal `json:"costo_promedio"`
}

// NewStockResponse mapea la entidad al DTO.
func NewStockResponse(s *entity.Stock) StockResponse {
	return StockResponse{
		ItemID:        s.ItemID,
		BodegaID:      s.WarehouseID,
		Cantidad:      s.Quantity,
		Reservado:     s.Reserved,
		Disponible:    s.Available(),
		CostoPromedio: s.AvgCost,
	}
}

// ReserveRequest crear una reserva contra el disponible.
type ReserveRequest struct {
	ItemID        string          `json:"item_id"`
	BodegaID      string          `json:"bodega_id"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	OrdenVentaID  string          `json:"orden_venta_id"`
	OrdenTrabajoID string         `json:"orden_trabajo_id"`
}

// PickupRequest generar la orden de salida de una reserva.
type PickupRequest struct {
	OrdenSalidaID string `json:"orden_salida_id"`
}

// ReleaseRequest liberar una reserva; cancelar decide el estado final.
type ReleaseRequest struct {
	Cancelar bool `json:"cancelar"`
}

// ReservationResponse reserva con su estado actual.
type ReservationResponse struct {
	ID             string          `json:"id"`
	ItemID         string          `json:"item_id"`
	BodegaID       string          `json:"bodega_id"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	Estado         string          `json:"estado"`
	OrdenVentaID   string          `json:"orden_venta_id,omitempty"`
	OrdenTrabajoID string          `json:"orden_trabajo_id,omitempty"`
	OrdenSalidaID  string          `json:"orden_salida_id,omitempty"`
}

// NewReservationResponse mapea la entidad al DTO.
func NewReservationResponse(r *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:             r.ID,
		ItemID:         r.ItemID,
		BodegaID:       r.WarehouseID,
		Cantidad:       r.Quantity,
		Estado:         string(r.State),
		OrdenVentaID:   r.SalesOrderID,
		OrdenTrabajoID: r.WorkOrderID,
		OrdenSalidaID:  r.PickupOrderID,
	}
}

// ReceiveLineRequest línea recibida de una orden de compra.
type ReceiveLineRequest struct {
	ItemID        string           `json:"item_id"`
	Cantidad      decimal.Decimal  `json:"cantidad"`
	CostoUnitario *decimal.Decimal `json:"costo_unitario,omitempty"`
}

// ReceiveRequest lote de recepción de una orden de compra.
type ReceiveRequest struct {
	BodegaID string               `json:"bodega_id"`
	Lineas   []ReceiveLineRequest `json:"lineas"`
}

// PurchaseOrderResponse orden de compra con sus líneas.
type PurchaseOrderResponse struct {
	ID     string                      `json:"id"`
	Estado string                      `json:"estado"`
	Lineas []PurchaseOrderLineResponse `json:"lineas"`
}

// PurchaseOrderLineResponse línea con lo pedido y lo recibido.
type PurchaseOrderLineResponse struct {
	ItemID   string          `json:"item_id"`
	Cantidad decimal.Decimal `json:"cantidad"`
	Recibido decimal.Decimal `json:"recibido"`
}

// NewPurchaseOrderResponse mapea la entidad al DTO.
func NewPurchaseOrderResponse(po *entity.PurchaseOrder) PurchaseOrderResponse {
	out := PurchaseOrderResponse{ID: po.ID, Estado: string(po.State)}
	for _, l := range po.Lines {
		out.Lineas = append(out.Lineas, PurchaseOrderLineResponse{
			ItemID:   l.ItemID,
			Cantidad: l.Quantity,
			Recibido: l.Received,
		})
	}
	return out
}

// ReceiveResponse resultado de una recepción.
type ReceiveResponse struct {
	Orden       PurchaseOrderResponse `json:"orden"`
	Movimientos []MovementResponse    `json:"movimientos"`
}

// ShipItemRequest despacho parcial de una línea.
type ShipItemRequest struct {
	ItemID   string          `json:"item_id"`
	Cantidad decimal.Decimal `json:"cantidad"`
}

// ShipRequest despacho de una orden de venta; sin items despacha todo.
type ShipRequest struct {
	Items []ShipItemRequest `json:"items"`
}

// SalesOrderLineResponse línea de la orden de venta.
type SalesOrderLineResponse struct {
	ItemID    string          `json:"item_id"`
	Cantidad  decimal.Decimal `json:"cantidad"`
	Reservado decimal.Decimal `json:"reservado"`
	Entregado decimal.Decimal `json:"entregado"`
}

// SalesOrderResponse orden de venta con su estado actual.
type SalesOrderResponse struct {
	ID     string                   `json:"id"`
	Estado string                   `json:"estado"`
	Bodega string                   `json:"bodega_id,omitempty"`
	Lineas []SalesOrderLineResponse `json:"lineas"`
}

// NewSalesOrderResponse mapea la entidad al DTO.
func NewSalesOrderResponse(so *entity.SalesOrder) SalesOrderResponse {
	out := SalesOrderResponse{ID: so.ID, Estado: string(so.State), Bodega: so.WarehouseID}
	for _, l := range so.Lines {
		out.Lineas = append(out.Lineas, SalesOrderLineResponse{
			ItemID:    l.ItemID,
			Cantidad:  l.Quantity,
			Reservado: l.Reserved,
			Entregado: l.Delivered,
		})
	}
	return out
}

// ShipResponse resultado de un despacho.
type ShipResponse struct {
	Orden       SalesOrderResponse `json:"orden"`
	Movimientos []MovementResponse `json:"movimientos"`
}
