package repository

import "github.com/tallerpro/inventario-api/internal/domain/entity"

// ReservationRepository define el puerto de persistencia de reservas.
type ReservationRepository interface {
	Create(res *entity.Reservation) error
	GetByID(id string) (*entity.Reservation, error)
	// GetForUpdate bloquea la reserva para transición de estado.
	GetForUpdate(id string) (*entity.Reservation, error)
	Update(res *entity.Reservation) error
	ListBySalesOrder(salesOrderID string) ([]*entity.Reservation, error)
	ListByWorkOrder(workOrderID string) ([]*entity.Reservation, error)
}
