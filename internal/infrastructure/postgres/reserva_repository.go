package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tallerpro/inventario-api/internal/domain/entity"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación de ReservationRepository sobre PostgreSQL.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, item_id, warehouse_id, quantity, state,
	sales_order_id, work_order_id, pickup_order_id, created_at, updated_at, created_by`

// Create persiste una reserva nueva.
func (r *ReservationRepo) Create(res *entity.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		res.ID, res.ItemID, res.WarehouseID, res.Quantity, string(res.State),
		nullable(res.SalesOrderID), nullable(res.WorkOrderID), nullable(res.PickupOrderID),
		res.CreatedAt, res.UpdatedAt, nullable(res.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", translateError(err))
	}
	return nil
}

// GetByID obtiene una reserva por ID (nil si no existe).
func (r *ReservationRepo) GetByID(id string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return r.scanOne(query, id)
}

// GetForUpdate obtiene la reserva y bloquea la fila (SELECT FOR UPDATE).
func (r *ReservationRepo) GetForUpdate(id string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	return r.scanOne(query, id)
}

func (r *ReservationRepo) scanOne(query string, args ...any) (*entity.Reservation, error) {
	row := r.q.QueryRow(context.Background(), query, args...)
	res, err := scanReservation(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", translateError(err))
	}
	return res, nil
}

// Update persiste cantidad, estado y referencias de la reserva.
func (r *ReservationRepo) Update(res *entity.Reservation) error {
	query := `
		UPDATE reservations
		SET quantity = $2, state = $3, pickup_order_id = $4, updated_at = $5
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		res.ID, res.Quantity, string(res.State), nullable(res.PickupOrderID), res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update reservation: %w", translateError(err))
	}
	return nil
}

// ListBySalesOrder lista las reservas asociadas a una orden de venta.
func (r *ReservationRepo) ListBySalesOrder(salesOrderID string) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE sales_order_id = $1 ORDER BY created_at`
	return r.list(query, salesOrderID)
}

// ListByWorkOrder lista las reservas asociadas a una orden de trabajo.
func (r *ReservationRepo) ListByWorkOrder(workOrderID string) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE work_order_id = $1 ORDER BY created_at`
	return r.list(query, workOrderID)
}

func (r *ReservationRepo) list(query string, args ...any) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", translateError(err))
	}
	defer rows.Close()
	var list []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

func scanReservation(scan func(dest ...any) error) (*entity.Reservation, error) {
	var res entity.Reservation
	var state string
	var salesOrder, workOrder, pickupOrder, createdBy *string
	err := scan(
		&res.ID, &res.ItemID, &res.WarehouseID, &res.Quantity, &state,
		&salesOrder, &workOrder, &pickupOrder, &res.CreatedAt, &res.UpdatedAt, &createdBy,
	)
	if err != nil {
		return nil, err
	}
	res.State = entity.ReservationState(state)
	res.SalesOrderID = deref(salesOrder)
	res.WorkOrderID = deref(workOrder)
	res.PickupOrderID = deref(pickupOrder)
	res.CreatedBy = deref(createdBy)
	return &res, nil
}
