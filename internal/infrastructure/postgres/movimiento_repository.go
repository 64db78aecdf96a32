package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tallerpro/inventario-api/internal/domain/entity"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del ledger de movimientos sobre PostgreSQL
// (usable con pool o tx). La tabla es append-only: no hay Update ni Delete.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, type, item_id, quantity, from_warehouse_id, to_warehouse_id,
	unit_cost, reference, reference_type, reservation_id, idempotency_key,
	result_quantity, result_reserved, voided, date, created_at, created_by`

// Create persiste un movimiento del ledger.
func (r *MovementRepo) Create(m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, string(m.Type), m.ItemID, m.Quantity,
		nullable(m.FromWarehouseID), nullable(m.ToWarehouseID),
		m.UnitCost, nullable(m.Reference), nullable(m.ReferenceType),
		nullable(m.ReservationID), nullable(m.IdempotencyKey),
		m.ResultQuantity, m.ResultReserved, m.Voided, m.Date, m.CreatedAt,
		nullable(m.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", translateError(err))
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1`
	return r.scanOne(query, id)
}

// GetByIdempotencyKey devuelve el movimiento ya aplicado con esa clave, o nil.
func (r *MovementRepo) GetByIdempotencyKey(key string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE idempotency_key = $1`
	return r.scanOne(query, key)
}

func (r *MovementRepo) scanOne(query string, args ...any) (*entity.Movement, error) {
	row := r.q.QueryRow(context.Background(), query, args...)
	m, err := scanMovement(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", translateError(err))
	}
	return m, nil
}

// ListByWarehouse lista movimientos que tocan una bodega en un rango de fechas.
func (r *MovementRepo) ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements WHERE (from_warehouse_id = $1 OR to_warehouse_id = $1)`
	return r.list(query, warehouseID, from, to, limit, offset)
}

// ListByItem lista movimientos de un ítem en un rango de fechas.
func (r *MovementRepo) ListByItem(itemID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements WHERE item_id = $1`
	return r.list(query, itemID, from, to, limit, offset)
}

func (r *MovementRepo) list(query, id string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	args := []any{id}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND date >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND date <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY date DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", translateError(err))
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// scanMovement lee una fila de movements mapeando columnas NULL a "".
func scanMovement(scan func(dest ...any) error) (*entity.Movement, error) {
	var m entity.Movement
	var typ string
	var fromWh, toWh, reference, refType, reservation, idemKey, createdBy *string
	err := scan(
		&m.ID, &typ, &m.ItemID, &m.Quantity, &fromWh, &toWh,
		&m.UnitCost, &reference, &refType, &reservation, &idemKey,
		&m.ResultQuantity, &m.ResultReserved, &m.Voided, &m.Date, &m.CreatedAt,
		&createdBy,
	)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.FromWarehouseID = deref(fromWh)
	m.ToWarehouseID = deref(toWh)
	m.Reference = deref(reference)
	m.ReferenceType = deref(refType)
	m.ReservationID = deref(reservation)
	m.IdempotencyKey = deref(idemKey)
	m.CreatedBy = deref(createdBy)
	return &m, nil
}

// nullable convierte cadena vacía a NULL para columnas opcionales.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
