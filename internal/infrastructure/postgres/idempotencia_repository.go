package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tallerpro/inventario-api/internal/domain"
	"github.com/tallerpro/inventario-api/internal/domain/entity"
	"github.com/tallerpro/inventario-api/internal/domain/repository"
)

var _ repository.IdempotencyRepository = (*IdempotencyRepo)(nil)

// IdempotencyRepo implementación de IdempotencyRepository sobre PostgreSQL.
// Se usa dentro de la misma transacción que la operación protegida.
type IdempotencyRepo struct {
	q Querier
}

// NewIdempotencyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewIdempotencyRepository(q Querier) *IdempotencyRepo {
	return &IdempotencyRepo{q: q}
}

// Get devuelve el registro de la clave (nil si no existe), bloqueando la
// fila para serializar replays concurrentes.
func (r *IdempotencyRepo) Get(key string) (*entity.IdempotencyRecord, error) {
	query := `
		SELECT key, operation, result, created_at
		FROM idempotency_keys WHERE key = $1
		FOR UPDATE`
	var rec entity.IdempotencyRecord
	err := r.q.QueryRow(context.Background(), query, key).Scan(
		&rec.Key, &rec.Operation, &rec.Result, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency key: %w", translateError(err))
	}
	return &rec, nil
}

// Save persiste el registro; una clave duplicada (carrera de replays) es
// conflicto reintentable.
func (r *IdempotencyRepo) Save(rec *entity.IdempotencyRecord) error {
	query := `
		INSERT INTO idempotency_keys (key, operation, result, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(context.Background(), query,
		rec.Key, rec.Operation, rec.Result, rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("save idempotency key: %w", translateError(err))
	}
	return nil
}
