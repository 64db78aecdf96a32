package repository

import "github.com/tallerpro/inventario-api/internal/domain/entity"

// IdempotencyRepository guarda el resultado de operaciones mutantes por
// clave de caller. Se consulta y escribe dentro de la misma transacción que
// la operación que protege.
type IdempotencyRepository interface {
	// Get devuelve el registro de la clave o nil si no existe. Bloquea la
	// fila para serializar replays concurrentes.
	Get(key string) (*entity.IdempotencyRecord, error)
	// Save persiste el registro; clave duplicada es ErrConflict.
	Save(rec *entity.IdempotencyRecord) error
}
