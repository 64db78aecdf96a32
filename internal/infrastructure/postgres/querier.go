package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tallerpro/inventario-api/internal/domain"
)

// Querier abstrae pool o tx de pgx: los adaptadores aceptan cualquiera de
// los dos para poder atarse a una transacción.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isLockTimeout verifica si el error es lock_not_available (55P03), alcanzado
// el lock_timeout de la transacción.
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}

// translateError mapea errores de Postgres a errores de dominio: clave
// duplicada y espera de bloqueo agotada son conflictos reintentables.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) || isLockTimeout(err) {
		return domain.ErrConflict
	}
	return err
}
