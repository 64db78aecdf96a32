package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallerpro/inventario-api/internal/infrastructure/postgres"
)

// scriptQuerier registra el SQL emitido por el adaptador, en orden, y
// responde la fila con que se haya armado.
type scriptQuerier struct {
	stmts []string
	row   stubRow
}

func (q *scriptQuerier) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	q.stmts = append(q.stmts, sql)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (q *scriptQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("no usado")
}

func (q *scriptQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	q.stmts = append(q.stmts, sql)
	return q.row
}

type stubRow struct {
	vals []any
	err  error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch v := d.(type) {
		case *string:
			*v = r.vals[i].(string)
		case *decimal.Decimal:
			*v = r.vals[i].(decimal.Decimal)
		case *time.Time:
			*v = r.vals[i].(time.Time)
		}
	}
	return nil
}

func TestGetForUpdate_SiembraLaFilaAntesDeBloquear(t *testing.T) {
	q := &scriptQuerier{row: stubRow{vals: []any{
		"TOR-01", "BOD-PRINCIPAL",
		decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(10),
		time.Now(),
	}}}
	repo := postgres.NewStockRepository(q)

	stock, err := repo.GetForUpdate("TOR-01", "BOD-PRINCIPAL")
	require.NoError(t, err)

	// Primero la siembra idempotente, después el bloqueo: así dos primeros
	// movimientos concurrentes del mismo par serializan sobre la fila.
	require.Len(t, q.stmts, 2)
	assert.Contains(t, q.stmts[0], "ON CONFLICT (item_id, warehouse_id) DO NOTHING")
	assert.Contains(t, q.stmts[1], "FOR UPDATE")

	assert.True(t, stock.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, stock.Reserved.Equal(decimal.Zero))
}

func TestGet_SinFilaDevuelveRegistroEnCero(t *testing.T) {
	q := &scriptQuerier{row: stubRow{err: pgx.ErrNoRows}}
	repo := postgres.NewStockRepository(q)

	stock, err := repo.Get("TOR-01", "BOD-NUEVA")
	require.NoError(t, err)

	// La lectura simple no siembra ni bloquea nada.
	require.Len(t, q.stmts, 1)
	assert.NotContains(t, q.stmts[0], "FOR UPDATE")
	assert.Equal(t, "TOR-01", stock.ItemID)
	assert.Equal(t, "BOD-NUEVA", stock.WarehouseID)
	assert.True(t, stock.Quantity.IsZero())
	assert.True(t, stock.Reserved.IsZero())
}
