package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// postgresDialect targets github.com/lib/pq. Deferrable constraints are
// deferred to commit so tables can load in any order.
var postgresDialect = &dialect{
	name:          "postgres",
	quoteChar:     `"`,
	numbered:      true,
	txPrelude:     []string{"SET CONSTRAINTS ALL DEFERRED"},
	emptyInsert:   "INSERT INTO %s DEFAULT VALUES",
	resetSequence: resetPostgresSequence,
}

// resetPostgresSequence points the id column's serial sequence at
// max(id). setval is strict, so tables without a sequence are a no-op.
func resetPostgresSequence(ctx context.Context, tx *sql.Tx, d *dialect, table string) error {
	q := fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence($1, 'id'), COALESCE(MAX(id), 1), MAX(id) IS NOT NULL) FROM %s",
		d.quote(table),
	)
	_, err := tx.ExecContext(ctx, q, table)
	return err
}
