package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// sqliteDialect targets modernc.org/sqlite. PRAGMA foreign_keys is a
// no-op inside a transaction, so it is toggled on the connection.
var sqliteDialect = &dialect{
	name:          "sqlite",
	quoteChar:     `"`,
	fkQuery:       "PRAGMA foreign_keys",
	fkSet:         "PRAGMA foreign_keys = %d",
	emptyInsert:   "INSERT INTO %s DEFAULT VALUES",
	resetSequence: resetSQLiteSequence,
}

// resetSQLiteSequence rewrites the AUTOINCREMENT counter. Tables without
// AUTOINCREMENT have no sqlite_sequence row and are left alone.
func resetSQLiteSequence(ctx context.Context, tx *sql.Tx, d *dialect, table string) error {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'",
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("checking sqlite_sequence: %w", err)
	}
	if n == 0 {
		return nil
	}
	q := fmt.Sprintf("UPDATE sqlite_sequence SET seq = (SELECT COALESCE(MAX(id), 0) FROM %s) WHERE name = ?", d.quote(table))
	_, err = tx.ExecContext(ctx, q, table)
	return err
}
