package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/fixtures/pkg/types"
)

// dialect captures the SQL differences between the supported databases.
type dialect struct {
	name string

	// quoteChar wraps identifiers.
	quoteChar string

	// numbered placeholders ($1, $2) instead of "?".
	numbered bool

	// fkQuery reads the session's foreign-key check setting (0 or 1) and
	// fkSet is a format taking the new setting. Both run on the load
	// connection outside the transaction.
	fkQuery string
	fkSet   string

	// txPrelude runs first inside the load transaction.
	txPrelude []string

	// emptyInsert inserts a row with every column defaulted; %s is the
	// quoted table.
	emptyInsert string

	// resetSequence caps the table's id sequence at max(id).
	resetSequence func(ctx context.Context, tx *sql.Tx, d *dialect, table string) error
}

// dialectFor returns the dialect for a driver name.
func dialectFor(driver string) (*dialect, error) {
	switch driver {
	case types.DriverSQLite:
		return sqliteDialect, nil
	case types.DriverPostgres:
		return postgresDialect, nil
	case types.DriverMySQL:
		return mysqlDialect, nil
	case "":
		return nil, types.ErrDriverEmpty
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrDriverUnknown, driver)
	}
}

// quote quotes a possibly schema-qualified identifier.
func (d *dialect) quote(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		p = strings.ReplaceAll(p, d.quoteChar, d.quoteChar+d.quoteChar)
		parts[i] = d.quoteChar + p + d.quoteChar
	}
	return strings.Join(parts, ".")
}

// placeholder returns the bind marker for the i-th (0-based) argument.
func (d *dialect) placeholder(i int) string {
	if d.numbered {
		return fmt.Sprintf("$%d", i+1)
	}
	return "?"
}

// insertSQL builds the INSERT statement for the given columns.
func (d *dialect) insertSQL(table string, columns []string) string {
	if len(columns) == 0 {
		return fmt.Sprintf(d.emptyInsert, d.quote(table))
	}
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.quote(c)
		marks[i] = d.placeholder(i)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.quote(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
}
