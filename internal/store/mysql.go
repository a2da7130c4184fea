package store

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

// mysqlDialect targets github.com/go-sql-driver/mysql. InnoDB moves
// AUTO_INCREMENT past explicitly inserted ids on its own, and ALTER TABLE
// would commit the load transaction, so sequences are not touched.
var mysqlDialect = &dialect{
	name:          "mysql",
	quoteChar:     "`",
	fkQuery:       "SELECT @@SESSION.foreign_key_checks",
	fkSet:         "SET FOREIGN_KEY_CHECKS = %d",
	emptyInsert:   "INSERT INTO %s () VALUES ()",
	resetSequence: func(context.Context, *sql.Tx, *dialect, string) error { return nil },
}
