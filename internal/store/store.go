// Package store writes resolved fixture catalogs into a relational database
// and reads live rows back for dumping.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/fixtures/internal/logging"
	"github.com/mesh-intelligence/fixtures/pkg/types"
)

// Store loads catalogs through a database/sql handle.
type Store struct {
	db      *sql.DB
	dialect *dialect
	log     zerolog.Logger
	owned   bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load progress.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New wraps an existing handle. driver selects the SQL dialect and must be
// one of the types.Driver* names. Close does not close db.
func New(db *sql.DB, driver string, opts ...Option) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, dialect: d, log: logging.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open validates cfg, opens the database and verifies the connection.
func Open(ctx context.Context, cfg types.Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", cfg.Driver, err)
	}
	s, err := New(db, cfg.Driver, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Driver returns the dialect name.
func (s *Store) Driver() string { return s.dialect.name }

// Close releases the handle when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Load replaces the contents of every catalog table with the catalog's
// records in a single transaction and returns the number of rows
// inserted. Existing rows are deleted in reverse table order, records are
// inserted in table order with columns in declaration order, then id
// sequences are reset. On any error nothing is committed.
func (s *Store) Load(ctx context.Context, cat *types.Catalog) (int, error) {
	tables := cat.Tables()
	for _, table := range tables {
		for _, r := range cat.Records(table) {
			if r.HasRefs() {
				return 0, fmt.Errorf("record %q in %s: %w", r.Name, table, types.ErrUnresolvedReference)
			}
		}
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if s.dialect.fkQuery != "" {
		restore, err := s.relaxForeignKeys(ctx, conn)
		if err != nil {
			return 0, err
		}
		defer restore()
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range s.dialect.txPrelude {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return 0, fmt.Errorf("preparing load transaction: %w", err)
		}
	}

	for i := len(tables) - 1; i >= 0; i-- {
		q := "DELETE FROM " + s.dialect.quote(tables[i])
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return 0, fmt.Errorf("clearing %s: %w", tables[i], err)
		}
	}

	rows := 0
	for _, table := range tables {
		n, err := s.insertRecords(ctx, tx, table, cat.Records(table))
		if err != nil {
			return 0, err
		}
		rows += n
		s.log.Debug().Str("table", table).Int("rows", n).Msg("inserted fixtures")
	}

	for _, table := range tables {
		if !hasIDs(cat.Records(table)) {
			continue
		}
		if err := s.dialect.resetSequence(ctx, tx, s.dialect, table); err != nil {
			return 0, fmt.Errorf("resetting id sequence for %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return rows, nil
}

// relaxForeignKeys turns foreign-key checks off on conn and returns a
// function restoring the previous setting. Checks that are already off
// are left alone.
func (s *Store) relaxForeignKeys(ctx context.Context, conn *sql.Conn) (func(), error) {
	var prev int
	if err := conn.QueryRowContext(ctx, s.dialect.fkQuery).Scan(&prev); err != nil {
		return nil, fmt.Errorf("reading foreign key setting: %w", err)
	}
	if prev == 0 {
		return func() {}, nil
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf(s.dialect.fkSet, 0)); err != nil {
		return nil, fmt.Errorf("disabling foreign keys for load: %w", err)
	}
	return func() {
		if _, err := conn.ExecContext(context.WithoutCancel(ctx), fmt.Sprintf(s.dialect.fkSet, prev)); err != nil {
			s.log.Warn().Err(err).Msg("restoring foreign key setting")
		}
	}, nil
}

// insertRecords inserts records into table and returns how many were
// written.
func (s *Store) insertRecords(ctx context.Context, tx *sql.Tx, table string, records []*types.Record) (int, error) {
	for _, r := range records {
		columns := r.Fields.Keys()
		args := make([]any, len(columns))
		for i, col := range columns {
			v, _ := r.Fields.Get(col)
			arg, err := columnValue(v.Raw())
			if err != nil {
				return 0, fmt.Errorf("encoding %s.%s for %q: %w", table, col, r.Name, err)
			}
			args[i] = arg
		}
		if _, err := tx.ExecContext(ctx, s.dialect.insertSQL(table, columns), args...); err != nil {
			return 0, fmt.Errorf("inserting %q into %s: %w", r.Name, table, err)
		}
	}
	return len(records), nil
}

// columnValue converts a fixture scalar into a driver argument. Nested
// maps and lists are stored as JSON text.
func columnValue(v any) (any, error) {
	switch v := v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return v, nil
	}
}

func hasIDs(records []*types.Record) bool {
	for _, r := range records {
		if _, ok := r.ID(); ok {
			return true
		}
	}
	return false
}

// Dump returns up to limit rows of table (all rows when limit <= 0). Each
// row maps column name to value; byte slices come back as strings.
func (s *Store) Dump(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	q := "SELECT * FROM " + s.dialect.quote(table)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = dumpValue(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	return out, nil
}

func dumpValue(v any) any {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC()
	default:
		return v
	}
}
