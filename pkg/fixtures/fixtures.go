// Package fixtures loads YAML fixture files into a database, translating
// symbolic foreign keys such as "user: :joe" into "user_id" columns.
//
// Example:
//
//	res, err := fixtures.Load(ctx, db,
//	    fixtures.WithDir("testdata/fixtures"),
//	    fixtures.WithTables("companies", "users"),
//	)
package fixtures

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/fixtures/internal/fixture"
	"github.com/mesh-intelligence/fixtures/internal/hints"
	"github.com/mesh-intelligence/fixtures/internal/logging"
	"github.com/mesh-intelligence/fixtures/internal/resolve"
	"github.com/mesh-intelligence/fixtures/internal/store"
	"github.com/mesh-intelligence/fixtures/pkg/types"
)

// Version is the library and CLI version.
const Version = "0.3.0"

// DefaultDir is the fixtures directory used when none is given.
const DefaultDir = "fixtures"

// LoadResult describes a committed load run.
type LoadResult struct {
	RunID  uuid.UUID `json:"run_id"` // Correlates the run's log lines.
	Tables []string  `json:"tables"` // Tables replaced, in load order.
	Rows   int       `json:"rows"`   // Rows inserted.
}

type options struct {
	dir       string
	tables    []string
	hints     []types.HintProvider
	hintsFile string
	models    []any
	driver    string
	limit     int
	pluralize resolve.Pluralizer
	log       zerolog.Logger
}

// Option configures Check and Load.
type Option func(*options)

// WithDir sets the fixtures directory.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithTables restricts the run to the given table specs, loaded in order.
// Without it every fixture file in the directory is loaded, sorted by name.
func WithTables(tables ...string) Option {
	return func(o *options) { o.tables = append(o.tables, tables...) }
}

// WithHints adds a hint provider. Providers are consulted in the order
// they were added, before model hints and the hints file.
func WithHints(h types.HintProvider) Option {
	return func(o *options) {
		if h != nil {
			o.hints = append(o.hints, h)
		}
	}
}

// WithHintsFile overrides the path of the associations document. Relative
// paths are taken from the fixtures directory.
func WithHintsFile(path string) Option {
	return func(o *options) { o.hintsFile = path }
}

// WithModels derives hints from gorm model structs.
func WithModels(models ...any) Option {
	return func(o *options) { o.models = append(o.models, models...) }
}

// WithDriver names the SQL dialect of the handle passed to Load. The
// default is sqlite.
func WithDriver(driver string) Option {
	return func(o *options) { o.driver = driver }
}

// WithLimit caps the rows Dump reads from the requested table. Join
// tables are always dumped whole.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// WithPluralizer replaces the English pluralizer used to guess tables.
func WithPluralizer(p resolve.Pluralizer) Option {
	return func(o *options) { o.pluralize = p }
}

// WithLogger sets the logger for diagnostics and progress.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func newOptions(opts []Option) *options {
	o := &options{
		dir:    DefaultDir,
		driver: types.DriverSQLite,
		log:    logging.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Check parses the fixture files and resolves every symbolic reference
// without touching a database. The returned catalog holds the rows a Load
// would insert.
func Check(opts ...Option) (*types.Catalog, error) {
	return newOptions(opts).catalog()
}

// Load parses and resolves the fixtures, then replaces the contents of
// every fixture table in one transaction. A resolution failure returns
// before the database is touched.
func Load(ctx context.Context, db *sql.DB, opts ...Option) (*LoadResult, error) {
	o := newOptions(opts)
	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating run id: %w", err)
	}
	o.log = o.log.With().Str("run_id", runID.String()).Logger()

	cat, err := o.catalog()
	if err != nil {
		return nil, err
	}

	s, err := store.New(db, o.driver, store.WithLogger(o.log))
	if err != nil {
		return nil, err
	}
	rows, err := s.Load(ctx, cat)
	if err != nil {
		return nil, err
	}

	res := &LoadResult{RunID: runID, Tables: cat.Tables(), Rows: rows}
	o.log.Info().Strs("tables", res.Tables).Int("rows", rows).Msg("fixtures loaded")
	return res, nil
}

// MustLoad is Load for tests: it fails t on error.
func MustLoad(t testing.TB, db *sql.DB, opts ...Option) *LoadResult {
	t.Helper()
	res, err := Load(context.Background(), db, opts...)
	if err != nil {
		t.Fatalf("loading fixtures: %v", err)
	}
	return res
}

// DumpedTable describes one fixture file written by Dump.
type DumpedTable struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
	Path  string `json:"path"`
	Join  bool   `json:"join,omitempty"` // many-to-many join table
}

// Dump writes the live rows of table to <dir>/<table>.yml. When models
// are given, every many-to-many join table declared by the table's models
// is written alongside it, with rows named join_00000, join_00001, ...
func Dump(ctx context.Context, db *sql.DB, table string, opts ...Option) ([]DumpedTable, error) {
	o := newOptions(opts)
	s, err := store.New(db, o.driver, store.WithLogger(o.log))
	if err != nil {
		return nil, err
	}

	rows, err := s.Dump(ctx, table, o.limit)
	if err != nil {
		return nil, err
	}
	path, err := fixture.WriteTable(o.dir, table, rows)
	if err != nil {
		return nil, err
	}
	out := []DumpedTable{{Table: table, Rows: len(rows), Path: path}}

	if len(o.models) > 0 {
		m, err := hints.NewModels(o.models...)
		if err != nil {
			return nil, err
		}
		for _, join := range m.JoinTables(table) {
			rows, err := s.Dump(ctx, join, 0)
			if err != nil {
				return nil, err
			}
			path, err := fixture.WriteJoinTable(o.dir, join, rows)
			if err != nil {
				return nil, err
			}
			out = append(out, DumpedTable{Table: join, Rows: len(rows), Path: path, Join: true})
		}
	}

	for _, d := range out {
		o.log.Info().Str("table", d.Table).Int("rows", d.Rows).Str("path", d.Path).Msg("dumped")
	}
	return out, nil
}

// catalog reads and resolves the fixture tables.
func (o *options) catalog() (*types.Catalog, error) {
	tables := o.tables
	if len(tables) == 0 {
		skip := []string{hints.DefaultFile}
		if o.hintsFile != "" {
			skip = append(skip, filepath.Base(o.hintsFile))
		}
		found, err := fixture.Discover(o.dir, skip...)
		if err != nil {
			return nil, err
		}
		tables = found
	}

	cat, err := fixture.Load(o.dir, tables...)
	if err != nil {
		return nil, err
	}

	provider, err := o.hintProvider()
	if err != nil {
		return nil, err
	}
	ropts := []resolve.Option{resolve.WithHints(provider), resolve.WithLogger(o.log)}
	if o.pluralize != nil {
		ropts = append(ropts, resolve.WithPluralizer(o.pluralize))
	}
	if err := resolve.New(ropts...).Resolve(cat); err != nil {
		return nil, err
	}
	o.log.Debug().Int("tables", len(tables)).Int("records", cat.Len()).Msg("fixtures resolved")
	return cat, nil
}

// hintProvider chains the explicit provider, model hints and the hints
// file, in that order.
func (o *options) hintProvider() (types.HintProvider, error) {
	chain := append(hints.Chain{}, o.hints...)
	if len(o.models) > 0 {
		m, err := hints.NewModels(o.models...)
		if err != nil {
			return nil, err
		}
		chain = append(chain, m)
	}

	path := o.hintsFile
	if path == "" {
		path = hints.DefaultFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(o.dir, path)
	}
	static, err := hints.LoadStatic(path)
	if err != nil {
		return nil, err
	}
	return append(chain, static), nil
}
