// Package resolve rewrites symbolic foreign-key references in a fixture
// catalog into concrete id columns.
//
// A field such as "user: :joe" on a posts record is resolved by guessing
// the target table from the field name ("users"), finding the record
// named "joe" there and replacing the field with "user_id: <joe's id>".
// When the plural guess misses, an association hint provider may name the
// target table or class explicitly.
package resolve

import (
	"github.com/jinzhu/inflection"
	"github.com/rs/zerolog"
	"gorm.io/gorm/schema"

	"github.com/mesh-intelligence/fixtures/internal/logging"
	"github.com/mesh-intelligence/fixtures/pkg/types"
)

// IDSuffix is appended to a resolved field name to form the foreign-key
// column.
const IDSuffix = "_" + types.IDField

// Pluralizer maps a singular noun to its plural form. It must be
// deterministic.
type Pluralizer func(string) string

// Tableizer maps a class name such as "BlogPost" to a table name such as
// "blog_posts".
type Tableizer func(string) string

// Resolver resolves symbolic references across a whole catalog.
type Resolver struct {
	hints     types.HintProvider
	pluralize Pluralizer
	tableize  Tableizer
	log       zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHints sets the association hint provider consulted when the plural
// guess fails.
func WithHints(h types.HintProvider) Option {
	return func(r *Resolver) {
		if h != nil {
			r.hints = h
		}
	}
}

// WithPluralizer replaces the default English pluralizer.
func WithPluralizer(p Pluralizer) Option {
	return func(r *Resolver) {
		if p != nil {
			r.pluralize = p
		}
	}
}

// WithTableizer replaces the default class-name to table-name mapping.
func WithTableizer(t Tableizer) Option {
	return func(r *Resolver) {
		if t != nil {
			r.tableize = t
		}
	}
}

// WithLogger sets the logger that receives resolution diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// New creates a Resolver. Without options it uses no hints, the
// inflection pluralizer and gorm's naming strategy for class names, and
// logs diagnostics to stderr.
func New(opts ...Option) *Resolver {
	namer := schema.NamingStrategy{}
	r := &Resolver{
		hints:     noHints{},
		pluralize: inflection.Plural,
		tableize:  namer.TableName,
		log:       logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// rewrite is one planned field replacement.
type rewrite struct {
	record *types.Record
	field  string
	id     any
}

// Resolve rewrites every symbolic reference in cat. Tables, records and
// fields are visited in catalog order so diagnostics are reproducible.
// On the first failure Resolve returns a *types.NamingMismatchError or a
// *types.LookupError and leaves cat unchanged; rewrites are only applied
// once every reference in the catalog has resolved.
func (r *Resolver) Resolve(cat *types.Catalog) error {
	if cat == nil {
		return nil
	}

	var plan []rewrite
	for _, table := range cat.Tables() {
		for _, rec := range cat.Records(table) {
			var err error
			rec.Fields.Each(func(field string, v types.Value) bool {
				if !v.IsRef() {
					return true
				}
				var id any
				id, err = r.resolveField(cat, rec, field, v.RefName())
				if err != nil {
					return false
				}
				plan = append(plan, rewrite{record: rec, field: field, id: id})
				return true
			})
			if err != nil {
				return err
			}
		}
	}

	for _, w := range plan {
		w.record.Fields.Replace(w.field, w.field+IDSuffix, types.Scalar(w.id))
	}

	r.log.Debug().
		Int("tables", len(cat.Tables())).
		Int("references", len(plan)).
		Msg("resolved symbolic references")
	return nil
}

// resolveField returns the primary key the reference in field points at.
func (r *Resolver) resolveField(cat *types.Catalog, rec *types.Record, field, target string) (any, error) {
	table, err := r.targetTable(cat, rec, field, target)
	if err != nil {
		return nil, err
	}
	if table == "" {
		return nil, r.lookupFailure(rec, field, target, "", types.ReasonUnknownTable)
	}

	ref, ok := cat.Record(table, target)
	if !ok {
		return nil, r.lookupFailure(rec, field, target, table, types.ReasonNoRecord)
	}
	id, ok := ref.ID()
	if !ok {
		return nil, r.lookupFailure(rec, field, target, table, types.ReasonMissingID)
	}

	r.log.Trace().
		Str("table", rec.Table).
		Str("record", rec.Name).
		Str("field", field).
		Str("target_table", table).
		Interface("id", id).
		Msg("reference resolved")
	return id, nil
}

// targetTable derives the table a reference points at. It returns "" when
// no known table fits, leaving the lookup failure to the caller.
func (r *Resolver) targetTable(cat *types.Catalog, rec *types.Record, field, target string) (string, error) {
	// A table named after the field always wins, even when a hint would
	// point elsewhere.
	if plural := r.pluralize(field); cat.Contains(plural) {
		return plural, nil
	}

	hint, ok := r.hints.LookupAssociation(rec.Table, field)
	if !ok {
		return "", nil
	}
	if hint.DeclaredTarget != "" {
		return r.declaredTable(cat, hint.DeclaredTarget), nil
	}
	if hint.ImpliedPlainField != "" {
		err := &types.NamingMismatchError{
			Table:     rec.Table,
			Record:    rec.Name,
			Field:     field,
			Value:     target,
			Suggested: hint.ImpliedPlainField,
		}
		r.log.Error().
			Str("table", rec.Table).
			Str("record", rec.Name).
			Str("field", field).
			Str("suggested", hint.ImpliedPlainField).
			Msg(err.Error())
		return "", err
	}
	return "", nil
}

// declaredTable maps a declared association target onto a known table.
// A target that is not itself a known table is treated as a class name
// and resolved through its base table, which covers single-table
// inheritance hierarchies.
func (r *Resolver) declaredTable(cat *types.Catalog, declared string) string {
	if cat.Contains(declared) {
		return declared
	}
	base, ok := r.hints.BaseTableFor(declared)
	if !ok || base == "" {
		base = declared
	}
	if cat.Contains(base) {
		return base
	}
	if table := r.tableize(base); cat.Contains(table) {
		return table
	}
	return ""
}

func (r *Resolver) lookupFailure(rec *types.Record, field, target, table, reason string) error {
	err := &types.LookupError{
		Table:       rec.Table,
		Record:      rec.Name,
		Field:       field,
		Value:       target,
		TargetTable: table,
		Reason:      reason,
	}
	r.log.Error().
		Str("table", rec.Table).
		Str("record", rec.Name).
		Str("field", field).
		Str("value", target).
		Msg(err.Error())
	return err
}

// noHints answers every query with "no hint".
type noHints struct{}

func (noHints) LookupAssociation(string, string) (types.AssociationHint, bool) {
	return types.AssociationHint{}, false
}

func (noHints) BaseTableFor(string) (string, bool) { return "", false }
