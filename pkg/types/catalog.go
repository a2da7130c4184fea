package types

import "fmt"

// Catalog holds every fixture table taking part in one load run. Tables
// and records keep registration order.
type Catalog struct {
	order  []string
	tables map[string]*recordSet
}

type recordSet struct {
	order  []*Record
	byName map[string]*Record
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tables: make(map[string]*recordSet)}
}

// Register adds records to table and marks the table as known for this
// run. Registering a table with no records still makes it known. Records
// must belong to table and have names unique within it.
func (c *Catalog) Register(table string, records ...*Record) error {
	if table == "" {
		return ErrInvalidTable
	}
	set, ok := c.tables[table]
	if !ok {
		set = &recordSet{byName: make(map[string]*Record)}
		c.tables[table] = set
		c.order = append(c.order, table)
	}
	for _, r := range records {
		if r.Table != table {
			return fmt.Errorf("record %q in %s: %w", r.Name, table, ErrTableMismatch)
		}
		if _, dup := set.byName[r.Name]; dup {
			return fmt.Errorf("record %q in %s: %w", r.Name, table, ErrDuplicateRecord)
		}
		if r.Fields == nil {
			r.Fields = NewFields()
		}
		set.byName[r.Name] = r
		set.order = append(set.order, r)
	}
	return nil
}

// Contains reports whether table is known in this run.
func (c *Catalog) Contains(table string) bool {
	_, ok := c.tables[table]
	return ok
}

// Tables returns the table names in registration order.
func (c *Catalog) Tables() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Records returns the records of table in registration order, or nil if
// the table is unknown.
func (c *Catalog) Records(table string) []*Record {
	set, ok := c.tables[table]
	if !ok {
		return nil
	}
	out := make([]*Record, len(set.order))
	copy(out, set.order)
	return out
}

// Record looks up a record by table and name.
func (c *Catalog) Record(table, name string) (*Record, bool) {
	set, ok := c.tables[table]
	if !ok {
		return nil, false
	}
	r, ok := set.byName[name]
	return r, ok
}

// Len returns the total number of records across all tables.
func (c *Catalog) Len() int {
	n := 0
	for _, set := range c.tables {
		n += len(set.order)
	}
	return n
}
