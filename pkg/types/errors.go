package types

import (
	"errors"
	"fmt"
)

// Resolution errors. Both abort the whole load run.
var (
	ErrNamingMismatch = errors.New("field name looks like a mangled association name")
	ErrLookup         = errors.New("symbolic reference could not be resolved")
)

// Catalog errors.
var (
	ErrInvalidTable    = errors.New("table name must not be empty")
	ErrTableMismatch   = errors.New("record belongs to a different table")
	ErrDuplicateRecord = errors.New("duplicate record name")
)

// Fixture file errors.
var (
	ErrFixtureNotFound = errors.New("fixture file not found")
	ErrInvalidFixture  = errors.New("invalid fixture file")
)

// ErrUnresolvedReference is returned by the store when a record reaches it
// with a symbolic reference still in place.
var ErrUnresolvedReference = errors.New("record still holds a symbolic reference")

// NamingMismatchError reports a field whose name is a suffixed variant of
// a real association field, such as "user_id: :joe" where "user: :joe" was
// meant. The resolver refuses to guess.
type NamingMismatchError struct {
	Table     string
	Record    string
	Field     string
	Value     string // referenced record name
	Suggested string // the shorter field name the author probably meant
}

func (e *NamingMismatchError) Error() string {
	return fmt.Sprintf("unable to translate field %q for :%s in %s.yml; perhaps you meant %q (%s: :%s)?",
		e.Field, e.Record, e.Table, e.Suggested, e.Suggested, e.Value)
}

// Is matches ErrNamingMismatch.
func (e *NamingMismatchError) Is(target error) bool {
	return target == ErrNamingMismatch
}

// Lookup failure reasons.
const (
	ReasonUnknownTable = "no table matches the field"
	ReasonNoRecord     = "no record with that name"
	ReasonMissingID    = "referenced record has no scalar id"
)

// LookupError reports a symbolic reference that could not be resolved to a
// primary key.
type LookupError struct {
	Table       string // owning table
	Record      string // owning record
	Field       string
	Value       string // referenced record name
	TargetTable string // resolved target table, empty if none was found
	Reason      string
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("unable to load \"%s: :%s\" for :%s in %s.yml", e.Field, e.Value, e.Record, e.Table)
	if e.Reason == "" {
		return msg
	}
	if e.TargetTable != "" {
		return fmt.Sprintf("%s: %s in %s", msg, e.Reason, e.TargetTable)
	}
	return msg + ": " + e.Reason
}

// Is matches ErrLookup.
func (e *LookupError) Is(target error) bool {
	return target == ErrLookup
}
