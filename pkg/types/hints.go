package types

// AssociationHint carries schema knowledge about one (table, field) pair.
// Both fields are optional.
type AssociationHint struct {
	// DeclaredTarget is the table or class the field points at, overriding
	// name guessing.
	DeclaredTarget string

	// ImpliedPlainField is set when the field name is a suffixed form of a
	// real association field (for example "owner_id" for "owner").
	ImpliedPlainField string
}

// HintProvider supplies association metadata to the resolver. A missing
// hint means "no additional information" and is never an error.
type HintProvider interface {
	// LookupAssociation returns the hint for field on table.
	LookupAssociation(table, field string) (AssociationHint, bool)

	// BaseTableFor returns the table backing the root of className's
	// hierarchy.
	BaseTableFor(className string) (string, bool)
}
