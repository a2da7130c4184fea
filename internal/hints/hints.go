// Package hints provides association hint sources for the reference
// resolver: a static YAML document, gorm model metadata, and a chain that
// combines several sources.
package hints

import "github.com/mesh-intelligence/fixtures/pkg/types"

// idSuffix marks a field name written as a foreign-key column.
const idSuffix = "_id"

// None never returns a hint.
type None struct{}

// LookupAssociation implements types.HintProvider.
func (None) LookupAssociation(string, string) (types.AssociationHint, bool) {
	return types.AssociationHint{}, false
}

// BaseTableFor implements types.HintProvider.
func (None) BaseTableFor(string) (string, bool) { return "", false }

// Chain asks each provider in turn; the first one that answers wins.
type Chain []types.HintProvider

// LookupAssociation implements types.HintProvider.
func (c Chain) LookupAssociation(table, field string) (types.AssociationHint, bool) {
	for _, p := range c {
		if h, ok := p.LookupAssociation(table, field); ok {
			return h, true
		}
	}
	return types.AssociationHint{}, false
}

// BaseTableFor implements types.HintProvider.
func (c Chain) BaseTableFor(className string) (string, bool) {
	for _, p := range c {
		if t, ok := p.BaseTableFor(className); ok {
			return t, true
		}
	}
	return "", false
}

// plainField strips the foreign-key suffix from field, returning "" when
// there is none to strip.
func plainField(field string) string {
	if len(field) <= len(idSuffix) || field[len(field)-len(idSuffix):] != idSuffix {
		return ""
	}
	return field[:len(field)-len(idSuffix)]
}
