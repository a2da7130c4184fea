package hints

import (
	"fmt"
	"sync"

	"gorm.io/gorm/schema"

	"github.com/mesh-intelligence/fixtures/pkg/types"
)

// Models derives hints from gorm model structs. Belongs-to relationships
// supply declared targets, and a model's table name (including any
// TableName override shared by a class hierarchy) is its base table.
type Models struct {
	namer   schema.Namer
	byName  map[string]*schema.Schema
	byTable map[string][]*schema.Schema
}

// NewModels parses the given model values, e.g. NewModels(&User{}, &Post{}).
func NewModels(models ...any) (*Models, error) {
	namer := schema.NamingStrategy{}
	cache := &sync.Map{}
	m := &Models{
		namer:   namer,
		byName:  make(map[string]*schema.Schema),
		byTable: make(map[string][]*schema.Schema),
	}
	for _, model := range models {
		s, err := schema.Parse(model, cache, namer)
		if err != nil {
			return nil, fmt.Errorf("parsing model %T: %w", model, err)
		}
		m.byName[s.Name] = s
		m.byTable[s.Table] = append(m.byTable[s.Table], s)
	}
	return m, nil
}

// LookupAssociation implements types.HintProvider.
func (m *Models) LookupAssociation(table, field string) (types.AssociationHint, bool) {
	schemas := m.byTable[table]
	for _, s := range schemas {
		if rel := m.belongsTo(s, field); rel != nil {
			return types.AssociationHint{DeclaredTarget: rel.FieldSchema.Name}, true
		}
	}
	if plain := plainField(field); plain != "" {
		for _, s := range schemas {
			if m.belongsTo(s, plain) != nil {
				return types.AssociationHint{ImpliedPlainField: plain}, true
			}
		}
	}
	return types.AssociationHint{}, false
}

// BaseTableFor implements types.HintProvider.
func (m *Models) BaseTableFor(className string) (string, bool) {
	s, ok := m.byName[className]
	if !ok {
		return "", false
	}
	return s.Table, true
}

// JoinTables returns the many-to-many join tables declared by the models
// stored in table, in declaration order.
func (m *Models) JoinTables(table string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range m.byTable[table] {
		for _, rel := range s.Relationships.Many2Many {
			if rel.JoinTable == nil || seen[rel.JoinTable.Table] {
				continue
			}
			seen[rel.JoinTable.Table] = true
			out = append(out, rel.JoinTable.Table)
		}
	}
	return out
}

// belongsTo finds the belongs-to relationship whose column name is field.
func (m *Models) belongsTo(s *schema.Schema, field string) *schema.Relationship {
	for _, rel := range s.Relationships.BelongsTo {
		if m.namer.ColumnName(s.Table, rel.Name) == field {
			return rel
		}
	}
	return nil
}
