package hints

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/fixtures/pkg/types"
)

// DefaultFile is the hints document looked up in a fixtures directory.
const DefaultFile = "associations.yml"

// Static serves hints declared in a YAML document:
//
//	associations:
//	  images:
//	    owner: Person        # images.owner points at class Person
//	base_tables:
//	  Person: people
//	  Admin: people          # single-table inheritance
type Static struct {
	Associations map[string]map[string]string `yaml:"associations"`
	BaseTables   map[string]string            `yaml:"base_tables"`
}

// ParseStatic decodes a hints document.
func ParseStatic(data []byte) (*Static, error) {
	var s Static
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing hints: %w", err)
	}
	return &s, nil
}

// LoadStatic reads a hints document from path. A missing file yields an
// empty provider.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Static{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading hints %s: %w", path, err)
	}
	return ParseStatic(data)
}

// LookupAssociation implements types.HintProvider. A field that is only a
// declared association once its "_id" suffix is removed yields an
// ImpliedPlainField hint.
func (s *Static) LookupAssociation(table, field string) (types.AssociationHint, bool) {
	fields := s.Associations[table]
	if target, ok := fields[field]; ok {
		return types.AssociationHint{DeclaredTarget: target}, true
	}
	if plain := plainField(field); plain != "" {
		if _, ok := fields[plain]; ok {
			return types.AssociationHint{ImpliedPlainField: plain}, true
		}
	}
	return types.AssociationHint{}, false
}

// BaseTableFor implements types.HintProvider.
func (s *Static) BaseTableFor(className string) (string, bool) {
	t, ok := s.BaseTables[className]
	return t, ok
}
