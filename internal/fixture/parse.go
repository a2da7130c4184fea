// Package fixture reads fixture files into a catalog and writes database
// rows back out as fixture files.
//
// A fixture file is named after its table and holds a YAML mapping of
// record name to column values:
//
//	first_post:
//	  title: Hello
//	  user: :joe        # symbolic reference to users.joe
//	  editor: !ref ann  # same, using an explicit tag
//
// Only plain scalars are read as references; a quoted ":joe" stays a
// literal string.
package fixture

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/fixtures/pkg/types"
)

// RefTag marks a scalar as a symbolic reference.
const RefTag = "!ref"

// refPrefix marks a plain scalar as a symbolic reference.
const refPrefix = ":"

// DefaultsRecord names a record that only exists to be merged into others
// through a YAML anchor; it is never loaded.
const DefaultsRecord = "DEFAULTS"

const mergeKey = "<<"

// Parse decodes one fixture document into records of table. Records keep
// the order they are declared in. An empty document yields no records.
func Parse(table string, data []byte) ([]*types.Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", table, types.ErrInvalidFixture, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := deref(doc.Content[0])
	if isNull(root) {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s line %d: %w: top level must be a mapping of record names", table, root.Line, types.ErrInvalidFixture)
	}

	records := make([]*types.Record, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		nameNode, body := root.Content[i], deref(root.Content[i+1])
		if nameNode.Value == DefaultsRecord {
			continue
		}
		rec := types.NewRecord(table, nameNode.Value)

		if isNull(body) {
			records = append(records, rec)
			continue
		}
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%s record %q line %d: %w: record must be a mapping of columns", table, rec.Name, body.Line, types.ErrInvalidFixture)
		}
		if err := parseColumns(rec, body); err != nil {
			return nil, fmt.Errorf("%s record %q %w", table, rec.Name, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseColumns copies the columns of body into rec. Keys merged in with
// "<<" never override keys the record declares itself.
func parseColumns(rec *types.Record, body *yaml.Node) error {
	explicit := make(map[string]bool, len(body.Content)/2)
	for j := 0; j+1 < len(body.Content); j += 2 {
		explicit[body.Content[j].Value] = true
	}

	for j := 0; j+1 < len(body.Content); j += 2 {
		key, valNode := body.Content[j].Value, body.Content[j+1]
		if key != mergeKey {
			v, err := parseValue(valNode)
			if err != nil {
				return fmt.Errorf("column %q: %w", key, err)
			}
			rec.Set(key, v)
			continue
		}

		for _, src := range mergeSources(valNode) {
			if src.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: %w: merge source must be a mapping", src.Line, types.ErrInvalidFixture)
			}
			for k := 0; k+1 < len(src.Content); k += 2 {
				mk := src.Content[k].Value
				if explicit[mk] {
					continue
				}
				if _, seen := rec.Fields.Get(mk); seen {
					continue
				}
				v, err := parseValue(src.Content[k+1])
				if err != nil {
					return fmt.Errorf("column %q: %w", mk, err)
				}
				rec.Set(mk, v)
			}
		}
	}
	return nil
}

// mergeSources returns the mappings named by a "<<" value, which is either
// a single mapping or a sequence of them.
func mergeSources(n *yaml.Node) []*yaml.Node {
	n = deref(n)
	if n.Kind != yaml.SequenceNode {
		return []*yaml.Node{n}
	}
	out := make([]*yaml.Node, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, deref(c))
	}
	return out
}

// parseValue tags a node as a symbolic reference or decodes it as a
// scalar. Nested mappings and sequences are kept as decoded Go values.
func parseValue(n *yaml.Node) (types.Value, error) {
	n = deref(n)
	if n.Kind == yaml.ScalarNode {
		if n.Tag == RefTag {
			if n.Value == "" {
				return types.Value{}, fmt.Errorf("%w: empty %s at line %d", types.ErrInvalidFixture, RefTag, n.Line)
			}
			return types.SymbolicRef(n.Value), nil
		}
		if n.Style == 0 && n.ShortTag() == "!!str" && len(n.Value) > len(refPrefix) && strings.HasPrefix(n.Value, refPrefix) {
			return types.SymbolicRef(n.Value[len(refPrefix):]), nil
		}
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return types.Value{}, fmt.Errorf("%w: %v", types.ErrInvalidFixture, err)
	}
	return types.Scalar(normalize(v)), nil
}

// normalize widens YAML integers so ids compare equal regardless of size.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case uint64:
		return x
	default:
		return v
	}
}

func deref(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}
