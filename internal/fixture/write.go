package fixture

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jinzhu/inflection"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/fixtures/pkg/types"
)

// Encode renders rows as a fixture document for table. Each row is named
// after the singular table name and its id ("user_00042"); rows without an
// id are numbered by position. Record names and columns are sorted so
// dumps diff cleanly.
func Encode(table string, rows []map[string]any) ([]byte, error) {
	singular := inflection.Singular(strings.ReplaceAll(table, ".", "_"))
	return encode(table, rows, func(row map[string]any, position int) string {
		return recordName(singular, row[types.IDField], position)
	})
}

// EncodeJoin renders the rows of a many-to-many join table. Rows are
// named by query position: join_00000, join_00001, ...
func EncodeJoin(table string, rows []map[string]any) ([]byte, error) {
	return encode(table, rows, func(_ map[string]any, position int) string {
		return fmt.Sprintf("join_%05d", position)
	})
}

func encode(table string, rows []map[string]any, name func(map[string]any, int) string) ([]byte, error) {
	doc := make(map[string]map[string]any, len(rows))
	for i, row := range rows {
		doc[uniqueName(doc, name(row, i))] = row
	}

	var root yaml.Node
	if err := root.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", table, err)
	}
	quoteRefLike(&root)

	data, err := yaml.Marshal(&root)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", table, err)
	}
	return data, nil
}

// uniqueName returns name, or name with the first free numeric suffix
// when a record of that name already exists.
func uniqueName(doc map[string]map[string]any, name string) string {
	if _, dup := doc[name]; !dup {
		return name
	}
	for i := len(doc); ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if _, dup := doc[candidate]; !dup {
			return candidate
		}
	}
}

// quoteRefLike double-quotes plain strings that Parse would otherwise read
// back as symbolic references.
func quoteRefLike(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Style == 0 && n.ShortTag() == "!!str" && strings.HasPrefix(n.Value, refPrefix) {
		n.Style = yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		quoteRefLike(c)
	}
}

// recordName builds the fixture name for a row with the given id.
func recordName(singular string, id any, position int) string {
	switch v := id.(type) {
	case int64:
		return fmt.Sprintf("%s_%05d", singular, v)
	case int:
		return fmt.Sprintf("%s_%05d", singular, v)
	case int32:
		return fmt.Sprintf("%s_%05d", singular, v)
	case uint64:
		return fmt.Sprintf("%s_%05d", singular, v)
	case nil:
		return fmt.Sprintf("%s_%d", singular, position)
	default:
		return fmt.Sprintf("%s_%v", singular, v)
	}
}

// WriteTable writes rows to dir/<table>.yml and returns the path.
func WriteTable(dir, table string, rows []map[string]any) (string, error) {
	data, err := Encode(table, rows)
	if err != nil {
		return "", err
	}
	return writeDocument(dir, table, data)
}

// WriteJoinTable writes the rows of a many-to-many join table to
// dir/<table>.yml and returns the path.
func WriteJoinTable(dir, table string, rows []map[string]any) (string, error) {
	data, err := EncodeJoin(table, rows)
	if err != nil {
		return "", err
	}
	return writeDocument(dir, table, data)
}

func writeDocument(dir, table string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, strings.ReplaceAll(table, ".", "_")+Extensions[0])
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// writeFileAtomic writes data using the temp-file, fsync, rename pattern
// so a failed dump never leaves a truncated fixture behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".fixture-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing fixture: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
