package fixture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mesh-intelligence/fixtures/pkg/types"
)

// Extensions tried, in order, when looking for a table's fixture file.
var Extensions = []string{".yml", ".yaml"}

// TableName returns the table a fixture path refers to. A path such as
// "legacy/users" loads the file legacy/users.yml into table "users".
func TableName(spec string) string {
	base := filepath.Base(filepath.ToSlash(spec))
	for _, ext := range Extensions {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Load reads the fixture file of every table spec in dir and registers
// the records in a new catalog, in the order given.
func Load(dir string, specs ...string) (*types.Catalog, error) {
	cat := types.NewCatalog()
	for _, spec := range specs {
		if err := LoadTable(cat, dir, spec); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// LoadTable reads one fixture file into cat.
func LoadTable(cat *types.Catalog, dir, spec string) error {
	path, err := findFile(dir, spec)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	table := TableName(spec)
	records, err := Parse(table, data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cat.Register(table, records...); err != nil {
		return fmt.Errorf("registering %s: %w", path, err)
	}
	return nil
}

// findFile locates the fixture file for spec under dir.
func findFile(dir, spec string) (string, error) {
	stem := filepath.Join(dir, filepath.FromSlash(spec))
	for _, ext := range Extensions {
		if strings.HasSuffix(stem, ext) {
			stem = strings.TrimSuffix(stem, ext)
		}
	}
	for _, ext := range Extensions {
		path := stem + ext
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("%s in %s: %w", spec, dir, types.ErrFixtureNotFound)
}

// Discover lists the table specs with a fixture file directly in dir,
// sorted by name. Files in skip (such as the associations document) are
// left out.
func Discover(dir string, skip ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures dir: %w", err)
	}
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	var specs []string
	for _, e := range entries {
		if e.IsDir() || skipped[e.Name()] {
			continue
		}
		for _, ext := range Extensions {
			if strings.HasSuffix(e.Name(), ext) {
				specs = append(specs, strings.TrimSuffix(e.Name(), ext))
				break
			}
		}
	}
	sort.Strings(specs)
	return specs, nil
}
