package fixtures_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/fixtures/internal/fixture"
	"github.com/mesh-intelligence/fixtures/internal/hints"
	"github.com/mesh-intelligence/fixtures/pkg/fixtures"
	"github.com/mesh-intelligence/fixtures/pkg/types"
)

const schema = `
CREATE TABLE companies (id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, company_id INTEGER REFERENCES companies(id));
CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, type TEXT);
CREATE TABLE images (id INTEGER PRIMARY KEY, title TEXT, owner_id INTEGER);
CREATE TABLE tags (id INTEGER PRIMARY KEY, label TEXT);
CREATE TABLE image_tags (image_id INTEGER, tag_id INTEGER);
`

var baseFiles = map[string]string{
	"companies.yml": `
acme:
  id: 1
  name: Acme
`,
	"users.yml": `
joe:
  id: 1
  name: Joe
  company: :acme
`,
	"people.yml": `
ann:
  id: 5
  name: Ann
  type: Admin
`,
	"images.yml": `
logo:
  id: 1
  title: Logo
  owner: :ann
`,
	"associations.yml": `
associations:
  images:
    owner: Admin
base_tables:
  Admin: people
`,
}

func writeFixtures(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

func scalarInt(t *testing.T, db *sql.DB, query string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.QueryRow(query).Scan(&n))
	return n
}

func TestLoad(t *testing.T) {
	dir := writeFixtures(t, baseFiles)
	db := openDB(t)

	res, err := fixtures.Load(context.Background(), db,
		fixtures.WithDir(dir),
		fixtures.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"companies", "images", "people", "users"}, res.Tables)
	assert.Equal(t, 4, res.Rows)
	assert.NotZero(t, res.RunID)

	assert.Equal(t, int64(1), scalarInt(t, db, "SELECT company_id FROM users WHERE name = 'Joe'"))
	assert.Equal(t, int64(5), scalarInt(t, db, "SELECT owner_id FROM images WHERE title = 'Logo'"))
}

func TestLoadResolutionFailureLeavesDatabase(t *testing.T) {
	files := map[string]string{
		"companies.yml": baseFiles["companies.yml"],
		"users.yml": `
joe:
  id: 1
  company: :globex
`,
	}
	dir := writeFixtures(t, files)
	db := openDB(t)
	_, err := db.Exec("INSERT INTO companies (id, name) VALUES (9, 'existing')")
	require.NoError(t, err)

	_, err = fixtures.Load(context.Background(), db,
		fixtures.WithDir(dir),
		fixtures.WithLogger(zerolog.Nop()),
	)
	var lookupErr *types.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "users", lookupErr.Table)
	assert.Equal(t, "company", lookupErr.Field)

	assert.Equal(t, int64(1), scalarInt(t, db, "SELECT COUNT(*) FROM companies"))
	assert.Equal(t, int64(9), scalarInt(t, db, "SELECT id FROM companies"))
}

func TestLoadNamingMismatch(t *testing.T) {
	files := map[string]string{
		"companies.yml": baseFiles["companies.yml"],
		"users.yml": `
joe:
  id: 1
  company_id: :acme
`,
		"associations.yml": `
associations:
  users:
    company: Company
`,
	}
	dir := writeFixtures(t, files)

	_, err := fixtures.Load(context.Background(), openDB(t),
		fixtures.WithDir(dir),
		fixtures.WithLogger(zerolog.Nop()),
	)
	assert.ErrorIs(t, err, types.ErrNamingMismatch)
	assert.Contains(t, err.Error(), `perhaps you meant "company"`)
}

type Person struct {
	ID   uint
	Name string
}

type Image struct {
	ID      uint
	Title   string
	OwnerID uint
	Owner   Person
}

func TestLoadWithModels(t *testing.T) {
	files := map[string]string{
		"people.yml": baseFiles["people.yml"],
		"images.yml": baseFiles["images.yml"],
	}
	dir := writeFixtures(t, files)
	db := openDB(t)

	_, err := fixtures.Load(context.Background(), db,
		fixtures.WithDir(dir),
		fixtures.WithModels(&Person{}, &Image{}),
		fixtures.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(5), scalarInt(t, db, "SELECT owner_id FROM images"))
}

func TestCheck(t *testing.T) {
	dir := writeFixtures(t, baseFiles)

	cat, err := fixtures.Check(
		fixtures.WithDir(dir),
		fixtures.WithTables("companies", "users"),
		fixtures.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"companies", "users"}, cat.Tables())

	joe, ok := cat.Record("users", "joe")
	require.True(t, ok)
	v, ok := joe.Fields.Get("company_id")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Raw())
	assert.False(t, joe.HasRefs())
}

func TestCheckMissingTable(t *testing.T) {
	dir := writeFixtures(t, baseFiles)

	_, err := fixtures.Check(fixtures.WithDir(dir), fixtures.WithTables("orders"))
	assert.ErrorIs(t, err, types.ErrFixtureNotFound)
}

func TestCheckHintsFile(t *testing.T) {
	files := map[string]string{
		"people.yml": baseFiles["people.yml"],
		"images.yml": baseFiles["images.yml"],
		"hints.yml":  baseFiles["associations.yml"],
	}
	dir := writeFixtures(t, files)

	cat, err := fixtures.Check(
		fixtures.WithDir(dir),
		fixtures.WithHintsFile("hints.yml"),
		fixtures.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"images", "people"}, cat.Tables())
}

func TestLoadUnknownDriver(t *testing.T) {
	dir := writeFixtures(t, baseFiles)

	_, err := fixtures.Load(context.Background(), openDB(t),
		fixtures.WithDir(dir),
		fixtures.WithDriver("oracle"),
		fixtures.WithLogger(zerolog.Nop()),
	)
	assert.ErrorIs(t, err, types.ErrDriverUnknown)
}

func TestMustLoad(t *testing.T) {
	dir := writeFixtures(t, baseFiles)
	db := openDB(t)

	res := fixtures.MustLoad(t, db, fixtures.WithDir(dir), fixtures.WithLogger(zerolog.Nop()))
	assert.Equal(t, 4, res.Rows)
}

func TestLoadWithSeveralHintProviders(t *testing.T) {
	files := map[string]string{
		"people.yml": baseFiles["people.yml"],
		"images.yml": baseFiles["images.yml"],
	}
	dir := writeFixtures(t, files)

	associations := &hints.Static{Associations: map[string]map[string]string{
		"images": {"owner": "Admin"},
	}}
	baseTables := &hints.Static{BaseTables: map[string]string{"Admin": "people"}}

	db := openDB(t)
	_, err := fixtures.Load(context.Background(), db,
		fixtures.WithDir(dir),
		fixtures.WithHints(associations),
		fixtures.WithHints(baseTables),
		fixtures.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(5), scalarInt(t, db, "SELECT owner_id FROM images"))
}

type Tag struct {
	ID    uint
	Label string
}

type TaggedImage struct {
	ID    uint
	Title string
	Tags  []Tag `gorm:"many2many:image_tags"`
}

func (TaggedImage) TableName() string { return "images" }

func TestDump(t *testing.T) {
	db := openDB(t)
	_, err := db.Exec(`
INSERT INTO images (id, title, owner_id) VALUES (1, ':logo', 5), (2, 'Banner', 5);
INSERT INTO tags (id, label) VALUES (1, 'brand'), (2, 'home');
INSERT INTO image_tags (image_id, tag_id) VALUES (1, 1), (1, 2), (2, 2);`)
	require.NoError(t, err)

	out := t.TempDir()
	files, err := fixtures.Dump(context.Background(), db, "images",
		fixtures.WithDir(out),
		fixtures.WithModels(&TaggedImage{}, &Tag{}),
		fixtures.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, fixtures.DumpedTable{Table: "images", Rows: 2, Path: filepath.Join(out, "images.yml")}, files[0])
	assert.Equal(t, fixtures.DumpedTable{Table: "image_tags", Rows: 3, Path: filepath.Join(out, "image_tags.yml"), Join: true}, files[1])

	cat, err := fixture.Load(out, "images", "image_tags")
	require.NoError(t, err)

	logo, ok := cat.Record("images", "image_00001")
	require.True(t, ok)
	title, _ := logo.Fields.Get("title")
	assert.Equal(t, ":logo", title.Raw())
	assert.False(t, logo.HasRefs())

	for _, name := range []string{"join_00000", "join_00001", "join_00002"} {
		_, ok := cat.Record("image_tags", name)
		assert.True(t, ok, name)
	}
}

func TestDumpLimitWithoutModels(t *testing.T) {
	db := openDB(t)
	_, err := db.Exec(`INSERT INTO tags (id, label) VALUES (1, 'brand'), (2, 'home'), (3, 'misc');`)
	require.NoError(t, err)

	files, err := fixtures.Dump(context.Background(), db, "tags",
		fixtures.WithDir(t.TempDir()),
		fixtures.WithLimit(2),
		fixtures.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 2, files[0].Rows)
}
