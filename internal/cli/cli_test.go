package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

// execute runs the CLI with args and captures its output.
func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	code = run(root, args, &errOut)
	return code, out.String(), errOut.String()
}

type env struct {
	configDir   string
	fixturesDir string
	dsn         string
}

func (e env) args(args ...string) []string {
	return append(args,
		"--config-dir", e.configDir,
		"--fixtures-dir", e.fixturesDir,
		"--dsn", e.dsn,
	)
}

func newEnv(t *testing.T) env {
	t.Helper()
	t.Setenv("FIXTURES_CONFIG_DIR", "")
	root := t.TempDir()
	e := env{
		configDir:   filepath.Join(root, ".fixtures"),
		fixturesDir: filepath.Join(root, "fixtures"),
		dsn:         filepath.Join(root, "test.db"),
	}
	require.NoError(t, os.MkdirAll(e.fixturesDir, 0o755))
	files := map[string]string{
		"companies.yml": "acme:\n  id: 1\n  name: Acme\nglobex:\n  id: 2\n  name: Globex\n",
		"users.yml":     "joe:\n  id: 1\n  name: Joe\n  company: :acme\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(e.fixturesDir, name), []byte(body), 0o644))
	}

	db, err := sql.Open("sqlite", e.dsn)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`
CREATE TABLE companies (id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, company_id INTEGER);`)
	require.NoError(t, err)
	return e
}

func TestVersion(t *testing.T) {
	code, out, _ := execute(t, "version")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "fixtures v")
	assert.Contains(t, out, modulePath)
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	fixturesDir := filepath.Join(t.TempDir(), "new-fixtures")

	code, out, stderr := execute(t, "init", "--json",
		"--config-dir", e.configDir, "--fixtures-dir", fixturesDir, "--driver", "postgres")
	require.Equal(t, exitSuccess, code, stderr)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, true, res["created"])
	assert.DirExists(t, fixturesDir)

	data, err := os.ReadFile(filepath.Join(e.configDir, configFileExt))
	require.NoError(t, err)
	var written map[string]any
	require.NoError(t, yaml.Unmarshal(data, &written))
	assert.Equal(t, "postgres", written["driver"])
	assert.Equal(t, fixturesDir, written["fixtures_dir"])

	// Second run leaves the existing file alone.
	code, out, _ = execute(t, "init", "--json", "--config-dir", e.configDir, "--fixtures-dir", fixturesDir)
	require.Equal(t, exitSuccess, code)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, false, res["created"])
}

func TestCheck(t *testing.T) {
	e := newEnv(t)

	code, out, stderr := execute(t, e.args("check", "--json")...)
	require.Equal(t, exitSuccess, code, stderr)

	var summary []tableSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, []tableSummary{
		{Table: "companies", Records: 2},
		{Table: "users", Records: 1},
	}, summary)
}

func TestCheckText(t *testing.T) {
	e := newEnv(t)

	code, out, _ := execute(t, e.args("check", "users", "companies")...)
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "OK: 3 records in 2 tables")
}

func TestCheckResolutionFailure(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.fixturesDir, "users.yml"),
		[]byte("joe:\n  id: 1\n  company: :initech\n"), 0o644))

	code, _, stderr := execute(t, e.args("check")...)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, `unable to load "company: :initech" for :joe in users.yml`)
}

func TestCheckMissingFixture(t *testing.T) {
	e := newEnv(t)

	code, _, _ := execute(t, e.args("check", "orders")...)
	assert.Equal(t, exitUserError, code)
}

func TestLoad(t *testing.T) {
	e := newEnv(t)

	code, out, stderr := execute(t, e.args("load", "--json")...)
	require.Equal(t, exitSuccess, code, stderr)

	var res struct {
		RunID  string   `json:"run_id"`
		Tables []string `json:"tables"`
		Rows   int      `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, []string{"companies", "users"}, res.Tables)
	assert.NotEmpty(t, res.RunID)

	db, err := sql.Open("sqlite", e.dsn)
	require.NoError(t, err)
	defer db.Close()
	var companyID int64
	require.NoError(t, db.QueryRow("SELECT company_id FROM users WHERE name = 'Joe'").Scan(&companyID))
	assert.Equal(t, int64(1), companyID)
}

func TestLoadMissingDSN(t *testing.T) {
	e := newEnv(t)

	code, _, stderr := execute(t, "load", "--config-dir", e.configDir, "--fixtures-dir", e.fixturesDir)
	assert.Equal(t, exitSysError, code)
	assert.Contains(t, stderr, "dsn must not be empty")
}

func TestDump(t *testing.T) {
	e := newEnv(t)
	code, _, stderr := execute(t, e.args("load")...)
	require.Equal(t, exitSuccess, code, stderr)

	outDir := t.TempDir()
	code, out, stderr := execute(t, e.args("dump", "companies", "--out", outDir)...)
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "Wrote 2 rows")

	data, err := os.ReadFile(filepath.Join(outDir, "companies.yml"))
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "Acme", doc["company_00001"]["name"])
	assert.Equal(t, "Globex", doc["company_00002"]["name"])
}

func TestDumpRequiresTable(t *testing.T) {
	e := newEnv(t)

	code, _, stderr := execute(t, e.args("dump")...)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "dump requires at least one table")
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		envKey  string
		envVal  string
		wantErr string
	}{
		{
			name:    "unknown driver in config.yaml",
			config:  "driver: oracle\n",
			wantErr: "driver: must be one of sqlite postgres mysql",
		},
		{
			name:    "driver from environment",
			envKey:  "FIXTURES_DRIVER",
			envVal:  "oracle",
			wantErr: "driver: must be one of sqlite postgres mysql",
		},
		{
			name:    "bad log level",
			config:  "log:\n  level: loud\n",
			wantErr: "log level must be one of",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			if tt.envKey != "" {
				t.Setenv(tt.envKey, tt.envVal)
			}
			if tt.config != "" {
				require.NoError(t, os.MkdirAll(e.configDir, 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte(tt.config), 0o644))
			}

			code, _, stderr := execute(t, "check", "--config-dir", e.configDir, "--fixtures-dir", e.fixturesDir)
			assert.Equal(t, exitSysError, code)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestConfigFileSettings(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	cfg := "driver: sqlite\ndsn: " + e.dsn + "\nfixtures_dir: " + e.fixturesDir + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte(cfg), 0o644))

	code, out, stderr := execute(t, "load", "--config-dir", e.configDir)
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "Loaded 3 rows into 2 tables")
}

func TestEnvFile(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, envFileName),
		[]byte("FIXTURES_DSN="+e.dsn+"\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("FIXTURES_DSN") })

	code, _, stderr := execute(t, "load", "--config-dir", e.configDir, "--fixtures-dir", e.fixturesDir)
	assert.Equal(t, exitSuccess, code, stderr)
}

func TestUnknownFlag(t *testing.T) {
	code, _, stderr := execute(t, "check", "--no-such-flag")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "unknown flag")
}
