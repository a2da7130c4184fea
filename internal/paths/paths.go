// Package paths resolves the configuration and fixtures directory locations.
package paths

import (
	"os"
	"path/filepath"
)

// CWD-relative directory names used when nothing else is configured.
const (
	DefaultConfigDirName   = ".fixtures"
	DefaultFixturesDirName = "fixtures"
)

// EnvConfigDir overrides the configuration directory. Other settings are
// read from FIXTURES_* variables by the config loader.
const EnvConfigDir = "FIXTURES_CONFIG_DIR"

// getwd can be overridden in tests.
var getwd = os.Getwd

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > FIXTURES_CONFIG_DIR env > $(CWD)/.fixtures.
// The result is always absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return cwdJoin(DefaultConfigDirName)
}

// ResolveFixturesDir returns the fixtures directory following the
// precedence chain: flag > configured value > $(CWD)/fixtures. The
// configured value already carries any FIXTURES_FIXTURES_DIR override.
func ResolveFixturesDir(flag, configured string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configured != "" {
		return filepath.Abs(configured)
	}
	return cwdJoin(DefaultFixturesDirName)
}

func cwdJoin(name string) (string, error) {
	cwd, err := getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, name), nil
}
