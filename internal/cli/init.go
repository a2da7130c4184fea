package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and fixtures directories",
		Long:  "Create the configuration directory with a default config.yaml and an empty fixtures directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	s := a.settings
	if err := os.MkdirAll(s.configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	configPath := filepath.Join(s.configDir, configFileExt)
	created, err := writeConfigIfMissing(configPath, s)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if err := os.MkdirAll(s.FixturesDir, 0o755); err != nil {
		return fmt.Errorf("create fixtures directory: %w", err)
	}

	a.log.Info().Str("config", configPath).Bool("created", created).Str("fixtures_dir", s.FixturesDir).Msg("initialized")
	return a.print(cmd, map[string]any{
		"config":       configPath,
		"created":      created,
		"fixtures_dir": s.FixturesDir,
	}, func() string {
		return fmt.Sprintf("Initialized fixtures (config: %s, fixtures: %s)", configPath, s.FixturesDir)
	})
}

// writeConfigIfMissing creates config.yaml from the current settings if
// the file does not exist. It reports whether a file was written.
func writeConfigIfMissing(path string, s *settings) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
