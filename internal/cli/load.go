package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/fixtures/internal/store"
	"github.com/mesh-intelligence/fixtures/pkg/fixtures"
)

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load [tables...]",
		Short: "Replace table contents with fixture records",
		Long: "Parse the fixture files, resolve symbolic references and replace the\n" +
			"contents of every fixture table in one transaction. Without arguments\n" +
			"every fixture file in the fixtures directory is loaded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLoad(cmd, args)
		},
	}
}

func (a *app) runLoad(cmd *cobra.Command, tables []string) error {
	ctx := cmd.Context()
	st, err := store.Open(ctx, a.settings.database(), store.WithLogger(a.log))
	if err != nil {
		return err
	}
	defer st.Close()

	opts := append(a.fixtureOptions(tables), fixtures.WithDriver(st.Driver()))
	res, err := fixtures.Load(ctx, st.DB(), opts...)
	if err != nil {
		return err
	}
	return a.print(cmd, res, func() string {
		return fmt.Sprintf("Loaded %d rows into %d tables (run %s)", res.Rows, len(res.Tables), res.RunID)
	})
}

// fixtureOptions maps settings to library options.
func (a *app) fixtureOptions(tables []string) []fixtures.Option {
	opts := []fixtures.Option{
		fixtures.WithDir(a.settings.FixturesDir),
		fixtures.WithLogger(a.log),
	}
	if len(tables) > 0 {
		opts = append(opts, fixtures.WithTables(tables...))
	}
	if a.settings.HintsFile != "" {
		opts = append(opts, fixtures.WithHintsFile(a.settings.HintsFile))
	}
	return opts
}
