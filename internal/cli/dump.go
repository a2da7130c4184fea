package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/fixtures/internal/store"
	"github.com/mesh-intelligence/fixtures/pkg/fixtures"
)

func newDumpCmd(a *app) *cobra.Command {
	var (
		limit  int
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "dump <table> [tables...]",
		Short: "Write live table rows as fixture files",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: dump requires at least one table", errUsage)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDump(cmd, args, limit, outDir)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows per table (0 for all)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default: the fixtures directory)")
	return cmd
}

func (a *app) runDump(cmd *cobra.Command, tables []string, limit int, outDir string) error {
	if outDir == "" {
		outDir = a.settings.FixturesDir
	}

	ctx := cmd.Context()
	st, err := store.Open(ctx, a.settings.database(), store.WithLogger(a.log))
	if err != nil {
		return err
	}
	defer st.Close()

	opts := []fixtures.Option{
		fixtures.WithDir(outDir),
		fixtures.WithDriver(st.Driver()),
		fixtures.WithLimit(limit),
		fixtures.WithLogger(a.log),
	}
	var dumped []fixtures.DumpedTable
	for _, table := range tables {
		files, err := fixtures.Dump(ctx, st.DB(), table, opts...)
		if err != nil {
			return err
		}
		dumped = append(dumped, files...)
	}

	return a.print(cmd, dumped, func() string {
		lines := make([]string, len(dumped))
		for i, d := range dumped {
			lines[i] = fmt.Sprintf("Wrote %d rows to %s", d.Rows, d.Path)
		}
		return strings.Join(lines, "\n")
	})
}
