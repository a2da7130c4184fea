package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/fixtures/pkg/fixtures"
)

// tableSummary is one line of check output.
type tableSummary struct {
	Table   string `json:"table"`
	Records int    `json:"records"`
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [tables...]",
		Short: "Parse and resolve fixtures without a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd, args)
		},
	}
}

func (a *app) runCheck(cmd *cobra.Command, tables []string) error {
	cat, err := fixtures.Check(a.fixtureOptions(tables)...)
	if err != nil {
		return err
	}

	summary := make([]tableSummary, 0, len(cat.Tables()))
	for _, t := range cat.Tables() {
		summary = append(summary, tableSummary{Table: t, Records: len(cat.Records(t))})
	}
	return a.print(cmd, summary, func() string {
		var b strings.Builder
		for _, s := range summary {
			fmt.Fprintf(&b, "%-24s %d records\n", s.Table, s.Records)
		}
		fmt.Fprintf(&b, "OK: %d records in %d tables", cat.Len(), len(summary))
		return b.String()
	})
}
