package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/fixtures/pkg/fixtures"
)

const modulePath = "github.com/mesh-intelligence/fixtures"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fixtures version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "fixtures v%s\nmodule: %s\n", fixtures.Version, modulePath)
			return nil
		},
	}
}
