package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// print writes v as indented JSON in --json mode, otherwise the text
// returned by human.
func (a *app) print(cmd *cobra.Command, v any, human func() string) error {
	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(out, human())
	return err
}
