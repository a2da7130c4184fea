// Package cli implements the fixtures command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/fixtures/internal/logging"
	"github.com/mesh-intelligence/fixtures/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir   string
	fixturesDir string
	driver      string
	dsn         string
	hintsFile   string
	logLevel    string
	jsonMode    bool
}

// app is the state shared by one command tree.
type app struct {
	flags    rootFlags
	settings *settings
	log      zerolog.Logger
}

// NewRootCmd creates the top-level "fixtures" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:   "fixtures",
		Short: "Load YAML test fixtures with symbolic foreign keys",
		Long: "fixtures loads YAML fixture files into a database. Foreign keys may be\n" +
			"written as references to other records (user: :joe) and are translated\n" +
			"to id columns (user_id: 1) before anything is inserted.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $(CWD)/.fixtures)")
	pf.StringVar(&a.flags.fixturesDir, "fixtures-dir", "", "fixtures directory (default: $(CWD)/fixtures)")
	pf.StringVar(&a.flags.driver, "driver", "", "database driver: sqlite, postgres or mysql")
	pf.StringVar(&a.flags.dsn, "dsn", "", "database connection string")
	pf.StringVar(&a.flags.hintsFile, "hints-file", "", "association hints document (default: associations.yml)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newLoadCmd(a))
	root.AddCommand(newCheckCmd(a))
	root.AddCommand(newDumpCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

// run executes root with args and returns the process exit code.
func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "fixtures:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// setup loads settings and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}
	s, err := loadSettings(a.flags)
	if err != nil {
		return err
	}
	a.settings = s
	a.log = logging.NewWithWriter(s.Log, cmd.ErrOrStderr())
	return nil
}

// userErrors are caused by fixture content or arguments rather than the
// environment.
var userErrors = []error{
	types.ErrNamingMismatch,
	types.ErrLookup,
	types.ErrFixtureNotFound,
	types.ErrInvalidFixture,
	types.ErrDuplicateRecord,
	types.ErrTableMismatch,
	types.ErrUnresolvedReference,
	errUsage,
}

// errUsage marks invalid command-line usage.
var errUsage = errors.New("usage")

func exitCode(err error) int {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}
