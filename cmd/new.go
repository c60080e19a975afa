package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/ember-addon-tests/internal/app"
	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/tui"
)

var (
	newFlags generateFlags
	newPick  bool
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a test project",
	Long: `Create a test project in the scratch workspace and print its path.

The project is generated with ember-cli as an app (default) or addon and
can link packages under test. It is left on disk for inspection.`,
	Example: `  ember-addon-tests new --addon --ember-version 3.28.0 --link-dev my-addon
  ember-addon-tests new --empty`,
	Args: cobra.NoArgs,
	RunE: runNew,
}

func init() {
	newFlags.register(newCmd)
	newCmd.Flags().BoolVar(&newFlags.empty, "empty", false, "Only run yarn init, do not generate")
	newCmd.Flags().BoolVar(&newPick, "pick", false, "Choose a package under test to link interactively")
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	if newPick {
		sel, err := pickPackages(cmd)
		if err != nil {
			return err
		}
		for _, name := range sel.Dependencies {
			if !slices.Contains(newFlags.links, name) {
				newFlags.links = append(newFlags.links, name)
			}
		}
		for _, name := range sel.DevDependencies {
			if !slices.Contains(newFlags.devLinks, name) {
				newFlags.devLinks = append(newFlags.devLinks, name)
			}
		}
	}

	p, err := createProject(cmd, &newFlags)
	if err != nil {
		return err
	}

	logSuccess("Created test project %s", p.Name())
	fmt.Fprintln(cmd.OutOrStdout(), p.Path())
	return nil
}

// pickPackages asks which packages under test to link. Without a
// terminal it lists them instead and fails.
func pickPackages(cmd *cobra.Command) (tui.Selection, error) {
	root, err := projectRoot(cmd.Context())
	if err != nil {
		return tui.Selection{}, err
	}
	pkgs, err := app.Default.PackagesUnderTest(cmd.Context(), root)
	if err != nil {
		return tui.Selection{}, err
	}

	if !tui.IsTerminal(os.Stdin) || !tui.IsTerminal(os.Stdout) {
		fmt.Fprint(cmd.ErrOrStderr(), tui.SimpleList(pkgs))
		return tui.Selection{}, errors.ConfigError("--pick needs an interactive terminal, use --link instead", nil)
	}
	return tui.RunPicker(pkgs)
}
