package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/ember-addon-tests/internal/app"
	"github.com/firefly-engineering/ember-addon-tests/internal/tui"
	"github.com/firefly-engineering/ember-addon-tests/internal/workspace"
)

var workspaceInit bool

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "List the packages under test",
	Long: `List the packages that a scratch workspace would contain.

For a yarn workspace these are its members; otherwise it is the single
package at the project root. With --init the workspace is created and
installed, and its path is printed.`,
	Args: cobra.NoArgs,
	RunE: runWorkspace,
}

func init() {
	workspaceCmd.Flags().BoolVar(&workspaceInit, "init", false, "Create and install the workspace")
	rootCmd.AddCommand(workspaceCmd)
}

func runWorkspace(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := app.Default

	root, err := projectRoot(ctx)
	if err != nil {
		return err
	}

	if workspaceInit {
		var ws string
		err := tui.RunWithSpinner(ctx, cmd.ErrOrStderr(), "Preparing workspace", func(ctx context.Context) error {
			var err error
			ws, err = a.Registry.Resolve(ctx, workspace.Options{ProjectRoot: root})
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ws)
		return nil
	}

	pkgs, err := a.PackagesUnderTest(ctx, root)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIRECTORY\tLOCATION")
	fmt.Fprintln(w, "----\t---------\t--------")
	for _, pkg := range pkgs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", pkg.Name, filepath.Join(workspace.PackagesUnderTestDir, pkg.DirName()), pkg.Location)
	}
	return w.Flush()
}
