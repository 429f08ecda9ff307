package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dannyswat/vdom"
	"github.com/spf13/cobra"
)

func newApplyCmd() *cobra.Command {
	var sequential bool

	cmd := &cobra.Command{
		Use:   "apply BASE.html PATCHES.json",
		Short: "Apply a patch list to markup and print the result",
		Long: `Parse BASE, replay the JSON patch list in PATCHES against it and print
the resulting markup. Patches whose target cannot be found are skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := parseFile(newParser(), args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			patches, err := vdom.DecodePatches(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			a := &vdom.Applier{OnSkip: func(p vdom.Patch, err error) {
				slog.Warn("patch skipped", "type", p.Type, "path", p.Path.String(), "error", err)
			}}
			if sequential {
				a.Apply(tree, patches)
			} else {
				a.ApplyAll(tree, patches)
			}

			out, err := vdom.RenderHTML(tree)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&sequential, "sequential", false, "apply patches in list order instead of grouping them by depth")
	return cmd
}
