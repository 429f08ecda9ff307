package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dannyswat/vdom"
	"github.com/spf13/cobra"
)

var errDiverged = errors.New("patched tree does not match the new render")

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check OLD.html NEW.html",
		Short: "Verify that the patches for OLD -> NEW reproduce NEW",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newParser()
			oldTree, err := parseFile(p, args[0])
			if err != nil {
				return err
			}
			newTree, err := parseFile(p, args[1])
			if err != nil {
				return err
			}

			patches := vdom.Diff(oldTree, newTree)
			skipped := 0
			a := &vdom.Applier{OnSkip: func(p vdom.Patch, err error) {
				skipped++
				slog.Debug("patch skipped", "type", p.Type, "path", p.Path.String(), "error", err)
			}}
			patched := oldTree.Clone()
			a.ApplyAll(patched, patches)

			counts := make(map[vdom.PatchType]int)
			for _, p := range patches {
				counts[p.Type]++
			}
			types := make([]string, 0, len(counts))
			for t := range counts {
				types = append(types, string(t))
			}
			slices.Sort(types)

			fmt.Fprintf(cmd.OutOrStdout(), "patches\t%d\n", len(patches))
			for _, t := range types {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\t%d\n", t, counts[vdom.PatchType(t)])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "skipped\t%d\n", skipped)

			if !vdom.Equal(patched, newTree) {
				fmt.Fprintln(cmd.OutOrStdout(), "result\tdiverged")
				return errDiverged
			}
			fmt.Fprintln(cmd.OutOrStdout(), "result\tok")
			return nil
		},
	}
}
