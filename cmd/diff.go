package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dannyswat/vdom"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff OLD.html NEW.html",
		Short: "Print the patches that turn OLD into NEW",
		Long: `Parse both files and print the JSON patch list a client holding OLD
would receive to reach NEW.`,
		Args: cobra.ExactArgs(2),
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
			slog.Debug("diff computed", "old", args[0], "new", args[1], "patches", len(patches))
			return writePatches(cmd, patches)
		},
	}

	cmd.Flags().Bool(indentFlagName, defaultIndent, "indent the JSON output")
	bindFlagToConfig(cmd.Flags().Lookup(indentFlagName), indentKey)
	return cmd
}

func writePatches(cmd *cobra.Command, patches []vdom.Patch) error {
	data, err := vdom.EncodePatches(patches)
	if err != nil {
		return err
	}
	if viper.GetBool(indentKey) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
