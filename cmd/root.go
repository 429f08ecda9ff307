// Package cmd provides the vdompatch command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/dannyswat/vdom"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const rootLongDescription = `vdompatch parses rendered HTML into node trees, computes the patches
that turn one render into the next, and replays patch lists against markup.

It is a debugging aid for server-driven incremental updates: run "diff"
to see what a client would receive and "check" to confirm that applying
those patches reproduces the new render.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "vdompatch",
		Short:         "Diff and patch HTML node trees",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := readConfig(configPath); err != nil {
				return fmt.Errorf("read config: %w", err)
			}
			configureLogger(cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, configFlagName, "", "config file (default ./"+configFileName+")")
	flags.String(logLevelFlagName, defaultLogLevel, "log level (debug, info, warn, error)")
	bindFlagToConfig(flags.Lookup(logLevelFlagName), logLevelKey)
	flags.String(logFileFlagName, defaultLogFilename, "write logs to this file instead of stderr")
	bindFlagToConfig(flags.Lookup(logFileFlagName), logFilenameKey)
	flags.Int(maxDepthFlagName, vdom.DefaultMaxDepth, "maximum element nesting accepted by the parser (0 disables)")
	bindFlagToConfig(flags.Lookup(maxDepthFlagName), maxDepthKey)

	cmd.AddCommand(newDiffCmd(), newApplyCmd(), newCheckCmd(), newVersionCmd())
	return cmd
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func newParser() *vdom.Parser {
	return vdom.NewParser(vdom.WithMaxDepth(viper.GetInt(maxDepthKey)))
}

func parseFile(p *vdom.Parser, path string) (*vdom.Node, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tree, err := p.Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
