// Package cmd implements CLI commands using the cobra framework.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elementio/elementio/internal/errs"
)

var (
	configFile string
	pluginDirs []string
	pluginFiles []string
	listElements bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "elementio",
	Short: "elementio runs a declarative streaming dataflow graph",
	Long: `elementio executes a graph of pluggable elements wired together into
tasks that exchange reference-counted messages over typed ports.

Elements ship either built in or as Go plugins loaded from --plugin-dir
or --plugin-file at startup. The graph document describes which
elements to instantiate, how to configure them, and how their ports
connect.`,
	Version: "0.1.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to
// happen once to rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"graph document path (required)")
	rootCmd.PersistentFlags().StringArrayVar(&pluginDirs, "plugin-dir", nil,
		"directory to scan for .so element plugins (repeatable)")
	rootCmd.PersistentFlags().StringArrayVar(&pluginFiles, "plugin-file", nil,
		"single .so element plugin to load (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&listElements, "list-elements", false,
		"list every registered element and exit")
}

// exitWithError prints msg (plus err, if any) to stderr and exits with
// the code matching err's sentinel kind: config/type-mismatch errors
// exit 2, plugin-load errors exit 3, anything else exits 1.
func exitWithError(msg string, err error) {
	code := errs.ExitRuntimeError
	switch {
	case errors.Is(err, errs.ErrPluginLoad):
		code = errs.ExitPluginLoadError
	case errors.Is(err, errs.ErrConfig), errors.Is(err, errs.ErrTypeMismatch):
		code = errs.ExitConfigError
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(code)
}
